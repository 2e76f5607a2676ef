package repository

import (
	"database/sql"

	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// recordTable describes how one record kind maps onto its table.
// fields returns scan destinations for the kind columns; values returns the same columns as args.
type recordTable[T domain.Record] struct {
	name    string
	columns []string
	newRec  func() T
	fields  func(T) []any
	values  func(T) []any
	clone   func(T) T
}

var foodTable = recordTable[*domain.FoodRecord]{
	name: "food_records",
	columns: []string{
		"meal_time", "main_course_percentage", "side_dish_percentage", "soup_percentage",
		"beverage_type", "beverage_volume",
	},
	newRec: func() *domain.FoodRecord { return &domain.FoodRecord{} },
	fields: func(r *domain.FoodRecord) []any {
		return []any{&r.MealTime, &r.MainCoursePercentage, &r.SideDishPercentage, &r.SoupPercentage,
			&r.BeverageType, &r.BeverageVolume}
	},
	values: func(r *domain.FoodRecord) []any {
		return []any{string(r.MealTime), r.MainCoursePercentage, r.SideDishPercentage, r.SoupPercentage,
			string(r.BeverageType), r.BeverageVolume}
	},
	clone: func(r *domain.FoodRecord) *domain.FoodRecord {
		c := *r
		c.RecordBase = cloneBase(r.RecordBase)
		return &c
	},
}

var bathTable = recordTable[*domain.BathRecord]{
	name:    "bath_records",
	columns: []string{"bath_method"},
	newRec:  func() *domain.BathRecord { return &domain.BathRecord{} },
	fields:  func(r *domain.BathRecord) []any { return []any{&r.BathMethod} },
	values:  func(r *domain.BathRecord) []any { return []any{r.BathMethod} },
	clone: func(r *domain.BathRecord) *domain.BathRecord {
		c := *r
		c.RecordBase = cloneBase(r.RecordBase)
		return &c
	},
}

var eliminationTable = recordTable[*domain.EliminationRecord]{
	name: "elimination_records",
	columns: []string{
		"elimination_method", "has_feces", "fecal_incontinence", "feces_appearance", "feces_volume",
		"has_urine", "urinary_incontinence", "urine_appearance", "urine_volume",
	},
	newRec: func() *domain.EliminationRecord { return &domain.EliminationRecord{} },
	fields: func(r *domain.EliminationRecord) []any {
		return []any{&r.EliminationMethod, &r.HasFeces, &r.FecalIncontinence, &r.FecesAppearance, &r.FecesVolume,
			&r.HasUrine, &r.UrinaryIncontinence, &r.UrineAppearance, &r.UrineVolume}
	},
	values: func(r *domain.EliminationRecord) []any {
		return []any{r.EliminationMethod, r.HasFeces, nullBool(r.FecalIncontinence), r.FecesAppearance,
			nullInt(r.FecesVolume), r.HasUrine, nullBool(r.UrinaryIncontinence), r.UrineAppearance, nullInt(r.UrineVolume)}
	},
	clone: func(r *domain.EliminationRecord) *domain.EliminationRecord {
		c := *r
		c.RecordBase = cloneBase(r.RecordBase)
		c.FecalIncontinence = clonePtr(r.FecalIncontinence)
		c.FecesAppearance = cloneStr(r.FecesAppearance)
		c.FecesVolume = clonePtr(r.FecesVolume)
		c.UrinaryIncontinence = clonePtr(r.UrinaryIncontinence)
		c.UrineAppearance = cloneStr(r.UrineAppearance)
		c.UrineVolume = clonePtr(r.UrineVolume)
		return &c
	},
}

var beverageTable = recordTable[*domain.BeverageRecord]{
	name:    "beverage_records",
	columns: []string{"beverage_type", "volume"},
	newRec:  func() *domain.BeverageRecord { return &domain.BeverageRecord{} },
	fields:  func(r *domain.BeverageRecord) []any { return []any{&r.BeverageType, &r.Volume} },
	values:  func(r *domain.BeverageRecord) []any { return []any{string(r.BeverageType), r.Volume} },
	clone: func(r *domain.BeverageRecord) *domain.BeverageRecord {
		c := *r
		c.RecordBase = cloneBase(r.RecordBase)
		return &c
	},
}

var dailyTable = recordTable[*domain.DailyRecord]{
	name:    "daily_records",
	columns: []string{"daily_status"},
	newRec:  func() *domain.DailyRecord { return &domain.DailyRecord{} },
	fields:  func(r *domain.DailyRecord) []any { return []any{&r.DailyStatus} },
	values: func(r *domain.DailyRecord) []any {
		if r.DailyStatus == nil {
			return []any{nil}
		}
		return []any{string(*r.DailyStatus)}
	},
	clone: func(r *domain.DailyRecord) *domain.DailyRecord {
		c := *r
		c.RecordBase = cloneBase(r.RecordBase)
		c.DailyStatus = clonePtr(r.DailyStatus)
		return &c
	},
}

func cloneBase(b domain.RecordBase) domain.RecordBase {
	b.Notes = cloneStr(b.Notes)
	b.Transcription = cloneStr(b.Transcription)
	return b
}

func clonePtr[V any](p *V) *V {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

func nullBool(p *bool) sql.NullBool {
	if p == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *p, Valid: true}
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

// Per-kind constructors.

func NewPostgresFoodRecordRepo(db *sql.DB) *PostgresRecordRepository[*domain.FoodRecord] {
	return newPostgresRecordRepo(db, foodTable)
}

func NewPostgresBathRecordRepo(db *sql.DB) *PostgresRecordRepository[*domain.BathRecord] {
	return newPostgresRecordRepo(db, bathTable)
}

func NewPostgresEliminationRecordRepo(db *sql.DB) *PostgresRecordRepository[*domain.EliminationRecord] {
	return newPostgresRecordRepo(db, eliminationTable)
}

func NewPostgresBeverageRecordRepo(db *sql.DB) *PostgresRecordRepository[*domain.BeverageRecord] {
	return newPostgresRecordRepo(db, beverageTable)
}

func NewPostgresDailyRecordRepo(db *sql.DB) *PostgresRecordRepository[*domain.DailyRecord] {
	return newPostgresRecordRepo(db, dailyTable)
}

func NewMemoryFoodRecordRepo() *MemoryRecordRepo[*domain.FoodRecord] {
	return newMemoryRecordRepo(foodTable.clone)
}

func NewMemoryBathRecordRepo() *MemoryRecordRepo[*domain.BathRecord] {
	return newMemoryRecordRepo(bathTable.clone)
}

func NewMemoryEliminationRecordRepo() *MemoryRecordRepo[*domain.EliminationRecord] {
	return newMemoryRecordRepo(eliminationTable.clone)
}

func NewMemoryBeverageRecordRepo() *MemoryRecordRepo[*domain.BeverageRecord] {
	return newMemoryRecordRepo(beverageTable.clone)
}

func NewMemoryDailyRecordRepo() *MemoryRecordRepo[*domain.DailyRecord] {
	return newMemoryRecordRepo(dailyTable.clone)
}

var (
	_ RecordRepository[*domain.FoodRecord]        = (*PostgresRecordRepository[*domain.FoodRecord])(nil)
	_ RecordRepository[*domain.EliminationRecord] = (*MemoryRecordRepo[*domain.EliminationRecord])(nil)
)

package service

import (
	"context"
	"fmt"
	"time"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/llm"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

// set copies *in to *dst after check. A nil in is an error only on create.
func set[V any](name string, in *V, dst *V, create bool, check func(V) error) error {
	if in == nil {
		if create {
			return policy.ErrBadRequest(name + " is required")
		}
		return nil
	}
	if check != nil {
		if err := check(*in); err != nil {
			return err
		}
	}
	*dst = *in
	return nil
}

// setOptional is set for nullable columns: nil leaves dst untouched and is never required.
func setOptional[V any](in *V, dst **V, check func(V) error) error {
	if in == nil {
		return nil
	}
	if check != nil {
		if err := check(*in); err != nil {
			return err
		}
	}
	v := *in
	*dst = &v
	return nil
}

func pct(name string) func(int) error { return func(v int) error { return percentage(name, v) } }

func nonNeg(name string) func(int) error { return func(v int) error { return nonNegative(name, v) } }

func notBlank(name string) func(string) error { return func(v string) error { return required(name, v) } }

func validMealTime(m domain.MealTime) error {
	if !m.Valid() {
		return policy.ErrBadRequest("mealTime must be BREAKFAST, LUNCH or DINNER")
	}
	return nil
}

func validBeverageType(b domain.BeverageType) error {
	if !b.Valid() {
		return policy.ErrBadRequest("beverageType must be WATER, TEA or OTHER")
	}
	return nil
}

func validDailyStatus(d domain.DailyStatus) error {
	if !d.Valid() {
		return policy.ErrBadRequest("dailyStatus must be NORMAL, WARNING or ALERT")
	}
	return nil
}

// ---- food ----

type FoodRecordInput struct {
	RecordInput
	MealTime             *domain.MealTime     `json:"mealTime"`
	MainCoursePercentage *int                 `json:"mainCoursePercentage"`
	SideDishPercentage   *int                 `json:"sideDishPercentage"`
	SoupPercentage       *int                 `json:"soupPercentage"`
	BeverageType         *domain.BeverageType `json:"beverageType"`
	BeverageVolume       *int                 `json:"beverageVolume"`
}

func applyFood(r *domain.FoodRecord, in FoodRecordInput, create bool) error {
	return firstErr(
		set("mealTime", in.MealTime, &r.MealTime, create, validMealTime),
		set("mainCoursePercentage", in.MainCoursePercentage, &r.MainCoursePercentage, create, pct("mainCoursePercentage")),
		set("sideDishPercentage", in.SideDishPercentage, &r.SideDishPercentage, create, pct("sideDishPercentage")),
		set("soupPercentage", in.SoupPercentage, &r.SoupPercentage, create, pct("soupPercentage")),
		set("beverageType", in.BeverageType, &r.BeverageType, create, validBeverageType),
		set("beverageVolume", in.BeverageVolume, &r.BeverageVolume, create, nonNeg("beverageVolume")),
	)
}

// ---- bath ----

type BathRecordInput struct {
	RecordInput
	BathMethod *string `json:"bathMethod"`
}

func applyBath(r *domain.BathRecord, in BathRecordInput, create bool) error {
	return set("bathMethod", in.BathMethod, &r.BathMethod, create, notBlank("bathMethod"))
}

// ---- elimination ----

type EliminationRecordInput struct {
	RecordInput
	EliminationMethod   *string `json:"eliminationMethod"`
	HasFeces            *bool   `json:"hasFeces"`
	FecalIncontinence   *bool   `json:"fecalIncontinence"`
	FecesAppearance     *string `json:"fecesAppearance"`
	FecesVolume         *int    `json:"fecesVolume"`
	HasUrine            *bool   `json:"hasUrine"`
	UrinaryIncontinence *bool   `json:"urinaryIncontinence"`
	UrineAppearance     *string `json:"urineAppearance"`
	UrineVolume         *int    `json:"urineVolume"`
}

func applyElimination(r *domain.EliminationRecord, in EliminationRecordInput, create bool) error {
	return firstErr(
		set("eliminationMethod", in.EliminationMethod, &r.EliminationMethod, create, notBlank("eliminationMethod")),
		set("hasFeces", in.HasFeces, &r.HasFeces, create, nil),
		setOptional(in.FecalIncontinence, &r.FecalIncontinence, nil),
		setOptional(in.FecesAppearance, &r.FecesAppearance, nil),
		setOptional(in.FecesVolume, &r.FecesVolume, nonNeg("fecesVolume")),
		set("hasUrine", in.HasUrine, &r.HasUrine, create, nil),
		setOptional(in.UrinaryIncontinence, &r.UrinaryIncontinence, nil),
		setOptional(in.UrineAppearance, &r.UrineAppearance, nil),
		setOptional(in.UrineVolume, &r.UrineVolume, nonNeg("urineVolume")),
	)
}

// ---- beverage ----

type BeverageRecordInput struct {
	RecordInput
	BeverageType *domain.BeverageType `json:"beverageType"`
	Volume       *int                 `json:"volume"`
}

func applyBeverage(r *domain.BeverageRecord, in BeverageRecordInput, create bool) error {
	return firstErr(
		set("beverageType", in.BeverageType, &r.BeverageType, create, validBeverageType),
		set("volume", in.Volume, &r.Volume, create, nonNeg("volume")),
	)
}

// ---- daily ----

type DailyRecordInput struct {
	RecordInput
	DailyStatus *domain.DailyStatus `json:"dailyStatus"`
}

func applyDaily(r *domain.DailyRecord, in DailyRecordInput, _ bool) error {
	return setOptional(in.DailyStatus, &r.DailyStatus, validDailyStatus)
}

type (
	BathRecordService        = RecordService[*domain.BathRecord, BathRecordInput]
	EliminationRecordService = RecordService[*domain.EliminationRecord, EliminationRecordInput]
	BeverageRecordService    = RecordService[*domain.BeverageRecord, BeverageRecordInput]
	DailyRecordService       = RecordService[*domain.DailyRecord, DailyRecordInput]
)

// RecordDeps is shared by every record service constructor.
type RecordDeps struct {
	Coordinator *policy.Coordinator
	Residents   repository.ResidentsRepository
	Hooks       RecordHooks
	Logger      *zap.Logger
}

func newRecordService[T domain.Record, In recordInput](d RecordDeps, kind policy.Kind,
	repo repository.RecordRepository[T], newRec func() T, apply func(T, In, bool) error,
	ex policy.Extractor[T, any]) *RecordService[T, In] {
	return &RecordService[T, In]{
		kind:      kind,
		coord:     d.Coordinator,
		repo:      repo,
		residents: d.Residents,
		newRec:    newRec,
		apply:     apply,
		extractor: ex,
		hooks:     d.Hooks,
		logger:    d.Logger,
	}
}

func NewBathRecordService(d RecordDeps, repo repository.RecordRepository[*domain.BathRecord],
	ex policy.Extractor[*domain.BathRecord, llm.BathExtraction]) *BathRecordService {
	return newRecordService(d, policy.KindBath, repo, func() *domain.BathRecord { return &domain.BathRecord{} },
		applyBath, eraseExtractor(ex))
}

func NewEliminationRecordService(d RecordDeps, repo repository.RecordRepository[*domain.EliminationRecord],
	ex policy.Extractor[*domain.EliminationRecord, llm.EliminationExtraction]) *EliminationRecordService {
	return newRecordService(d, policy.KindElimination, repo, func() *domain.EliminationRecord { return &domain.EliminationRecord{} },
		applyElimination, eraseExtractor(ex))
}

func NewBeverageRecordService(d RecordDeps, repo repository.RecordRepository[*domain.BeverageRecord],
	ex policy.Extractor[*domain.BeverageRecord, llm.BeverageExtraction]) *BeverageRecordService {
	return newRecordService(d, policy.KindBeverage, repo, func() *domain.BeverageRecord { return &domain.BeverageRecord{} },
		applyBeverage, eraseExtractor(ex))
}

func NewDailyRecordService(d RecordDeps, repo repository.RecordRepository[*domain.DailyRecord],
	ex policy.Extractor[*domain.DailyRecord, llm.DailyExtraction]) *DailyRecordService {
	return newRecordService(d, policy.KindDaily, repo, func() *domain.DailyRecord { return &domain.DailyRecord{} },
		applyDaily, eraseExtractor(ex))
}

// FoodRecordService adds the per-day meal summary on top of the generic operations.
type FoodRecordService struct {
	*RecordService[*domain.FoodRecord, FoodRecordInput]
}

func NewFoodRecordService(d RecordDeps, repo repository.RecordRepository[*domain.FoodRecord],
	ex policy.Extractor[*domain.FoodRecord, llm.FoodExtraction]) *FoodRecordService {
	return &FoodRecordService{newRecordService(d, policy.KindFood, repo, func() *domain.FoodRecord { return &domain.FoodRecord{} },
		applyFood, eraseExtractor(ex))}
}

// DailyFoodRecords 按日饮食记录
type DailyFoodRecords struct {
	Date      string             `json:"date"`
	Breakfast *domain.FoodRecord `json:"breakfast,omitempty"`
	Lunch     *domain.FoodRecord `json:"lunch,omitempty"`
	Dinner    *domain.FoodRecord `json:"dinner,omitempty"`
}

// DailySummaryRequest dates are YYYY-MM-DD in facility time; empty means the last 30 days.
type DailySummaryRequest struct {
	StartDate string
	EndDate   string
}

const (
	dateLayout          = "2006-01-02"
	defaultSummaryDays  = 30
	maxSummaryRangeDays = 366
)

func parseDate(field, s string) (time.Time, error) {
	t, err := time.ParseInLocation(dateLayout, s, jst)
	if err != nil {
		return time.Time{}, policy.ErrBadRequest(field + " must be YYYY-MM-DD")
	}
	return t, nil
}

// DailySummary returns one entry per date in [start, end], newest first. Each meal
// slot holds the latest record of that meal on that date.
func (s *FoodRecordService) DailySummary(ctx context.Context, caller policy.Caller, residentUID string, req DailySummaryRequest) (*ListResponse[*DailyFoodRecords], error) {
	now := s.coord.Now().In(jst)
	end := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, jst)
	var err error
	if req.EndDate != "" {
		if end, err = parseDate("endDate", req.EndDate); err != nil {
			return nil, err
		}
	}
	start := end.AddDate(0, 0, -(defaultSummaryDays - 1))
	if req.StartDate != "" {
		if start, err = parseDate("startDate", req.StartDate); err != nil {
			return nil, err
		}
	}
	if start.After(end) {
		return nil, policy.ErrBadRequest("startDate must not be after endDate")
	}
	if end.Sub(start) > maxSummaryRangeDays*24*time.Hour {
		return nil, policy.ErrBadRequest(fmt.Sprintf("date range must not exceed %d days", maxSummaryRangeDays))
	}

	list, err := s.List(ctx, caller, residentUID, repository.RecordFilter{From: start, To: end.AddDate(0, 0, 1)})
	if err != nil {
		return nil, err
	}

	byDate := map[string]*DailyFoodRecords{}
	for _, r := range list.Items {
		day := r.RecordedAt.In(jst).Format(dateLayout)
		e, ok := byDate[day]
		if !ok {
			e = &DailyFoodRecords{Date: day}
			byDate[day] = e
		}
		// items are recordedAt desc: the first one seen per meal is the latest
		switch r.MealTime {
		case domain.MealBreakfast:
			if e.Breakfast == nil {
				e.Breakfast = r
			}
		case domain.MealLunch:
			if e.Lunch == nil {
				e.Lunch = r
			}
		case domain.MealDinner:
			if e.Dinner == nil {
				e.Dinner = r
			}
		}
	}

	var out []*DailyFoodRecords
	for d := end; !d.Before(start); d = d.AddDate(0, 0, -1) {
		key := d.Format(dateLayout)
		if e, ok := byDate[key]; ok {
			out = append(out, e)
			continue
		}
		out = append(out, &DailyFoodRecords{Date: key})
	}
	return newList(out, len(out)), nil
}

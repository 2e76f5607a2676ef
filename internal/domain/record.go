package domain

import (
	"errors"
	"time"
)

// Repository boundary sentinels.
var (
	ErrNotFound      = errors.New("not found")
	ErrAlreadyExists = errors.New("already exists")
)

// Ownership is the part of any tenant-owned record that authorization reasons about.
type Ownership struct {
	UID        string
	TenantUID  string
	AuthorUID  *string
	RecordedAt time.Time
}

// RecordBase 观察记录公共字段（food/bath/elimination/beverage/daily 各表共通）
type RecordBase struct {
	UID           string    `json:"uid" db:"uid"`
	TenantUID     string    `json:"tenantUid" db:"tenant_uid"`
	ResidentUID   string    `json:"residentUid" db:"resident_uid"`
	CaregiverUID  string    `json:"caregiverUid" db:"caregiver_uid"`
	RecordedAt    time.Time `json:"recordedAt" db:"recorded_at"`
	Notes         *string   `json:"notes" db:"notes"`
	Transcription *string   `json:"transcription" db:"transcription"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

// Base gives generic code access to the shared columns.
func (b *RecordBase) Base() *RecordBase { return b }

func (b *RecordBase) Ownership() Ownership {
	author := b.CaregiverUID
	return Ownership{UID: b.UID, TenantUID: b.TenantUID, AuthorUID: &author, RecordedAt: b.RecordedAt}
}

// Record is implemented by pointers to every observation record type.
type Record interface {
	Base() *RecordBase
	Ownership() Ownership
}

// MealTime 餐次
type MealTime string

const (
	MealBreakfast MealTime = "BREAKFAST"
	MealLunch     MealTime = "LUNCH"
	MealDinner    MealTime = "DINNER"
)

func (m MealTime) Valid() bool {
	return m == MealBreakfast || m == MealLunch || m == MealDinner
}

// BeverageType 饮品种类
type BeverageType string

const (
	BeverageWater BeverageType = "WATER"
	BeverageTea   BeverageType = "TEA"
	BeverageOther BeverageType = "OTHER"
)

func (b BeverageType) Valid() bool {
	return b == BeverageWater || b == BeverageTea || b == BeverageOther
}

// DailyStatus 日常状態
type DailyStatus string

const (
	DailyNormal  DailyStatus = "NORMAL"
	DailyWarning DailyStatus = "WARNING"
	DailyAlert   DailyStatus = "ALERT"
)

func (d DailyStatus) Valid() bool {
	return d == DailyNormal || d == DailyWarning || d == DailyAlert
}

// FoodRecord 饮食记录
type FoodRecord struct {
	RecordBase
	MealTime             MealTime     `json:"mealTime" db:"meal_time"`
	MainCoursePercentage int          `json:"mainCoursePercentage" db:"main_course_percentage"` // 0-100
	SideDishPercentage   int          `json:"sideDishPercentage" db:"side_dish_percentage"`     // 0-100
	SoupPercentage       int          `json:"soupPercentage" db:"soup_percentage"`              // 0-100
	BeverageType         BeverageType `json:"beverageType" db:"beverage_type"`
	BeverageVolume       int          `json:"beverageVolume" db:"beverage_volume"` // ml
}

// BathRecord 入浴记录
type BathRecord struct {
	RecordBase
	BathMethod string `json:"bathMethod" db:"bath_method"`
}

// EliminationRecord 排泄记录
type EliminationRecord struct {
	RecordBase
	EliminationMethod   string  `json:"eliminationMethod" db:"elimination_method"`
	HasFeces            bool    `json:"hasFeces" db:"has_feces"`
	FecalIncontinence   *bool   `json:"fecalIncontinence" db:"fecal_incontinence"`
	FecesAppearance     *string `json:"fecesAppearance" db:"feces_appearance"`
	FecesVolume         *int    `json:"fecesVolume" db:"feces_volume"` // g
	HasUrine            bool    `json:"hasUrine" db:"has_urine"`
	UrinaryIncontinence *bool   `json:"urinaryIncontinence" db:"urinary_incontinence"`
	UrineAppearance     *string `json:"urineAppearance" db:"urine_appearance"`
	UrineVolume         *int    `json:"urineVolume" db:"urine_volume"` // ml
}

// BeverageRecord 饮水记录
type BeverageRecord struct {
	RecordBase
	BeverageType BeverageType `json:"beverageType" db:"beverage_type"`
	Volume       int          `json:"volume" db:"volume"` // ml
}

// DailyRecord 日常记录
type DailyRecord struct {
	RecordBase
	DailyStatus *DailyStatus `json:"dailyStatus" db:"daily_status"`
}

package repository

import (
	"context"
	"time"

	"github.com/yuta0709/nagara-care-api/internal/domain"
)

// RecordFilter narrows a resident's records to [From, To). Zero values are open bounds.
type RecordFilter struct {
	From time.Time
	To   time.Time
}

func (f RecordFilter) match(t time.Time) bool {
	if !f.From.IsZero() && t.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && !t.Before(f.To) {
		return false
	}
	return true
}

// RecordRepository 观察记录Repository接口（food/bath/elimination/beverage/daily 共用）
//
// T is a pointer record type such as *domain.FoodRecord.
// ListByResident returns records ordered by recorded_at desc plus the total count.
type RecordRepository[T domain.Record] interface {
	Get(ctx context.Context, uid string) (T, error)
	ListByResident(ctx context.Context, residentUID string, f RecordFilter) ([]T, int, error)
	Create(ctx context.Context, rec T) error
	Update(ctx context.Context, rec T) error
	Delete(ctx context.Context, uid string) error

	// SetTranscription writes only the transcription column; nil clears it.
	SetTranscription(ctx context.Context, uid string, text *string) error
}

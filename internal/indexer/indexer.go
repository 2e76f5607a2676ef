// Package indexer keeps the vector index in sync with daily and food records.
//
// Record services publish an Event after every write; the consumer loads the
// record and resident, formats them as text and upserts the document keyed by
// record uid. Failures are logged and never reach the API caller.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"github.com/yuta0709/nagara-care-api/internal/vectorstore"
	"go.uber.org/zap"
)

// Op 索引操作
type Op string

const (
	OpUpsert Op = "upsert"
	OpDelete Op = "delete"
)

// Kinds indexed for RAG.
const (
	KindDaily = "daily"
	KindFood  = "food"
)

// Metadata sources.
const (
	SourceDaily = "daily_record"
	SourceFood  = "food_record"
)

// Event is one index instruction.
type Event struct {
	Op   Op     `json:"op"`
	Kind string `json:"kind"`
	UID  string `json:"uid"`
}

// Indexable reports whether kind is mirrored into the vector index.
func Indexable(kind string) bool {
	return kind == KindDaily || kind == KindFood
}

// DocumentWriter is the write side of vectorstore.Store.
type DocumentWriter interface {
	AddDocuments(ctx context.Context, docs []vectorstore.Document) error
	Delete(ctx context.Context, ids ...string) error
}

var _ DocumentWriter = (*vectorstore.Store)(nil)

// Indexer 把记录写入向量索引
type Indexer struct {
	daily     repository.RecordRepository[*domain.DailyRecord]
	food      repository.RecordRepository[*domain.FoodRecord]
	residents repository.ResidentsRepository
	docs      DocumentWriter
	logger    *zap.Logger
}

func NewIndexer(
	daily repository.RecordRepository[*domain.DailyRecord],
	food repository.RecordRepository[*domain.FoodRecord],
	residents repository.ResidentsRepository,
	docs DocumentWriter,
	logger *zap.Logger,
) *Indexer {
	return &Indexer{daily: daily, food: food, residents: residents, docs: docs, logger: logger}
}

// Handle applies one event. A record that disappeared before indexing is removed from the index.
func (ix *Indexer) Handle(ctx context.Context, ev Event) error {
	if !Indexable(ev.Kind) {
		return fmt.Errorf("kind %q is not indexed", ev.Kind)
	}
	if ev.Op == OpDelete {
		return ix.docs.Delete(ctx, ev.UID)
	}

	doc, err := ix.document(ctx, ev)
	if errors.Is(err, domain.ErrNotFound) {
		ix.logger.Debug("Record gone before indexing", zap.String("record_id", ev.UID))
		return ix.docs.Delete(ctx, ev.UID)
	}
	if err != nil {
		return err
	}
	return ix.docs.AddDocuments(ctx, []vectorstore.Document{doc})
}

func (ix *Indexer) document(ctx context.Context, ev Event) (vectorstore.Document, error) {
	var base *domain.RecordBase
	var render func(*domain.Resident) string
	source := SourceDaily

	switch ev.Kind {
	case KindDaily:
		rec, err := ix.daily.Get(ctx, ev.UID)
		if err != nil {
			return vectorstore.Document{}, err
		}
		base = &rec.RecordBase
		render = func(res *domain.Resident) string { return FormatDailyRecord(rec, res) }
	case KindFood:
		rec, err := ix.food.Get(ctx, ev.UID)
		if err != nil {
			return vectorstore.Document{}, err
		}
		base = &rec.RecordBase
		source = SourceFood
		render = func(res *domain.Resident) string { return FormatFoodRecord(rec, res) }
	}

	res, err := ix.residents.GetResident(ctx, base.ResidentUID)
	if err != nil {
		return vectorstore.Document{}, fmt.Errorf("load resident %s: %w", base.ResidentUID, err)
	}
	return vectorstore.Document{
		ID:          base.UID,
		PageContent: render(res),
		Metadata: map[string]any{
			"source":    source,
			"uid":       base.UID,
			"tenantUid": base.TenantUID,
		},
	}, nil
}

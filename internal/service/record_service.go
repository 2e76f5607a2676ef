package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/yuta0709/nagara-care-api/internal/domain"
	"github.com/yuta0709/nagara-care-api/internal/indexer"
	"github.com/yuta0709/nagara-care-api/internal/metrics"
	"github.com/yuta0709/nagara-care-api/internal/notify"
	"github.com/yuta0709/nagara-care-api/internal/policy"
	"github.com/yuta0709/nagara-care-api/internal/repository"
	"go.uber.org/zap"
)

// RecordInput 观察记录共通输入
type RecordInput struct {
	RecordedAt *time.Time `json:"recordedAt"`
	Notes      *string    `json:"notes"`
}

func (in RecordInput) common() RecordInput { return in }

type recordInput interface {
	common() RecordInput
}

// RecordHooks are the side effects of a successful write. Nil members are skipped.
type RecordHooks struct {
	Notifier notify.Notifier
	Index    indexer.Publisher
	Metrics  *metrics.Registry
}

// TranscriptionRequest PATCH（追記）/ PUT（置換）
type TranscriptionRequest struct {
	Transcription string `json:"transcription"`
}

// TranscriptionResponse 转写文本
type TranscriptionResponse struct {
	Transcription *string `json:"transcription"`
}

// RecordService runs every entry point of one observation kind through the
// coordinator: load, tenant scope, capability, then author and window on update.
//
// T is the record pointer type, In the create/update input of that kind.
type RecordService[T domain.Record, In recordInput] struct {
	kind      policy.Kind
	coord     *policy.Coordinator
	repo      repository.RecordRepository[T]
	residents repository.ResidentsRepository
	newRec    func() T
	apply     func(rec T, in In, create bool) error
	extractor policy.Extractor[T, any]
	hooks     RecordHooks
	logger    *zap.Logger
}

func (s *RecordService[T, In]) Kind() policy.Kind { return s.kind }

func (s *RecordService[T, In]) resident(ctx context.Context, residentUID string) (*domain.Resident, error) {
	res, err := s.residents.GetResident(ctx, residentUID)
	if err != nil {
		return nil, notFoundOr(err, "resident")
	}
	return res, nil
}

// loader fetches uid; a record filed under another resident is reported as absent.
func (s *RecordService[T, In]) loader(residentUID, uid string) func(context.Context) (T, error) {
	return func(ctx context.Context) (T, error) {
		var zero T
		rec, err := s.repo.Get(ctx, uid)
		if err != nil {
			return zero, err
		}
		if rec.Base().ResidentUID != residentUID {
			return zero, domain.ErrNotFound
		}
		return rec, nil
	}
}

func (s *RecordService[T, In]) List(ctx context.Context, caller policy.Caller, residentUID string, f repository.RecordFilter) (*ListResponse[T], error) {
	res, err := s.resident(ctx, residentUID)
	if err != nil {
		return nil, err
	}
	if err := s.coord.AuthorizeTenant(caller, policy.ActionRead, s.kind, res.TenantUID); err != nil {
		return nil, err
	}
	items, total, err := s.repo.ListByResident(ctx, residentUID, f)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s records: %w", s.kind, err)
	}
	return newList(items, total), nil
}

func (s *RecordService[T, In]) Get(ctx context.Context, caller policy.Caller, residentUID, uid string) (T, error) {
	return policy.Load(ctx, s.coord, caller, policy.ActionRead, s.kind, s.loader(residentUID, uid))
}

// Create files a new record under the resident's tenant with the caller as author.
// recordedAt defaults to now and may not be in the future.
func (s *RecordService[T, In]) Create(ctx context.Context, caller policy.Caller, residentUID string, in In) (T, error) {
	var zero T
	res, err := s.resident(ctx, residentUID)
	if err != nil {
		return zero, err
	}
	if err := s.coord.AuthorizeTenant(caller, policy.ActionCreate, s.kind, res.TenantUID); err != nil {
		return zero, err
	}

	rec := s.newRec()
	b := rec.Base()
	c := in.common()
	b.TenantUID = res.TenantUID
	b.ResidentUID = res.UID
	b.CaregiverUID = caller.UserID
	b.RecordedAt = s.coord.Now().UTC()
	if c.RecordedAt != nil {
		if err := s.coord.CheckRecordedAt(caller, s.kind, *c.RecordedAt, nil); err != nil {
			return zero, err
		}
		b.RecordedAt = c.RecordedAt.UTC()
	}
	b.Notes = c.Notes
	if err := s.apply(rec, in, true); err != nil {
		return zero, err
	}
	if err := s.repo.Create(ctx, rec); err != nil {
		return zero, fmt.Errorf("failed to create %s record: %w", s.kind, err)
	}
	s.logger.Info("Record created",
		zap.String("kind", string(s.kind)),
		zap.String("tenant_id", b.TenantUID),
		zap.String("user_id", caller.UserID),
		zap.String("record_id", b.UID),
	)
	s.changed(ctx, notify.EventCreated, rec)
	return rec, nil
}

func (s *RecordService[T, In]) Update(ctx context.Context, caller policy.Caller, residentUID, uid string, in In) (T, error) {
	return policy.Run(ctx, s.coord, caller, policy.ActionUpdate, s.kind, s.loader(residentUID, uid),
		func(ctx context.Context, rec T) (T, error) {
			var zero T
			b := rec.Base()
			c := in.common()
			if c.RecordedAt != nil {
				if err := s.coord.CheckRecordedAt(caller, s.kind, *c.RecordedAt, &b.RecordedAt); err != nil {
					return zero, err
				}
				b.RecordedAt = c.RecordedAt.UTC()
			}
			if c.Notes != nil {
				b.Notes = c.Notes
			}
			if err := s.apply(rec, in, false); err != nil {
				return zero, err
			}
			if err := s.repo.Update(ctx, rec); err != nil {
				return zero, notFoundOr(err, string(s.kind)+" record")
			}
			s.changed(ctx, notify.EventUpdated, rec)
			return rec, nil
		})
}

func (s *RecordService[T, In]) Delete(ctx context.Context, caller policy.Caller, residentUID, uid string) error {
	_, err := policy.Run(ctx, s.coord, caller, policy.ActionDelete, s.kind, s.loader(residentUID, uid),
		func(ctx context.Context, rec T) (struct{}, error) {
			if err := s.repo.Delete(ctx, uid); err != nil {
				return struct{}{}, notFoundOr(err, string(s.kind)+" record")
			}
			s.logger.Info("Record deleted",
				zap.String("kind", string(s.kind)),
				zap.String("user_id", caller.UserID),
				zap.String("record_id", uid),
			)
			s.changed(ctx, notify.EventDeleted, rec)
			return struct{}{}, nil
		})
	return err
}

func (s *RecordService[T, In]) GetTranscription(ctx context.Context, caller policy.Caller, residentUID, uid string) (*TranscriptionResponse, error) {
	rec, err := policy.Load(ctx, s.coord, caller, policy.ActionTranscriptionRead, s.kind, s.loader(residentUID, uid))
	if err != nil {
		return nil, err
	}
	return &TranscriptionResponse{Transcription: rec.Base().Transcription}, nil
}

func (s *RecordService[T, In]) AppendTranscription(ctx context.Context, caller policy.Caller, residentUID, uid, text string) (*TranscriptionResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, policy.ErrBadRequest("transcription is required")
	}
	return s.setTranscription(ctx, caller, residentUID, uid, policy.ActionTranscriptionAppend, func(cur *string) *string {
		return policy.AppendTranscription(cur, text)
	})
}

func (s *RecordService[T, In]) ReplaceTranscription(ctx context.Context, caller policy.Caller, residentUID, uid, text string) (*TranscriptionResponse, error) {
	if strings.TrimSpace(text) == "" {
		return nil, policy.ErrBadRequest("transcription is required")
	}
	return s.setTranscription(ctx, caller, residentUID, uid, policy.ActionTranscriptionReplace, func(*string) *string {
		return policy.ReplaceTranscription(text)
	})
}

func (s *RecordService[T, In]) ClearTranscription(ctx context.Context, caller policy.Caller, residentUID, uid string) (*TranscriptionResponse, error) {
	return s.setTranscription(ctx, caller, residentUID, uid, policy.ActionTranscriptionClear, func(*string) *string {
		return policy.ClearTranscription()
	})
}

func (s *RecordService[T, In]) setTranscription(ctx context.Context, caller policy.Caller, residentUID, uid string,
	action policy.Action, next func(*string) *string) (*TranscriptionResponse, error) {
	return policy.Run(ctx, s.coord, caller, action, s.kind, s.loader(residentUID, uid),
		func(ctx context.Context, rec T) (*TranscriptionResponse, error) {
			b := rec.Base()
			text := next(b.Transcription)
			if err := s.repo.SetTranscription(ctx, uid, text); err != nil {
				return nil, notFoundOr(err, string(s.kind)+" record")
			}
			b.Transcription = text
			s.changed(ctx, notify.EventUpdated, rec)
			return &TranscriptionResponse{Transcription: text}, nil
		})
}

var errExtractorMissing = errors.New("extractor not configured")

// Extract suggests field values from the record's transcription. Nothing is saved.
func (s *RecordService[T, In]) Extract(ctx context.Context, caller policy.Caller, residentUID, uid string) (any, error) {
	if s.extractor == nil {
		return nil, policy.ErrUpstream("extraction is unavailable", errExtractorMissing)
	}
	out, err := policy.Extract(ctx, s.coord, caller, s.kind, s.loader(residentUID, uid),
		func(rec T) *string { return rec.Base().Transcription }, s.extractor)
	switch {
	case err == nil, policy.CodeOf(err) == policy.CodeUpstream:
		s.observe("extract_"+string(s.kind), err)
	}
	if err != nil {
		s.logger.Warn("Extraction failed", zap.String("kind", string(s.kind)), zap.String("record_id", uid), zap.Error(err))
		return nil, err
	}
	return out, nil
}

func (s *RecordService[T, In]) observe(op string, err error) {
	if s.hooks.Metrics != nil {
		s.hooks.Metrics.ObserveUpstream(op, err)
	}
}

// changed fans a successful write out to notifications, metrics and the index.
func (s *RecordService[T, In]) changed(ctx context.Context, ev notify.Event, rec T) {
	b := rec.Base()
	if s.hooks.Notifier != nil {
		s.hooks.Notifier.RecordChanged(ctx, notify.RecordChange{
			Event:       ev,
			Kind:        string(s.kind),
			UID:         b.UID,
			TenantUID:   b.TenantUID,
			ResidentUID: b.ResidentUID,
			At:          s.coord.Now().UTC(),
		})
	}
	if s.hooks.Metrics != nil {
		s.hooks.Metrics.IncRecordChange(string(s.kind), string(ev))
	}
	if s.hooks.Index != nil {
		op := indexer.OpUpsert
		if ev == notify.EventDeleted {
			op = indexer.OpDelete
		}
		s.hooks.Index.Publish(ctx, indexer.Event{Op: op, Kind: string(s.kind), UID: b.UID})
	}
}

// eraseExtractor adapts a typed extractor to the service's any-valued slot.
func eraseExtractor[T any, P any](ex policy.Extractor[T, P]) policy.Extractor[T, any] {
	if ex == nil {
		return nil
	}
	return policy.ExtractorFunc[T, any](func(ctx context.Context, transcript string, current T) (any, error) {
		return ex.Extract(ctx, transcript, current)
	})
}

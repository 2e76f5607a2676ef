package policy

import (
	"context"
	"strings"
)

// Extractor turns a transcript plus the record's current state into suggested field values.
// Fields the transcript does not mention come back nil.
type Extractor[S any, P any] interface {
	Extract(ctx context.Context, transcript string, current S) (P, error)
}

// ExtractorFunc adapts a function to Extractor.
type ExtractorFunc[S any, P any] func(ctx context.Context, transcript string, current S) (P, error)

func (f ExtractorFunc[S, P]) Extract(ctx context.Context, transcript string, current S) (P, error) {
	return f(ctx, transcript, current)
}

// Extract authorizes the extract action, requires a non-empty transcription and
// hands the record to ex. Nothing is persisted.
func Extract[T OwnedRecord, P any](ctx context.Context, c *Coordinator, caller Caller, kind Kind,
	load func(context.Context) (T, error), transcriptOf func(T) *string, ex Extractor[T, P]) (P, error) {
	var zero P
	rec, err := Load(ctx, c, caller, ActionExtract, kind, load)
	if err != nil {
		return zero, err
	}
	t := transcriptOf(rec)
	if t == nil || strings.TrimSpace(*t) == "" {
		return zero, ErrBadRequest("no transcription to extract from")
	}
	out, err := ex.Extract(ctx, *t, rec)
	if err != nil {
		if CodeOf(err) != "" {
			return zero, err
		}
		return zero, ErrUpstream("extraction failed", err)
	}
	return out, nil
}

package indexer

import (
	"context"

	"github.com/go-redis/redis/v8"
	rediscommon "github.com/yuta0709/nagara-care-api/internal/common/redis"
	"go.uber.org/zap"
)

// Publisher hands index events to whatever applies them.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// StreamPublisher 发布到 Redis Stream，由 Consumer 异步处理
type StreamPublisher struct {
	client *redis.Client
	stream string
	logger *zap.Logger
}

func NewStreamPublisher(client *redis.Client, stream string, logger *zap.Logger) *StreamPublisher {
	return &StreamPublisher{client: client, stream: stream, logger: logger}
}

func (p *StreamPublisher) Publish(ctx context.Context, ev Event) {
	if !Indexable(ev.Kind) {
		return
	}
	id, err := rediscommon.PublishJSONToStream(ctx, p.client, p.stream, ev)
	if err != nil {
		p.logger.Error("Failed to publish index event",
			zap.String("stream", p.stream),
			zap.String("record_id", ev.UID),
			zap.Error(err),
		)
		return
	}
	p.logger.Debug("Index event published", zap.String("message_id", id), zap.String("record_id", ev.UID))
}

// InlinePublisher applies events in the request goroutine (no Redis).
type InlinePublisher struct {
	indexer *Indexer
	logger  *zap.Logger
}

func NewInlinePublisher(ix *Indexer, logger *zap.Logger) *InlinePublisher {
	return &InlinePublisher{indexer: ix, logger: logger}
}

func (p *InlinePublisher) Publish(ctx context.Context, ev Event) {
	if !Indexable(ev.Kind) {
		return
	}
	if err := p.indexer.Handle(ctx, ev); err != nil {
		p.logger.Error("Failed to index record", zap.String("record_id", ev.UID), zap.Error(err))
	}
}

// NopPublisher drops events (vector index not configured).
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}

var (
	_ Publisher = (*StreamPublisher)(nil)
	_ Publisher = (*InlinePublisher)(nil)
	_ Publisher = NopPublisher{}
)

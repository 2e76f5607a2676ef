package indexer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	rediscommon "github.com/yuta0709/nagara-care-api/internal/common/redis"
	"github.com/yuta0709/nagara-care-api/internal/config"
	"go.uber.org/zap"
)

// Consumer Redis Streams 消费者
type Consumer struct {
	client    *redis.Client
	cfg       config.IndexerConfig
	indexer   *Indexer
	batchSize int64
	block     time.Duration
	logger    *zap.Logger
}

func NewConsumer(client *redis.Client, cfg config.IndexerConfig, ix *Indexer, logger *zap.Logger) *Consumer {
	return &Consumer{
		client:    client,
		cfg:       cfg,
		indexer:   ix,
		batchSize: 10,
		block:     2 * time.Second,
		logger:    logger,
	}
}

// Prepare creates the consumer group (and stream) if missing.
func (c *Consumer) Prepare(ctx context.Context) error {
	return rediscommon.CreateConsumerGroup(ctx, c.client, c.cfg.Stream, c.cfg.Group)
}

// Start 启动消费循环，ctx 取消时返回
func (c *Consumer) Start(ctx context.Context) error {
	if err := c.Prepare(ctx); err != nil {
		return err
	}
	c.logger.Info("Index consumer started",
		zap.String("stream", c.cfg.Stream),
		zap.String("consumer_group", c.cfg.Group),
		zap.String("consumer_name", c.cfg.Consumer),
	)

	backoff := time.Second
	const maxBackoff = 30 * time.Second
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		if _, err := c.ConsumeOnce(ctx); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			c.logger.Error("Failed to consume index stream", zap.Error(err), zap.Duration("backoff", backoff))
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(backoff):
			}
			backoff *= 2
			if backoff > maxBackoff {
				backoff = maxBackoff
			}
			continue
		}
		backoff = time.Second
	}
}

// ConsumeOnce reads one batch, applies it and acks every message, processed or not.
// Poison messages are logged and acknowledged so they do not block the group.
func (c *Consumer) ConsumeOnce(ctx context.Context) (int, error) {
	msgs, err := rediscommon.ReadFromStream(ctx, c.client, c.cfg.Stream, c.cfg.Group, c.cfg.Consumer, c.batchSize, c.block)
	if err != nil {
		return 0, fmt.Errorf("failed to read from stream %s: %w", c.cfg.Stream, err)
	}

	ids := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		ids = append(ids, msg.ID)
		if err := c.process(ctx, msg); err != nil {
			c.logger.Error("Failed to process index event",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}
	if err := rediscommon.AckMessages(ctx, c.client, c.cfg.Stream, c.cfg.Group, ids...); err != nil {
		return len(msgs), fmt.Errorf("failed to ack messages: %w", err)
	}
	return len(msgs), nil
}

func (c *Consumer) process(ctx context.Context, msg rediscommon.StreamMessage) error {
	data, ok := msg.Data()
	if !ok {
		return fmt.Errorf("message has no data field")
	}
	var ev Event
	if err := json.Unmarshal([]byte(data), &ev); err != nil {
		return fmt.Errorf("decode event: %w", err)
	}
	return c.indexer.Handle(ctx, ev)
}

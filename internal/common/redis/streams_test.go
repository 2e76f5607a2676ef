package redis

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) *redis.Client {
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestCreateConsumerGroup_Idempotent(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, CreateConsumerGroup(ctx, client, "records", "indexer"))
	require.NoError(t, CreateConsumerGroup(ctx, client, "records", "indexer"))
}

func TestPublishAndReadJSON(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, CreateConsumerGroup(ctx, client, "records", "indexer"))

	id, err := PublishJSONToStream(ctx, client, "records", map[string]string{"uid": "r-1"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	msgs, err := ReadFromStream(ctx, client, "records", "indexer", "worker-1", 10, 0)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, id, msgs[0].ID)

	data, ok := msgs[0].Data()
	require.True(t, ok)
	assert.JSONEq(t, `{"uid":"r-1"}`, data)

	require.NoError(t, AckMessages(ctx, client, "records", "indexer", id))
	pending, err := client.XPending(ctx, "records", "indexer").Result()
	require.NoError(t, err)
	assert.Equal(t, int64(0), pending.Count)
}

func TestPublishToStream_StringifiesValues(t *testing.T) {
	client := setupTestRedis(t)
	ctx := context.Background()

	_, err := PublishToStream(ctx, client, "s", map[string]interface{}{
		"n":    42,
		"flag": true,
		"obj":  map[string]int{"a": 1},
	})
	require.NoError(t, err)

	entries, err := client.XRange(ctx, "s", "-", "+").Result()
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "42", entries[0].Values["n"])
	assert.Equal(t, "true", entries[0].Values["flag"])
	assert.Equal(t, `{"a":1}`, entries[0].Values["obj"])
}

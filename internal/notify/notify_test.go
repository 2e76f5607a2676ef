package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type capture struct {
	topic   string
	payload []byte
	err     error
}

func (c *capture) Publish(topic string, _ bool, payload []byte) error {
	c.topic, c.payload = topic, payload
	return c.err
}

func TestMQTTNotifier_RecordChanged(t *testing.T) {
	pub := &capture{}
	n := NewMQTTNotifier(pub, "nagara-care/records", zap.NewNop())
	at := time.Date(2025, 5, 1, 9, 30, 0, 0, time.UTC)

	n.RecordChanged(context.Background(), RecordChange{
		Event: EventCreated, Kind: "food", UID: "r1", TenantUID: "t1", ResidentUID: "res1", At: at,
	})

	assert.Equal(t, "nagara-care/records/t1/food", pub.topic)
	var got map[string]any
	require.NoError(t, json.Unmarshal(pub.payload, &got))
	assert.Equal(t, "created", got["event"])
	assert.Equal(t, "food", got["kind"])
	assert.Equal(t, "r1", got["uid"])
	assert.Equal(t, "res1", got["residentUid"])
	assert.Equal(t, "2025-05-01T09:30:00Z", got["at"])
	assert.NotContains(t, got, "TenantUID")
}

func TestMQTTNotifier_PublishErrorIsSwallowed(t *testing.T) {
	pub := &capture{err: errors.New("broker down")}
	n := NewMQTTNotifier(pub, "p", zap.NewNop())
	assert.NotPanics(t, func() {
		n.RecordChanged(context.Background(), RecordChange{Event: EventDeleted, Kind: "bath", TenantUID: "t"})
	})
	assert.Equal(t, "p/t/bath", pub.topic)
}

// Package notify publishes observation record changes to MQTT subscribers.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Event 记录变更类型
type Event string

const (
	EventCreated Event = "created"
	EventUpdated Event = "updated"
	EventDeleted Event = "deleted"
)

// RecordChange is the payload of one notification.
type RecordChange struct {
	Event       Event     `json:"event"`
	Kind        string    `json:"kind"`
	UID         string    `json:"uid"`
	TenantUID   string    `json:"-"`
	ResidentUID string    `json:"residentUid"`
	At          time.Time `json:"at"`
}

// Notifier delivers record changes. Implementations never fail the caller's request.
type Notifier interface {
	RecordChanged(ctx context.Context, change RecordChange)
}

// Nop drops every notification (MQTT disabled).
type Nop struct{}

func (Nop) RecordChanged(context.Context, RecordChange) {}

// publisher is satisfied by *common/mqtt.Client.
type publisher interface {
	Publish(topic string, retained bool, payload []byte) error
}

// MQTTNotifier MQTT 通知
type MQTTNotifier struct {
	client publisher
	prefix string
	logger *zap.Logger
}

func NewMQTTNotifier(client publisher, topicPrefix string, logger *zap.Logger) *MQTTNotifier {
	return &MQTTNotifier{client: client, prefix: topicPrefix, logger: logger}
}

var (
	_ Notifier = (*MQTTNotifier)(nil)
	_ Notifier = Nop{}
)

// Topic returns <prefix>/<tenantUid>/<kind>.
func (n *MQTTNotifier) Topic(tenantUID, kind string) string {
	return fmt.Sprintf("%s/%s/%s", n.prefix, tenantUID, kind)
}

func (n *MQTTNotifier) RecordChanged(_ context.Context, change RecordChange) {
	if change.At.IsZero() {
		change.At = time.Now().UTC()
	}
	payload, err := json.Marshal(change)
	if err != nil {
		n.logger.Error("Failed to marshal record change", zap.Error(err))
		return
	}
	topic := n.Topic(change.TenantUID, change.Kind)
	if err := n.client.Publish(topic, false, payload); err != nil {
		n.logger.Warn("Failed to publish record change",
			zap.String("topic", topic),
			zap.String("record_id", change.UID),
			zap.Error(err),
		)
	}
}

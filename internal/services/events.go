package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

const (
	EventEntryCreated = "entry.created"
	EventEntryDeleted = "entry.deleted"
	EventUserDeleted  = "user.deleted"
)

// Publisher is satisfied by *mq.MQ.
type Publisher interface {
	Publish(ctx context.Context, channel string, data []byte, attrs map[string]string) (string, error)
}

// Event is the JSON envelope published for activity changes.
type Event struct {
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Data       any       `json:"data"`
}

// Events publishes activity events on a best-effort basis. A nil *Events, or
// one without a publisher, drops everything.
type Events struct {
	pub     Publisher
	channel string
	logger  *slog.Logger
	now     func() time.Time
}

func NewEvents(pub Publisher, channel string, logger *slog.Logger) *Events {
	if logger == nil {
		logger = slog.Default()
	}
	return &Events{pub: pub, channel: channel, logger: logger, now: time.Now}
}

// Emit publishes an event. Failures are logged and never returned; the
// request that caused the event has already succeeded.
func (e *Events) Emit(ctx context.Context, eventType string, data any) {
	if e == nil || e.pub == nil {
		return
	}

	payload, err := json.Marshal(Event{Type: eventType, OccurredAt: e.now().UTC(), Data: data})
	if err != nil {
		e.logger.ErrorContext(ctx, "encode event", "type", eventType, "error", err)
		return
	}

	id, err := e.pub.Publish(ctx, e.channel, payload, map[string]string{"type": eventType})
	if err != nil {
		e.logger.WarnContext(ctx, "publish event", "type", eventType, "channel", e.channel, "error", err)
		return
	}
	e.logger.DebugContext(ctx, "event published", "type", eventType, "id", id)
}

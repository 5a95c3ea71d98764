package services

import (
	"encoding/json"
	"log/slog"
	"time"

	"wellness/internal/models"
	"wellness/internal/repositories"
)

// EventPublisher delivers record events to a message broker.
type EventPublisher interface {
	Publish(routingKey string, body []byte) error
}

// RecordEvent announces that a daily record was created or overwritten.
// It carries no reflection text.
type RecordEvent struct {
	UserID     uint              `json:"user_id"`
	Kind       models.RecordKind `json:"kind"`
	EntryDate  string            `json:"entry_date"`
	Outcome    string            `json:"outcome"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// RoutingKey returns e.g. "record.checkin.created".
func (e RecordEvent) RoutingKey() string {
	return "record." + string(e.Kind) + "." + e.Outcome
}

func publishRecordEvent(publisher EventPublisher, result *repositories.UpsertResult, at time.Time) {
	if publisher == nil {
		slog.Debug("event publisher is not initialized, skipping record event")
		return
	}
	rec := result.Record
	evt := RecordEvent{
		UserID:     rec.UserID,
		Kind:       rec.Kind,
		EntryDate:  rec.EntryDate.Format(time.DateOnly),
		Outcome:    result.Outcome.String(),
		OccurredAt: at,
	}
	body, err := json.Marshal(evt)
	if err != nil {
		slog.Error("failed to marshal record event", "error", err)
		return
	}
	if err := publisher.Publish(evt.RoutingKey(), body); err != nil {
		slog.Warn("failed to publish record event", "routing_key", evt.RoutingKey(), "error", err)
	}
}

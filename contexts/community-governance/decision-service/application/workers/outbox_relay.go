package workers

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	application "propdesk/contexts/community-governance/decision-service/application"
	"propdesk/contexts/community-governance/decision-service/ports"
)

// OutboxRelay publishes persisted decision events to the event bus.
type OutboxRelay struct {
	Outbox    ports.OutboxRepository
	Publisher ports.EventPublisher
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

// RunOnce publishes a bounded batch of pending rows in creation order and
// marks each row only after the publish succeeded. The first failure stops
// the batch so the next cycle retries from that row.
func (r OutboxRelay) RunOnce(ctx context.Context) error {
	logger := application.ResolveLogger(r.Logger)
	limit := r.BatchSize
	if limit <= 0 {
		limit = 100
	}

	pending, err := r.Outbox.ListPendingOutbox(ctx, limit)
	if err != nil {
		logger.Error("decision outbox list failed",
			"event", "decision_outbox_list_failed",
			"module", "community-governance/decision-service",
			"layer", "worker",
			"error", err.Error(),
		)
		return err
	}
	if len(pending) == 0 {
		logger.Debug("decision outbox relay found no pending rows",
			"event", "decision_outbox_relay_noop",
			"module", "community-governance/decision-service",
			"layer", "worker",
		)
		return nil
	}

	now := time.Now().UTC()
	if r.Clock != nil {
		now = r.Clock.Now().UTC()
	}

	for _, row := range pending {
		var event ports.EventEnvelope
		if err := json.Unmarshal(row.Payload, &event); err != nil {
			logger.Error("decision outbox decode failed",
				"event", "decision_outbox_decode_failed",
				"module", "community-governance/decision-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
		topic := event.EventType
		if topic == "" {
			topic = row.EventType
		}
		if err := r.Publisher.Publish(ctx, topic, event); err != nil {
			logger.Error("decision outbox publish failed",
				"event", "decision_outbox_publish_failed",
				"module", "community-governance/decision-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"event_id", event.EventID,
				"event_type", event.EventType,
				"error", err.Error(),
			)
			return err
		}
		if err := r.Outbox.MarkOutboxPublished(ctx, row.OutboxID, now); err != nil {
			logger.Error("decision outbox mark published failed",
				"event", "decision_outbox_mark_published_failed",
				"module", "community-governance/decision-service",
				"layer", "worker",
				"outbox_id", row.OutboxID,
				"error", err.Error(),
			)
			return err
		}
	}

	logger.Info("decision outbox relay cycle completed",
		"event", "decision_outbox_relay_completed",
		"module", "community-governance/decision-service",
		"layer", "worker",
		"published_count", len(pending),
	)
	return nil
}

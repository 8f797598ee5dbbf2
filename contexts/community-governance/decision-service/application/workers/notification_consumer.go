package workers

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "propdesk/contexts/community-governance/decision-service/application"
	"propdesk/contexts/community-governance/decision-service/ports"
)

const defaultNotificationCG = "decision-service-notifications-cg"

// NotificationConsumer turns decision events into human notifications.
// Delivery failures are logged and never reach the decision core.
type NotificationConsumer struct {
	Subscriber    ports.EventSubscriber
	Dedup         ports.EventDedupStore
	Notifier      ports.DecisionNotifier
	Clock         ports.Clock
	ConsumerGroup string
	DedupTTL      time.Duration
	Logger        *slog.Logger
}

func (c NotificationConsumer) Start(ctx context.Context) error {
	logger := application.ResolveLogger(c.Logger)
	group := strings.TrimSpace(c.ConsumerGroup)
	if group == "" {
		group = defaultNotificationCG
	}
	topics := []string{
		ports.EventDecisionCreated,
		ports.EventDecisionClosed,
		ports.EventDecisionCancelled,
	}
	for _, topic := range topics {
		if err := c.Subscriber.Subscribe(ctx, topic, group, c.handle); err != nil {
			logger.Error("notification consumer subscribe failed",
				"event", "decision_notification_subscribe_failed",
				"module", "community-governance/decision-service",
				"layer", "worker",
				"topic", topic,
				"consumer_group", group,
				"error", err.Error(),
			)
			return err
		}
	}
	logger.Info("notification consumer subscriptions active",
		"event", "decision_notification_consumer_started",
		"module", "community-governance/decision-service",
		"layer", "worker",
		"consumer_group", group,
		"notifier_enabled", c.Notifier != nil,
	)
	return nil
}

func (c NotificationConsumer) handle(ctx context.Context, event ports.EventEnvelope) error {
	logger := application.ResolveLogger(c.Logger)
	if c.Dedup != nil {
		alreadyProcessed, err := c.Dedup.ReserveEvent(ctx, event.EventID, hashPayload(event.Data), c.now().Add(c.dedupTTL()))
		if err != nil {
			return err
		}
		if alreadyProcessed {
			logger.Debug("decision event replay skipped",
				"event", "decision_notification_replayed",
				"module", "community-governance/decision-service",
				"layer", "worker",
				"event_id", event.EventID,
			)
			return nil
		}
	}

	var data ports.DecisionEventData
	if err := json.Unmarshal(event.Data, &data); err != nil {
		logger.Error("decision event decode failed",
			"event", "decision_notification_decode_failed",
			"module", "community-governance/decision-service",
			"layer", "worker",
			"event_id", event.EventID,
			"error", err.Error(),
		)
		return err
	}
	if c.Notifier == nil {
		logger.Info("decision notification skipped",
			"event", "decision_notification_skipped",
			"module", "community-governance/decision-service",
			"layer", "worker",
			"event_id", event.EventID,
			"event_type", event.EventType,
			"decision_id", data.DecisionID,
		)
		return nil
	}

	notification := ports.DecisionNotification{
		EventType:           event.EventType,
		DecisionID:          data.DecisionID,
		CompanyID:           data.CompanyID,
		BuildingID:          data.BuildingID,
		Title:               data.Title,
		Status:              data.Status,
		ClosingAt:           data.ClosingAt,
		WinningOption:       data.WinningOption,
		TotalBallotsAtClose: data.TotalBallotsAtClose,
	}
	if err := c.Notifier.NotifyDecision(ctx, notification); err != nil {
		logger.Warn("decision notification delivery failed",
			"event", "decision_notification_failed",
			"module", "community-governance/decision-service",
			"layer", "worker",
			"event_id", event.EventID,
			"decision_id", data.DecisionID,
			"error", err.Error(),
		)
		return nil
	}
	logger.Info("decision notification delivered",
		"event", "decision_notification_delivered",
		"module", "community-governance/decision-service",
		"layer", "worker",
		"event_id", event.EventID,
		"event_type", event.EventType,
		"decision_id", data.DecisionID,
	)
	return nil
}

func (c NotificationConsumer) now() time.Time {
	now := time.Now().UTC()
	if c.Clock != nil {
		now = c.Clock.Now().UTC()
	}
	return now
}

func (c NotificationConsumer) dedupTTL() time.Duration {
	if c.DedupTTL <= 0 {
		return 7 * 24 * time.Hour
	}
	return c.DedupTTL
}

func hashPayload(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

package workers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"propdesk/contexts/community-governance/decision-service/adapters/memory"
	"propdesk/contexts/community-governance/decision-service/application/commands"
	"propdesk/contexts/community-governance/decision-service/application/workers"
	"propdesk/contexts/community-governance/decision-service/domain/entities"
	"propdesk/contexts/community-governance/decision-service/ports"
)

type recordingPublisher struct {
	events []ports.EventEnvelope
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, _ string, event ports.EventEnvelope) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

type stubSubscriber struct {
	handlers map[string]func(context.Context, ports.EventEnvelope) error
}

func (s *stubSubscriber) Subscribe(
	_ context.Context,
	topic string,
	_ string,
	handler func(context.Context, ports.EventEnvelope) error,
) error {
	if s.handlers == nil {
		s.handlers = map[string]func(context.Context, ports.EventEnvelope) error{}
	}
	s.handlers[topic] = handler
	return nil
}

type recordingNotifier struct {
	notifications []ports.DecisionNotification
}

func (n *recordingNotifier) NotifyDecision(_ context.Context, notification ports.DecisionNotification) error {
	n.notifications = append(n.notifications, notification)
	return nil
}

func seededStore(now time.Time) *memory.Store {
	return memory.NewStore([]entities.Decision{
		{
			DecisionID:          "due-1",
			CompanyID:           "company-1",
			BuildingID:          "building-1",
			Title:               "Pool opening hours",
			Description:         "Summer schedule",
			Kind:                entities.DecisionKindPolicy,
			Options:             []string{"9-21", "10-22"},
			ClosingAt:           now.Add(-time.Hour),
			QuorumRequired:      50,
			TotalEligibleVoters: 4,
			Status:              entities.DecisionStatusOpen,
			CreatedAt:           now.Add(-48 * time.Hour),
		},
		{
			DecisionID: "future-1",
			CompanyID:  "company-1",
			BuildingID: "building-1",
			Title:      "Bike storage",
			Options:    []string{"Yes", "No"},
			ClosingAt:  now.Add(24 * time.Hour),
			Status:     entities.DecisionStatusOpen,
			CreatedAt:  now.Add(-time.Hour),
		},
	})
}

func TestDeadlineCloserClosesDueDecisionsAndRelaysEvents(t *testing.T) {
	now := time.Now().UTC()
	store := seededStore(now)
	store.InsertBallot(entities.Ballot{BallotID: "b1", DecisionID: "due-1", VoterID: "v1", SelectedOption: "10-22", CastAt: now.Add(-2 * time.Hour)})

	closer := workers.DeadlineCloser{
		Decisions: store,
		Lifecycle: commands.DecisionUseCase{
			Decisions: store,
			Buildings: store,
			Clock:     store,
			IDGen:     store,
		},
		Clock: store,
	}
	closed, err := closer.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("deadline closer failed: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected 1 closed decision, got %d", closed)
	}

	decision, _, err := store.GetDecision(context.Background(), "company-1", "due-1")
	if err != nil {
		t.Fatalf("get decision failed: %v", err)
	}
	if decision.Status != entities.DecisionStatusClosed || decision.WinningOption == nil || *decision.WinningOption != "10-22" {
		t.Fatalf("unexpected closed decision: %+v", decision)
	}
	future, _, err := store.GetDecision(context.Background(), "company-1", "future-1")
	if err != nil {
		t.Fatalf("get future decision failed: %v", err)
	}
	if future.Status != entities.DecisionStatusOpen {
		t.Fatalf("expected future decision to stay open, got %s", future.Status)
	}

	again, err := closer.RunOnce(context.Background())
	if err != nil || again != 0 {
		t.Fatalf("expected second sweep to be a no-op, got %d %v", again, err)
	}

	publisher := &recordingPublisher{}
	relay := workers.OutboxRelay{Outbox: store, Publisher: publisher, Clock: store}
	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("outbox relay failed: %v", err)
	}
	if len(publisher.events) != 1 || publisher.events[0].EventType != ports.EventDecisionClosed {
		t.Fatalf("expected one decision.closed event, got %+v", publisher.events)
	}
	if publisher.events[0].PartitionKey != "due-1" {
		t.Fatalf("expected partition by decision id, got %q", publisher.events[0].PartitionKey)
	}
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil || len(pending) != 0 {
		t.Fatalf("expected outbox drained, got %d %v", len(pending), err)
	}
}

func TestOutboxRelayKeepsRowsWhenPublishFails(t *testing.T) {
	now := time.Now().UTC()
	store := seededStore(now)
	lifecycle := commands.DecisionUseCase{Decisions: store, Buildings: store, Clock: store, IDGen: store}
	if _, err := (workers.DeadlineCloser{Decisions: store, Lifecycle: lifecycle}).RunOnce(context.Background()); err != nil {
		t.Fatalf("deadline closer failed: %v", err)
	}

	relay := workers.OutboxRelay{Outbox: store, Publisher: &recordingPublisher{err: errors.New("bus unavailable")}}
	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected publish failure")
	}
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil || len(pending) != 1 {
		t.Fatalf("expected row to stay pending, got %d %v", len(pending), err)
	}
}

func TestNotificationConsumerDeliversOncePerEvent(t *testing.T) {
	now := time.Now().UTC()
	store := seededStore(now)
	lifecycle := commands.DecisionUseCase{Decisions: store, Buildings: store, Clock: store, IDGen: store}
	if _, err := (workers.DeadlineCloser{Decisions: store, Lifecycle: lifecycle}).RunOnce(context.Background()); err != nil {
		t.Fatalf("deadline closer failed: %v", err)
	}
	publisher := &recordingPublisher{}
	if err := (workers.OutboxRelay{Outbox: store, Publisher: publisher}).RunOnce(context.Background()); err != nil {
		t.Fatalf("relay failed: %v", err)
	}

	subscriber := &stubSubscriber{}
	notifier := &recordingNotifier{}
	consumer := workers.NotificationConsumer{
		Subscriber: subscriber,
		Dedup:      store,
		Notifier:   notifier,
		Clock:      store,
	}
	if err := consumer.Start(context.Background()); err != nil {
		t.Fatalf("consumer start failed: %v", err)
	}
	handler, ok := subscriber.handlers[ports.EventDecisionClosed]
	if !ok {
		t.Fatalf("expected subscription to %s", ports.EventDecisionClosed)
	}

	event := publisher.events[0]
	for i := 0; i < 2; i++ {
		if err := handler(context.Background(), event); err != nil {
			t.Fatalf("handler failed: %v", err)
		}
	}
	if len(notifier.notifications) != 1 {
		t.Fatalf("expected one notification, got %d", len(notifier.notifications))
	}
	got := notifier.notifications[0]
	if got.DecisionID != "due-1" || got.Title != "Pool opening hours" || got.Status != "closed" {
		t.Fatalf("unexpected notification: %+v", got)
	}
	if got.TotalBallotsAtClose == nil || *got.TotalBallotsAtClose != 0 || got.WinningOption != nil {
		t.Fatalf("expected zero-ballot close without winner, got %+v", got)
	}
}

package messaging

import (
	"context"
	"errors"
	"testing"
	"time"

	contractsv1 "propdesk/contracts/gen/events/v1"
)

func TestKafkaDeliversToTopicSubscribers(t *testing.T) {
	bus, err := NewKafka([]string{"localhost:9092"}, nil)
	if err != nil {
		t.Fatalf("new bus: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	received := make(chan contractsv1.Envelope, 1)
	if err := bus.Subscribe(ctx, "decision.closed", "test", func(_ context.Context, event contractsv1.Envelope) error {
		received <- event
		return nil
	}); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	if err := bus.Publish(ctx, "decision.created", contractsv1.Envelope{EventID: "ignored"}); err != nil {
		t.Fatalf("publish other topic: %v", err)
	}
	if err := bus.Publish(ctx, "decision.closed", contractsv1.Envelope{EventID: "evt-1", EventType: "decision.closed"}); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case event := <-received:
		if event.EventID != "evt-1" {
			t.Fatalf("expected evt-1, got %s", event.EventID)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("expected event delivery")
	}
}

func TestKafkaReportsBackloggedSubscriber(t *testing.T) {
	bus, err := NewKafka(nil, nil)
	if err != nil {
		t.Fatalf("new bus: %v", err)
	}
	full := make(chan contractsv1.Envelope)
	bus.subscribers["decision.closed"] = []chan contractsv1.Envelope{full}

	err = bus.Publish(context.Background(), "decision.closed", contractsv1.Envelope{EventID: "evt-1"})
	if !errors.Is(err, ErrSubscriberBacklogged) {
		t.Fatalf("expected backlogged error, got %v", err)
	}
}

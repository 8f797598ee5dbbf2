package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"propdesk/contexts/community-governance/decision-service/ports"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type fakeSender struct {
	sent []tgbotapi.MessageConfig
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if f.err != nil {
		return tgbotapi.Message{}, f.err
	}
	if msg, ok := c.(tgbotapi.MessageConfig); ok {
		f.sent = append(f.sent, msg)
	}
	return tgbotapi.Message{}, nil
}

func TestFormatCreatedNotificationShowsRelativeDeadline(t *testing.T) {
	now := time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)
	text, ok := FormatNotification(ports.DecisionNotification{
		EventType: ports.EventDecisionCreated,
		Title:     "Paint the lobby",
		ClosingAt: now.Add(72 * time.Hour),
	}, now)
	if !ok {
		t.Fatalf("expected created event to be formatted")
	}
	if !strings.Contains(text, "Paint the lobby") || !strings.Contains(text, "from now") {
		t.Fatalf("unexpected message: %q", text)
	}
	if !strings.Contains(text, "2026-10-04 12:00") {
		t.Fatalf("expected absolute deadline, got %q", text)
	}
}

func TestFormatClosedNotification(t *testing.T) {
	winner := "Sí"
	ballots := 1200
	text, ok := FormatNotification(ports.DecisionNotification{
		EventType:           ports.EventDecisionClosed,
		Title:               "Roof repair",
		WinningOption:       &winner,
		TotalBallotsAtClose: &ballots,
	}, time.Now())
	if !ok {
		t.Fatalf("expected closed event to be formatted")
	}
	if !strings.Contains(text, "Winning option: Sí") || !strings.Contains(text, "1,200 ballots") {
		t.Fatalf("unexpected message: %q", text)
	}

	text, _ = FormatNotification(ports.DecisionNotification{
		EventType: ports.EventDecisionClosed,
		Title:     "Roof repair",
	}, time.Now())
	if !strings.Contains(text, "No winning option (0 ballots)") {
		t.Fatalf("unexpected no-winner message: %q", text)
	}
}

func TestNotifierSendsToConfiguredChat(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewNotifierWithSender(sender, 4242, nil)
	err := notifier.NotifyDecision(context.Background(), ports.DecisionNotification{
		EventType: ports.EventDecisionCancelled,
		Title:     "Gym hours",
	})
	if err != nil {
		t.Fatalf("notify: %v", err)
	}
	if len(sender.sent) != 1 {
		t.Fatalf("expected one message, got %d", len(sender.sent))
	}
	if sender.sent[0].ChatID != 4242 || sender.sent[0].Text != "Decision cancelled: Gym hours" {
		t.Fatalf("unexpected message: %+v", sender.sent[0])
	}
}

func TestNotifierSkipsUnknownEventsAndReportsSendErrors(t *testing.T) {
	sender := &fakeSender{}
	notifier := NewNotifierWithSender(sender, 1, nil)
	if err := notifier.NotifyDecision(context.Background(), ports.DecisionNotification{EventType: "decision.unknown"}); err != nil {
		t.Fatalf("expected unknown event to be skipped, got %v", err)
	}
	if len(sender.sent) != 0 {
		t.Fatalf("expected no message for unknown event")
	}

	sender.err = errors.New("telegram down")
	err := notifier.NotifyDecision(context.Background(), ports.DecisionNotification{
		EventType: ports.EventDecisionCancelled,
		Title:     "Gym hours",
	})
	if err == nil || !strings.Contains(err.Error(), "telegram down") {
		t.Fatalf("expected send error, got %v", err)
	}
}

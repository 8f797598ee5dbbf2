package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"propdesk/contexts/community-governance/decision-service/ports"

	"github.com/dustin/go-humanize"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Sender is the subset of the bot API used for delivery.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Notifier posts decision notifications to one Telegram chat.
type Notifier struct {
	sender Sender
	chatID int64
	now    func() time.Time
	logger *slog.Logger
}

func NewNotifier(token string, chatID int64, logger *slog.Logger) (*Notifier, error) {
	if strings.TrimSpace(token) == "" {
		return nil, errors.New("telegram bot token is required")
	}
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return NewNotifierWithSender(bot, chatID, logger), nil
}

func NewNotifierWithSender(sender Sender, chatID int64, logger *slog.Logger) *Notifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Notifier{
		sender: sender,
		chatID: chatID,
		now:    func() time.Time { return time.Now().UTC() },
		logger: logger,
	}
}

func (n *Notifier) NotifyDecision(ctx context.Context, notification ports.DecisionNotification) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	text, ok := FormatNotification(notification, n.now())
	if !ok {
		n.logger.Debug("decision event has no telegram message",
			"event", "decision_telegram_unsupported_event",
			"module", "community-governance/decision-service",
			"layer", "adapter",
			"event_type", notification.EventType,
		)
		return nil
	}
	if _, err := n.sender.Send(tgbotapi.NewMessage(n.chatID, text)); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

// FormatNotification renders the chat message for a decision event.
func FormatNotification(notification ports.DecisionNotification, now time.Time) (string, bool) {
	title := strings.TrimSpace(notification.Title)
	switch notification.EventType {
	case ports.EventDecisionCreated:
		deadline := notification.ClosingAt.UTC()
		return fmt.Sprintf("New community decision: %s\nVoting closes %s (%s UTC)",
			title,
			humanize.RelTime(deadline, now, "ago", "from now"),
			deadline.Format("2006-01-02 15:04"),
		), true
	case ports.EventDecisionClosed:
		ballots := 0
		if notification.TotalBallotsAtClose != nil {
			ballots = *notification.TotalBallotsAtClose
		}
		if notification.WinningOption == nil {
			return fmt.Sprintf("Decision closed: %s\nNo winning option (%s ballots)",
				title, humanize.Comma(int64(ballots))), true
		}
		return fmt.Sprintf("Decision closed: %s\nWinning option: %s (%s ballots)",
			title, *notification.WinningOption, humanize.Comma(int64(ballots))), true
	case ports.EventDecisionCancelled:
		return fmt.Sprintf("Decision cancelled: %s", title), true
	default:
		return "", false
	}
}

var _ ports.DecisionNotifier = (*Notifier)(nil)

// Package notify announces market open and close transitions.
package notify

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/okian/cartola/internal/domain/market"
	"github.com/okian/cartola/pkg/logger"
)

// Notifier delivers a text message.
type Notifier interface {
	Notify(ctx context.Context, text string) error
}

// Sender is the subset of the bot API used for delivery.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier posts messages to one chat.
type TelegramNotifier struct {
	bot    Sender
	chatID int64
}

// NewTelegramNotifier wraps an existing sender.
func NewTelegramNotifier(bot Sender, chatID int64) *TelegramNotifier {
	return &TelegramNotifier{bot: bot, chatID: chatID}
}

// DialTelegram authenticates token against the bot API.
func DialTelegram(token string, chatID int64) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return NewTelegramNotifier(bot, chatID), nil
}

// Notify implements Notifier.
func (t *TelegramNotifier) Notify(_ context.Context, text string) error {
	msg := tgbotapi.NewMessage(t.chatID, text)
	msg.ParseMode = tgbotapi.ModeMarkdown
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

// LogNotifier writes messages to the log.
type LogNotifier struct {
	logger logger.Logger
}

// NewLogNotifier creates a notifier logging through l.
func NewLogNotifier(l logger.Logger) *LogNotifier {
	if l == nil {
		l = logger.Nop()
	}
	return &LogNotifier{logger: l}
}

// Notify implements Notifier.
func (n *LogNotifier) Notify(ctx context.Context, text string) error {
	n.logger.Info(ctx, "market notification", logger.String("text", text))
	return nil
}

// Watcher notifies when the market flips between open and closed. The first
// observation only records the state.
type Watcher struct {
	mu       sync.Mutex
	notifier Notifier
	logger   logger.Logger
	seen     bool
	last     market.Status
}

// NewWatcher creates a watcher delivering through n.
func NewWatcher(n Notifier, l logger.Logger) *Watcher {
	if l == nil {
		l = logger.Nop()
	}
	return &Watcher{notifier: n, logger: l}
}

// Observe records s and notifies on a transition. It reports whether a
// notification was attempted.
func (w *Watcher) Observe(ctx context.Context, s market.Status) bool {
	w.mu.Lock()
	changed := w.seen && w.last.Open != s.Open
	w.seen = true
	w.last = s
	w.mu.Unlock()

	if !changed {
		return false
	}
	if err := w.notifier.Notify(ctx, Message(s)); err != nil {
		w.logger.Warn(ctx, "market notification failed", logger.Error(err))
	}
	return true
}

// Message renders the transition text for s.
func Message(s market.Status) string {
	if s.Open {
		if s.Round > 0 {
			return fmt.Sprintf("*Mercado aberto* para a rodada %d", s.Round)
		}
		return "*Mercado aberto*"
	}
	if s.Round > 0 {
		return fmt.Sprintf("*Mercado fechado* na rodada %d", s.Round)
	}
	return "*Mercado fechado*"
}

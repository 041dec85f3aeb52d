package notifier

import (
	"context"
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/semmidev/dumpwarden/internal/config"
)

// Sender is the part of the Telegram bot API the notifier needs.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type TelegramNotifier struct {
	bot       Sender
	chatID    int64
	onSuccess bool
	onFailure bool
}

func NewTelegram(cfg config.TelegramConfig) (*TelegramNotifier, error) {
	chatID, err := strconv.ParseInt(cfg.ChatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid telegram chat id %q: %w", cfg.ChatID, err)
	}

	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create telegram bot: %w", err)
	}

	return newTelegram(bot, chatID, cfg), nil
}

func newTelegram(bot Sender, chatID int64, cfg config.TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		bot:       bot,
		chatID:    chatID,
		onSuccess: cfg.OnSuccess,
		onFailure: cfg.OnFailure,
	}
}

// Notify sends message when the outcome is one the chat subscribed to.
func (t *TelegramNotifier) Notify(ctx context.Context, success bool, message string) error {
	if success && !t.onSuccess || !success && !t.onFailure {
		return nil
	}

	if _, err := t.bot.Send(tgbotapi.NewMessage(t.chatID, message)); err != nil {
		return fmt.Errorf("failed to send telegram notification: %w", err)
	}
	return nil
}

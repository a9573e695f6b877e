package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"oncestock/internal/config"
	"oncestock/internal/events"
	"oncestock/internal/models"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

// messageSender is the slice of tgbotapi.BotAPI the notifier needs.
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// TelegramNotifier pushes low-stock alerts to the configured chats. Alerts
// for the same product are suppressed for an hour so a busy sales day does
// not flood the owner.
type TelegramNotifier struct {
	bot     messageSender
	chatIDs []int64
	logger  *zerolog.Logger

	mu       sync.Mutex
	lastSent map[string]time.Time
	cooldown time.Duration
}

func NewTelegramNotifier(cfg config.AlertsConfig, logger *zerolog.Logger) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("error creating telegram bot: %w", err)
	}

	logger.Info().Str("bot_username", bot.Self.UserName).Msg("Telegram alerts enabled")
	return newNotifier(bot, cfg.ChatIDs, logger), nil
}

func newNotifier(bot messageSender, chatIDs []int64, logger *zerolog.Logger) *TelegramNotifier {
	return &TelegramNotifier{
		bot:      bot,
		chatIDs:  chatIDs,
		logger:   logger,
		lastSent: make(map[string]time.Time),
		cooldown: time.Hour,
	}
}

// NotifyLowStock sends one alert per chat for the given product.
func (n *TelegramNotifier) NotifyLowStock(ctx context.Context, product *models.Product) error {
	if product == nil {
		return nil
	}
	if !n.shouldSend(product.Code) {
		return nil
	}

	text := fmt.Sprintf(
		"⚠️ Stock bajo\n\n%s (%s)\nStock actual: %d\nStock mínimo: %d",
		product.Name, product.Code, product.Stock, product.MinStock,
	)

	var lastErr error
	for _, chatID := range n.chatIDs {
		msg := tgbotapi.NewMessage(chatID, text)
		if _, err := n.bot.Send(msg); err != nil {
			n.logger.Error().Err(err).Int64("chat_id", chatID).Str("code", product.Code).Msg("Failed to send low stock alert")
			lastErr = err
		}
	}
	return lastErr
}

// LowStockHandler adapts the notifier to the event bus.
func (n *TelegramNotifier) LowStockHandler() events.EventHandler {
	return func(event *events.Event) error {
		var payload events.MovementEventPayload
		if err := json.Unmarshal(event.Payload, &payload); err != nil {
			return fmt.Errorf("decode low stock payload: %w", err)
		}

		return n.NotifyLowStock(context.Background(), &models.Product{
			ID:       payload.ProductID,
			Code:     payload.ProductCode,
			Name:     payload.ProductName,
			Stock:    payload.Stock,
			MinStock: payload.MinStock,
		})
	}
}

func (n *TelegramNotifier) shouldSend(code string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()

	if sent, ok := n.lastSent[code]; ok && time.Since(sent) < n.cooldown {
		return false
	}
	n.lastSent[code] = time.Now()
	return true
}

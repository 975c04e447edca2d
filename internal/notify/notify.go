// Package notify provides alert delivery channels.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"nifty-alerts/internal/analysis/indicators"
	"nifty-alerts/internal/config"
	apperrors "nifty-alerts/internal/errors"
	"nifty-alerts/internal/models"
)

// Notifier defines the interface for sending alert notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
	SendZoneAlert(ctx context.Context, zone models.Zone, tf models.Timeframe, price float64) error
	SendLevelAlert(ctx context.Context, symbol string, level indicators.Level, price float64, above bool) error
	SendError(ctx context.Context, err error, context string) error
}

// NotificationChannel defines the interface for a notification channel.
type NotificationChannel interface {
	Name() string
	Send(ctx context.Context, n Notification) error
	IsEnabled() bool
}

// Notification represents a notification message.
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationZone  NotificationType = "zone"
	NotificationLevel NotificationType = "level"
	NotificationError NotificationType = "error"
	NotificationInfo  NotificationType = "info"
)

// MultiNotifier fans a notification out to every enabled channel.
type MultiNotifier struct {
	channels []NotificationChannel
	mu       sync.RWMutex
}

// NewMultiNotifier creates a MultiNotifier with channels from the
// configuration. With notifications disabled no channels are registered and
// every Send is a no-op.
func NewMultiNotifier(cfg *config.NotificationConfig) *MultiNotifier {
	mn := &MultiNotifier{
		channels: make([]NotificationChannel, 0),
	}

	if !cfg.Enabled {
		return mn
	}

	if cfg.Telegram.Enabled {
		mn.channels = append(mn.channels, NewTelegramNotifier(cfg.Telegram))
	}
	if cfg.Webhook.Enabled {
		mn.channels = append(mn.channels, NewWebhookNotifier(cfg.Webhook))
	}

	return mn
}

// AddChannel adds a notification channel.
func (mn *MultiNotifier) AddChannel(ch NotificationChannel) {
	mn.mu.Lock()
	defer mn.mu.Unlock()
	mn.channels = append(mn.channels, ch)
}

// Send delivers a notification to all enabled channels. Every channel is
// attempted; failures are collected into a single DeliveryError so the
// caller can tell delivery succeeded on no channel at all.
func (mn *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	mn.mu.RLock()
	channels := mn.channels
	mn.mu.RUnlock()

	var errs []string
	attempted := 0
	for _, ch := range channels {
		if !ch.IsEnabled() {
			continue
		}
		attempted++
		if err := ch.Send(ctx, n); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", ch.Name(), err))
		}
	}

	if attempted > 0 && len(errs) == attempted {
		return &apperrors.DeliveryError{
			Channel: "all",
			Err:     fmt.Errorf("%s", strings.Join(errs, "; ")),
		}
	}
	return nil
}

// SendZoneAlert sends a notification for a newly formed zone.
func (mn *MultiNotifier) SendZoneAlert(ctx context.Context, zone models.Zone, tf models.Timeframe, price float64) error {
	var emoji, direction string
	switch zone.Type {
	case models.ZoneBullish:
		emoji = "🟢"
		direction = "Bullish"
	case models.ZoneBearish:
		emoji = "🔴"
		direction = "Bearish"
	}

	title := fmt.Sprintf("%s %s VOB Detected (%dm)", emoji, direction, int(tf))
	message := fmt.Sprintf(
		"Timeframe: %d min\nZone: %.2f - %.2f\nFormed at: %s\nSpot: %.2f",
		int(tf),
		zone.ExtremeLevel,
		zone.BaseLevel,
		zone.StartTime.Format("02-Jan 15:04"),
		price,
	)

	return mn.Send(ctx, Notification{
		Type:    NotificationZone,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"zone_type":     string(zone.Type),
			"timeframe":     int(tf),
			"base_level":    zone.BaseLevel,
			"extreme_level": zone.ExtremeLevel,
			"start_time":    zone.StartTime.Format(time.RFC3339),
			"spot_price":    price,
		},
	})
}

// SendLevelAlert sends a notification for price approaching a technical level.
func (mn *MultiNotifier) SendLevelAlert(ctx context.Context, symbol string, level indicators.Level, price float64, above bool) error {
	side := "ABOVE"
	emoji := "📈"
	if !above {
		side = "BELOW"
		emoji = "📉"
	}

	title := fmt.Sprintf("%s %s near %s %s", emoji, symbol, level.Method, level.Name)
	message := fmt.Sprintf(
		"Level: %s %s = %.2f\nSpot: %.2f (%s level)",
		level.Method,
		level.Name,
		level.Value,
		price,
		side,
	)

	return mn.Send(ctx, Notification{
		Type:    NotificationLevel,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"symbol":     symbol,
			"method":     level.Method,
			"level_name": level.Name,
			"level":      level.Value,
			"spot_price": price,
			"side":       side,
		},
	})
}

// SendError sends an error notification.
func (mn *MultiNotifier) SendError(ctx context.Context, err error, errContext string) error {
	title := "❌ Error Occurred"
	message := fmt.Sprintf("Context: %s\nError: %v\nTime: %s",
		errContext, err, time.Now().Format("15:04:05"))

	return mn.Send(ctx, Notification{
		Type:    NotificationError,
		Title:   title,
		Message: message,
		Data: map[string]interface{}{
			"context": errContext,
			"error":   err.Error(),
		},
	})
}

// TelegramNotifier sends notifications via Telegram bot.
type TelegramNotifier struct {
	botToken string
	chatID   string
	enabled  bool
	client   *http.Client
}

// NewTelegramNotifier creates a new TelegramNotifier.
func NewTelegramNotifier(cfg config.TelegramConfig) *TelegramNotifier {
	return &TelegramNotifier{
		botToken: cfg.BotToken,
		chatID:   cfg.ChatID,
		enabled:  cfg.Enabled && cfg.BotToken != "" && cfg.ChatID != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the name of the notifier.
func (t *TelegramNotifier) Name() string {
	return "telegram"
}

// IsEnabled returns whether the notifier is enabled.
func (t *TelegramNotifier) IsEnabled() bool {
	return t.enabled
}

// Send sends a notification via Telegram.
func (t *TelegramNotifier) Send(ctx context.Context, n Notification) error {
	if !t.enabled {
		return nil
	}

	// Format message for Telegram (using HTML parse mode)
	text := fmt.Sprintf("<b>%s</b>\n\n%s", escapeHTML(n.Title), escapeHTML(n.Message))

	url := fmt.Sprintf("https://api.telegram.org/bot%s/sendMessage", t.botToken)

	payload := map[string]interface{}{
		"chat_id":    t.chatID,
		"text":       text,
		"parse_mode": "HTML",
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling telegram payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating telegram request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending telegram message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("telegram API returned status %d", resp.StatusCode)
	}

	return nil
}

// escapeHTML escapes HTML special characters for Telegram.
func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// WebhookNotifier sends notifications via HTTP webhook.
type WebhookNotifier struct {
	url     string
	enabled bool
	client  *http.Client
}

// NewWebhookNotifier creates a new WebhookNotifier.
func NewWebhookNotifier(cfg config.WebhookConfig) *WebhookNotifier {
	return &WebhookNotifier{
		url:     cfg.URL,
		enabled: cfg.Enabled && cfg.URL != "",
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Name returns the name of the notifier.
func (w *WebhookNotifier) Name() string {
	return "webhook"
}

// IsEnabled returns whether the notifier is enabled.
func (w *WebhookNotifier) IsEnabled() bool {
	return w.enabled
}

// Send sends a notification via webhook.
func (w *WebhookNotifier) Send(ctx context.Context, n Notification) error {
	if !w.enabled {
		return nil
	}

	payload := map[string]interface{}{
		"type":      n.Type,
		"title":     n.Title,
		"message":   n.Message,
		"data":      n.Data,
		"timestamp": n.Timestamp.Format(time.RFC3339),
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling webhook payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating webhook request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "NiftyAlerts/1.0")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}

	return nil
}

// NoOpNotifier is a notifier that does nothing (for testing or disabled notifications).
type NoOpNotifier struct{}

// NewNoOpNotifier creates a new NoOpNotifier.
func NewNoOpNotifier() *NoOpNotifier {
	return &NoOpNotifier{}
}

// Send does nothing.
func (n *NoOpNotifier) Send(ctx context.Context, notif Notification) error {
	return nil
}

// SendZoneAlert does nothing.
func (n *NoOpNotifier) SendZoneAlert(ctx context.Context, zone models.Zone, tf models.Timeframe, price float64) error {
	return nil
}

// SendLevelAlert does nothing.
func (n *NoOpNotifier) SendLevelAlert(ctx context.Context, symbol string, level indicators.Level, price float64, above bool) error {
	return nil
}

// SendError does nothing.
func (n *NoOpNotifier) SendError(ctx context.Context, err error, context string) error {
	return nil
}

package notification

import (
	"context"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/latspos/repairflow/internal/lifecycle"
	"go.uber.org/zap"
)

// WebhookNotifier posts notification events to the delivery hub over HTTP.
// Delivery failures are logged and swallowed: a lost notification must never
// block or roll back a transition.
type WebhookNotifier struct {
	client     *resty.Client
	webhookURL string
	logger     *zap.Logger
}

// Config holds webhook notifier configuration
type Config struct {
	WebhookURL string
	Timeout    time.Duration
	RetryCount int
}

// NewWebhookNotifier creates a webhook-backed notifier
func NewWebhookNotifier(cfg Config, logger *zap.Logger) *WebhookNotifier {
	client := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.RetryCount)

	return &WebhookNotifier{
		client:     client,
		webhookURL: cfg.WebhookURL,
		logger:     logger,
	}
}

var _ lifecycle.Notifier = (*WebhookNotifier)(nil)

// Notify implements lifecycle.Notifier
func (n *WebhookNotifier) Notify(ctx context.Context, event lifecycle.NotificationEvent) {
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(n.webhookURL)
	if err != nil {
		n.logger.Warn("Failed to deliver notification",
			zap.String("device_id", event.DeviceID),
			zap.String("status", string(event.Status)),
			zap.Error(err))
		return
	}

	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusAccepted {
		n.logger.Warn("Notification hub rejected event",
			zap.String("device_id", event.DeviceID),
			zap.Int("status_code", resp.StatusCode()))
		return
	}

	n.logger.Debug("Notification delivered",
		zap.String("device_id", event.DeviceID),
		zap.String("status", string(event.Status)))
}

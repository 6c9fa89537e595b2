// Package notification forwards the engine's notification decisions to the
// delivery hub. The engine only decides that a customer or operator should
// hear about a transition; SMS/WhatsApp/toast delivery lives elsewhere.
package notification

import (
	"context"

	"github.com/latspos/repairflow/internal/lifecycle"
	"go.uber.org/zap"
)

// LogNotifier records notification decisions in the log only. Used when no
// delivery hub is configured.
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a log-only notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

var _ lifecycle.Notifier = (*LogNotifier)(nil)

// Notify implements lifecycle.Notifier
func (n *LogNotifier) Notify(ctx context.Context, event lifecycle.NotificationEvent) {
	n.logger.Info("Notification decision",
		zap.String("device_id", event.DeviceID),
		zap.String("customer_id", event.CustomerID),
		zap.String("status", string(event.Status)),
		zap.String("message", event.Message),
		zap.String("trigger", event.Trigger))
}

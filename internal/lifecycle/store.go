package lifecycle

import (
	"context"

	"github.com/latspos/repairflow/internal/models"
)

// Store is the external data store the engine reads from and commits to.
// All guard evaluation happens on already-fetched data; I/O stays at the
// engine's edges. Lookups return (nil, nil) when the row does not exist,
// and the engine maps that onto its NotFound error class. Store I/O
// failures propagate untyped; retry policy belongs to the adapter.
type Store interface {
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	ListParts(ctx context.Context, deviceID string) ([]models.RepairPart, error)
	ListPayments(ctx context.Context, deviceID string) ([]models.Payment, error)

	// ApplyTransition atomically persists the status change, appends the
	// remark when one is carried, and records the audit history row. It
	// returns the updated device.
	ApplyTransition(ctx context.Context, commit TransitionCommit) (*models.Device, error)
}

// TransitionCommit is one validated status change ready to persist
type TransitionCommit struct {
	DeviceID       string
	PreviousStatus models.DeviceStatus
	NewStatus      models.DeviceStatus
	Actor          models.Actor
	Trigger        string
	Remark         string // empty means no remark to append
}

// NotificationEvent is the engine's decision that a notification should be
// produced. Delivery (toast, SMS, WhatsApp) is an external collaborator.
type NotificationEvent struct {
	DeviceID   string              `json:"device_id"`
	CustomerID string              `json:"customer_id"`
	Status     models.DeviceStatus `json:"status"`
	Message    string              `json:"message"`
	Trigger    string              `json:"trigger"`
}

// Notifier receives notification decisions. Implementations must not block
// the transition; failures are theirs to log.
type Notifier interface {
	Notify(ctx context.Context, event NotificationEvent)
}

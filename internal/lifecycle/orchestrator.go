package lifecycle

import (
	"context"
	"fmt"
	"strings"

	"github.com/latspos/repairflow/internal/models"
	"go.uber.org/zap"
)

// failedRemarkPrefix marks technician failure remarks for audit visibility
const failedRemarkPrefix = "[REPAIR FAILED] "

// Engine is the lifecycle orchestrator. It validates requested transitions
// against the transition table and the domain guards, commits the status
// change with its remark and audit record, and re-runs auto-progression
// after parts-state changes.
type Engine struct {
	store    Store
	notifier Notifier
	logger   *zap.Logger
}

// NewEngine creates a new lifecycle engine
func NewEngine(store Store, notifier Notifier, logger *zap.Logger) *Engine {
	return &Engine{
		store:    store,
		notifier: notifier,
		logger:   logger,
	}
}

// GetAllowedTransitions returns the transitions reachable for the actor from
// the device's current status, including present-but-disabled entries
func (e *Engine) GetAllowedTransitions(ctx context.Context, deviceID string, actor models.Actor) ([]Transition, error) {
	device, parts, payments, err := e.loadSnapshot(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return AllowedTransitions(device, actor, parts, payments), nil
}

// RequestTransition validates and applies a requested status change.
// Authorization and guard failures come back as *TransitionError; store
// failures propagate as-is.
func (e *Engine) RequestTransition(ctx context.Context, deviceID string, actor models.Actor, target models.DeviceStatus, remark string) (*models.Device, error) {
	if !target.IsValid() {
		return nil, InvalidInput("unknown target status %q", target)
	}
	if !actor.Role.IsValid() {
		return nil, InvalidInput("unknown role %q", actor.Role)
	}

	device, parts, payments, err := e.loadSnapshot(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	return e.applyTransition(ctx, device, parts, payments, actor, target, remark, models.TriggerManual)
}

// MarkFailed moves a device into the failed branch. Only the assigned
// technician may do this, from assigned or in-repair, and the remark
// explaining the failure is mandatory.
func (e *Engine) MarkFailed(ctx context.Context, deviceID string, actor models.Actor, remark string) (*models.Device, error) {
	if strings.TrimSpace(remark) == "" {
		return nil, InvalidInput("a remark explaining the failure is required")
	}

	device, parts, payments, err := e.loadSnapshot(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	return e.applyTransition(ctx, device, parts, payments, actor,
		models.StatusFailed, failedRemarkPrefix+remark, models.TriggerManual)
}

// ResolveFailedDevice routes a failed device out of the failure branch. The
// remark is mandatory and the target must be one of the permitted exits for
// the actor's role.
func (e *Engine) ResolveFailedDevice(ctx context.Context, deviceID string, actor models.Actor, target models.DeviceStatus, remark string) (*models.Device, error) {
	if strings.TrimSpace(remark) == "" {
		return nil, InvalidInput("a remark is required to resolve a failed device")
	}
	if !target.IsValid() {
		return nil, InvalidInput("unknown target status %q", target)
	}

	device, parts, payments, err := e.loadSnapshot(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	if device.Status != models.StatusFailed {
		return nil, InvalidInput("device %s is not in the failed state", deviceID)
	}

	return e.applyTransition(ctx, device, parts, payments, actor, target, remark, models.TriggerManual)
}

// EvaluateAutoProgression reports whether the device should advance
// automatically given its current parts snapshot. Pure evaluation, no
// mutation; callers poll this on a timer or on parts-change events.
func (e *Engine) EvaluateAutoProgression(ctx context.Context, deviceID string) (AutoProgression, error) {
	device, err := e.store.GetDevice(ctx, deviceID)
	if err != nil {
		return AutoProgression{}, fmt.Errorf("failed to get device: %w", err)
	}
	if device == nil {
		return AutoProgression{}, NotFound("device %s not found", deviceID)
	}

	parts, err := e.store.ListParts(ctx, deviceID)
	if err != nil {
		return AutoProgression{}, fmt.Errorf("failed to list parts: %w", err)
	}

	return ShouldAutoProgress(parts, device.Status), nil
}

// OnPartsChanged re-evaluates auto-progression for a device whose parts
// snapshot changed and applies the recommendation when one comes back. The
// recommendation is re-validated through the transition table on behalf of
// the assigned technician; it never bypasses the permission or guard checks.
func (e *Engine) OnPartsChanged(ctx context.Context, deviceID string, trigger string) error {
	device, parts, payments, err := e.loadSnapshot(ctx, deviceID)
	if err != nil {
		return err
	}

	progression := ShouldAutoProgress(parts, device.Status)
	if !progression.ShouldProgress {
		return nil
	}

	if device.AssignedTechnicianID == "" {
		e.logger.Info("Skipping auto-progression, no technician assigned",
			zap.String("device_id", deviceID),
			zap.String("status", string(device.Status)))
		return nil
	}

	actor := models.Actor{ID: device.AssignedTechnicianID, Role: models.RoleTechnician}
	_, err = e.applyTransition(ctx, device, parts, payments, actor,
		progression.NextStatus, progression.Message, trigger)
	if err != nil {
		if CodeOf(err) != "" {
			// The snapshot may have moved on since the recommendation;
			// a rejected auto-progression is not a fault.
			e.logger.Info("Auto-progression rejected",
				zap.String("device_id", deviceID),
				zap.String("next_status", string(progression.NextStatus)),
				zap.Error(err))
			return nil
		}
		return err
	}
	return nil
}

// applyTransition runs the full validation pipeline against an already
// loaded snapshot and commits on success
func (e *Engine) applyTransition(ctx context.Context, device *models.Device, parts []models.RepairPart, payments []models.Payment, actor models.Actor, target models.DeviceStatus, remark string, trigger string) (*models.Device, error) {
	// A remark is mandatory when entering failed and when leaving it.
	if target == models.StatusFailed || device.Status == models.StatusFailed {
		if strings.TrimSpace(remark) == "" {
			return nil, InvalidInput("a remark is required for transitions involving the failed state")
		}
	}

	transitions := AllowedTransitions(device, actor, parts, payments)
	transition, ok := FindTransition(transitions, target)
	if !ok {
		return nil, Unauthorized("%s %s may not move device %s from %s to %s",
			actor.Role, actor.ID, device.ID, device.Status, target)
	}
	if !transition.Enabled {
		return nil, GuardNotSatisfied(transition.DisabledReason)
	}

	updated, err := e.store.ApplyTransition(ctx, TransitionCommit{
		DeviceID:       device.ID,
		PreviousStatus: device.Status,
		NewStatus:      target,
		Actor:          actor,
		Trigger:        trigger,
		Remark:         remark,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to apply transition: %w", err)
	}

	e.logger.Info("Device status updated",
		zap.String("device_id", device.ID),
		zap.String("from", string(device.Status)),
		zap.String("to", string(target)),
		zap.String("actor_id", actor.ID),
		zap.String("actor_role", string(actor.Role)),
		zap.String("trigger", trigger))

	e.emitNotification(ctx, updated, remark, trigger)

	return updated, nil
}

// notifiableStatuses are the states the customer (or care desk) should hear
// about when a device reaches them
var notifiableStatuses = map[models.DeviceStatus]string{
	models.StatusFailed:                 "Repair could not be completed",
	models.StatusRepairComplete:         "Repair completed, device in final checks",
	models.StatusReturnedToCustomerCare: "Device ready for pickup at customer care",
	models.StatusDone:                   "Device returned to customer",
}

// emitNotification hands the notification decision to the delivery
// collaborator. Delivery problems never block the transition.
func (e *Engine) emitNotification(ctx context.Context, device *models.Device, remark string, trigger string) {
	message, ok := notifiableStatuses[device.Status]
	if !ok {
		if trigger == models.TriggerManual {
			return
		}
		// Auto-progressions always notify so the technician sees the move.
		message = remark
	}

	e.notifier.Notify(ctx, NotificationEvent{
		DeviceID:   device.ID,
		CustomerID: device.CustomerID,
		Status:     device.Status,
		Message:    message,
		Trigger:    trigger,
	})
}

// loadSnapshot fetches the device with its parts and payments in one place
// so every decision works from a consistent read
func (e *Engine) loadSnapshot(ctx context.Context, deviceID string) (*models.Device, []models.RepairPart, []models.Payment, error) {
	device, err := e.store.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to get device: %w", err)
	}
	if device == nil {
		return nil, nil, nil, NotFound("device %s not found", deviceID)
	}

	parts, err := e.store.ListParts(ctx, deviceID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list parts: %w", err)
	}

	payments, err := e.store.ListPayments(ctx, deviceID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return device, parts, payments, nil
}

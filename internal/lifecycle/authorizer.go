package lifecycle

import (
	"github.com/latspos/repairflow/internal/models"
)

// Transition is one reachable next status for an actor. A transition can be
// present but disabled by a domain guard; the UI renders it greyed-out with
// the reason instead of hiding it.
type Transition struct {
	Target         models.DeviceStatus `json:"status"`
	Enabled        bool                `json:"enabled"`
	DisabledReason string              `json:"disabled_reason,omitempty"`
}

// roleTargets splits the reachable statuses by actor class. technician
// applies only to the assigned technician; staff covers admin and
// customer-care, who bypass the assignment check.
type roleTargets struct {
	technician []models.DeviceStatus
	staff      []models.DeviceStatus
}

// forwardTransitions is the single declarative transition table for the
// normal workflow. Both the authorization check and the UI's option
// rendering consume it, so the rule lives in one place.
var forwardTransitions = map[models.DeviceStatus]roleTargets{
	models.StatusAssigned: {
		technician: []models.DeviceStatus{models.StatusDiagnosisStarted, models.StatusFailed},
		staff:      []models.DeviceStatus{models.StatusDiagnosisStarted},
	},
	models.StatusDiagnosisStarted: {
		technician: []models.DeviceStatus{models.StatusAwaitingParts, models.StatusInRepair},
		staff:      []models.DeviceStatus{models.StatusAwaitingParts, models.StatusInRepair},
	},
	models.StatusAwaitingParts: {
		technician: []models.DeviceStatus{models.StatusPartsArrived},
		staff:      []models.DeviceStatus{models.StatusPartsArrived},
	},
	models.StatusPartsArrived: {
		technician: []models.DeviceStatus{models.StatusInRepair},
		staff:      []models.DeviceStatus{models.StatusInRepair},
	},
	models.StatusInRepair: {
		technician: []models.DeviceStatus{models.StatusReassembledTesting, models.StatusFailed},
		staff:      []models.DeviceStatus{models.StatusReassembledTesting},
	},
	models.StatusReassembledTesting: {
		technician: []models.DeviceStatus{models.StatusRepairComplete},
		staff:      []models.DeviceStatus{models.StatusRepairComplete},
	},
	models.StatusRepairComplete: {
		// A technician cannot hand the device over.
		staff: []models.DeviceStatus{models.StatusReturnedToCustomerCare},
	},
	models.StatusReturnedToCustomerCare: {
		staff: []models.DeviceStatus{models.StatusDone},
	},
	models.StatusDone: {},
}

// failedExits is the dedicated sub-flow table. Once failed, the forward
// table no longer applies: the assigned technician can route the device back
// to customer care, and staff can close it out directly.
var failedExits = roleTargets{
	technician: []models.DeviceStatus{models.StatusReturnedToCustomerCare},
	staff:      []models.DeviceStatus{models.StatusDone},
}

// AllowedTransitions returns the set of statuses reachable from the device's
// current status for the given actor, with guard outcomes attached. An
// unknown (role, state) pair yields an empty set, which callers render as
// "no action available", not as an error.
func AllowedTransitions(device *models.Device, actor models.Actor, parts []models.RepairPart, payments []models.Payment) []Transition {
	targets := targetsFor(device, actor)
	transitions := make([]Transition, 0, len(targets))
	for _, target := range targets {
		transitions = append(transitions, applyGuards(device, target, parts, payments))
	}
	return transitions
}

// FindTransition locates a target status in an allowed-transition set
func FindTransition(transitions []Transition, target models.DeviceStatus) (Transition, bool) {
	for _, t := range transitions {
		if t.Target == target {
			return t, true
		}
	}
	return Transition{}, false
}

// targetsFor resolves the raw (unguarded) reachable statuses
func targetsFor(device *models.Device, actor models.Actor) []models.DeviceStatus {
	var row roleTargets
	if device.Status == models.StatusFailed {
		row = failedExits
	} else {
		var ok bool
		row, ok = forwardTransitions[device.Status]
		if !ok {
			return nil
		}
	}

	switch {
	case actor.Role.IsStaff():
		return row.staff
	case actor.IsAssignedTechnician(device):
		return row.technician
	default:
		// A technician who is not assigned to this device gets nothing,
		// regardless of state.
		return nil
	}
}

// applyGuards annotates a transition with its domain guard outcome.
// Transitions into in-repair require parts readiness; the transition into
// done requires payment clearance. Everything else is unguarded.
func applyGuards(device *models.Device, target models.DeviceStatus, parts []models.RepairPart, payments []models.Payment) Transition {
	switch target {
	case models.StatusInRepair:
		if result := ValidateRepairStart(parts); !result.Valid {
			return Transition{Target: target, Enabled: false, DisabledReason: result.Message}
		}
	case models.StatusDone:
		// Closing out a failed device is an administrative action (refund),
		// not a handover, so the payment gate does not apply there.
		if device.Status == models.StatusFailed {
			break
		}
		cost := ComputeDeviceCost(device.RepairCost, parts)
		if result := ValidateHandover(cost, SummarizePayments(payments)); !result.Valid {
			return Transition{Target: target, Enabled: false, DisabledReason: result.Message}
		}
	}
	return Transition{Target: target, Enabled: true}
}

package models

import "time"

// Device represents a customer device going through the repair workflow
type Device struct {
	ID                   string       `json:"id"`
	CustomerID           string       `json:"customer_id"`
	Brand                string       `json:"brand"`
	Model                string       `json:"model"`
	IssueDescription     string       `json:"issue_description"`
	Status               DeviceStatus `json:"status"`
	AssignedTechnicianID string       `json:"assigned_technician_id,omitempty"`
	RepairCost           float64      `json:"repair_cost"`
	CreatedAt            time.Time    `json:"created_at"`
	UpdatedAt            time.Time    `json:"updated_at"`
}

// DeviceStatus is the workflow state of a repair order
type DeviceStatus string

// Workflow states. The forward path runs assigned → done; failed is a side
// branch reachable only from assigned and in-repair.
const (
	StatusAssigned               DeviceStatus = "assigned"
	StatusDiagnosisStarted       DeviceStatus = "diagnosis-started"
	StatusAwaitingParts          DeviceStatus = "awaiting-parts"
	StatusPartsArrived           DeviceStatus = "parts-arrived"
	StatusInRepair               DeviceStatus = "in-repair"
	StatusReassembledTesting     DeviceStatus = "reassembled-testing"
	StatusRepairComplete         DeviceStatus = "repair-complete"
	StatusReturnedToCustomerCare DeviceStatus = "returned-to-customer-care"
	StatusDone                   DeviceStatus = "done"
	StatusFailed                 DeviceStatus = "failed"
)

// AllDeviceStatuses lists every workflow state, in forward order with the
// failure branch last
var AllDeviceStatuses = []DeviceStatus{
	StatusAssigned,
	StatusDiagnosisStarted,
	StatusAwaitingParts,
	StatusPartsArrived,
	StatusInRepair,
	StatusReassembledTesting,
	StatusRepairComplete,
	StatusReturnedToCustomerCare,
	StatusDone,
	StatusFailed,
}

// IsValid reports whether s is a known workflow state
func (s DeviceStatus) IsValid() bool {
	for _, known := range AllDeviceStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions leave s
func (s DeviceStatus) IsTerminal() bool {
	return s == StatusDone
}

// ParseDeviceStatus converts a raw string into a DeviceStatus
func ParseDeviceStatus(raw string) (DeviceStatus, bool) {
	s := DeviceStatus(raw)
	return s, s.IsValid()
}

// Remark is one entry in a device's append-only remark log
type Remark struct {
	ID        string    `json:"id"`
	DeviceID  string    `json:"device_id"`
	Content   string    `json:"content"`
	AuthorID  string    `json:"author_id"`
	CreatedAt time.Time `json:"created_at"`
}

// StatusHistory is an audit record of one applied transition
type StatusHistory struct {
	ID             int64        `json:"id"`
	DeviceID       string       `json:"device_id"`
	PreviousStatus DeviceStatus `json:"previous_status"`
	NewStatus      DeviceStatus `json:"new_status"`
	ActorID        string       `json:"actor_id"`
	ActorRole      Role         `json:"actor_role"`
	Trigger        string       `json:"trigger"`
	CreatedAt      time.Time    `json:"created_at"`
}

// Transition trigger constants
const (
	TriggerManual = "MANUAL" // operator action through the API
	TriggerAuto   = "AUTO"   // auto-progression after a parts change
	TriggerPoll   = "POLL"   // auto-progression detected by the poller
)

package models

import "time"

// RepairPart represents a spare part attached to a repair order
type RepairPart struct {
	ID        string     `json:"id"`
	DeviceID  string     `json:"device_id"`
	Name      string     `json:"name"`
	Quantity  int        `json:"quantity"`
	UnitCost  float64    `json:"unit_cost"`
	Status    PartStatus `json:"status"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// PartStatus is the procurement state of a spare part
type PartStatus string

// Part states, ordered by readiness. accepted and received are both "ready";
// used is terminal consumption during the repair step.
const (
	PartStatusNeeded   PartStatus = "needed"
	PartStatusOrdered  PartStatus = "ordered"
	PartStatusAccepted PartStatus = "accepted"
	PartStatusReceived PartStatus = "received"
	PartStatusUsed     PartStatus = "used"
)

// AllPartStatuses lists every part state in readiness order
var AllPartStatuses = []PartStatus{
	PartStatusNeeded,
	PartStatusOrdered,
	PartStatusAccepted,
	PartStatusReceived,
	PartStatusUsed,
}

// IsValid reports whether s is a known part state
func (s PartStatus) IsValid() bool {
	for _, known := range AllPartStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// TotalCost returns the line cost of the part
func (p RepairPart) TotalCost() float64 {
	return p.UnitCost * float64(p.Quantity)
}

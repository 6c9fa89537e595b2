package lifecycle

import (
	"fmt"

	"github.com/latspos/repairflow/internal/models"
)

// AutoProgression is a recommendation to move a waiting device forward after
// its parts became ready. It is only a recommendation: the orchestrator
// re-validates it through the transition table before applying.
type AutoProgression struct {
	ShouldProgress bool                `json:"should_progress"`
	NextStatus     models.DeviceStatus `json:"next_status,omitempty"`
	Message        string              `json:"message,omitempty"`
}

// autoProgressRules maps the waiting statuses to the status they advance to
// once every part is ready
var autoProgressRules = map[models.DeviceStatus]models.DeviceStatus{
	models.StatusDiagnosisStarted: models.StatusInRepair,
	models.StatusAwaitingParts:    models.StatusPartsArrived,
	models.StatusPartsArrived:     models.StatusInRepair,
}

// ShouldAutoProgress decides whether the device should advance automatically.
// It fires only when parts exist and all are ready; an empty list never
// triggers auto-progression, since there was nothing to wait for. The
// evaluation is pure, so redundant invocations are harmless.
func ShouldAutoProgress(parts []models.RepairPart, current models.DeviceStatus) AutoProgression {
	if len(parts) == 0 || !AllPartsReady(parts) {
		return AutoProgression{}
	}

	next, ok := autoProgressRules[current]
	if !ok {
		return AutoProgression{}
	}

	return AutoProgression{
		ShouldProgress: true,
		NextStatus:     next,
		Message:        fmt.Sprintf("All %d part(s) ready, advancing to %s", len(parts), next),
	}
}

// PartsStatusChanged reports whether the parts snapshot changed in a way
// that warrants re-evaluating auto-progression: the part count differs, or a
// part moved into received/used where it previously was not.
func PartsStatusChanged(previous, current []models.RepairPart) bool {
	if len(previous) != len(current) {
		return true
	}

	prevByID := make(map[string]models.PartStatus, len(previous))
	for _, p := range previous {
		prevByID[p.ID] = p.Status
	}

	for _, p := range current {
		if !arrivedStatus(p.Status) {
			continue
		}
		before, known := prevByID[p.ID]
		if !known || !arrivedStatus(before) {
			return true
		}
	}
	return false
}

func arrivedStatus(s models.PartStatus) bool {
	return s == models.PartStatusReceived || s == models.PartStatusUsed
}

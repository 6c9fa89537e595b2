package lifecycle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/latspos/repairflow/internal/models"
)

// ValidationResult is the outcome of a pure guard evaluation
type ValidationResult struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

// IsPartReady reports whether the part no longer blocks the repair step.
// A used part counts as ready: readiness means "not blocking", not
// "available on the shelf".
func IsPartReady(p models.RepairPart) bool {
	switch p.Status {
	case models.PartStatusAccepted, models.PartStatusReceived, models.PartStatusUsed:
		return true
	}
	return false
}

// AllPartsReady reports whether every part is ready. An empty list is ready:
// absence of a requirement must never block progress.
func AllPartsReady(parts []models.RepairPart) bool {
	for _, p := range parts {
		if !IsPartReady(p) {
			return false
		}
	}
	return true
}

// HasOutstandingParts reports whether any part is still needed or ordered
func HasOutstandingParts(parts []models.RepairPart) bool {
	for _, p := range parts {
		if p.Status == models.PartStatusNeeded || p.Status == models.PartStatusOrdered {
			return true
		}
	}
	return false
}

// OutstandingParts returns the parts still blocking the repair step
func OutstandingParts(parts []models.RepairPart) []models.RepairPart {
	var out []models.RepairPart
	for _, p := range parts {
		if !IsPartReady(p) {
			out = append(out, p)
		}
	}
	return out
}

// ValidateRepairStart decides whether the repair step may begin given the
// current parts snapshot
func ValidateRepairStart(parts []models.RepairPart) ValidationResult {
	if len(parts) == 0 {
		return ValidationResult{Valid: true, Message: "No spare parts required"}
	}

	outstanding := OutstandingParts(parts)
	if len(outstanding) == 0 {
		return ValidationResult{
			Valid:   true,
			Message: fmt.Sprintf("All %d part(s) ready", len(parts)),
		}
	}

	if len(outstanding) == len(parts) {
		return ValidationResult{
			Valid: false,
			Message: fmt.Sprintf("No parts have been accepted yet: %d part(s) still pending (%s)",
				len(outstanding), outstandingStatusList(outstanding)),
		}
	}

	return ValidationResult{
		Valid: false,
		Message: fmt.Sprintf("%d part(s) still pending (%s)",
			len(outstanding), outstandingStatusList(outstanding)),
	}
}

// outstandingStatusList names the distinct statuses of the blocking parts,
// in readiness order, e.g. "needed, ordered"
func outstandingStatusList(parts []models.RepairPart) string {
	seen := make(map[models.PartStatus]bool)
	for _, p := range parts {
		seen[p.Status] = true
	}

	order := map[models.PartStatus]int{}
	for i, s := range models.AllPartStatuses {
		order[s] = i
	}

	statuses := make([]string, 0, len(seen))
	for s := range seen {
		statuses = append(statuses, string(s))
	}
	sort.Slice(statuses, func(i, j int) bool {
		return order[models.PartStatus(statuses[i])] < order[models.PartStatus(statuses[j])]
	})

	return strings.Join(statuses, ", ")
}

package lifecycle

import (
	"fmt"

	"github.com/latspos/repairflow/internal/models"
)

// CostBreakdown is the accrued cost of a repair order, itemized so the
// amount-due message can name both components
type CostBreakdown struct {
	RepairCost float64 `json:"repair_cost"`
	PartsCost  float64 `json:"parts_cost"`
	Total      float64 `json:"total"`
}

// PaymentSummary aggregates recorded payments by settlement state
type PaymentSummary struct {
	TotalPaid    float64 `json:"total_paid"`
	TotalPending float64 `json:"total_pending"`
}

// PartsCost sums unit cost × quantity over parts committed to the job.
// needed parts count because the cost is owed before physical receipt;
// ordered and accepted parts are not yet on the bill.
func PartsCost(parts []models.RepairPart) float64 {
	var total float64
	for _, p := range parts {
		switch p.Status {
		case models.PartStatusNeeded, models.PartStatusReceived, models.PartStatusUsed:
			total += p.TotalCost()
		}
	}
	return total
}

// ComputeDeviceCost builds the cost breakdown for a device
func ComputeDeviceCost(repairCost float64, parts []models.RepairPart) CostBreakdown {
	partsCost := PartsCost(parts)
	return CostBreakdown{
		RepairCost: repairCost,
		PartsCost:  partsCost,
		Total:      repairCost + partsCost,
	}
}

// SummarizePayments aggregates completed and pending amounts. Failed
// payments count toward neither.
func SummarizePayments(payments []models.Payment) PaymentSummary {
	var sum PaymentSummary
	for _, p := range payments {
		switch p.Status {
		case models.PaymentStatusCompleted:
			sum.TotalPaid += p.Amount
		case models.PaymentStatusPending:
			sum.TotalPending += p.Amount
		}
	}
	return sum
}

// ValidateHandover decides whether the device may be handed back to the
// customer. Consulted only for the transition into done; internal workflow
// statuses are never payment-gated.
func ValidateHandover(cost CostBreakdown, payments PaymentSummary) ValidationResult {
	if cost.Total == 0 {
		return ValidationResult{Valid: true, Message: "No charge recorded for this repair"}
	}

	if payments.TotalPending > 0 {
		return ValidationResult{
			Valid: false,
			Message: fmt.Sprintf("%s in pending payments must clear before handover",
				formatAmount(payments.TotalPending)),
		}
	}

	if payments.TotalPaid < cost.Total {
		due := cost.Total - payments.TotalPaid
		return ValidationResult{
			Valid: false,
			Message: fmt.Sprintf("%s still due before handover (repair %s + parts %s, paid %s)",
				formatAmount(due), formatAmount(cost.RepairCost),
				formatAmount(cost.PartsCost), formatAmount(payments.TotalPaid)),
		}
	}

	return ValidationResult{Valid: true, Message: "Payment cleared"}
}

// formatAmount renders a monetary amount without trailing decimal noise
func formatAmount(amount float64) string {
	if amount == float64(int64(amount)) {
		return fmt.Sprintf("%d", int64(amount))
	}
	return fmt.Sprintf("%.2f", amount)
}

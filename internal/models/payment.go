package models

import "time"

// Payment represents a recorded customer payment against a repair order
type Payment struct {
	ID         string        `json:"id"`
	DeviceID   string        `json:"device_id"`
	Amount     float64       `json:"amount"`
	Status     PaymentStatus `json:"status"`
	Type       PaymentType   `json:"type"`
	RecordedAt time.Time     `json:"recorded_at"`
}

// PaymentStatus is the settlement state of a payment
type PaymentStatus string

const (
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// PaymentType distinguishes payments, deposits and refunds
type PaymentType string

const (
	PaymentTypePayment PaymentType = "payment"
	PaymentTypeDeposit PaymentType = "deposit"
	PaymentTypeRefund  PaymentType = "refund"
)

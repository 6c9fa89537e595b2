package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/latspos/repairflow/internal/models"
	"go.uber.org/zap"
)

// PaymentRepository handles payment database operations
type PaymentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sql.DB, logger *zap.Logger) *PaymentRepository {
	return &PaymentRepository{
		db:     db,
		logger: logger,
	}
}

// Create records a new payment
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (id, device_id, amount, status, type)
		VALUES (?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.DeviceID,
		payment.Amount,
		payment.Status,
		payment.Type,
	)
	if err != nil {
		r.logger.Error("Failed to create payment",
			zap.String("device_id", payment.DeviceID),
			zap.Error(err))
		return fmt.Errorf("failed to create payment: %w", err)
	}
	return nil
}

// ListByDevice returns all payments recorded against a device
func (r *PaymentRepository) ListByDevice(ctx context.Context, deviceID string) ([]models.Payment, error) {
	query := `
		SELECT id, device_id, amount, status, type, recorded_at
		FROM payments
		WHERE device_id = ?
		ORDER BY recorded_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		r.logger.Error("Failed to list payments", zap.String("device_id", deviceID), zap.Error(err))
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}
	defer rows.Close()

	var payments []models.Payment
	for rows.Next() {
		var payment models.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.DeviceID,
			&payment.Amount,
			&payment.Status,
			&payment.Type,
			&payment.RecordedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan payment: %w", err)
		}
		payments = append(payments, payment)
	}
	return payments, rows.Err()
}

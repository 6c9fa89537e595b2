package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/latspos/repairflow/internal/models"
	"go.uber.org/zap"
)

// PartRepository handles repair part database operations
type PartRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewPartRepository creates a new part repository
func NewPartRepository(db *sql.DB, logger *zap.Logger) *PartRepository {
	return &PartRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new repair part
func (r *PartRepository) Create(ctx context.Context, part *models.RepairPart) error {
	query := `
		INSERT INTO repair_parts (id, device_id, name, quantity, unit_cost, status)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		part.ID,
		part.DeviceID,
		part.Name,
		part.Quantity,
		part.UnitCost,
		part.Status,
	)
	if err != nil {
		r.logger.Error("Failed to create part",
			zap.String("device_id", part.DeviceID),
			zap.String("name", part.Name),
			zap.Error(err))
		return fmt.Errorf("failed to create part: %w", err)
	}
	return nil
}

// ListByDevice returns all parts attached to a device
func (r *PartRepository) ListByDevice(ctx context.Context, deviceID string) ([]models.RepairPart, error) {
	query := `
		SELECT id, device_id, name, quantity, unit_cost, status, created_at, updated_at
		FROM repair_parts
		WHERE device_id = ?
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		r.logger.Error("Failed to list parts", zap.String("device_id", deviceID), zap.Error(err))
		return nil, fmt.Errorf("failed to list parts: %w", err)
	}
	defer rows.Close()

	var parts []models.RepairPart
	for rows.Next() {
		var part models.RepairPart
		if err := rows.Scan(
			&part.ID,
			&part.DeviceID,
			&part.Name,
			&part.Quantity,
			&part.UnitCost,
			&part.Status,
			&part.CreatedAt,
			&part.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan part: %w", err)
		}
		parts = append(parts, part)
	}
	return parts, rows.Err()
}

// UpdateStatus advances a part's procurement status
func (r *PartRepository) UpdateStatus(ctx context.Context, id string, status models.PartStatus) error {
	query := `
		UPDATE repair_parts
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		r.logger.Error("Failed to update part status",
			zap.String("id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return fmt.Errorf("failed to update part status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("part not found: %s", id)
	}
	return nil
}

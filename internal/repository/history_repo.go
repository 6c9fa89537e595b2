package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/latspos/repairflow/internal/models"
	"go.uber.org/zap"
)

// HistoryRepository handles the status transition audit trail
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) *HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create records one applied transition
func (r *HistoryRepository) Create(tx *sql.Tx, history *models.StatusHistory) error {
	query := `
		INSERT INTO status_history (
			device_id, previous_status, new_status, actor_id, actor_role, trigger_type
		) VALUES (?, ?, ?, ?, ?, ?)
	`

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query,
			history.DeviceID,
			history.PreviousStatus,
			history.NewStatus,
			history.ActorID,
			history.ActorRole,
			history.Trigger,
		)
	} else {
		result, err = r.db.Exec(query,
			history.DeviceID,
			history.PreviousStatus,
			history.NewStatus,
			history.ActorID,
			history.ActorRole,
			history.Trigger,
		)
	}
	if err != nil {
		r.logger.Error("Failed to create history record",
			zap.String("device_id", history.DeviceID),
			zap.Error(err))
		return fmt.Errorf("failed to create history: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	history.ID = id
	return nil
}

// ListByDevice returns the transition history for a device, oldest first
func (r *HistoryRepository) ListByDevice(ctx context.Context, deviceID string) ([]models.StatusHistory, error) {
	query := `
		SELECT id, device_id, previous_status, new_status, actor_id, actor_role,
			trigger_type, created_at
		FROM status_history
		WHERE device_id = ?
		ORDER BY id
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		r.logger.Error("Failed to list history", zap.String("device_id", deviceID), zap.Error(err))
		return nil, fmt.Errorf("failed to list history: %w", err)
	}
	defer rows.Close()

	var records []models.StatusHistory
	for rows.Next() {
		var record models.StatusHistory
		if err := rows.Scan(
			&record.ID,
			&record.DeviceID,
			&record.PreviousStatus,
			&record.NewStatus,
			&record.ActorID,
			&record.ActorRole,
			&record.Trigger,
			&record.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history record: %w", err)
		}
		records = append(records, record)
	}
	return records, rows.Err()
}

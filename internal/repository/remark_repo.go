package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/latspos/repairflow/internal/models"
	"go.uber.org/zap"
)

// RemarkRepository handles the append-only remark log. Rows are only ever
// inserted; there is deliberately no update or delete.
type RemarkRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewRemarkRepository creates a new remark repository
func NewRemarkRepository(db *sql.DB, logger *zap.Logger) *RemarkRepository {
	return &RemarkRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a remark to a device's log
func (r *RemarkRepository) Create(tx *sql.Tx, remark *models.Remark) error {
	query := `
		INSERT INTO device_remarks (id, device_id, content, author_id)
		VALUES (?, ?, ?, ?)
	`

	var err error
	if tx != nil {
		_, err = tx.Exec(query, remark.ID, remark.DeviceID, remark.Content, remark.AuthorID)
	} else {
		_, err = r.db.Exec(query, remark.ID, remark.DeviceID, remark.Content, remark.AuthorID)
	}
	if err != nil {
		r.logger.Error("Failed to create remark",
			zap.String("device_id", remark.DeviceID),
			zap.Error(err))
		return fmt.Errorf("failed to create remark: %w", err)
	}
	return nil
}

// ListByDevice returns a device's remarks in insertion order
func (r *RemarkRepository) ListByDevice(ctx context.Context, deviceID string) ([]models.Remark, error) {
	query := `
		SELECT id, device_id, content, author_id, created_at
		FROM device_remarks
		WHERE device_id = ?
		ORDER BY created_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, deviceID)
	if err != nil {
		r.logger.Error("Failed to list remarks", zap.String("device_id", deviceID), zap.Error(err))
		return nil, fmt.Errorf("failed to list remarks: %w", err)
	}
	defer rows.Close()

	var remarks []models.Remark
	for rows.Next() {
		var remark models.Remark
		if err := rows.Scan(
			&remark.ID,
			&remark.DeviceID,
			&remark.Content,
			&remark.AuthorID,
			&remark.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan remark: %w", err)
		}
		remarks = append(remarks, remark)
	}
	return remarks, rows.Err()
}

package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/latspos/repairflow/internal/models"
	"go.uber.org/zap"
)

// DeviceRepository handles device database operations
type DeviceRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewDeviceRepository creates a new device repository
func NewDeviceRepository(db *sql.DB, logger *zap.Logger) *DeviceRepository {
	return &DeviceRepository{
		db:     db,
		logger: logger,
	}
}

const deviceColumns = `id, customer_id, brand, model, issue_description, status,
	assigned_technician_id, repair_cost, created_at, updated_at`

// Create inserts a new device
func (r *DeviceRepository) Create(ctx context.Context, device *models.Device) error {
	query := `
		INSERT INTO devices (
			id, customer_id, brand, model, issue_description, status,
			assigned_technician_id, repair_cost
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		device.ID,
		device.CustomerID,
		device.Brand,
		device.Model,
		device.IssueDescription,
		device.Status,
		device.AssignedTechnicianID,
		device.RepairCost,
	)
	if err != nil {
		r.logger.Error("Failed to create device", zap.String("id", device.ID), zap.Error(err))
		return fmt.Errorf("failed to create device: %w", err)
	}
	return nil
}

// GetByID retrieves a device by ID, returning (nil, nil) when absent
func (r *DeviceRepository) GetByID(ctx context.Context, id string) (*models.Device, error) {
	query := `SELECT ` + deviceColumns + ` FROM devices WHERE id = ?`

	device, err := scanDevice(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get device", zap.String("id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to get device: %w", err)
	}
	return device, nil
}

// UpdateStatus updates a device's workflow status
func (r *DeviceRepository) UpdateStatus(tx *sql.Tx, id string, status models.DeviceStatus) error {
	query := `
		UPDATE devices
		SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	var result sql.Result
	var err error
	if tx != nil {
		result, err = tx.Exec(query, status, id)
	} else {
		result, err = r.db.Exec(query, status, id)
	}
	if err != nil {
		r.logger.Error("Failed to update device status",
			zap.String("id", id),
			zap.String("status", string(status)),
			zap.Error(err))
		return fmt.Errorf("failed to update device status: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("device not found: %s", id)
	}
	return nil
}

// ListByStatuses returns devices currently in any of the given statuses
func (r *DeviceRepository) ListByStatuses(ctx context.Context, statuses []models.DeviceStatus, limit int) ([]*models.Device, error) {
	if len(statuses) == 0 {
		return nil, nil
	}

	placeholders := make([]string, len(statuses))
	args := make([]interface{}, 0, len(statuses)+1)
	for i, s := range statuses {
		placeholders[i] = "?"
		args = append(args, s)
	}
	args = append(args, limit)

	query := `SELECT ` + deviceColumns + ` FROM devices
		WHERE status IN (` + strings.Join(placeholders, ", ") + `)
		ORDER BY updated_at DESC
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list devices by status", zap.Error(err))
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	defer rows.Close()

	var devices []*models.Device
	for rows.Next() {
		device, err := scanDevice(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan device: %w", err)
		}
		devices = append(devices, device)
	}
	return devices, rows.Err()
}

// scanner covers both *sql.Row and *sql.Rows
type scanner interface {
	Scan(dest ...interface{}) error
}

func scanDevice(s scanner) (*models.Device, error) {
	var device models.Device
	err := s.Scan(
		&device.ID,
		&device.CustomerID,
		&device.Brand,
		&device.Model,
		&device.IssueDescription,
		&device.Status,
		&device.AssignedTechnicianID,
		&device.RepairCost,
		&device.CreatedAt,
		&device.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &device, nil
}

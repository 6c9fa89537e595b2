package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/latspos/repairflow/internal/lifecycle"
	"github.com/latspos/repairflow/internal/models"
	"github.com/latspos/repairflow/pkg/database"
	"go.uber.org/zap"
)

// Store composes the per-aggregate repositories into the engine's store
// port. Each transition commits atomically: status update, remark append and
// history record share one transaction.
type Store struct {
	db       *database.DB
	devices  *DeviceRepository
	parts    *PartRepository
	payments *PaymentRepository
	remarks  *RemarkRepository
	history  *HistoryRepository
	logger   *zap.Logger
}

// NewStore creates the sqlite-backed store adapter
func NewStore(db *database.DB, logger *zap.Logger) *Store {
	return &Store{
		db:       db,
		devices:  NewDeviceRepository(db.DB, logger),
		parts:    NewPartRepository(db.DB, logger),
		payments: NewPaymentRepository(db.DB, logger),
		remarks:  NewRemarkRepository(db.DB, logger),
		history:  NewHistoryRepository(db.DB, logger),
		logger:   logger,
	}
}

var _ lifecycle.Store = (*Store)(nil)

// Devices exposes the device repository for callers outside the engine
func (s *Store) Devices() *DeviceRepository { return s.devices }

// Parts exposes the part repository
func (s *Store) Parts() *PartRepository { return s.parts }

// Payments exposes the payment repository
func (s *Store) Payments() *PaymentRepository { return s.payments }

// Remarks exposes the remark repository
func (s *Store) Remarks() *RemarkRepository { return s.remarks }

// History exposes the history repository
func (s *Store) History() *HistoryRepository { return s.history }

// GetDevice implements lifecycle.Store
func (s *Store) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	return s.devices.GetByID(ctx, id)
}

// ListParts implements lifecycle.Store
func (s *Store) ListParts(ctx context.Context, deviceID string) ([]models.RepairPart, error) {
	return s.parts.ListByDevice(ctx, deviceID)
}

// ListPayments implements lifecycle.Store
func (s *Store) ListPayments(ctx context.Context, deviceID string) ([]models.Payment, error) {
	return s.payments.ListByDevice(ctx, deviceID)
}

// ApplyTransition implements lifecycle.Store
func (s *Store) ApplyTransition(ctx context.Context, commit lifecycle.TransitionCommit) (*models.Device, error) {
	err := s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		if err := s.devices.UpdateStatus(tx, commit.DeviceID, commit.NewStatus); err != nil {
			return err
		}

		if strings.TrimSpace(commit.Remark) != "" {
			remark := &models.Remark{
				ID:       uuid.NewString(),
				DeviceID: commit.DeviceID,
				Content:  commit.Remark,
				AuthorID: commit.Actor.ID,
			}
			if err := s.remarks.Create(tx, remark); err != nil {
				return err
			}
		}

		return s.history.Create(tx, &models.StatusHistory{
			DeviceID:       commit.DeviceID,
			PreviousStatus: commit.PreviousStatus,
			NewStatus:      commit.NewStatus,
			ActorID:        commit.Actor.ID,
			ActorRole:      commit.Actor.Role,
			Trigger:        commit.Trigger,
		})
	})
	if err != nil {
		return nil, err
	}

	device, err := s.devices.GetByID(ctx, commit.DeviceID)
	if err != nil {
		return nil, err
	}
	if device == nil {
		return nil, fmt.Errorf("device disappeared after transition: %s", commit.DeviceID)
	}
	return device, nil
}

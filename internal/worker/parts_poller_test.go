package worker

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/latspos/repairflow/internal/lifecycle"
	"github.com/latspos/repairflow/internal/models"
	"github.com/latspos/repairflow/internal/notification"
	"github.com/latspos/repairflow/internal/repository"
	"github.com/latspos/repairflow/migrations"
	"github.com/latspos/repairflow/pkg/database"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newPollerFixture(t *testing.T) (*PartsPoller, *repository.Store) {
	t.Helper()

	db, err := database.New(database.Config{
		Path:            filepath.Join(t.TempDir(), "test.db"),
		MaxOpenConns:    1,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.NewMigrator(db, zap.NewNop()).RunMigrations(migrations.FS))

	store := repository.NewStore(db, zap.NewNop())
	engine := lifecycle.NewEngine(store, notification.NewLogNotifier(zap.NewNop()), zap.NewNop())
	poller := NewPartsPoller(store.Devices(), store.Parts(), engine,
		10*time.Millisecond, 50, zap.NewNop())

	return poller, store
}

func seedWatchedDevice(t *testing.T, store *repository.Store, status models.DeviceStatus, partStatus models.PartStatus) {
	t.Helper()
	ctx := context.Background()

	require.NoError(t, store.Devices().Create(ctx, &models.Device{
		ID:                   "dev-1",
		CustomerID:           "cust-1",
		Brand:                "Oppo",
		Model:                "A17",
		IssueDescription:     "water damage",
		Status:               status,
		AssignedTechnicianID: "tech-1",
	}))
	require.NoError(t, store.Parts().Create(ctx, &models.RepairPart{
		ID: "part-1", DeviceID: "dev-1", Name: "mainboard", Quantity: 1, UnitCost: 20000,
		Status: partStatus,
	}))
}

func deviceStatus(t *testing.T, store *repository.Store) models.DeviceStatus {
	t.Helper()
	device, err := store.GetDevice(context.Background(), "dev-1")
	require.NoError(t, err)
	require.NotNil(t, device)
	return device.Status
}

func TestPollerAdvancesReadyDevice(t *testing.T) {
	poller, store := newPollerFixture(t)
	seedWatchedDevice(t, store, models.StatusAwaitingParts, models.PartStatusReceived)

	require.NoError(t, poller.Start(context.Background()))
	defer poller.Stop()

	// awaiting-parts moves to parts-arrived and on to in-repair across ticks
	assert.Eventually(t, func() bool {
		return deviceStatus(t, store) == models.StatusInRepair
	}, 2*time.Second, 20*time.Millisecond)

	history, err := store.History().ListByDevice(context.Background(), "dev-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.StatusPartsArrived, history[0].NewStatus)
	assert.Equal(t, models.StatusInRepair, history[1].NewStatus)
	for _, h := range history {
		assert.Equal(t, models.TriggerPoll, h.Trigger)
		assert.Equal(t, "tech-1", h.ActorID)
	}
}

func TestPollerLeavesPendingDeviceAlone(t *testing.T) {
	poller, store := newPollerFixture(t)
	seedWatchedDevice(t, store, models.StatusAwaitingParts, models.PartStatusOrdered)

	require.NoError(t, poller.Start(context.Background()))
	defer poller.Stop()

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, models.StatusAwaitingParts, deviceStatus(t, store))
}

func TestPollerPicksUpPartStatusChange(t *testing.T) {
	poller, store := newPollerFixture(t)
	seedWatchedDevice(t, store, models.StatusPartsArrived, models.PartStatusAccepted)

	require.NoError(t, poller.Start(context.Background()))
	defer poller.Stop()

	assert.Eventually(t, func() bool {
		return deviceStatus(t, store) == models.StatusInRepair
	}, 2*time.Second, 20*time.Millisecond)
}

func TestPollerStartTwice(t *testing.T) {
	poller, _ := newPollerFixture(t)

	require.NoError(t, poller.Start(context.Background()))
	defer poller.Stop()

	assert.Error(t, poller.Start(context.Background()))
}

func TestPollerStopIdempotent(t *testing.T) {
	poller, _ := newPollerFixture(t)

	require.NoError(t, poller.Start(context.Background()))
	poller.Stop()
	poller.Stop()
}

func TestManagerStartStopAll(t *testing.T) {
	poller, _ := newPollerFixture(t)

	manager := NewManager(zap.NewNop())
	manager.Register(poller)

	require.NoError(t, manager.StartAll(context.Background()))
	manager.StopAll()
}

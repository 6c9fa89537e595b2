package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
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

type testServer struct {
	router *gin.Engine
	store  *repository.Store
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

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
	router := NewRouter(NewHandler(engine, store, zap.NewNop()))

	return &testServer{router: router, store: store}
}

func (s *testServer) seedDevice(t *testing.T, status models.DeviceStatus) {
	t.Helper()
	require.NoError(t, s.store.Devices().Create(context.Background(), &models.Device{
		ID:                   "dev-1",
		CustomerID:           "cust-1",
		Brand:                "Xiaomi",
		Model:                "Redmi Note 12",
		IssueDescription:     "does not charge",
		Status:               status,
		AssignedTechnicianID: "tech-1",
		RepairCost:           15000,
	}))
}

func (s *testServer) do(t *testing.T, method, path string, actor *models.Actor, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set(headerActorID, actor.ID)
		req.Header.Set(headerActorRole, string(actor.Role))
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

var (
	techActor  = models.Actor{ID: "tech-1", Role: models.RoleTechnician}
	adminActor = models.Actor{ID: "admin-1", Role: models.RoleAdmin}
)

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	w := srv.do(t, http.MethodGet, "/healthz", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMissingActorHeaders(t *testing.T) {
	srv := newTestServer(t)
	srv.seedDevice(t, models.StatusAssigned)

	w := srv.do(t, http.MethodGet, "/api/v1/devices/dev-1/transitions", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, w)["error"])
}

func TestInvalidActorRole(t *testing.T) {
	srv := newTestServer(t)
	srv.seedDevice(t, models.StatusAssigned)

	actor := &models.Actor{ID: "u-1", Role: "janitor"}
	w := srv.do(t, http.MethodGet, "/api/v1/devices/dev-1/transitions", actor, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTransitions(t *testing.T) {
	srv := newTestServer(t)
	srv.seedDevice(t, models.StatusAssigned)

	w := srv.do(t, http.MethodGet, "/api/v1/devices/dev-1/transitions", &techActor, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, "dev-1", body["device_id"])
	transitions, ok := body["transitions"].([]any)
	require.True(t, ok)
	assert.NotEmpty(t, transitions)
}

func TestGetTransitionsUnknownDevice(t *testing.T) {
	srv := newTestServer(t)

	w := srv.do(t, http.MethodGet, "/api/v1/devices/ghost/transitions", &techActor, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w)["error"])
}

func TestRequestTransition(t *testing.T) {
	srv := newTestServer(t)
	srv.seedDevice(t, models.StatusAssigned)

	w := srv.do(t, http.MethodPost, "/api/v1/devices/dev-1/transitions", &techActor,
		map[string]string{"status": "diagnosis-started", "remark": "starting diagnosis"})
	require.Equal(t, http.StatusOK, w.Code)

	device := decode(t, w)["device"].(map[string]any)
	assert.Equal(t, "diagnosis-started", device["status"])

	w = srv.do(t, http.MethodGet, "/api/v1/devices/dev-1/history", &techActor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	history := decode(t, w)["history"].([]any)
	require.Len(t, history, 1)
}

func TestRequestTransitionForbidden(t *testing.T) {
	srv := newTestServer(t)
	srv.seedDevice(t, models.StatusAssigned)

	other := models.Actor{ID: "tech-2", Role: models.RoleTechnician}
	w := srv.do(t, http.MethodPost, "/api/v1/devices/dev-1/transitions", &other,
		map[string]string{"status": "diagnosis-started"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "UNAUTHORIZED", decode(t, w)["error"])
}

func TestRequestTransitionGuardConflict(t *testing.T) {
	srv := newTestServer(t)
	srv.seedDevice(t, models.StatusDiagnosisStarted)

	require.NoError(t, srv.store.Parts().Create(context.Background(), &models.RepairPart{
		ID: "part-1", DeviceID: "dev-1", Name: "screen", Quantity: 1, UnitCost: 9000,
		Status: models.PartStatusNeeded,
	}))

	w := srv.do(t, http.MethodPost, "/api/v1/devices/dev-1/transitions", &techActor,
		map[string]string{"status": "in-repair", "remark": "trying anyway"})
	assert.Equal(t, http.StatusConflict, w.Code)

	body := decode(t, w)
	assert.Equal(t, "GUARD_NOT_SATISFIED", body["error"])
	assert.Contains(t, body["message"], "1 part(s) still pending")
}

func TestRequestTransitionBadBody(t *testing.T) {
	srv := newTestServer(t)
	srv.seedDevice(t, models.StatusAssigned)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/devices/dev-1/transitions",
		bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(headerActorID, techActor.ID)
	req.Header.Set(headerActorRole, string(techActor.Role))

	w := httptest.NewRecorder()
	srv.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMarkFailedAndResolve(t *testing.T) {
	srv := newTestServer(t)
	srv.seedDevice(t, models.StatusInRepair)

	w := srv.do(t, http.MethodPost, "/api/v1/devices/dev-1/fail", &techActor,
		map[string]string{"remark": "board damaged beyond repair"})
	require.Equal(t, http.StatusOK, w.Code)
	device := decode(t, w)["device"].(map[string]any)
	assert.Equal(t, "failed", device["status"])

	w = srv.do(t, http.MethodPost, "/api/v1/devices/dev-1/resolve", &adminActor,
		map[string]string{"status": "done", "remark": "customer declined further work"})
	require.Equal(t, http.StatusOK, w.Code)
	device = decode(t, w)["device"].(map[string]any)
	assert.Equal(t, "done", device["status"])
}

func TestMarkFailedRequiresRemark(t *testing.T) {
	srv := newTestServer(t)
	srv.seedDevice(t, models.StatusInRepair)

	w := srv.do(t, http.MethodPost, "/api/v1/devices/dev-1/fail", &techActor,
		map[string]string{"remark": ""})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_INPUT", decode(t, w)["error"])
}

func TestGetAutoProgression(t *testing.T) {
	srv := newTestServer(t)
	srv.seedDevice(t, models.StatusAwaitingParts)

	require.NoError(t, srv.store.Parts().Create(context.Background(), &models.RepairPart{
		ID: "part-1", DeviceID: "dev-1", Name: "battery", Quantity: 1, UnitCost: 4000,
		Status: models.PartStatusReceived,
	}))

	w := srv.do(t, http.MethodGet, "/api/v1/devices/dev-1/auto-progression", &adminActor, nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decode(t, w)
	assert.Equal(t, true, body["should_progress"])
	assert.Equal(t, "parts-arrived", body["next_status"])
}

package runs

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ejosa-pasquale/HoreCa/core/metrics"
	"github.com/ejosa-pasquale/HoreCa/infra/kpi"
)

func newStore(t *testing.T) *kpi.SQLiteStore {
	t.Helper()
	store, err := kpi.NewSQLiteStore(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	day := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordOptimization(metrics.OptimizationEvent{RunID: "old", Best: "AC22=2", Solved: true, Time: day}))
	require.NoError(t, store.RecordOptimization(metrics.OptimizationEvent{RunID: "new", Best: "DC20=1", Solved: true, Time: day.Add(24 * time.Hour)}))
	for _, ev := range []metrics.SimulationEvent{
		{RunID: "new", Configuration: "DC20=1", Outcome: metrics.OutcomeOK, Time: day},
		{RunID: "new", Configuration: "DC90=1", Outcome: metrics.OutcomeInfeasible, Time: day},
	} {
		require.NoError(t, store.RecordSimulation(ev))
	}
	return store
}

func get(t *testing.T, h http.Handler, target, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandlerAuth(t *testing.T) {
	h := NewHandler(newStore(t), "tok")
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/runs", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, h, "/api/runs", "bad").Code)
	assert.Equal(t, http.StatusOK, get(t, h, "/api/runs", "tok").Code)
}

func TestHandlerRuns(t *testing.T) {
	h := NewHandler(newStore(t), "")

	rr := get(t, h, "/api/runs", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "application/json", rr.Header().Get("Content-Type"))
	var runs []metrics.OptimizationEvent
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "old", runs[0].RunID)

	rr = get(t, h, "/api/runs?since=2024-05-02T00:00:00Z", "")
	runs = nil
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&runs))
	require.Len(t, runs, 1)
	assert.Equal(t, "new", runs[0].RunID)

	assert.Equal(t, http.StatusBadRequest, get(t, h, "/api/runs?since=yesterday", "").Code)
}

func TestHandlerRun(t *testing.T) {
	h := NewHandler(newStore(t), "")

	rr := get(t, h, "/api/runs/new", "")
	require.Equal(t, http.StatusOK, rr.Code)
	var run metrics.OptimizationEvent
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&run))
	assert.Equal(t, "DC20=1", run.Best)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/api/runs/missing", "").Code)
}

func TestHandlerSimulations(t *testing.T) {
	h := NewHandler(newStore(t), "")

	var sims []metrics.SimulationEvent
	require.NoError(t, json.NewDecoder(get(t, h, "/api/runs/new/simulations", "").Body).Decode(&sims))
	assert.Len(t, sims, 2)

	sims = nil
	require.NoError(t, json.NewDecoder(get(t, h, "/api/runs/new/simulations?outcome=ok", "").Body).Decode(&sims))
	require.Len(t, sims, 1)
	assert.Equal(t, "DC20=1", sims[0].Configuration)

	rr := get(t, h, "/api/runs/missing/simulations", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, "[]", rr.Body.String())
}

func TestHandlerMethodNotAllowed(t *testing.T) {
	h := NewHandler(newStore(t), "")
	req := httptest.NewRequest(http.MethodPost, "/api/runs", nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}

func TestServeStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, "127.0.0.1:0", newStore(t), "", nil) }()
	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}

type mockStore struct{ mock.Mock }

func (m *mockStore) Runs() ([]metrics.OptimizationEvent, error) {
	args := m.Called()
	evs, _ := args.Get(0).([]metrics.OptimizationEvent)
	return evs, args.Error(1)
}

func (m *mockStore) Simulations(runID string) ([]metrics.SimulationEvent, error) {
	args := m.Called(runID)
	evs, _ := args.Get(0).([]metrics.SimulationEvent)
	return evs, args.Error(1)
}

func TestHandlerStoreErrors(t *testing.T) {
	store := &mockStore{}
	store.On("Runs").Return(nil, errors.New("database is locked"))
	store.On("Simulations", "r1").Return(nil, errors.New("database is locked"))
	h := NewHandler(store, "")

	for _, target := range []string{"/api/runs", "/api/runs/r1", "/api/runs/r1/simulations"} {
		rr := get(t, h, target, "")
		assert.Equal(t, http.StatusInternalServerError, rr.Code, target)
		assert.Contains(t, rr.Body.String(), "database is locked", target)
	}
	store.AssertNumberOfCalls(t, "Runs", 2)
	store.AssertCalled(t, "Simulations", "r1")
}

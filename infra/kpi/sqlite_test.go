package kpi

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejosa-pasquale/HoreCa/core/factory"
	coremetrics "github.com/ejosa-pasquale/HoreCa/core/metrics"
)

func newStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStoreSimulations(t *testing.T) {
	s := newStore(t)
	now := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordSimulation(coremetrics.SimulationEvent{
		RunID: "r1", Configuration: "DC60=1", Stations: 1, InstalledPowerKW: 60, CapitalCost: 27000,
		RequestedKWh: 80, DeliveredKWh: 80, InternalFraction: 1, Outcome: coremetrics.OutcomeOK,
		Duration: 3 * time.Millisecond, Time: now,
	}))
	require.NoError(t, s.RecordSimulation(coremetrics.SimulationEvent{RunID: "r1", Configuration: "AC22=1", Outcome: coremetrics.OutcomeInfeasible}))
	require.NoError(t, s.RecordSimulation(coremetrics.SimulationEvent{RunID: "r2", Configuration: "AC22=1", Outcome: coremetrics.OutcomeOK}))
	// a replayed candidate replaces the previous row
	require.NoError(t, s.RecordSimulation(coremetrics.SimulationEvent{RunID: "r1", Configuration: "AC22=1", Outcome: coremetrics.OutcomeError}))

	sims, err := s.Simulations("r1")
	require.NoError(t, err)
	require.Len(t, sims, 2)
	assert.Equal(t, "AC22=1", sims[0].Configuration)
	assert.Equal(t, coremetrics.OutcomeError, sims[0].Outcome)
	assert.True(t, sims[0].Time.IsZero())
	assert.Equal(t, 60.0, sims[1].InstalledPowerKW)
	assert.Equal(t, 3*time.Millisecond, sims[1].Duration)
	assert.True(t, now.Equal(sims[1].Time))
}

func TestSQLiteStoreRuns(t *testing.T) {
	s := newStore(t)
	t0 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	require.NoError(t, s.RecordOptimization(coremetrics.OptimizationEvent{
		RunID: "late", Solved: true, Best: "DC20=1", Ranking: []string{"DC20=1", "AC22=2"}, Time: t0.Add(time.Hour),
	}))
	require.NoError(t, s.RecordOptimization(coremetrics.OptimizationEvent{RunID: "early", Candidates: 0, Time: t0}))

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "early", runs[0].RunID)
	assert.False(t, runs[0].Solved)
	assert.Nil(t, runs[0].Ranking)
	assert.Equal(t, []string{"DC20=1", "AC22=2"}, runs[1].Ranking)
	assert.True(t, runs[1].Solved)
}

func TestSQLiteStoreConcurrentWrites(t *testing.T) {
	s := newStore(t)
	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			cfg := "AC22=" + string(rune('a'+i))
			assert.NoError(t, s.RecordSimulation(coremetrics.SimulationEvent{RunID: "r", Configuration: cfg}))
		}()
	}
	wg.Wait()
	sims, err := s.Simulations("r")
	require.NoError(t, err)
	assert.Len(t, sims, 16)
}

func TestSQLiteSinkFactory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	sink, err := coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "sqlite", Conf: map[string]any{"path": path}}})
	require.NoError(t, err)
	store, ok := sink.(*SQLiteStore)
	require.True(t, ok)
	require.NoError(t, store.Flush())

	_, err = coremetrics.NewMetricsSink([]factory.ModuleConfig{{Type: "sqlite"}})
	assert.Error(t, err)
}

func TestSQLiteStoreRankingWithMixedKeys(t *testing.T) {
	store := newStore(t)
	ranking := []string{"AC22=1,DC60=2", "DC90=1", "AC22=2,DC20=1,DC40=1"}
	require.NoError(t, store.RecordOptimization(coremetrics.OptimizationEvent{
		RunID: "mixed", Solved: true, Best: ranking[0], Ranking: ranking, Time: time.Now(),
	}))

	runs, err := store.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, ranking, runs[0].Ranking)
	assert.Equal(t, "AC22=1,DC60=2", runs[0].Best)
}

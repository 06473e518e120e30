package scenarios

import (
	"context"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejosa-pasquale/HoreCa/core/capacity"
	coremetrics "github.com/ejosa-pasquale/HoreCa/core/metrics"
	"github.com/ejosa-pasquale/HoreCa/core/model"
	"github.com/ejosa-pasquale/HoreCa/core/optimizer"
	"github.com/ejosa-pasquale/HoreCa/infra/logger"
	"github.com/ejosa-pasquale/HoreCa/infra/metrics"
)

const tolerance = 1e-6

// Run executes the scenario. A simulate scenario yields an outcome holding a
// single ranked result.
func Run(ctx context.Context, sc *Scenario, sink coremetrics.MetricsSink) (optimizer.Outcome, error) {
	cat, err := sc.BuildCatalog()
	if err != nil {
		return optimizer.Outcome{}, err
	}
	vehicles := sc.Fleet()
	policy := sc.AllocatorPolicy()

	if sc.Mode == ModeOptimize {
		o := &optimizer.Optimizer{
			Catalog:     cat,
			Constraints: sc.Constraints(),
			Policy:      policy,
			Capacity:    capacity.DefaultParams(),
			Logger:      logger.NopLogger{},
			Sink:        sink,
		}
		return o.Search(ctx, vehicles)
	}

	cfg, err := model.ParseConfiguration(sc.Stations)
	if err != nil {
		return optimizer.Outcome{}, err
	}
	res, err := optimizer.Simulate(cfg, cat, vehicles, policy, capacity.DefaultParams(), logger.NopLogger{})
	if err != nil {
		return optimizer.Outcome{}, err
	}
	out := optimizer.Outcome{RunID: sc.Name, Ranked: []optimizer.Result{res}, Candidates: 1}
	out.Best = &out.Ranked[0]
	return out, nil
}

// RunScenario runs sc and checks its expectations together with the
// invariants every schedule must hold.
func RunScenario(t *testing.T, sc *Scenario) {
	t.Helper()
	reg := prometheus.NewRegistry()
	prom, err := metrics.NewPromSinkWithRegistry(reg)
	require.NoError(t, err)
	mem := coremetrics.NewMemorySink()

	out, err := Run(context.Background(), sc, coremetrics.NewMultiSink(prom, mem))
	exp := sc.Expected
	solved := err == nil && out.Best != nil
	if exp.Solved != nil {
		assert.Equal(t, *exp.Solved, solved, "solved")
	}
	if sc.Mode == ModeOptimize {
		assert.Equal(t, 1, len(mem.Optimizations()), "optimization events")
		n, gerr := testutil.GatherAndCount(reg, "chargeplan_optimizations_total")
		require.NoError(t, gerr)
		assert.Equal(t, 1, n)
	}
	if !solved {
		assert.ErrorIs(t, err, optimizer.ErrNoSolution)
		assert.Empty(t, out.Ranked)
		return
	}
	require.NoError(t, err)
	if sc.Mode == ModeOptimize {
		assert.Len(t, mem.Simulations(out.RunID), out.Candidates)
		assert.True(t, optimizer.Ranked(out.Ranked), "ranking order")
	}

	best := out.Best
	s := best.Summary
	if exp.Best != "" {
		assert.Equal(t, exp.Best, best.Key, "best")
	}
	if exp.Sessions != nil {
		assert.Equal(t, *exp.Sessions, s.Sessions, "sessions")
	}
	if exp.FullyServed != nil {
		assert.Equal(t, *exp.FullyServed, s.FullyServed, "fully served")
	}
	if exp.DeliveredKWh != nil {
		assert.InDelta(t, *exp.DeliveredKWh, s.DeliveredKWh, tolerance, "delivered")
	}
	if len(exp.SessionHours) > 0 {
		sessions := best.Sessions()
		require.Len(t, sessions, len(exp.SessionHours))
		for i, h := range exp.SessionHours {
			assert.InDelta(t, h, sessions[i].Duration(), tolerance, "session %d", i)
		}
	}
	groups := best.Groups()
	for name, want := range exp.Groups {
		var found bool
		for _, g := range groups {
			if g.Group != name {
				continue
			}
			found = true
			assert.Equal(t, want.Vehicles, g.Vehicles, "group %s vehicles", name)
			assert.InDelta(t, want.RequestedKWh, g.RequestedKWh, tolerance, "group %s requested", name)
		}
		assert.True(t, found, "group %s missing", name)
	}

	checkInvariants(t, sc, *best)
}

// checkInvariants verifies conservation of energy, session containment in
// the vehicle windows, non-overlap on stations and group re-aggregation.
func checkInvariants(t *testing.T, sc *Scenario, res optimizer.Result) {
	t.Helper()
	s := res.Summary
	assert.InDelta(t, s.RequestedKWh, s.DeliveredKWh+s.ExternalKWh, tolerance, "conservation")

	policy := sc.AllocatorPolicy()
	for _, st := range res.Stations {
		for i, sess := range st.Sessions {
			assert.LessOrEqual(t, sess.EnergyKWh, st.PowerKW*sess.Duration()+tolerance, "%s power", st.ID)
			if i > 0 {
				prev := st.Sessions[i-1]
				assert.GreaterOrEqual(t, sess.Start, prev.End+policy.MinGapHours-tolerance, "%s overlap", st.ID)
			}
		}
	}

	var served float64
	for _, v := range res.Vehicles {
		assert.GreaterOrEqual(t, v.RemainingKWh, -tolerance, "%s remaining", v.ID)
		assert.InDelta(t, v.DemandKWh, v.ServedKWh()+v.RemainingKWh, tolerance, "%s balance", v.ID)
		for _, sess := range v.Sessions {
			assert.GreaterOrEqual(t, sess.Start, v.Arrival-tolerance, "%s arrival", v.ID)
			assert.LessOrEqual(t, sess.End, v.Departure+tolerance, "%s departure", v.ID)
		}
		served += v.ServedKWh()
	}
	var grouped float64
	for _, g := range res.Groups() {
		grouped += g.ServedKWh
	}
	assert.True(t, math.Abs(served-grouped) < tolerance, "group served %.6f != vehicles %.6f", grouped, served)
}

// Package optimizer simulates candidate station configurations against a
// fleet and ranks them.
//
// Every candidate is simulated on private copies of the stations and the
// vehicles, so candidates run in parallel on a bounded worker pool. Results
// are merged once every worker is done and ranked by Score.
package optimizer

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ejosa-pasquale/HoreCa/core/allocator"
	"github.com/ejosa-pasquale/HoreCa/core/capacity"
	"github.com/ejosa-pasquale/HoreCa/core/generator"
	"github.com/ejosa-pasquale/HoreCa/core/logger"
	"github.com/ejosa-pasquale/HoreCa/core/metrics"
	"github.com/ejosa-pasquale/HoreCa/core/model"
	"github.com/ejosa-pasquale/HoreCa/core/monitoring"
)

// ErrNoSolution is returned when the fleet is empty or no candidate
// configuration is feasible. The outcome then holds no best result.
var ErrNoSolution = errors.New("no feasible configuration")

// Optimizer searches the best configuration for a fleet.
type Optimizer struct {
	Catalog     model.Catalog
	Constraints generator.Constraints
	Policy      allocator.Policy
	Capacity    capacity.Params
	// Workers bounds the parallel simulations. Zero or less uses GOMAXPROCS.
	Workers int
	Logger  logger.Logger
	Sink    metrics.MetricsSink

	// NewRunID overrides the run identifier generator.
	NewRunID func() string
}

// Outcome is the result of a search.
type Outcome struct {
	RunID string
	// Best is nil when no candidate is feasible.
	Best *Result
	// Ranked holds every feasible, successfully simulated configuration,
	// best first.
	Ranked     []Result
	Candidates int
	Failed     int
	// Bound is the linear upper bound of the best configuration.
	Bound capacity.Bound
}

// attempt is the per-candidate slot written by exactly one worker.
type attempt struct {
	result  Result
	outcome string
	err     error
}

// Search generates the candidates from the catalog and the constraints, then
// optimizes them.
func (o *Optimizer) Search(ctx context.Context, vehicles []model.Vehicle) (Outcome, error) {
	return o.Optimize(ctx, generator.Generate(o.Catalog, o.Constraints), vehicles)
}

// Optimize simulates every candidate and ranks the feasible ones. Candidates
// violating the constraints and candidates whose simulation fails are left
// out of the ranking. It returns ErrNoSolution when vehicles is empty or when
// nothing remains to rank.
func (o *Optimizer) Optimize(ctx context.Context, candidates []model.Configuration, vehicles []model.Vehicle) (Outcome, error) {
	log := logger.OrNop(o.Logger)
	sink := o.sink()
	started := time.Now()
	out := Outcome{RunID: o.runID(), Candidates: len(candidates)}

	if len(vehicles) == 0 {
		log.Warnf("run %s: empty fleet", out.RunID)
		o.record(sink, out, vehicles, started)
		return out, ErrNoSolution
	}

	attempts := make([]attempt, len(candidates))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(o.workers())
	for i, cfg := range candidates {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			attempts[i] = o.attempt(out.RunID, cfg, vehicles, sink, log)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return out, fmt.Errorf("run %s: %w", out.RunID, err)
	}
	if err := ctx.Err(); err != nil {
		return out, fmt.Errorf("run %s: %w", out.RunID, err)
	}

	for _, a := range attempts {
		switch a.outcome {
		case metrics.OutcomeOK:
			out.Ranked = append(out.Ranked, a.result)
		case metrics.OutcomeError:
			out.Failed++
		}
	}
	Rank(out.Ranked)

	if len(out.Ranked) == 0 {
		log.Warnf("run %s: none of %d candidates is feasible", out.RunID, len(candidates))
		o.record(sink, out, vehicles, started)
		return out, ErrNoSolution
	}
	out.Best = &out.Ranked[0]

	bound, err := capacity.UpperBound(out.Best.Configuration, o.Catalog, vehicles, o.Policy.Horizon())
	if err != nil {
		log.Warnf("run %s: %v", out.RunID, err)
	} else {
		out.Bound = bound
	}
	log.Infof("run %s: best %s serves %.1f%% internally (%.1f of %.1f kWh, bound %.1f) among %d feasible of %d candidates in %s",
		out.RunID, out.Best.Key, out.Best.InternalFraction()*100, out.Best.Summary.DeliveredKWh,
		out.Best.Summary.RequestedKWh, out.Bound.EnergyKWh, len(out.Ranked), len(candidates), time.Since(started))
	o.record(sink, out, vehicles, started)
	return out, nil
}

func (o *Optimizer) attempt(runID string, cfg model.Configuration, vehicles []model.Vehicle, sink metrics.MetricsSink, log logger.Logger) attempt {
	started := time.Now()
	ev := metrics.SimulationEvent{
		RunID:            runID,
		Configuration:    cfg.Key(),
		Stations:         cfg.Total(),
		InstalledPowerKW: cfg.InstalledPowerKW(o.Catalog),
		CapitalCost:      cfg.CapitalCost(o.Catalog),
	}
	defer func() {
		ev.Duration = time.Since(started)
		ev.Time = time.Now()
		if err := sink.RecordSimulation(ev); err != nil {
			log.Warnf("record simulation %s: %v", ev.Configuration, err)
		}
	}()

	if !o.Constraints.Feasible(cfg, o.Catalog) {
		ev.Outcome = metrics.OutcomeInfeasible
		log.Debugw("candidate rejected", map[string]any{"run": runID, "configuration": ev.Configuration, "cost": ev.CapitalCost, "power_kw": ev.InstalledPowerKW})
		return attempt{outcome: ev.Outcome}
	}

	res, err := o.simulate(cfg, vehicles, log)
	if err != nil {
		ev.Outcome = metrics.OutcomeError
		log.Errorf("run %s: candidate %s excluded: %v", runID, ev.Configuration, err)
		monitoring.CaptureException(err, map[string]string{"run": runID, "configuration": ev.Configuration})
		return attempt{outcome: ev.Outcome, err: err}
	}

	s := res.Summary
	ev.Outcome = metrics.OutcomeOK
	ev.RequestedKWh = s.RequestedKWh
	ev.DeliveredKWh = s.DeliveredKWh
	ev.ExternalKWh = s.ExternalKWh
	ev.InternalFraction = s.InternalFraction()
	ev.CombinedEfficiency = s.CombinedEfficiency
	ev.FullyServed = s.FullyServed
	ev.Sessions = s.Sessions
	ev.Passes = s.Passes
	log.Debugw("candidate simulated", map[string]any{
		"run":           runID,
		"configuration": ev.Configuration,
		"fraction":      ev.InternalFraction,
		"efficiency":    ev.CombinedEfficiency,
		"sessions":      ev.Sessions,
		"passes":        ev.Passes,
	})
	return attempt{result: res, outcome: ev.Outcome}
}

// simulate runs Simulate and reports a panic as an error of the candidate.
func (o *Optimizer) simulate(cfg model.Configuration, vehicles []model.Vehicle, log logger.Logger) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("simulate %s: panic: %v", cfg.Key(), r)
		}
	}()
	return simulateFn(cfg, o.Catalog, vehicles, o.Policy, o.Capacity, log)
}

func (o *Optimizer) record(sink metrics.MetricsSink, out Outcome, vehicles []model.Vehicle, started time.Time) {
	rec, ok := sink.(metrics.OptimizationRecorder)
	if !ok {
		return
	}
	ev := metrics.OptimizationEvent{
		RunID:         out.RunID,
		Vehicles:      len(vehicles),
		Candidates:    out.Candidates,
		Feasible:      len(out.Ranked),
		Failed:        out.Failed,
		UpperBoundKWh: out.Bound.EnergyKWh,
		Solved:        out.Best != nil,
		Duration:      time.Since(started),
		Time:          time.Now(),
	}
	for _, v := range vehicles {
		ev.RequestedKWh += v.DemandKWh
	}
	if out.Best != nil {
		ev.Best = out.Best.Key
		ev.BestFraction = out.Best.InternalFraction()
		ev.BestPowerKW = out.Best.Score.InstalledPowerKW
		ev.BestCost = out.Best.Score.CapitalCost
		ev.BestEfficiency = out.Best.Score.CombinedEfficiency
	}
	for i, r := range out.Ranked {
		if i == rankingLimit {
			break
		}
		ev.Ranking = append(ev.Ranking, r.Key)
	}
	if err := rec.RecordOptimization(ev); err != nil {
		logger.OrNop(o.Logger).Warnf("record optimization %s: %v", out.RunID, err)
	}
}

// simulateFn is swapped in tests to inject failures.
var simulateFn = Simulate

// rankingLimit bounds the configuration keys attached to an optimization event.
const rankingLimit = 10

func (o *Optimizer) sink() metrics.MetricsSink {
	if o.Sink == nil {
		return metrics.NopSink{}
	}
	return o.Sink
}

func (o *Optimizer) workers() int {
	if o.Workers > 0 {
		return o.Workers
	}
	return runtime.GOMAXPROCS(0)
}

func (o *Optimizer) runID() string {
	if o.NewRunID != nil {
		return o.NewRunID()
	}
	return uuid.NewString()
}

// Package app wires the configuration into a planning service used by the
// command line.
package app

import (
	"context"
	"fmt"

	"github.com/ejosa-pasquale/HoreCa/config"
	"github.com/ejosa-pasquale/HoreCa/core/capacity"
	"github.com/ejosa-pasquale/HoreCa/core/fleet"
	coremetrics "github.com/ejosa-pasquale/HoreCa/core/metrics"
	"github.com/ejosa-pasquale/HoreCa/core/model"
	"github.com/ejosa-pasquale/HoreCa/core/optimizer"
	"github.com/ejosa-pasquale/HoreCa/infra/logger"
	// sink factories
	_ "github.com/ejosa-pasquale/HoreCa/infra/kpi"
	_ "github.com/ejosa-pasquale/HoreCa/infra/metrics"
	_ "github.com/ejosa-pasquale/HoreCa/infra/mqtt"
)

// Service plans a charging site for the configured fleet.
type Service struct {
	Optimizer *optimizer.Optimizer
	Catalog   model.Catalog
	Vehicles  []model.Vehicle
	sink      coremetrics.MetricsSink
	capacity  capacity.Params
	log       logger.Logger
}

// New creates a Service from the configuration.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("planner")
	cat, err := cfg.BuildCatalog()
	if err != nil {
		return nil, fmt.Errorf("catalog: %w", err)
	}
	constraints, err := cfg.Search.Constraints()
	if err != nil {
		return nil, err
	}
	sink, err := coremetrics.NewMetricsSink(cfg.Metrics.Sinks)
	if err != nil {
		return nil, fmt.Errorf("metrics sink: %w", err)
	}

	vehicles := fleet.Expand(cfg.Groups())
	logg.Infof("fleet of %d vehicles in %d groups, catalog of %d station types", len(vehicles), len(cfg.Fleet), cat.Len())
	return &Service{
		Optimizer: &optimizer.Optimizer{
			Catalog:     cat,
			Constraints: constraints,
			Policy:      cfg.Policy.Allocator(),
			Capacity:    cfg.Capacity,
			Workers:     cfg.Policy.Workers,
			Logger:      logger.New("optimizer"),
			Sink:        sink,
		},
		Catalog:  cat,
		Vehicles: vehicles,
		sink:     sink,
		capacity: cfg.Capacity,
		log:      logg,
	}, nil
}

// Optimize searches the best configuration for the fleet.
func (s *Service) Optimize(ctx context.Context) (optimizer.Outcome, error) {
	return s.Optimizer.Search(ctx, s.Vehicles)
}

// Simulate allocates the fleet on the given configuration, e.g. "AC22=2,DC60=1".
// The result is returned as a single-entry outcome so that it exports like a search.
func (s *Service) Simulate(ctx context.Context, stations string) (optimizer.Outcome, error) {
	if err := ctx.Err(); err != nil {
		return optimizer.Outcome{}, err
	}
	cfg, err := model.ParseConfiguration(stations)
	if err != nil {
		return optimizer.Outcome{}, err
	}
	if !cfg.Covered(s.Catalog) {
		return optimizer.Outcome{}, fmt.Errorf("%w: %s not covered by the catalog", model.ErrUnknownKind, cfg.Key())
	}
	res, err := optimizer.Simulate(cfg, s.Catalog, s.Vehicles, s.Optimizer.Policy, s.capacity, logger.New("allocator"))
	if err != nil {
		return optimizer.Outcome{}, err
	}
	out := optimizer.Outcome{RunID: cfg.Key(), Ranked: []optimizer.Result{res}, Candidates: 1}
	out.Best = &out.Ranked[0]
	bound, err := capacity.UpperBound(cfg, s.Catalog, s.Vehicles, s.Optimizer.Policy.Horizon())
	if err != nil {
		s.log.Warnf("upper bound of %s: %v", cfg.Key(), err)
	} else {
		out.Bound = bound
	}
	return out, nil
}

// Close flushes the metrics sinks.
func (s *Service) Close() error {
	if f, ok := s.sink.(coremetrics.Flusher); ok {
		return f.Flush()
	}
	return nil
}

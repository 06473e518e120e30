package optimizer

import (
	"fmt"

	"github.com/ejosa-pasquale/HoreCa/core/allocator"
	"github.com/ejosa-pasquale/HoreCa/core/capacity"
	"github.com/ejosa-pasquale/HoreCa/core/fleet"
	"github.com/ejosa-pasquale/HoreCa/core/logger"
	"github.com/ejosa-pasquale/HoreCa/core/model"
)

// Result is one simulated configuration together with its schedule.
type Result struct {
	Configuration model.Configuration
	Key           string
	Score         Score
	Summary       allocator.Summary
	Estimate      capacity.Estimate
	// Stations and Vehicles hold the state left by the allocator. They are
	// private to the result.
	Stations []*model.Station
	Vehicles []model.Vehicle
}

// InternalFraction returns the share of demand served by the stations.
func (r Result) InternalFraction() float64 { return r.Summary.InternalFraction() }

// Groups folds the vehicles back into their groups.
func (r Result) Groups() []fleet.GroupSummary {
	return fleet.Summarize(r.Vehicles, allocator.ServedToleranceKWh)
}

// Sessions returns every committed session ordered by station then start.
func (r Result) Sessions() []model.Session {
	var out []model.Session
	for _, st := range r.Stations {
		out = append(out, st.Sessions...)
	}
	return out
}

// Simulate builds fresh stations for cfg, allocates a private copy of the
// fleet on them and scores the outcome. The caller's vehicles are not
// modified.
func Simulate(cfg model.Configuration, cat model.Catalog, vehicles []model.Vehicle, p allocator.Policy, cp capacity.Params, log logger.Logger) (Result, error) {
	stations, err := cfg.Build(cat)
	if err != nil {
		return Result{}, err
	}
	fleetCopy := model.CloneVehicles(vehicles)
	for i := range fleetCopy {
		fleetCopy[i].Reset()
	}

	summary, err := allocator.New(p, log).Allocate(stations, fleetCopy)
	if err != nil {
		return Result{}, fmt.Errorf("allocate %s: %w", cfg.Key(), err)
	}

	if cp.OperatingHours == 0 {
		cp.OperatingHours = p.OperatingHours
	}
	cp.SetDefaults()
	res := Result{
		Configuration: cfg,
		Key:           cfg.Key(),
		Summary:       summary,
		Estimate:      capacity.Compute(cfg, cat, fleetCopy, cp),
		Stations:      stations,
		Vehicles:      fleetCopy,
	}
	res.Score = Score{
		InternalFraction:   summary.InternalFraction(),
		InstalledPowerKW:   cfg.InstalledPowerKW(cat),
		CapitalCost:        cfg.CapitalCost(cat),
		CombinedEfficiency: summary.CombinedEfficiency,
		Stations:           cfg.Total(),
	}
	return res, nil
}

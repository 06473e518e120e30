// Package capacity estimates what a station configuration can deliver
// without simulating individual sessions.
package capacity

import (
	"fmt"
	"math"

	"github.com/ejosa-pasquale/HoreCa/core/model"
)

// Params holds the operating assumptions of the estimate.
type Params struct {
	OperatingHours float64 `json:"operating_hours" yaml:"operating_hours"`
	// UtilizationPct derates the installed power for availability losses.
	UtilizationPct float64 `json:"utilization_pct" yaml:"utilization_pct"`
	// TurnoverHours is the time a bay stays blocked between two vehicles.
	TurnoverHours float64 `json:"turnover_hours" yaml:"turnover_hours"`
	// ChargeHours overrides the mean charge time. Zero derives it from the
	// mean demand and the mean station power.
	ChargeHours float64 `json:"charge_hours" yaml:"charge_hours"`
}

// DefaultParams returns the reference assumptions.
func DefaultParams() Params {
	return Params{OperatingHours: model.DayHours, UtilizationPct: 100, TurnoverHours: 0.25}
}

// SetDefaults fills unset fields.
func (p *Params) SetDefaults() {
	if p.OperatingHours == 0 {
		p.OperatingHours = model.DayHours
	}
	if p.UtilizationPct == 0 {
		p.UtilizationPct = 100
	}
}

// Validate checks the assumptions.
func (p Params) Validate() error {
	if p.OperatingHours <= 0 || p.OperatingHours > model.DayHours {
		return fmt.Errorf("operating_hours must be in (0,%g]", model.DayHours)
	}
	if p.UtilizationPct <= 0 || p.UtilizationPct > 100 {
		return fmt.Errorf("utilization_pct must be in (0,100]")
	}
	if p.TurnoverHours < 0 || p.ChargeHours < 0 {
		return fmt.Errorf("turnover_hours and charge_hours must not be negative")
	}
	return nil
}

// Estimate is the analytic bottleneck model of a configuration.
type Estimate struct {
	InstalledPowerKW float64 `json:"installed_power_kw"`
	Stations         int     `json:"stations"`
	DemandKWh        float64 `json:"demand_kwh"`
	MeanDemandKWh    float64 `json:"mean_demand_kwh"`
	ChargeHours      float64 `json:"charge_hours"`
	// EnergyCapacityKWh is the energy the installed power can deliver.
	EnergyCapacityKWh float64 `json:"energy_capacity_kwh"`
	// MaxSessions is the number of vehicles the bays can turn over.
	MaxSessions        float64 `json:"max_sessions"`
	SessionCapacityKWh float64 `json:"session_capacity_kwh"`
	DeliverableKWh     float64 `json:"deliverable_kwh"`
	VehiclesServed     int     `json:"vehicles_served"`
	VehiclesUnserved   int     `json:"vehicles_unserved"`
	PlugUtilization    float64 `json:"plug_utilization_pct"`
	EnergyUtilization  float64 `json:"energy_utilization_pct"`
}

// Bottleneck names the binding limit of the estimate.
func (e Estimate) Bottleneck() string {
	switch {
	case e.DeliverableKWh >= e.DemandKWh:
		return "demand"
	case e.EnergyCapacityKWh <= e.SessionCapacityKWh:
		return "energy"
	default:
		return "sessions"
	}
}

// Compute derives the estimate of cfg for the given fleet. Degenerate vehicles
// count towards demand but not towards the mean charge.
func Compute(cfg model.Configuration, cat model.Catalog, vehicles []model.Vehicle, p Params) Estimate {
	e := Estimate{
		InstalledPowerKW: cfg.InstalledPowerKW(cat),
		Stations:         cfg.Total(),
	}
	active := 0
	for _, v := range vehicles {
		e.DemandKWh += v.DemandKWh
		if !v.Degenerate() {
			active++
		}
	}
	if active > 0 {
		e.MeanDemandKWh = e.DemandKWh / float64(active)
	}

	e.EnergyCapacityKWh = e.InstalledPowerKW * p.OperatingHours * p.UtilizationPct / 100

	e.ChargeHours = p.ChargeHours
	if e.ChargeHours == 0 && e.Stations > 0 && e.InstalledPowerKW > 0 {
		e.ChargeHours = e.MeanDemandKWh / (e.InstalledPowerKW / float64(e.Stations))
	}
	if slot := e.ChargeHours + p.TurnoverHours; slot > 0 && e.Stations > 0 {
		e.MaxSessions = float64(e.Stations) * p.OperatingHours / slot
		e.SessionCapacityKWh = e.MaxSessions * e.MeanDemandKWh
	}

	e.DeliverableKWh = min(e.DemandKWh, e.EnergyCapacityKWh, e.SessionCapacityKWh)
	if e.MeanDemandKWh > 0 {
		e.VehiclesServed = int(math.Floor(e.DeliverableKWh/e.MeanDemandKWh + 1e-9))
	}
	e.VehiclesUnserved = max(0, active-e.VehiclesServed)
	if e.MaxSessions > 0 {
		e.PlugUtilization = float64(e.VehiclesServed) / e.MaxSessions * 100
	}
	if e.EnergyCapacityKWh > 0 {
		e.EnergyUtilization = e.DeliverableKWh / e.EnergyCapacityKWh * 100
	}
	return e
}

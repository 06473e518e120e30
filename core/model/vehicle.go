package model

import (
	"fmt"
	"math"
)

// DayHours is the length of the planning horizon. Times are hours of day in [0, DayHours].
const DayHours = 24.0

// Vehicle represents an electric vehicle requesting energy during one day.
type Vehicle struct {
	ID        string
	Group     string  // originating group name, empty for standalone vehicles
	DemandKWh float64 // energy requested for the day
	Arrival   float64 // hour of day the vehicle plugs in
	Departure float64 // hour of day the vehicle leaves, capped at DayHours

	// Mutable allocation state. RemainingKWh starts equal to DemandKWh and
	// never increases.
	RemainingKWh   float64
	EarliestCharge float64
	Sessions       []Session
}

// NewVehicle builds a vehicle ready for allocation. Departure is capped at
// DayHours and negative demand is treated as zero.
func NewVehicle(id string, demandKWh, arrival, departure float64) Vehicle {
	if demandKWh < 0 || math.IsNaN(demandKWh) {
		demandKWh = 0
	}
	if departure > DayHours {
		departure = DayHours
	}
	return Vehicle{
		ID:             id,
		DemandKWh:      demandKWh,
		Arrival:        arrival,
		Departure:      departure,
		RemainingKWh:   demandKWh,
		EarliestCharge: arrival,
	}
}

// Degenerate reports whether the vehicle can never receive a session:
// its window is empty or it requests no energy.
func (v Vehicle) Degenerate() bool {
	return v.Departure <= v.Arrival || v.DemandKWh <= 0
}

// HoursWithin returns how long the vehicle is available inside h.
func (v Vehicle) HoursWithin(h Interval) float64 {
	return max(0, min(v.Departure, h.End)-max(v.Arrival, h.Start))
}

// ServedKWh returns the energy committed so far.
func (v Vehicle) ServedKWh() float64 {
	return v.DemandKWh - v.RemainingKWh
}

// Reset restores the allocation state to its initial values.
func (v *Vehicle) Reset() {
	v.RemainingKWh = v.DemandKWh
	v.EarliestCharge = v.Arrival
	v.Sessions = nil
}

// Clone returns a deep copy of the vehicle. Allocating the copy leaves v
// untouched.
func (v Vehicle) Clone() Vehicle {
	cp := v
	if v.Sessions != nil {
		cp.Sessions = append([]Session(nil), v.Sessions...)
	}
	return cp
}

// Validate checks that the vehicle identity and window are usable.
// Degenerate windows are not an error.
func (v Vehicle) Validate() error {
	if v.ID == "" {
		return fmt.Errorf("vehicle id is required")
	}
	if v.Arrival < 0 || v.Arrival > DayHours {
		return fmt.Errorf("vehicle %s: arrival %.2f outside [0,%g]", v.ID, v.Arrival, DayHours)
	}
	return nil
}

// CloneVehicles deep-copies a vehicle list.
func CloneVehicles(vs []Vehicle) []Vehicle {
	out := make([]Vehicle, len(vs))
	for i, v := range vs {
		out[i] = v.Clone()
	}
	return out
}

// VehicleGroup describes Quantity identical vehicles sharing demand and window.
// Demand is EnergyKWh when positive, otherwise DistanceKm * ConsumptionKWhPerKm.
type VehicleGroup struct {
	Name                string
	Quantity            int
	EnergyKWh           float64
	DistanceKm          float64
	ConsumptionKWhPerKm float64
	Arrival             float64
	Departure           float64
}

// DemandKWh returns the per-vehicle energy demand of the group.
func (g VehicleGroup) DemandKWh() float64 {
	if g.EnergyKWh > 0 {
		return g.EnergyKWh
	}
	d := g.DistanceKm * g.ConsumptionKWhPerKm
	if d < 0 {
		return 0
	}
	return d
}

// Validate checks the group definition.
func (g VehicleGroup) Validate() error {
	if g.Name == "" {
		return fmt.Errorf("group name is required")
	}
	if g.Quantity < 0 {
		return fmt.Errorf("group %s: negative quantity %d", g.Name, g.Quantity)
	}
	if g.Arrival < 0 || g.Arrival > DayHours {
		return fmt.Errorf("group %s: arrival %.2f outside [0,%g]", g.Name, g.Arrival, DayHours)
	}
	return nil
}

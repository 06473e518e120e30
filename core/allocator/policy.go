package allocator

import (
	"fmt"

	"github.com/ejosa-pasquale/HoreCa/core/model"
)

const (
	// NegligibleKWh is the smallest energy amount worth a session.
	NegligibleKWh = 0.01
	// NegligibleHours is the smallest session duration worth committing.
	NegligibleHours = 0.01
	// ServedToleranceKWh is the remaining energy below which a vehicle
	// counts as fully served.
	ServedToleranceKWh = 0.01
)

// Policy holds the scheduling rules applied by the allocator.
type Policy struct {
	// MinSessionHours is the shortest session allowed, except for a
	// finishing charge that completes the vehicle.
	MinSessionHours float64 `json:"min_session_hours" yaml:"min_session_hours"`
	// MinGapHours separates consecutive sessions on a station and
	// consecutive sessions of a vehicle.
	MinGapHours float64 `json:"min_gap_hours" yaml:"min_gap_hours"`
	// OpeningHour and OperatingHours delimit the daily opening window of
	// the site. Sessions never leave it and efficiency KPIs are relative
	// to its length.
	OpeningHour    float64 `json:"opening_hour" yaml:"opening_hour"`
	OperatingHours float64 `json:"operating_hours" yaml:"operating_hours"`
	// Alpha weighs temporal against energy efficiency in the combined KPI.
	Alpha float64 `json:"alpha" yaml:"alpha"`
}

// DefaultPolicy returns the reference scheduling rules.
func DefaultPolicy() Policy {
	return Policy{
		MinSessionHours: 0.25,
		MinGapHours:     0.5,
		OperatingHours:  24,
		Alpha:           0.5,
	}
}

// Horizon returns the opening window.
func (p Policy) Horizon() model.Interval {
	return model.Interval{Start: p.OpeningHour, End: p.OpeningHour + p.OperatingHours}
}

// SetDefaults fills zero values. Alpha is left untouched since zero is a
// legitimate weight.
func (p *Policy) SetDefaults() {
	d := DefaultPolicy()
	if p.MinSessionHours == 0 {
		p.MinSessionHours = d.MinSessionHours
	}
	if p.OperatingHours == 0 {
		p.OperatingHours = d.OperatingHours
	}
}

// Validate checks the policy values.
func (p Policy) Validate() error {
	if p.MinSessionHours < 0 {
		return fmt.Errorf("min_session_hours must not be negative")
	}
	if p.MinGapHours < 0 {
		return fmt.Errorf("min_gap_hours must not be negative")
	}
	if p.OperatingHours <= 0 || p.OperatingHours > model.DayHours {
		return fmt.Errorf("operating_hours must be in (0,%g]", model.DayHours)
	}
	if p.OpeningHour < 0 || p.OpeningHour+p.OperatingHours > model.DayHours {
		return fmt.Errorf("opening window [%g,%g] outside the day", p.OpeningHour, p.OpeningHour+p.OperatingHours)
	}
	if p.Alpha < 0 || p.Alpha > 1 {
		return fmt.Errorf("alpha must be in [0,1]")
	}
	return nil
}

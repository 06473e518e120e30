package config

import (
	"fmt"

	"github.com/ejosa-pasquale/HoreCa/core/allocator"
	"github.com/ejosa-pasquale/HoreCa/core/generator"
	"github.com/ejosa-pasquale/HoreCa/core/model"
)

// SearchConfig bounds the configuration search.
type SearchConfig struct {
	Budget     float64 `json:"budget"`
	MaxPowerKW float64 `json:"max_power_kw"`
	// QuantityCaps maps a kind name such as "DC60" to its quantity limit.
	QuantityCaps       map[string]int `json:"quantity_caps"`
	DefaultQuantityCap int            `json:"default_quantity_cap"`
	MinSlowShare       float64        `json:"min_slow_share"`
}

// SetDefaults fills unset fields.
func (s *SearchConfig) SetDefaults() {
	if s.DefaultQuantityCap == 0 {
		s.DefaultQuantityCap = generator.DefaultQuantityCap
	}
	if s.MinSlowShare == 0 {
		s.MinSlowShare = generator.DefaultMinSlowShare
	}
}

// Constraints converts the section and validates it.
func (s SearchConfig) Constraints() (generator.Constraints, error) {
	c := generator.Constraints{
		Budget:       s.Budget,
		MaxPowerKW:   s.MaxPowerKW,
		DefaultCap:   s.DefaultQuantityCap,
		MinSlowShare: s.MinSlowShare,
	}
	if len(s.QuantityCaps) > 0 {
		c.QuantityCaps = make(map[model.Kind]int, len(s.QuantityCaps))
		for name, n := range s.QuantityCaps {
			k, err := model.ParseKind(name)
			if err != nil {
				return generator.Constraints{}, fmt.Errorf("search.quantity_caps: %w", err)
			}
			c.QuantityCaps[k] = n
		}
	}
	if err := c.Validate(); err != nil {
		return generator.Constraints{}, fmt.Errorf("search: %w", err)
	}
	return c, nil
}

// PolicyConfig holds the scheduling rules and the size of the worker pool.
type PolicyConfig struct {
	MinSessionHours float64 `json:"min_session_hours"`
	MinGapHours     float64 `json:"min_gap_hours"`
	OpeningHour     float64 `json:"opening_hour"`
	OperatingHours  float64 `json:"operating_hours"`
	Alpha           float64 `json:"alpha"`
	// Workers bounds the parallel simulations. Zero uses every CPU.
	Workers int `json:"workers"`
}

// DefaultPolicy mirrors allocator.DefaultPolicy.
func DefaultPolicy() PolicyConfig {
	p := allocator.DefaultPolicy()
	return PolicyConfig{
		MinSessionHours: p.MinSessionHours,
		MinGapHours:     p.MinGapHours,
		OpeningHour:     p.OpeningHour,
		OperatingHours:  p.OperatingHours,
		Alpha:           p.Alpha,
	}
}

// SetDefaults fills unset fields.
func (p *PolicyConfig) SetDefaults() {
	ap := p.Allocator()
	ap.SetDefaults()
	p.MinSessionHours = ap.MinSessionHours
	p.OperatingHours = ap.OperatingHours
}

// Allocator returns the allocator policy.
func (p PolicyConfig) Allocator() allocator.Policy {
	return allocator.Policy{
		MinSessionHours: p.MinSessionHours,
		MinGapHours:     p.MinGapHours,
		OpeningHour:     p.OpeningHour,
		OperatingHours:  p.OperatingHours,
		Alpha:           p.Alpha,
	}
}

// Validate checks the policy values.
func (p PolicyConfig) Validate() error {
	if p.Workers < 0 {
		return fmt.Errorf("workers must not be negative")
	}
	return p.Allocator().Validate()
}

// Package generator enumerates the candidate station configurations of a
// search: every single-type layout and every fast/slow mix that fits the
// budget and the grid connection.
package generator

import (
	"fmt"
	"math"

	"github.com/ejosa-pasquale/HoreCa/core/model"
)

// DefaultQuantityCap is the practical per-type limit used when neither the
// constraints nor the per-kind caps set one.
const DefaultQuantityCap = 10

// DefaultMinSlowShare is the minimum number of slow stations per fast
// station in a mixed configuration.
const DefaultMinSlowShare = 0.2

// Constraints bound the search space.
type Constraints struct {
	Budget     float64 `json:"budget" yaml:"budget"`
	MaxPowerKW float64 `json:"max_power_kw" yaml:"max_power_kw"`
	// QuantityCaps overrides DefaultCap per kind. Missing or non-positive
	// entries fall back to DefaultCap.
	QuantityCaps map[model.Kind]int `json:"-" yaml:"-"`
	// DefaultCap bounds the quantity of any kind. Zero or less leaves only
	// the budget and power limits.
	DefaultCap   int     `json:"default_quantity_cap" yaml:"default_quantity_cap"`
	MinSlowShare float64 `json:"min_slow_share" yaml:"min_slow_share"`
}

// SetDefaults fills unset fields.
func (c *Constraints) SetDefaults() {
	if c.DefaultCap == 0 {
		c.DefaultCap = DefaultQuantityCap
	}
	if c.MinSlowShare == 0 {
		c.MinSlowShare = DefaultMinSlowShare
	}
}

// Validate checks that the constraints describe a bounded search.
func (c Constraints) Validate() error {
	if c.Budget <= 0 {
		return fmt.Errorf("budget must be positive")
	}
	if c.MaxPowerKW <= 0 {
		return fmt.Errorf("max_power_kw must be positive")
	}
	if c.MinSlowShare < 0 || c.MinSlowShare > 1 {
		return fmt.Errorf("min_slow_share must be in [0,1]")
	}
	for k, n := range c.QuantityCaps {
		if !k.Valid() {
			return fmt.Errorf("quantity cap: %w", model.ErrUnknownKind)
		}
		if n < 0 {
			return fmt.Errorf("quantity cap %s: %w", k, model.ErrNegativeCount)
		}
	}
	return nil
}

// Feasible reports whether cfg respects the budget and the power limit.
func (c Constraints) Feasible(cfg model.Configuration, cat model.Catalog) bool {
	if cfg.Total() == 0 || !cfg.Covered(cat) {
		return false
	}
	return cfg.CapitalCost(cat) <= c.Budget && cfg.InstalledPowerKW(cat) <= c.MaxPowerKW
}

// maxQuantity returns how many units of t the search may install on its own.
func (c Constraints) maxQuantity(t model.StationType) int {
	limit := c.DefaultCap
	if n, ok := c.QuantityCaps[t.Kind]; ok && n > 0 {
		limit = n
	}
	byPower := int(math.Floor(c.MaxPowerKW / t.PowerKW))
	if limit <= 0 || byPower < limit {
		limit = byPower
	}
	if cost := t.CapitalCost(); cost > 0 {
		if byBudget := int(math.Floor(c.Budget / cost)); byBudget < limit {
			limit = byBudget
		}
	}
	return max(limit, 0)
}

// minSlow returns the smallest slow-station count accepted in a mix holding
// the given number of fast stations.
func (c Constraints) minSlow(fast int) int {
	return max(1, int(math.Ceil(c.MinSlowShare*float64(fast)-1e-9)))
}

// Generate enumerates the candidate configurations. The result holds no
// duplicates, only feasible configurations, and is ordered deterministically:
// single-type layouts in kind order, then mixes by fast kind, slow kind, fast
// count and slow count. An empty result means no layout fits the constraints.
func Generate(cat model.Catalog, c Constraints) []model.Configuration {
	var (
		out  []model.Configuration
		seen = make(map[model.Configuration]bool)
	)
	add := func(counts map[model.Kind]int) {
		cfg, err := model.NewConfiguration(counts)
		if err != nil || seen[cfg] || !c.Feasible(cfg, cat) {
			return
		}
		seen[cfg] = true
		out = append(out, cfg)
	}

	types := cat.Types()
	for _, t := range types {
		for n := 1; n <= c.maxQuantity(t); n++ {
			add(map[model.Kind]int{t.Kind: n})
		}
	}

	for _, fast := range types {
		if !fast.Kind.DC() {
			continue
		}
		for _, slow := range types {
			if slow.Kind.DC() {
				continue
			}
			for nf := 1; nf <= c.maxQuantity(fast); nf++ {
				for ns := c.minSlow(nf); ns <= c.maxQuantity(slow); ns++ {
					add(map[model.Kind]int{fast.Kind: nf, slow.Kind: ns})
				}
			}
		}
	}
	return out
}

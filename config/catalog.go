package config

import (
	"fmt"

	"github.com/ejosa-pasquale/HoreCa/core/model"
)

// StationConfig overrides one entry of the default catalog. Zero fields keep
// the default value of the kind.
type StationConfig struct {
	Kind     string  `json:"kind"`
	PowerKW  float64 `json:"power_kw"`
	UnitCost float64 `json:"unit_cost"`
	// InstallationCost defaults to power_kw times the per-kW installation
	// cost when omitted. An explicit zero is kept.
	InstallationCost  *float64 `json:"installation_cost"`
	AnnualMaintenance float64  `json:"annual_maintenance"`
	MaxDailySessions  int      `json:"max_daily_sessions"`
	Color             string   `json:"color"`
}

// BuildCatalog applies the overrides to the default catalog.
func (c Config) BuildCatalog() (model.Catalog, error) {
	cat := model.DefaultCatalog()
	for i, sc := range c.Catalog {
		k, err := model.ParseKind(sc.Kind)
		if err != nil {
			return model.Catalog{}, fmt.Errorf("catalog[%d]: %w", i, err)
		}
		t, _ := cat.Lookup(k)
		powerChanged := sc.PowerKW != 0 && sc.PowerKW != t.PowerKW
		if sc.PowerKW != 0 {
			t.PowerKW = sc.PowerKW
		}
		if sc.UnitCost != 0 {
			t.UnitCost = sc.UnitCost
		}
		switch {
		case sc.InstallationCost != nil:
			t.InstallationCost = *sc.InstallationCost
		case powerChanged:
			t.InstallationCost = t.PowerKW * model.InstallationCostPerKW
		}
		if sc.AnnualMaintenance != 0 {
			t.AnnualMaintenance = sc.AnnualMaintenance
		}
		if sc.MaxDailySessions != 0 {
			t.MaxDailySessions = sc.MaxDailySessions
		}
		if sc.Color != "" {
			t.Color = sc.Color
		}
		if cat, err = cat.With(t); err != nil {
			return model.Catalog{}, fmt.Errorf("catalog[%d]: %w", i, err)
		}
	}
	return cat, nil
}

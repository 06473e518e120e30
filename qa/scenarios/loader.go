// Package scenarios runs end-to-end planning scenarios described in YAML.
package scenarios

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ejosa-pasquale/HoreCa/core/allocator"
	"github.com/ejosa-pasquale/HoreCa/core/fleet"
	"github.com/ejosa-pasquale/HoreCa/core/generator"
	"github.com/ejosa-pasquale/HoreCa/core/model"
)

// Modes.
const (
	ModeSimulate = "simulate"
	ModeOptimize = "optimize"
)

type VehicleDef struct {
	ID        string  `yaml:"id"`
	DemandKWh float64 `yaml:"demand_kwh"`
	Arrival   float64 `yaml:"arrival"`
	Departure float64 `yaml:"departure"`
}

func (v VehicleDef) ToModel() model.Vehicle {
	return model.NewVehicle(v.ID, v.DemandKWh, v.Arrival, v.Departure)
}

type GroupDef struct {
	Name      string  `yaml:"name"`
	Quantity  int     `yaml:"quantity"`
	EnergyKWh float64 `yaml:"energy_kwh"`
	Arrival   float64 `yaml:"arrival"`
	Departure float64 `yaml:"departure"`
}

func (g GroupDef) ToModel() model.VehicleGroup {
	return model.VehicleGroup{Name: g.Name, Quantity: g.Quantity, EnergyKWh: g.EnergyKWh, Arrival: g.Arrival, Departure: g.Departure}
}

// StationDef overrides the power or the unit cost of a catalog entry.
type StationDef struct {
	Kind     string  `yaml:"kind"`
	PowerKW  float64 `yaml:"power_kw"`
	UnitCost float64 `yaml:"unit_cost"`
}

type PolicyDef struct {
	MinSessionHours float64 `yaml:"min_session_hours"`
	MinGapHours     float64 `yaml:"min_gap_hours"`
}

type SearchDef struct {
	Budget     float64 `yaml:"budget"`
	MaxPowerKW float64 `yaml:"max_power_kw"`
}

type GroupExpected struct {
	Vehicles     int     `yaml:"vehicles"`
	RequestedKWh float64 `yaml:"requested_kwh"`
}

// Expected lists the checks of a scenario. Unset pointers are not checked.
type Expected struct {
	Solved       *bool                    `yaml:"solved,omitempty"`
	Best         string                   `yaml:"best,omitempty"`
	Sessions     *int                     `yaml:"sessions,omitempty"`
	FullyServed  *int                     `yaml:"fully_served,omitempty"`
	DeliveredKWh *float64                 `yaml:"delivered_kwh,omitempty"`
	SessionHours []float64                `yaml:"session_hours,omitempty"`
	Groups       map[string]GroupExpected `yaml:"groups,omitempty"`
}

type Scenario struct {
	Name        string       `yaml:"name"`
	Description string       `yaml:"description,omitempty"`
	Mode        string       `yaml:"mode"`
	Stations    string       `yaml:"stations,omitempty"`
	Catalog     []StationDef `yaml:"catalog,omitempty"`
	Vehicles    []VehicleDef `yaml:"vehicles,omitempty"`
	Groups      []GroupDef   `yaml:"groups,omitempty"`
	Policy      PolicyDef    `yaml:"policy"`
	Search      SearchDef    `yaml:"search"`
	Expected    Expected     `yaml:"expected"`
}

func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return nil, err
	}
	if sc.Mode == "" {
		sc.Mode = ModeSimulate
	}
	if sc.Mode != ModeSimulate && sc.Mode != ModeOptimize {
		return nil, fmt.Errorf("%s: unknown mode %q", path, sc.Mode)
	}
	return &sc, nil
}

// Fleet returns the explicit vehicles followed by the expanded groups.
func (sc *Scenario) Fleet() []model.Vehicle {
	out := make([]model.Vehicle, 0, len(sc.Vehicles))
	for _, v := range sc.Vehicles {
		out = append(out, v.ToModel())
	}
	groups := make([]model.VehicleGroup, len(sc.Groups))
	for i, g := range sc.Groups {
		groups[i] = g.ToModel()
	}
	return append(out, fleet.Expand(groups)...)
}

// BuildCatalog applies the overrides to the default catalog.
func (sc *Scenario) BuildCatalog() (model.Catalog, error) {
	cat := model.DefaultCatalog()
	for _, d := range sc.Catalog {
		k, err := model.ParseKind(d.Kind)
		if err != nil {
			return model.Catalog{}, err
		}
		t, _ := cat.Lookup(k)
		if d.PowerKW > 0 {
			t.PowerKW = d.PowerKW
		}
		if d.UnitCost > 0 {
			t.UnitCost = d.UnitCost
		}
		if cat, err = cat.With(t); err != nil {
			return model.Catalog{}, err
		}
	}
	return cat, nil
}

// AllocatorPolicy returns the default policy with the scenario overrides.
func (sc *Scenario) AllocatorPolicy() allocator.Policy {
	p := allocator.DefaultPolicy()
	if sc.Policy.MinSessionHours > 0 {
		p.MinSessionHours = sc.Policy.MinSessionHours
	}
	if sc.Policy.MinGapHours > 0 {
		p.MinGapHours = sc.Policy.MinGapHours
	}
	return p
}

// Constraints returns the search bounds with defaults applied.
func (sc *Scenario) Constraints() generator.Constraints {
	c := generator.Constraints{Budget: sc.Search.Budget, MaxPowerKW: sc.Search.MaxPowerKW}
	c.SetDefaults()
	return c
}

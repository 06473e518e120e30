// Package fleet turns vehicle groups into individual vehicles and folds
// allocation results back into per-group figures.
package fleet

import (
	"fmt"
	"sort"

	"github.com/ejosa-pasquale/HoreCa/core/model"
)

// Expand emits Quantity vehicles per group with ids "<name>_1".."<name>_N".
// Every vehicle carries the group name. Groups with a non-positive quantity
// produce nothing. The input is not modified.
func Expand(groups []model.VehicleGroup) []model.Vehicle {
	var out []model.Vehicle
	for _, g := range groups {
		demand := g.DemandKWh()
		for i := 1; i <= g.Quantity; i++ {
			v := model.NewVehicle(fmt.Sprintf("%s_%d", g.Name, i), demand, g.Arrival, g.Departure)
			v.Group = g.Name
			out = append(out, v)
		}
	}
	return out
}

// Validate checks every group and rejects duplicate names, which would
// produce clashing vehicle ids.
func Validate(groups []model.VehicleGroup) error {
	seen := make(map[string]bool, len(groups))
	for _, g := range groups {
		if err := g.Validate(); err != nil {
			return err
		}
		if seen[g.Name] {
			return fmt.Errorf("duplicate group %s", g.Name)
		}
		seen[g.Name] = true
	}
	return nil
}

// GroupSummary aggregates served and requested energy of one group.
type GroupSummary struct {
	Group        string  `json:"group"`
	Vehicles     int     `json:"vehicles"`
	FullyServed  int     `json:"fully_served"`
	RequestedKWh float64 `json:"requested_kwh"`
	ServedKWh    float64 `json:"served_kwh"`
	Sessions     int     `json:"sessions"`
}

// UnservedKWh returns the demand left to external charging.
func (g GroupSummary) UnservedKWh() float64 { return g.RequestedKWh - g.ServedKWh }

// Summarize groups vehicles by their originating group. Vehicles without a
// group are reported under their own id. servedTolerance is the remaining
// energy below which a vehicle counts as fully served. The result is sorted
// by group name.
func Summarize(vehicles []model.Vehicle, servedTolerance float64) []GroupSummary {
	idx := make(map[string]int)
	var out []GroupSummary
	for _, v := range vehicles {
		name := v.Group
		if name == "" {
			name = v.ID
		}
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, GroupSummary{Group: name})
		}
		g := &out[i]
		g.Vehicles++
		g.RequestedKWh += v.DemandKWh
		g.ServedKWh += v.ServedKWh()
		g.Sessions += len(v.Sessions)
		if v.RemainingKWh < servedTolerance {
			g.FullyServed++
		}
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Group < out[b].Group })
	return out
}

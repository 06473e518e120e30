package fleet

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejosa-pasquale/HoreCa/core/allocator"
	"github.com/ejosa-pasquale/HoreCa/core/model"
)

func TestExpandGroup(t *testing.T) {
	groups := []model.VehicleGroup{{Name: "vans", Quantity: 5, EnergyKWh: 15, Arrival: 7, Departure: 19}}
	vs := Expand(groups)
	require.Len(t, vs, 5)

	ids := make(map[string]bool)
	var demand float64
	for i, v := range vs {
		ids[v.ID] = true
		demand += v.DemandKWh
		assert.Equal(t, "vans", v.Group)
		assert.Equal(t, 7.0, v.Arrival)
		assert.Equal(t, 19.0, v.Departure)
		assert.Equal(t, 15.0, v.RemainingKWh)
		if i == 0 {
			assert.Equal(t, "vans_1", v.ID)
		}
	}
	assert.Len(t, ids, 5)
	assert.Equal(t, 75.0, demand)
}

func TestExpandDerivesDemandFromDistance(t *testing.T) {
	vs := Expand([]model.VehicleGroup{{Name: "taxi", Quantity: 2, DistanceKm: 250, ConsumptionKWhPerKm: 0.16, Arrival: 0, Departure: 30}})
	require.Len(t, vs, 2)
	assert.InDelta(t, 40.0, vs[1].DemandKWh, 1e-9)
	assert.Equal(t, model.DayHours, vs[1].Departure)
}

func TestExpandSkipsEmptyGroups(t *testing.T) {
	vs := Expand([]model.VehicleGroup{{Name: "none", Quantity: 0, EnergyKWh: 10}, {Name: "neg", Quantity: -3}})
	assert.Empty(t, vs)
}

func TestValidateRejectsDuplicates(t *testing.T) {
	err := Validate([]model.VehicleGroup{{Name: "a", Quantity: 1}, {Name: "a", Quantity: 2}})
	assert.Error(t, err)
}

func TestSummarizeGroupServedEnergy(t *testing.T) {
	vs := Expand([]model.VehicleGroup{
		{Name: "vans", Quantity: 5, EnergyKWh: 15, Arrival: 8, Departure: 12},
		{Name: "cars", Quantity: 2, EnergyKWh: 30, Arrival: 8, Departure: 18},
	})
	stations := []*model.Station{
		model.NewStation("AC22-1", model.StationType{Kind: model.KindAC22, PowerKW: 22}),
	}
	_, err := allocator.Allocate(stations, vs, allocator.DefaultPolicy())
	require.NoError(t, err)

	summary := Summarize(vs, allocator.ServedToleranceKWh)
	require.Len(t, summary, 2)
	assert.Equal(t, "cars", summary[0].Group)
	assert.Equal(t, "vans", summary[1].Group)

	var vanServed float64
	for _, v := range vs {
		if v.Group == "vans" {
			vanServed += v.ServedKWh()
		}
	}
	assert.InDelta(t, vanServed, summary[1].ServedKWh, 1e-9)
	assert.Equal(t, 75.0, summary[1].RequestedKWh)
	assert.Equal(t, 5, summary[1].Vehicles)
	assert.InDelta(t, summary[1].RequestedKWh-summary[1].ServedKWh, summary[1].UnservedKWh(), 1e-9)
}

func TestSummarizeUngroupedVehicle(t *testing.T) {
	v := model.NewVehicle("solo", 10, 8, 9)
	summary := Summarize([]model.Vehicle{v}, allocator.ServedToleranceKWh)
	require.Len(t, summary, 1)
	assert.Equal(t, "solo", summary[0].Group)
	assert.Equal(t, 0, summary[0].FullyServed)
}

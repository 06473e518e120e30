package capacity

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejosa-pasquale/HoreCa/core/model"
)

func fleetOf(n int, demand, arrival, departure float64) []model.Vehicle {
	vs := make([]model.Vehicle, n)
	for i := range vs {
		vs[i] = model.NewVehicle(string(rune('a'+i)), demand, arrival, departure)
	}
	return vs
}

func TestComputeDemandBound(t *testing.T) {
	cfg, err := model.ParseConfiguration("AC22=2")
	require.NoError(t, err)
	e := Compute(cfg, model.DefaultCatalog(), fleetOf(4, 20, 8, 18), Params{OperatingHours: 10, UtilizationPct: 80, TurnoverHours: 0.5})

	assert.Equal(t, 44.0, e.InstalledPowerKW)
	assert.Equal(t, 2, e.Stations)
	assert.InDelta(t, 352.0, e.EnergyCapacityKWh, 1e-9)
	assert.InDelta(t, 20.0/22.0, e.ChargeHours, 1e-9)
	assert.InDelta(t, 20/(20.0/22.0+0.5), e.MaxSessions, 1e-9)
	assert.InDelta(t, 80.0, e.DeliverableKWh, 1e-9)
	assert.Equal(t, 4, e.VehiclesServed)
	assert.Equal(t, 0, e.VehiclesUnserved)
	assert.InDelta(t, 80.0/352.0*100, e.EnergyUtilization, 1e-9)
	assert.Equal(t, "demand", e.Bottleneck())
}

func TestComputeSessionBound(t *testing.T) {
	cfg, _ := model.ParseConfiguration("AC22=1")
	e := Compute(cfg, model.DefaultCatalog(), fleetOf(20, 50, 0, 24), Params{OperatingHours: 10, UtilizationPct: 100, TurnoverHours: 1})

	assert.InDelta(t, 220.0, e.EnergyCapacityKWh, 1e-9)
	assert.Less(t, e.SessionCapacityKWh, e.EnergyCapacityKWh)
	assert.InDelta(t, e.SessionCapacityKWh, e.DeliverableKWh, 1e-9)
	assert.Equal(t, 3, e.VehiclesServed)
	assert.Equal(t, 17, e.VehiclesUnserved)
	assert.Equal(t, "sessions", e.Bottleneck())
}

func TestComputeEmptyConfiguration(t *testing.T) {
	e := Compute(model.Configuration{}, model.DefaultCatalog(), fleetOf(2, 10, 8, 9), DefaultParams())
	assert.Zero(t, e.DeliverableKWh)
	assert.Zero(t, e.PlugUtilization)
	assert.Zero(t, e.EnergyUtilization)
	assert.Equal(t, 2, e.VehiclesUnserved)
}

func TestParamsValidate(t *testing.T) {
	p := Params{}
	p.SetDefaults()
	assert.NoError(t, p.Validate())
	assert.Error(t, Params{OperatingHours: 30, UtilizationPct: 50}.Validate())
	assert.Error(t, Params{OperatingHours: 10, UtilizationPct: 150}.Validate())
	assert.Error(t, Params{OperatingHours: 10, UtilizationPct: 50, TurnoverHours: -1}.Validate())
}

func TestUpperBoundSiteLimit(t *testing.T) {
	cfg, _ := model.ParseConfiguration("AC22=1")
	vs := []model.Vehicle{
		model.NewVehicle("a", 30, 8, 18),
		model.NewVehicle("b", 30, 8, 9),
	}
	b, err := UpperBound(cfg, model.DefaultCatalog(), vs, model.Interval{Start: 8, End: 10})
	require.NoError(t, err)
	assert.InDelta(t, 44.0, b.EnergyKWh, 1e-6)
	assert.LessOrEqual(t, b.PerVehicle["a"], 30.0+1e-6)
	assert.LessOrEqual(t, b.PerVehicle["b"], 22.0+1e-6)
	assert.InDelta(t, 14.0, b.Gap(30), 1e-6)
}

func TestUpperBoundVehicleLimits(t *testing.T) {
	cfg, _ := model.ParseConfiguration("AC22=1")
	vs := []model.Vehicle{
		model.NewVehicle("a", 30, 8, 18),
		model.NewVehicle("b", 30, 8, 9),
		model.NewVehicle("late", 30, 9, 8),
	}
	b, err := UpperBound(cfg, model.DefaultCatalog(), vs, model.Interval{End: 24})
	require.NoError(t, err)
	assert.InDelta(t, 52.0, b.EnergyKWh, 1e-9)
	assert.Equal(t, 22.0, b.PerVehicle["b"])
	assert.NotContains(t, b.PerVehicle, "late")
	assert.Zero(t, b.Gap(60))
}

func TestUpperBoundNoStations(t *testing.T) {
	b, err := UpperBound(model.Configuration{}, model.DefaultCatalog(), fleetOf(3, 10, 8, 12), model.Interval{End: 24})
	require.NoError(t, err)
	assert.Zero(t, b.EnergyKWh)
}

func TestUpperBoundSolverFailure(t *testing.T) {
	orig := lpSolve
	defer func() { lpSolve = orig }()
	lpSolve = func([]float64, float64) ([]float64, error) { return nil, errors.New("boom") }

	cfg, _ := model.ParseConfiguration("AC22=1")
	_, err := UpperBound(cfg, model.DefaultCatalog(), fleetOf(5, 30, 0, 24), model.Interval{End: 1})
	assert.Error(t, err)
}

func TestUpperBoundMixedConfiguration(t *testing.T) {
	cfg, _ := model.ParseConfiguration("AC22=1,DC60=1")
	vs := fleetOf(8, 40, 6, 14)
	b, err := UpperBound(cfg, model.DefaultCatalog(), vs, model.Interval{Start: 6, End: 9})
	require.NoError(t, err)
	// 82 kW over 3 h
	assert.InDelta(t, 246.0, b.EnergyKWh, 1e-6)
	for id, x := range b.PerVehicle {
		assert.LessOrEqual(t, x, 40.0+1e-6, id)
	}
}

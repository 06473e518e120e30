package config

import "github.com/ejosa-pasquale/HoreCa/core/model"

// GroupConfig describes a group of identical vehicles. Demand is energy_kwh
// when set, otherwise distance_km times consumption_kwh_per_km.
type GroupConfig struct {
	Name                string  `json:"name"`
	Quantity            int     `json:"quantity"`
	EnergyKWh           float64 `json:"energy_kwh"`
	DistanceKm          float64 `json:"distance_km"`
	ConsumptionKWhPerKm float64 `json:"consumption_kwh_per_km"`
	Arrival             float64 `json:"arrival"`
	Departure           float64 `json:"departure"`
}

// Group converts the entry to the domain type.
func (g GroupConfig) Group() model.VehicleGroup {
	return model.VehicleGroup{
		Name:                g.Name,
		Quantity:            g.Quantity,
		EnergyKWh:           g.EnergyKWh,
		DistanceKm:          g.DistanceKm,
		ConsumptionKWhPerKm: g.ConsumptionKWhPerKm,
		Arrival:             g.Arrival,
		Departure:           g.Departure,
	}
}

// Groups returns the configured fleet in file order.
func (c Config) Groups() []model.VehicleGroup {
	out := make([]model.VehicleGroup, len(c.Fleet))
	for i, g := range c.Fleet {
		out[i] = g.Group()
	}
	return out
}

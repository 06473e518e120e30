package allocator

import (
	"gonum.org/v1/gonum/floats"

	"github.com/ejosa-pasquale/HoreCa/core/model"
)

// StationStats reports the use of one station.
type StationStats struct {
	ID            string     `json:"id"`
	Kind          model.Kind `json:"-"`
	PowerKW       float64    `json:"power_kw"`
	Sessions      int        `json:"sessions"`
	UtilizedHours float64    `json:"utilized_hours"`
	DeliveredKWh  float64    `json:"delivered_kwh"`
}

// Summary holds the aggregate KPIs of one allocation run.
type Summary struct {
	RequestedKWh     float64        `json:"requested_kwh"`
	DeliveredKWh     float64        `json:"delivered_kwh"`
	ExternalKWh      float64        `json:"external_kwh"`
	Vehicles         int            `json:"vehicles"`
	FullyServed      int            `json:"fully_served"`
	Sessions         int            `json:"sessions"`
	InstalledPowerKW float64        `json:"installed_power_kw"`
	Stations         []StationStats `json:"stations"`
	// TemporalEfficiency is utilized hours over operating hours times stations.
	TemporalEfficiency float64 `json:"temporal_efficiency"`
	// EnergyEfficiency is delivered energy over installed power times operating hours.
	EnergyEfficiency float64 `json:"energy_efficiency"`
	// CombinedEfficiency is Alpha*Temporal + (1-Alpha)*Energy.
	CombinedEfficiency float64 `json:"combined_efficiency"`
	Passes             int     `json:"passes"`
}

// InternalFraction returns the share of requested energy served by the
// stations. A fleet requesting nothing is fully served.
func (s Summary) InternalFraction() float64 {
	if s.RequestedKWh <= 0 {
		return 1
	}
	return s.DeliveredKWh / s.RequestedKWh
}

// Summarize computes the KPIs from the allocation state.
func Summarize(stations []*model.Station, vehicles []model.Vehicle, p Policy, passes int) Summary {
	s := Summary{Vehicles: len(vehicles), Passes: passes}

	requested := make([]float64, len(vehicles))
	served := make([]float64, len(vehicles))
	remaining := make([]float64, len(vehicles))
	for i, v := range vehicles {
		requested[i] = v.DemandKWh
		served[i] = v.ServedKWh()
		remaining[i] = v.RemainingKWh
		if v.RemainingKWh < ServedToleranceKWh {
			s.FullyServed++
		}
	}
	s.RequestedKWh = floats.Sum(requested)
	s.ExternalKWh = floats.Sum(remaining)

	hours := make([]float64, len(stations))
	energy := make([]float64, len(stations))
	power := make([]float64, len(stations))
	s.Stations = make([]StationStats, len(stations))
	for i, st := range stations {
		hours[i] = st.UtilizedHours()
		energy[i] = st.DeliveredKWh()
		power[i] = st.PowerKW
		s.Sessions += st.SessionCount()
		s.Stations[i] = StationStats{
			ID:            st.ID,
			Kind:          st.Type.Kind,
			PowerKW:       st.PowerKW,
			Sessions:      st.SessionCount(),
			UtilizedHours: hours[i],
			DeliveredKWh:  energy[i],
		}
	}
	s.DeliveredKWh = floats.Sum(served)
	s.InstalledPowerKW = floats.Sum(power)

	if len(stations) > 0 && p.OperatingHours > 0 {
		s.TemporalEfficiency = floats.Sum(hours) / (p.OperatingHours * float64(len(stations)))
	}
	if s.InstalledPowerKW > 0 && p.OperatingHours > 0 {
		s.EnergyEfficiency = floats.Sum(energy) / (s.InstalledPowerKW * p.OperatingHours)
	}
	s.CombinedEfficiency = p.Alpha*s.TemporalEfficiency + (1-p.Alpha)*s.EnergyEfficiency
	return s
}

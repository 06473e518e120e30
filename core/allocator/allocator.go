// Package allocator assigns charging sessions of a vehicle fleet to a fixed
// set of stations.
//
// The allocator is a greedy heuristic. Each pass walks the vehicles that still
// need energy, most urgent first, and commits at most one session per vehicle
// on the station offering the best slot. The run stops as soon as a pass
// commits nothing or every vehicle is satisfied.
package allocator

import (
	"errors"
	"sort"

	"github.com/ejosa-pasquale/HoreCa/core/logger"
	"github.com/ejosa-pasquale/HoreCa/core/model"
	"github.com/ejosa-pasquale/HoreCa/core/slot"
)

// ErrNonConvergence is returned when the safety bound on passes is reached
// before the termination predicate holds.
var ErrNonConvergence = errors.New("allocator did not converge")

// passesPerVehicle bounds the number of passes: one per quarter hour of the
// day for every vehicle.
const passesPerVehicle = 24 * 4

// Allocator schedules sessions according to a Policy.
type Allocator struct {
	Policy Policy
	Logger logger.Logger
}

// New returns an allocator for the policy. A nil logger discards output.
func New(p Policy, log logger.Logger) *Allocator {
	return &Allocator{Policy: p, Logger: logger.OrNop(log)}
}

// Allocate runs the allocator with a silent logger.
func Allocate(stations []*model.Station, vehicles []model.Vehicle, p Policy) (Summary, error) {
	return New(p, nil).Allocate(stations, vehicles)
}

// option is a candidate session for one vehicle on one station.
type option struct {
	station int
	power   float64
	start   float64
	end     float64
	energy  float64
	full    bool
}

// better reports whether a should be preferred over b: completing the
// vehicle first, then faster hardware for completions or more energy for
// partial charges, then the earlier slot and finally the station order.
func better(a, b option) bool {
	if a.full != b.full {
		return a.full
	}
	if !a.full {
		if d := a.energy - b.energy; d > slot.Epsilon || d < -slot.Epsilon {
			return d > 0
		}
	}
	if a.power != b.power {
		return a.power > b.power
	}
	if a.start != b.start {
		return a.start < b.start
	}
	return a.station < b.station
}

// run holds the state of one allocation.
type run struct {
	policy   Policy
	stations []*model.Station
	vehicles []model.Vehicle
	passes   int
}

// Allocate mutates stations and vehicles in place and returns the KPIs.
// Stations and vehicles must be fresh, i.e. without prior sessions, for the
// KPIs to describe a single day.
func (a *Allocator) Allocate(stations []*model.Station, vehicles []model.Vehicle) (Summary, error) {
	log := logger.OrNop(a.Logger)
	r := &run{policy: a.Policy, stations: stations, vehicles: vehicles}
	limit := passesPerVehicle * len(vehicles)

	for {
		progress := r.pass()
		r.passes++
		if r.finished(progress) {
			break
		}
		if r.passes >= limit {
			log.Errorf("allocator stopped after %d passes with %d stations and %d vehicles", r.passes, len(stations), len(vehicles))
			return Summarize(stations, vehicles, a.Policy, r.passes), ErrNonConvergence
		}
	}
	return Summarize(stations, vehicles, a.Policy, r.passes), nil
}

// finished is the single termination predicate: no progress in the last
// pass, or nothing left to serve.
func (r *run) finished(progress bool) bool {
	return !progress || len(r.candidates()) == 0
}

// candidates returns the indexes of vehicles still needing energy, ordered by
// departure then by remaining energy descending.
func (r *run) candidates() []int {
	var idx []int
	for i, v := range r.vehicles {
		if v.Degenerate() || v.RemainingKWh <= NegligibleKWh {
			continue
		}
		idx = append(idx, i)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := r.vehicles[idx[a]], r.vehicles[idx[b]]
		if va.Departure != vb.Departure {
			return va.Departure < vb.Departure
		}
		return va.RemainingKWh > vb.RemainingKWh
	})
	return idx
}

// pass commits at most one session per candidate vehicle and reports
// whether anything was committed.
func (r *run) pass() bool {
	committed := false
	for _, i := range r.candidates() {
		opt, ok := r.bestOption(&r.vehicles[i])
		if !ok {
			continue
		}
		r.commit(&r.vehicles[i], opt)
		committed = true
	}
	return committed
}

func (r *run) bestOption(v *model.Vehicle) (option, bool) {
	var (
		best  option
		found bool
	)
	h := r.policy.Horizon()
	windowStart := max(v.Arrival, v.EarliestCharge, h.Start)
	windowEnd := min(v.Departure, h.End)
	if windowEnd <= windowStart {
		return best, false
	}
	for si, st := range r.stations {
		if st.AtCapacity() || st.PowerKW <= 0 {
			continue
		}
		opt, ok := r.optionOn(si, st, v, windowStart, windowEnd)
		if !ok {
			continue
		}
		if !found || better(opt, best) {
			best, found = opt, true
		}
	}
	return best, found
}

func (r *run) optionOn(si int, st *model.Station, v *model.Vehicle, windowStart, windowEnd float64) (option, bool) {
	need := v.RemainingKWh / st.PowerKW
	iv, ok := slot.FindBestSlot(st.Sessions, windowStart, windowEnd, r.policy.MinGapHours, r.policy.MinSessionHours)
	if !ok && need < r.policy.MinSessionHours {
		// finishing charge: a slot just long enough to complete the vehicle
		iv, ok = slot.FindBestSlot(st.Sessions, windowStart, windowEnd, r.policy.MinGapHours, need)
	}
	if !ok {
		return option{}, false
	}
	capacity := st.PowerKW * iv.Duration()
	opt := option{station: si, power: st.PowerKW, start: iv.Start}
	if capacity >= v.RemainingKWh-st.PowerKW*slot.Epsilon {
		opt.energy = v.RemainingKWh
		opt.full = true
	} else {
		opt.energy = capacity
	}
	duration := opt.energy / st.PowerKW
	if opt.energy < NegligibleKWh || duration < NegligibleHours {
		return option{}, false
	}
	opt.end = min(iv.Start+duration, iv.End)
	return opt, true
}

func (r *run) commit(v *model.Vehicle, opt option) {
	st := r.stations[opt.station]
	sess := model.Session{
		StationID: st.ID,
		VehicleID: v.ID,
		Start:     opt.start,
		End:       opt.end,
		EnergyKWh: opt.energy,
	}
	st.Book(sess)
	v.Sessions = append(v.Sessions, sess)
	if opt.full {
		v.RemainingKWh = 0
	} else {
		v.RemainingKWh = max(0, v.RemainingKWh-opt.energy)
	}
	v.EarliestCharge = opt.end + r.policy.MinGapHours
}

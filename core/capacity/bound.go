package capacity

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize/convex/lp"

	"github.com/ejosa-pasquale/HoreCa/core/model"
)

// Bound is the linear relaxation of the allocation problem. It ignores
// session granularity, gaps and station exclusivity, so no schedule can
// deliver more than EnergyKWh.
type Bound struct {
	EnergyKWh  float64            `json:"energy_kwh"`
	PerVehicle map[string]float64 `json:"-"`
}

// Gap returns how far a delivered amount stays below the bound.
func (b Bound) Gap(deliveredKWh float64) float64 {
	return max(0, b.EnergyKWh-deliveredKWh)
}

// lpSolve can be replaced in tests to simulate solver failures.
var lpSolve = solveLP

// UpperBound solves
//
//	max  Σ x_v
//	s.t. 0 <= x_v <= min(demand_v, |window_v ∩ horizon| * maxStationPower)
//	     Σ x_v <= installedPower * |horizon|
//
// with the simplex method. horizon is the opening window the allocator
// schedules in.
func UpperBound(cfg model.Configuration, cat model.Catalog, vehicles []model.Vehicle, horizon model.Interval) (Bound, error) {
	b := Bound{PerVehicle: make(map[string]float64, len(vehicles))}

	var maxPower float64
	for k, n := range cfg.Counts() {
		if t, ok := cat.Lookup(k); ok && n > 0 {
			maxPower = max(maxPower, t.PowerKW)
		}
	}
	total := cfg.InstalledPowerKW(cat) * max(0, horizon.Duration())

	var (
		ids  []string
		caps []float64
	)
	for _, v := range vehicles {
		if v.Degenerate() {
			continue
		}
		c := min(v.DemandKWh, v.HoursWithin(horizon)*maxPower)
		if c <= 0 {
			continue
		}
		ids = append(ids, v.ID)
		caps = append(caps, c)
	}
	if len(caps) == 0 || total <= 0 {
		return b, nil
	}
	// the site limit does not bind: every vehicle gets its cap
	if floats.Sum(caps) <= total {
		for i, id := range ids {
			b.PerVehicle[id] = caps[i]
		}
		b.EnergyKWh = floats.Sum(caps)
		return b, nil
	}

	x, err := lpSolve(caps, total)
	if err != nil {
		return Bound{}, fmt.Errorf("upper bound: %w", err)
	}
	for i, id := range ids {
		v := min(max(x[i], 0), caps[i])
		b.PerVehicle[id] = v
		b.EnergyKWh += v
	}
	return b, nil
}

// solveLP maximises the sum of x under per-variable caps and a shared total.
func solveLP(caps []float64, total float64) ([]float64, error) {
	n := len(caps)
	c := make([]float64, n)
	for i := range c {
		c[i] = -1
	}

	// rows: x_i <= cap_i, -x_i <= 0, Σx <= total
	g := mat.NewDense(2*n+1, n, nil)
	h := make([]float64, 2*n+1)
	for i, cp := range caps {
		g.Set(i, i, 1)
		h[i] = cp
		g.Set(n+i, i, -1)
		g.Set(2*n, i, 1)
	}
	h[2*n] = total

	cStd, aStd, bStd := lp.Convert(c, g, h, nil, nil)
	_, sol, err := lp.Simplex(cStd, aStd, bStd, 1e-7, nil)
	if err != nil {
		return nil, err
	}
	// standard form splits x into positive and negative parts
	x := make([]float64, n)
	for i := range x {
		x[i] = sol[i] - sol[n+i]
	}
	return x, nil
}

package optimizer

import (
	"math"
	"sort"
)

// Quantization steps applied before comparing score components, so that
// floating noise below these amounts never decides a ranking.
const (
	fractionStep   = 1e-6
	powerStep      = 1e-6
	costStep       = 1e-2
	efficiencyStep = 1e-6
)

// Score is the ranking key of a simulated configuration. Lower is better on
// every component once the maximised ones are negated.
type Score struct {
	InternalFraction   float64 `json:"internal_fraction"`
	InstalledPowerKW   float64 `json:"installed_power_kw"`
	CapitalCost        float64 `json:"capital_cost"`
	CombinedEfficiency float64 `json:"combined_efficiency"`
	Stations           int     `json:"stations"`
}

// Tuple returns the components in comparison order, each oriented so that a
// smaller value is better:
//
//	(-internal fraction, installed power, cost, -combined efficiency, stations)
func (s Score) Tuple() [5]float64 {
	return [5]float64{
		-quantize(s.InternalFraction, fractionStep),
		quantize(s.InstalledPowerKW, powerStep),
		quantize(s.CapitalCost, costStep),
		-quantize(s.CombinedEfficiency, efficiencyStep),
		float64(s.Stations),
	}
}

// Compare orders two scores lexicographically on Tuple. It returns -1 when s
// ranks before o, 1 when after and 0 when they tie on every component.
func (s Score) Compare(o Score) int {
	a, b := s.Tuple(), o.Tuple()
	for i := range a {
		switch {
		case a[i] < b[i]:
			return -1
		case a[i] > b[i]:
			return 1
		}
	}
	return 0
}

// Less reports whether s ranks strictly before o.
func (s Score) Less(o Score) bool { return s.Compare(o) < 0 }

func quantize(x, step float64) float64 {
	return math.Round(x/step) * step
}

// before is the total order of the ranking: the score first, then the
// configuration key so that equal scores keep a reproducible order.
func before(a, b Result) bool {
	if c := a.Score.Compare(b.Score); c != 0 {
		return c < 0
	}
	return a.Key < b.Key
}

// Rank sorts results best first. Ranking an already ranked slice leaves it
// unchanged.
func Rank(results []Result) {
	sort.SliceStable(results, func(i, j int) bool { return before(results[i], results[j]) })
}

// Ranked reports whether results are in ranking order.
func Ranked(results []Result) bool {
	return sort.SliceIsSorted(results, func(i, j int) bool { return before(results[i], results[j]) })
}

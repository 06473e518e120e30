package model

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrNegativeCount is returned when a configuration holds a negative quantity.
var ErrNegativeCount = errors.New("negative station count")

// Configuration maps every station kind to an installed quantity. It is a
// comparable value and can be used as a map key for de-duplication.
type Configuration struct {
	counts [kindCount]int
}

// NewConfiguration validates the quantities and builds a configuration.
func NewConfiguration(counts map[Kind]int) (Configuration, error) {
	var c Configuration
	for k, n := range counts {
		if !k.Valid() {
			return Configuration{}, fmt.Errorf("%w: %d", ErrUnknownKind, int(k))
		}
		if n < 0 {
			return Configuration{}, fmt.Errorf("%w: %s=%d", ErrNegativeCount, k, n)
		}
		c.counts[k] = n
	}
	return c, nil
}

// ParseConfiguration reads the "AC22=2,DC60=1" notation.
func ParseConfiguration(s string) (Configuration, error) {
	counts := make(map[Kind]int)
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		name, qty, ok := strings.Cut(part, "=")
		if !ok {
			return Configuration{}, fmt.Errorf("invalid station spec %q", part)
		}
		k, err := ParseKind(name)
		if err != nil {
			return Configuration{}, err
		}
		n, err := strconv.Atoi(strings.TrimSpace(qty))
		if err != nil {
			return Configuration{}, fmt.Errorf("invalid quantity in %q: %w", part, err)
		}
		counts[k] += n
	}
	return NewConfiguration(counts)
}

// Count returns the quantity of kind k.
func (c Configuration) Count(k Kind) int {
	if !k.Valid() {
		return 0
	}
	return c.counts[k]
}

// Counts returns the non-zero quantities.
func (c Configuration) Counts() map[Kind]int {
	m := make(map[Kind]int)
	for i, n := range c.counts {
		if n > 0 {
			m[Kind(i)] = n
		}
	}
	return m
}

// Total returns the number of stations.
func (c Configuration) Total() int {
	t := 0
	for _, n := range c.counts {
		t += n
	}
	return t
}

// InstalledPowerKW sums power over all units. Kinds missing from the catalog
// contribute nothing.
func (c Configuration) InstalledPowerKW(cat Catalog) float64 {
	var p float64
	for i, n := range c.counts {
		if t, ok := cat.Lookup(Kind(i)); ok {
			p += float64(n) * t.PowerKW
		}
	}
	return p
}

// CapitalCost sums purchase and installation cost over all units.
func (c Configuration) CapitalCost(cat Catalog) float64 {
	var cost float64
	for i, n := range c.counts {
		if t, ok := cat.Lookup(Kind(i)); ok {
			cost += float64(n) * t.CapitalCost()
		}
	}
	return cost
}

// Covered reports whether every kind in use exists in the catalog.
func (c Configuration) Covered(cat Catalog) bool {
	for i, n := range c.counts {
		if n == 0 {
			continue
		}
		if _, ok := cat.Lookup(Kind(i)); !ok {
			return false
		}
	}
	return true
}

// Key returns a stable textual form such as "AC22=2,DC60=1".
func (c Configuration) Key() string {
	var parts []string
	for i, n := range c.counts {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%s=%d", Kind(i), n))
		}
	}
	return strings.Join(parts, ",")
}

// String implements fmt.Stringer.
func (c Configuration) String() string { return c.Key() }

// Build creates fresh, empty stations for the configuration. Station ids are
// "<kind>-<n>" numbered from 1 per kind.
func (c Configuration) Build(cat Catalog) ([]*Station, error) {
	var out []*Station
	for i, n := range c.counts {
		if n == 0 {
			continue
		}
		t, ok := cat.Lookup(Kind(i))
		if !ok {
			return nil, fmt.Errorf("%w: %s not in catalog", ErrUnknownKind, Kind(i))
		}
		for j := 1; j <= n; j++ {
			out = append(out, NewStation(fmt.Sprintf("%s-%d", Kind(i), j), t))
		}
	}
	return out, nil
}

package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Kind identifies a station type. The set of kinds is closed.
type Kind int

const (
	KindAC22 Kind = iota
	KindDC20
	KindDC30
	KindDC40
	KindDC60
	KindDC90

	kindCount
)

// ErrUnknownKind is returned when a station kind name cannot be parsed.
var ErrUnknownKind = errors.New("unknown station kind")

var kindNames = [kindCount]string{"AC22", "DC20", "DC30", "DC40", "DC60", "DC90"}

// Kinds returns every station kind in declaration order.
func Kinds() []Kind {
	ks := make([]Kind, kindCount)
	for i := range ks {
		ks[i] = Kind(i)
	}
	return ks
}

// String returns the catalog name of the kind.
func (k Kind) String() string {
	if !k.Valid() {
		return "unknown"
	}
	return kindNames[k]
}

// Valid reports whether k is one of the declared kinds.
func (k Kind) Valid() bool { return k >= 0 && k < kindCount }

// DC reports whether the kind is a direct-current (fast) charger.
func (k Kind) DC() bool { return k.Valid() && k != KindAC22 }

// ParseKind converts a catalog name such as "dc60" into a Kind.
func ParseKind(s string) (Kind, error) {
	up := strings.ToUpper(strings.TrimSpace(s))
	for i, n := range kindNames {
		if n == up {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, s)
}

// StationType is a catalog entry.
type StationType struct {
	Kind              Kind
	PowerKW           float64
	UnitCost          float64
	InstallationCost  float64
	AnnualMaintenance float64
	// MaxDailySessions caps the sessions per station per day. Zero or less
	// means unlimited.
	MaxDailySessions int
	Color            string
}

// CapitalCost returns purchase plus installation cost for one unit.
func (t StationType) CapitalCost() float64 { return t.UnitCost + t.InstallationCost }

// Validate checks the catalog entry.
func (t StationType) Validate() error {
	if !t.Kind.Valid() {
		return ErrUnknownKind
	}
	if t.PowerKW <= 0 {
		return fmt.Errorf("%s: power must be positive", t.Kind)
	}
	if t.UnitCost < 0 || t.InstallationCost < 0 || t.AnnualMaintenance < 0 {
		return fmt.Errorf("%s: costs must not be negative", t.Kind)
	}
	return nil
}

// InstallationCostPerKW is the default installation cost used by DefaultCatalog.
const InstallationCostPerKW = 150.0

// Catalog is an immutable set of station types indexed by kind.
type Catalog struct {
	types   [kindCount]StationType
	present [kindCount]bool
}

// NewCatalog validates the entries and builds a catalog. A kind may appear once.
func NewCatalog(types ...StationType) (Catalog, error) {
	var c Catalog
	for _, t := range types {
		if err := t.Validate(); err != nil {
			return Catalog{}, err
		}
		if c.present[t.Kind] {
			return Catalog{}, fmt.Errorf("duplicate catalog entry %s", t.Kind)
		}
		c.types[t.Kind] = t
		c.present[t.Kind] = true
	}
	return c, nil
}

// DefaultCatalog returns the reference catalog: AC 22 kW and DC 20-90 kW.
func DefaultCatalog() Catalog {
	entry := func(k Kind, power, cost float64, sessions int, color string) StationType {
		return StationType{
			Kind:             k,
			PowerKW:          power,
			UnitCost:         cost,
			InstallationCost: power * InstallationCostPerKW,
			MaxDailySessions: sessions,
			Color:            color,
		}
	}
	c, _ := NewCatalog(
		entry(KindAC22, 22, 1000, 8, "#4caf50"),
		entry(KindDC20, 20, 8000, 10, "#03a9f4"),
		entry(KindDC30, 30, 12000, 12, "#2196f3"),
		entry(KindDC40, 40, 15000, 14, "#3f51b5"),
		entry(KindDC60, 60, 18000, 16, "#9c27b0"),
		entry(KindDC90, 90, 25000, 20, "#e91e63"),
	)
	return c
}

// Lookup returns the entry for k.
func (c Catalog) Lookup(k Kind) (StationType, bool) {
	if !k.Valid() || !c.present[k] {
		return StationType{}, false
	}
	return c.types[k], true
}

// Types returns the entries in kind order.
func (c Catalog) Types() []StationType {
	var out []StationType
	for i, ok := range c.present {
		if ok {
			out = append(out, c.types[i])
		}
	}
	return out
}

// With returns a copy of the catalog where t replaces any entry of the same kind.
func (c Catalog) With(t StationType) (Catalog, error) {
	if err := t.Validate(); err != nil {
		return Catalog{}, err
	}
	c.types[t.Kind] = t
	c.present[t.Kind] = true
	return c, nil
}

// Len returns the number of entries.
func (c Catalog) Len() int {
	n := 0
	for _, ok := range c.present {
		if ok {
			n++
		}
	}
	return n
}

// Interval is a half-open span of hours [Start, End).
type Interval struct {
	Start float64
	End   float64
}

// Duration returns the interval length in hours.
func (i Interval) Duration() float64 { return i.End - i.Start }

// Session is a committed charge of a vehicle on a station.
type Session struct {
	StationID string
	VehicleID string
	Start     float64
	End       float64
	EnergyKWh float64
}

// Duration returns the session length in hours.
func (s Session) Duration() float64 { return s.End - s.Start }

// Station is an installed charger with its bookings for the day.
type Station struct {
	ID       string
	Type     StationType
	PowerKW  float64
	Sessions []Session // sorted by Start, non-overlapping
}

// NewStation creates an empty station of the given type.
func NewStation(id string, t StationType) *Station {
	return &Station{ID: id, Type: t, PowerKW: t.PowerKW}
}

// SessionCount returns the number of sessions committed today.
func (s *Station) SessionCount() int { return len(s.Sessions) }

// AtCapacity reports whether the station reached its daily session cap.
func (s *Station) AtCapacity() bool {
	return s.Type.MaxDailySessions > 0 && len(s.Sessions) >= s.Type.MaxDailySessions
}

// Book inserts the session keeping the list sorted by start.
func (s *Station) Book(sess Session) {
	i := sort.Search(len(s.Sessions), func(i int) bool { return s.Sessions[i].Start > sess.Start })
	s.Sessions = append(s.Sessions, Session{})
	copy(s.Sessions[i+1:], s.Sessions[i:])
	s.Sessions[i] = sess
}

// UtilizedHours returns the total booked time.
func (s *Station) UtilizedHours() float64 {
	var h float64
	for _, sess := range s.Sessions {
		h += sess.Duration()
	}
	return h
}

// DeliveredKWh returns the energy of all sessions.
func (s *Station) DeliveredKWh() float64 {
	var e float64
	for _, sess := range s.Sessions {
		e += sess.EnergyKWh
	}
	return e
}

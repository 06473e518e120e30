package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejosa-pasquale/HoreCa/core/model"
	"github.com/ejosa-pasquale/HoreCa/pkg/export"
)

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

const depotYAML = `fleet:
  - name: vans
    quantity: 6
    energy_kwh: 35
    arrival: 6
    departure: 14
  - name: cars
    quantity: 4
    distance_km: 120
    consumption_kwh_per_km: 0.18
    arrival: 9
    departure: 17
catalog:
  - kind: dc60
    unit_cost: 16000
  - kind: AC22
    power_kw: 11
search:
  budget: 60000
  max_power_kw: 200
  quantity_caps:
    DC90: 1
policy:
  alpha: 0
  workers: 4
capacity:
  utilization_pct: 80
metrics:
  sinks:
    - type: "nop"
logging:
  level: debug
`

//nolint:gocyclo
func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", depotYAML))
	if err != nil {
		t.Fatalf("load error: %v", err)
	}
	checks := []struct {
		name string
		got  any
		want any
	}{
		{"groups", len(cfg.Fleet), 2},
		{"vans.quantity", cfg.Fleet[0].Quantity, 6},
		{"cars.distance", cfg.Fleet[1].DistanceKm, 120.0},
		{"budget", cfg.Search.Budget, 60000.0},
		{"default_quantity_cap", cfg.Search.DefaultQuantityCap, 10},
		{"alpha", cfg.Policy.Alpha, 0.0},
		{"min_gap_hours", cfg.Policy.MinGapHours, 0.5},
		{"min_session_hours", cfg.Policy.MinSessionHours, 0.25},
		{"workers", cfg.Policy.Workers, 4},
		{"utilization_pct", cfg.Capacity.UtilizationPct, 80.0},
		{"turnover_hours", cfg.Capacity.TurnoverHours, 0.25},
		{"capacity.operating_hours", cfg.Capacity.OperatingHours, 24.0},
		{"metrics_sink", len(cfg.Metrics.Sinks) == 1 && cfg.Metrics.Sinks[0].Type == "nop", true},
		{"logging.level", cfg.Logging.Level, "debug"},
		{"logging.format", cfg.Logging.Format, "json"},
		{"output.directory", cfg.Output.Directory, "out"},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s mismatch: %v", c.name, c.got)
		}
	}
}

func TestBuildCatalogOverrides(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", depotYAML))
	require.NoError(t, err)
	cat, err := cfg.BuildCatalog()
	require.NoError(t, err)

	dc60, ok := cat.Lookup(model.KindDC60)
	require.True(t, ok)
	assert.Equal(t, 16000.0, dc60.UnitCost)
	assert.Equal(t, 60.0, dc60.PowerKW)
	assert.Equal(t, 9000.0, dc60.InstallationCost)

	ac, _ := cat.Lookup(model.KindAC22)
	assert.Equal(t, 11.0, ac.PowerKW)
	assert.Equal(t, 11*model.InstallationCostPerKW, ac.InstallationCost)
	assert.Equal(t, 1000.0, ac.UnitCost)
	assert.Equal(t, 6, cat.Len())
}

func TestBuildCatalogExplicitInstallationCost(t *testing.T) {
	zero := 0.0
	cfg := Config{Catalog: []StationConfig{{Kind: "DC20", PowerKW: 25, InstallationCost: &zero}}}
	cat, err := cfg.BuildCatalog()
	require.NoError(t, err)
	dc20, _ := cat.Lookup(model.KindDC20)
	assert.Equal(t, 25.0, dc20.PowerKW)
	assert.Zero(t, dc20.InstallationCost)
}

func TestSearchConstraints(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", depotYAML))
	require.NoError(t, err)
	c, err := cfg.Search.Constraints()
	require.NoError(t, err)
	assert.Equal(t, map[model.Kind]int{model.KindDC90: 1}, c.QuantityCaps)
	assert.Equal(t, 200.0, c.MaxPowerKW)
	assert.Equal(t, 0.2, c.MinSlowShare)
}

func TestGroups(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.yaml", depotYAML))
	require.NoError(t, err)
	groups := cfg.Groups()
	require.Len(t, groups, 2)
	assert.Equal(t, 35.0, groups[0].DemandKWh())
	assert.InDelta(t, 21.6, groups[1].DemandKWh(), 1e-9)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CP_SEARCH__BUDGET", "75000")
	t.Setenv("CP_LOGGING__FORMAT", "console")
	t.Setenv("CP_POLICY__MIN_GAP_HOURS", "1")
	cfg, err := Load(writeConfig(t, "config.yaml", depotYAML))
	require.NoError(t, err)
	assert.Equal(t, 75000.0, cfg.Search.Budget)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 1.0, cfg.Policy.MinGapHours)
}

func TestCapacityFollowsPolicyHours(t *testing.T) {
	cfg, err := Load(writeConfig(t, "c.yaml", "search: {budget: 1, max_power_kw: 1}\npolicy:\n  opening_hour: 6\n  operating_hours: 12\n"))
	require.NoError(t, err)
	assert.Equal(t, 12.0, cfg.Capacity.OperatingHours)
	assert.Equal(t, model.Interval{Start: 6, End: 18}, cfg.Policy.Allocator().Horizon())
}

func TestLoadJSON(t *testing.T) {
	data := `{"fleet":[{"name":"bus","quantity":2,"energy_kwh":150,"arrival":20,"departure":6}],
"search":{"budget":100000,"max_power_kw":300},"output":{"formats":["json"]}}`
	cfg, err := Load(writeConfig(t, "config.json", data))
	require.NoError(t, err)
	assert.Equal(t, "bus", cfg.Fleet[0].Name)
	assert.True(t, cfg.Output.Wants(export.FormatJSON))
	assert.False(t, cfg.Output.Wants(export.FormatCSV))
}

const duplicateGroupYAML = `search: {budget: 1, max_power_kw: 1}
fleet:
  - {name: a, quantity: 1, energy_kwh: 1, arrival: 1, departure: 2}
  - {name: a, quantity: 1, energy_kwh: 1, arrival: 1, departure: 2}
`

func TestLoadErrors(t *testing.T) {
	cases := map[string]struct {
		name string
		data string
	}{
		"format":           {"config.toml", "search: {}"},
		"missing budget":   {"c.yaml", "search:\n  max_power_kw: 100\n"},
		"unknown kind":     {"c.yaml", "search:\n  budget: 1\n  max_power_kw: 1\ncatalog:\n  - kind: DC500\n"},
		"unknown cap":      {"c.yaml", "search:\n  budget: 1\n  max_power_kw: 1\n  quantity_caps:\n    HPC: 2\n"},
		"duplicate group":  {"c.yaml", duplicateGroupYAML},
		"alpha":            {"c.yaml", "search: {budget: 1, max_power_kw: 1}\npolicy:\n  alpha: 2\n"},
		"utilization":      {"c.yaml", "search: {budget: 1, max_power_kw: 1}\ncapacity:\n  utilization_pct: 120\n"},
		"log level":        {"c.yaml", "search: {budget: 1, max_power_kw: 1}\nlogging:\n  level: loud\n"},
		"output":           {"c.yaml", "search: {budget: 1, max_power_kw: 1}\noutput:\n  formats: [xlsx]\n"},
		"negative workers": {"c.yaml", "search: {budget: 1, max_power_kw: 1}\npolicy:\n  workers: -1\n"},
		"opening window":   {"c.yaml", "search: {budget: 1, max_power_kw: 1}\npolicy:\n  opening_hour: 20\n  operating_hours: 12\n"},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.name, tc.data))
			assert.Error(t, err)
		})
	}
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ejosa-pasquale/HoreCa/core/allocator"
	"github.com/ejosa-pasquale/HoreCa/core/capacity"
	"github.com/ejosa-pasquale/HoreCa/core/fleet"
	"github.com/ejosa-pasquale/HoreCa/core/generator"
	"github.com/ejosa-pasquale/HoreCa/core/model"
	"github.com/ejosa-pasquale/HoreCa/core/optimizer"
)

func vans() []model.Vehicle {
	return fleet.Expand([]model.VehicleGroup{{Name: "vans", Quantity: 4, EnergyKWh: 20, Arrival: 8, Departure: 18}})
}

func simulate(t *testing.T, key string) optimizer.Result {
	t.Helper()
	cfg, err := model.ParseConfiguration(key)
	require.NoError(t, err)
	res, err := optimizer.Simulate(cfg, model.DefaultCatalog(), vans(), allocator.DefaultPolicy(), capacity.DefaultParams(), nil)
	require.NoError(t, err)
	return res
}

func search(t *testing.T) optimizer.Outcome {
	t.Helper()
	c := generator.Constraints{Budget: 60000, MaxPowerKW: 200}
	c.SetDefaults()
	o := &optimizer.Optimizer{
		Catalog:     model.DefaultCatalog(),
		Constraints: c,
		Policy:      allocator.DefaultPolicy(),
		NewRunID:    func() string { return "run-1" },
	}
	out, err := o.Search(context.Background(), vans())
	require.NoError(t, err)
	return out
}

func readCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	recs, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	require.NoError(t, err)
	return recs
}

func TestSchedule(t *testing.T) {
	rows := Schedule(simulate(t, "DC20=1"))
	require.Len(t, rows, 4)
	starts := []float64{8, 9.5, 11, 12.5}
	for i, r := range rows {
		assert.Equal(t, "DC20-1", r.StationID)
		assert.Equal(t, "DC20", r.Kind)
		assert.Equal(t, "vans", r.Group)
		assert.InDelta(t, starts[i], r.Start, 1e-9)
		assert.InDelta(t, starts[i]+1, r.End, 1e-9)
		assert.InDelta(t, 20, r.EnergyKWh, 1e-9)
	}
}

func TestWriteScheduleCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteScheduleCSV(&buf, Schedule(simulate(t, "DC20=1"))))
	recs := readCSV(t, buf.Bytes())
	require.Len(t, recs, 5)
	assert.Equal(t, "station_id", recs[0][0])
	assert.Equal(t, []string{"09:30", "10:30"}, recs[2][6:8])
	assert.Equal(t, "9.5", recs[2][4])
}

func TestWriteRankingCSV(t *testing.T) {
	out := search(t)
	var buf bytes.Buffer
	require.NoError(t, WriteRankingCSV(&buf, Ranking(out.Ranked)))
	recs := readCSV(t, buf.Bytes())
	require.Len(t, recs, len(out.Ranked)+1)
	assert.Equal(t, []string{"1", "DC20=1", "1", "20"}, recs[1][:4])
	assert.Equal(t, "1", recs[1][5])
}

func TestWriteGroupsCSV(t *testing.T) {
	var buf bytes.Buffer
	groups := []fleet.GroupSummary{{Group: "vans", Vehicles: 4, FullyServed: 3, RequestedKWh: 80, ServedKWh: 70.5, Sessions: 5}}
	require.NoError(t, WriteGroupsCSV(&buf, groups))
	recs := readCSV(t, buf.Bytes())
	require.Len(t, recs, 2)
	assert.Equal(t, []string{"vans", "4", "3", "80", "70.5", "9.5", "5"}, recs[1])
}

func TestNewReport(t *testing.T) {
	out := search(t)
	rep := NewReport(out)
	assert.Equal(t, "run-1", rep.RunID)
	require.NotNil(t, rep.Best)
	assert.Equal(t, "DC20=1", rep.Best.Configuration)
	assert.Len(t, rep.Best.Schedule, 4)
	assert.Equal(t, len(out.Ranked), rep.Feasible)
	assert.GreaterOrEqual(t, rep.GapKWh, 0.0)

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, rep))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	best := decoded["best"].(map[string]any)
	assert.Equal(t, "DC20=1", best["configuration"])
	ranking := decoded["ranking"].([]any)
	first := ranking[0].(map[string]any)
	assert.Equal(t, 1.0, first["internal_fraction"])
	assert.Equal(t, 1.0, first["rank"])
}

func TestNewReportWithoutSolution(t *testing.T) {
	rep := NewReport(optimizer.Outcome{RunID: "r", Candidates: 3})
	assert.Nil(t, rep.Best)
	assert.Empty(t, rep.Ranking)
	assert.Zero(t, rep.GapKWh)
}

func TestWriteDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	paths, err := WriteDir(dir, search(t), []string{FormatCSV, FormatJSON})
	require.NoError(t, err)
	assert.Len(t, paths, 4)
	for _, name := range []string{RankingFile, ScheduleFile, GroupsFile, ReportFile} {
		_, err := os.Stat(filepath.Join(dir, name))
		assert.NoError(t, err, name)
	}
}

func TestWriteDirWithoutSolution(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteDir(dir, optimizer.Outcome{RunID: "r"}, []string{FormatCSV})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, RankingFile)}, paths)
}

func TestWriteDirUnknownFormat(t *testing.T) {
	_, err := WriteDir(t.TempDir(), optimizer.Outcome{}, []string{"xlsx"})
	assert.Error(t, err)
}

func TestClock(t *testing.T) {
	cases := map[float64]string{0: "00:00", 9.5: "09:30", 13.25: "13:15", 23.999: "24:00", 24: "24:00", 7.0 + 1.0/3: "07:20"}
	for h, want := range cases {
		assert.Equal(t, want, Clock(h), h)
	}
}

func TestLoadProfile(t *testing.T) {
	profile := LoadProfile(simulate(t, "DC20=1"), LoadStepHours)
	require.Len(t, profile, 96)
	assert.Zero(t, profile[31])              // 07:45
	assert.InDelta(t, 20, profile[32], 1e-9) // 08:00
	assert.Zero(t, profile[36])              // 09:00, gap
	assert.InDelta(t, 20, profile[38], 1e-9) // 09:30
	var energy float64
	for _, kw := range profile {
		energy += kw * LoadStepHours
	}
	assert.InDelta(t, 80, energy, 1e-6)
}

func TestWriteScheduleHTML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteScheduleHTML(&buf, simulate(t, "DC20=1")))
	html := buf.String()
	assert.Contains(t, html, "Energy per station")
	assert.Contains(t, html, "DC20-1")
	assert.Contains(t, html, "#03a9f4")
}

func TestWriteDirHTML(t *testing.T) {
	dir := t.TempDir()
	paths, err := WriteDir(dir, search(t), []string{FormatHTML})
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, ChartFile)}, paths)
}

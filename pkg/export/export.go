// Package export writes search results as CSV tables and a JSON report.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"

	"github.com/ejosa-pasquale/HoreCa/core/allocator"
	"github.com/ejosa-pasquale/HoreCa/core/capacity"
	"github.com/ejosa-pasquale/HoreCa/core/fleet"
	"github.com/ejosa-pasquale/HoreCa/core/optimizer"
)

// Formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatHTML = "html"
)

// File names written by WriteDir.
const (
	RankingFile  = "ranking.csv"
	ScheduleFile = "schedule.csv"
	GroupsFile   = "groups.csv"
	ReportFile   = "result.json"
	ChartFile    = "schedule.html"
)

// SessionRow is one line of the schedule.
type SessionRow struct {
	StationID string  `json:"station_id"`
	Kind      string  `json:"kind"`
	VehicleID string  `json:"vehicle_id"`
	Group     string  `json:"group,omitempty"`
	Start     float64 `json:"start"`
	End       float64 `json:"end"`
	EnergyKWh float64 `json:"energy_kwh"`
}

// ResultReport is the JSON view of one simulated configuration.
type ResultReport struct {
	Configuration string               `json:"configuration"`
	Score         optimizer.Score      `json:"score"`
	Summary       allocator.Summary    `json:"summary"`
	Estimate      capacity.Estimate    `json:"estimate"`
	Bottleneck    string               `json:"bottleneck"`
	Groups        []fleet.GroupSummary `json:"groups"`
	Schedule      []SessionRow         `json:"schedule"`
}

// Report is the JSON document of a search.
type Report struct {
	RunID         string        `json:"run_id"`
	Candidates    int           `json:"candidates"`
	Feasible      int           `json:"feasible"`
	Failed        int           `json:"failed"`
	UpperBoundKWh float64       `json:"upper_bound_kwh"`
	GapKWh        float64       `json:"gap_kwh"`
	Best          *ResultReport `json:"best,omitempty"`
	Ranking       []RankRow     `json:"ranking"`
}

// RankRow is one line of the ranking.
type RankRow struct {
	Rank          int    `json:"rank"`
	Configuration string `json:"configuration"`
	optimizer.Score
	DeliveredKWh float64 `json:"delivered_kwh"`
	ExternalKWh  float64 `json:"external_kwh"`
	FullyServed  int     `json:"fully_served"`
	Vehicles     int     `json:"vehicles"`
}

// NewResultReport builds the report of one result.
func NewResultReport(r optimizer.Result) ResultReport {
	return ResultReport{
		Configuration: r.Key,
		Score:         r.Score,
		Summary:       r.Summary,
		Estimate:      r.Estimate,
		Bottleneck:    r.Estimate.Bottleneck(),
		Groups:        r.Groups(),
		Schedule:      Schedule(r),
	}
}

// NewReport builds the report of a search outcome.
func NewReport(out optimizer.Outcome) Report {
	rep := Report{
		RunID:         out.RunID,
		Candidates:    out.Candidates,
		Feasible:      len(out.Ranked),
		Failed:        out.Failed,
		UpperBoundKWh: out.Bound.EnergyKWh,
		Ranking:       Ranking(out.Ranked),
	}
	if out.Best != nil {
		best := NewResultReport(*out.Best)
		rep.Best = &best
		rep.GapKWh = out.Bound.Gap(out.Best.Summary.DeliveredKWh)
	}
	return rep
}

// Ranking converts ranked results into rows numbered from 1.
func Ranking(results []optimizer.Result) []RankRow {
	rows := make([]RankRow, len(results))
	for i, r := range results {
		rows[i] = RankRow{
			Rank:          i + 1,
			Configuration: r.Key,
			Score:         r.Score,
			DeliveredKWh:  r.Summary.DeliveredKWh,
			ExternalKWh:   r.Summary.ExternalKWh,
			FullyServed:   r.Summary.FullyServed,
			Vehicles:      r.Summary.Vehicles,
		}
	}
	return rows
}

// Schedule lists the sessions of r by station then start.
func Schedule(r optimizer.Result) []SessionRow {
	groups := make(map[string]string, len(r.Vehicles))
	for _, v := range r.Vehicles {
		groups[v.ID] = v.Group
	}
	var rows []SessionRow
	for _, st := range r.Stations {
		for _, s := range st.Sessions {
			rows = append(rows, SessionRow{
				StationID: s.StationID,
				Kind:      st.Type.Kind.String(),
				VehicleID: s.VehicleID,
				Group:     groups[s.VehicleID],
				Start:     s.Start,
				End:       s.End,
				EnergyKWh: s.EnergyKWh,
			})
		}
	}
	return rows
}

// WriteJSON writes v as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteRankingCSV writes the ranking table.
func WriteRankingCSV(w io.Writer, rows []RankRow) error {
	header := []string{"rank", "configuration", "stations", "installed_power_kw", "capital_cost",
		"internal_fraction", "combined_efficiency", "delivered_kwh", "external_kwh", "fully_served", "vehicles"}
	return writeCSV(w, header, len(rows), func(i int) []string {
		r := rows[i]
		return []string{
			strconv.Itoa(r.Rank),
			r.Configuration,
			strconv.Itoa(r.Stations),
			formatFloat(r.InstalledPowerKW),
			formatFloat(r.CapitalCost),
			formatFloat(r.InternalFraction),
			formatFloat(r.CombinedEfficiency),
			formatFloat(r.DeliveredKWh),
			formatFloat(r.ExternalKWh),
			strconv.Itoa(r.FullyServed),
			strconv.Itoa(r.Vehicles),
		}
	})
}

// WriteScheduleCSV writes the sessions with start and end both in decimal
// hours and as clock times.
func WriteScheduleCSV(w io.Writer, rows []SessionRow) error {
	header := []string{"station_id", "kind", "vehicle_id", "group", "start", "end", "start_clock", "end_clock", "energy_kwh"}
	return writeCSV(w, header, len(rows), func(i int) []string {
		s := rows[i]
		return []string{
			s.StationID,
			s.Kind,
			s.VehicleID,
			s.Group,
			formatFloat(s.Start),
			formatFloat(s.End),
			Clock(s.Start),
			Clock(s.End),
			formatFloat(s.EnergyKWh),
		}
	})
}

// WriteGroupsCSV writes the per-group summaries.
func WriteGroupsCSV(w io.Writer, groups []fleet.GroupSummary) error {
	header := []string{"group", "vehicles", "fully_served", "requested_kwh", "served_kwh", "unserved_kwh", "sessions"}
	return writeCSV(w, header, len(groups), func(i int) []string {
		g := groups[i]
		return []string{
			g.Group,
			strconv.Itoa(g.Vehicles),
			strconv.Itoa(g.FullyServed),
			formatFloat(g.RequestedKWh),
			formatFloat(g.ServedKWh),
			formatFloat(g.UnservedKWh()),
			strconv.Itoa(g.Sessions),
		}
	})
}

// WriteDir writes the outcome into dir using the requested formats and
// returns the paths written. The schedule and group tables are only written
// when the outcome has a best result.
func WriteDir(dir string, out optimizer.Outcome, formats []string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	var written []string
	write := func(name string, fn func(io.Writer) error) error {
		path := filepath.Join(dir, name)
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := fn(f); err != nil {
			_ = f.Close()
			return fmt.Errorf("write %s: %w", name, err)
		}
		if err := f.Close(); err != nil {
			return err
		}
		written = append(written, path)
		return nil
	}

	rep := NewReport(out)
	for _, format := range formats {
		switch format {
		case FormatJSON:
			if err := write(ReportFile, func(w io.Writer) error { return WriteJSON(w, rep) }); err != nil {
				return written, err
			}
		case FormatCSV:
			if err := write(RankingFile, func(w io.Writer) error { return WriteRankingCSV(w, rep.Ranking) }); err != nil {
				return written, err
			}
			if rep.Best == nil {
				continue
			}
			if err := write(ScheduleFile, func(w io.Writer) error { return WriteScheduleCSV(w, rep.Best.Schedule) }); err != nil {
				return written, err
			}
			if err := write(GroupsFile, func(w io.Writer) error { return WriteGroupsCSV(w, rep.Best.Groups) }); err != nil {
				return written, err
			}
		case FormatHTML:
			if out.Best == nil {
				continue
			}
			if err := write(ChartFile, func(w io.Writer) error { return WriteScheduleHTML(w, *out.Best) }); err != nil {
				return written, err
			}
		default:
			return written, fmt.Errorf("unknown export format %q", format)
		}
	}
	return written, nil
}

// Clock formats hours of day as HH:MM, rounding to the minute.
func Clock(hours float64) string {
	m := int(math.Round(hours * 60))
	return fmt.Sprintf("%02d:%02d", m/60, m%60)
}

func writeCSV(w io.Writer, header []string, n int, row func(int) []string) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := cw.Write(row(i)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// formatFloat prints v rounded to six decimals.
func formatFloat(v float64) string {
	return strconv.FormatFloat(math.Round(v*1e6)/1e6, 'f', -1, 64)
}

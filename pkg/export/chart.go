package export

import (
	"fmt"
	"io"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/ejosa-pasquale/HoreCa/core/model"
	"github.com/ejosa-pasquale/HoreCa/core/optimizer"
)

// LoadStepHours is the resolution of the site load profile.
const LoadStepHours = 0.25

// LoadProfile returns the site power drawn at every step of the day. A
// session draws its average power over [Start, End).
func LoadProfile(r optimizer.Result, step float64) []float64 {
	n := int(math.Ceil(model.DayHours / step))
	load := make([]float64, n)
	for _, st := range r.Stations {
		for _, s := range st.Sessions {
			d := s.Duration()
			if d <= 0 {
				continue
			}
			kw := s.EnergyKWh / d
			for i := int(s.Start / step); i < n && float64(i)*step < s.End; i++ {
				// share of the step covered by the session
				lo := math.Max(float64(i)*step, s.Start)
				hi := math.Min(float64(i+1)*step, s.End)
				if hi > lo {
					load[i] += kw * (hi - lo) / step
				}
			}
		}
	}
	return load
}

// WriteScheduleHTML renders the delivered energy per station, coloured by
// station type, and the site load profile as an HTML page.
func WriteScheduleHTML(w io.Writer, r optimizer.Result) error {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Energy per station", Subtitle: r.Key}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kWh"}),
	)
	ids := make([]string, len(r.Stations))
	energy := make([]opts.BarData, len(r.Stations))
	for i, st := range r.Stations {
		ids[i] = st.ID
		d := opts.BarData{Name: st.ID, Value: round2(st.DeliveredKWh())}
		if st.Type.Color != "" {
			d.ItemStyle = &opts.ItemStyle{Color: st.Type.Color}
		}
		energy[i] = d
	}
	bar.SetXAxis(ids).AddSeries("delivered", energy)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{Title: "Site load"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "kW"}),
	)
	profile := LoadProfile(r, LoadStepHours)
	times := make([]string, len(profile))
	points := make([]opts.LineData, len(profile))
	for i, kw := range profile {
		times[i] = Clock(float64(i) * LoadStepHours)
		points[i] = opts.LineData{Value: round2(kw)}
	}
	line.SetXAxis(times).AddSeries("load", points)

	page := components.NewPage()
	page.PageTitle = fmt.Sprintf("Charging schedule %s", r.Key)
	page.AddCharts(bar, line)
	return page.Render(w)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

package metrics

import (
	"github.com/ejosa-pasquale/HoreCa/core/factory"
	coremetrics "github.com/ejosa-pasquale/HoreCa/core/metrics"
)

// init registers built-in metrics sinks.
func init() {
	_ = coremetrics.RegisterMetricsSink("nop", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NopSink{}, nil
	})

	_ = coremetrics.RegisterMetricsSink("memory", func(map[string]any) (coremetrics.MetricsSink, error) {
		return coremetrics.NewMemorySink(), nil
	})

	_ = coremetrics.RegisterMetricsSink("prometheus", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			PushURL  string            `json:"push_url"`
			Job      string            `json:"job"`
			Grouping map[string]string `json:"grouping"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.PushURL == "" {
			return NewPromSink()
		}
		if c.Job == "" {
			c.Job = "chargeplan"
		}
		return NewPushPromSink(c.PushURL, c.Job, c.Grouping)
	})

	_ = coremetrics.RegisterMetricsSink("influx", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c struct {
			URL    string `json:"url"`
			Token  string `json:"token"`
			Org    string `json:"org"`
			Bucket string `json:"bucket"`
		}
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewInfluxSinkWithFallback(c.URL, c.Token, c.Org, c.Bucket), nil
	})
}

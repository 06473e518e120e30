package kpi

import (
	"errors"

	"github.com/ejosa-pasquale/HoreCa/core/factory"
	coremetrics "github.com/ejosa-pasquale/HoreCa/core/metrics"
)

// Config locates the history database.
type Config struct {
	Path string `json:"path"`
}

func init() {
	_ = coremetrics.RegisterMetricsSink("sqlite", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		if c.Path == "" {
			return nil, errors.New("sqlite sink requires a path")
		}
		return NewSQLiteStore(c.Path)
	})
}

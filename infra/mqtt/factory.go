package mqtt

import (
	"github.com/ejosa-pasquale/HoreCa/core/factory"
	coremetrics "github.com/ejosa-pasquale/HoreCa/core/metrics"
)

func init() {
	_ = coremetrics.RegisterMetricsSink("mqtt", func(conf map[string]any) (coremetrics.MetricsSink, error) {
		var c Config
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewResultPublisher(c)
	})
}

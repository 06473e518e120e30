package metrics

import (
	"context"
	"math"
	"net/http"
	"strings"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/influxdata/influxdb-client-go/v2/api/write"

	coremetrics "github.com/ejosa-pasquale/HoreCa/core/metrics"
	"github.com/ejosa-pasquale/HoreCa/infra/logger"
)

// InfluxSink writes simulation and search events to an InfluxDB instance
// using the official client.
type InfluxSink struct {
	client   influxdb2.Client
	writeAPI api.WriteAPIBlocking
	log      logger.Logger
}

// NewInfluxSink creates a new sink configured for the given InfluxDB endpoint.
func NewInfluxSink(url, token, org, bucket string) *InfluxSink {
	base := strings.TrimSuffix(url, "/api/v2/write")
	client := influxdb2.NewClientWithOptions(base, token,
		influxdb2.DefaultOptions().SetHTTPClient(&http.Client{Timeout: 5 * time.Second}))
	return &InfluxSink{
		client:   client,
		writeAPI: client.WriteAPIBlocking(org, bucket),
		log:      logger.New("influx-sink"),
	}
}

// NewInfluxSinkWithFallback tries to ping the InfluxDB instance and
// returns a NopSink if the health check fails.
func NewInfluxSinkWithFallback(url, token, org, bucket string) coremetrics.MetricsSink {
	sink := NewInfluxSink(url, token, org, bucket)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	health, err := sink.client.Health(ctx)
	if err != nil || health.Status != "pass" {
		if err != nil {
			sink.log.Errorf("influx health check error: %v", err)
		} else {
			sink.log.Errorf("influx health status: %s", health.Status)
		}
		sink.client.Close()
		return coremetrics.NopSink{}
	}
	return sink
}

// RecordSimulation writes one point per simulated candidate.
func (s *InfluxSink) RecordSimulation(ev coremetrics.SimulationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("simulation").
		AddTag("run_id", ev.RunID).
		AddTag("configuration", ev.Configuration).
		AddTag("outcome", ev.Outcome).
		AddField("stations", ev.Stations).
		AddField("installed_power_kw", round3(ev.InstalledPowerKW)).
		AddField("capital_cost", round3(ev.CapitalCost)).
		AddField("delivered_kwh", round3(ev.DeliveredKWh)).
		AddField("external_kwh", round3(ev.ExternalKWh)).
		AddField("internal_fraction", round3(ev.InternalFraction)).
		AddField("combined_efficiency", round3(ev.CombinedEfficiency)).
		AddField("fully_served", ev.FullyServed).
		AddField("sessions", ev.Sessions).
		AddField("duration_ms", round3(ev.Duration.Seconds()*1000)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// RecordOptimization writes the summary of a search.
func (s *InfluxSink) RecordOptimization(ev coremetrics.OptimizationEvent) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	p := write.NewPointWithMeasurement("optimization").
		AddTag("run_id", ev.RunID)
	if ev.Best != "" {
		p = p.AddTag("best", ev.Best)
	}
	p = p.AddField("vehicles", ev.Vehicles).
		AddField("requested_kwh", round3(ev.RequestedKWh)).
		AddField("candidates", ev.Candidates).
		AddField("feasible", ev.Feasible).
		AddField("failed", ev.Failed).
		AddField("solved", ev.Solved).
		AddField("best_fraction", round3(ev.BestFraction)).
		AddField("upper_bound_kwh", round3(ev.UpperBoundKWh)).
		SetTime(ev.Time)
	return s.writeAPI.WritePoint(ctx, p)
}

// Flush releases the client resources.
func (s *InfluxSink) Flush() error {
	s.client.Close()
	return nil
}

func round3(f float64) float64 {
	return math.Round(f*1000) / 1000
}

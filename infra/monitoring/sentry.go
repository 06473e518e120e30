// Package monitoring reports errors to Sentry.
package monitoring

import (
	"time"

	"github.com/getsentry/sentry-go"

	coremon "github.com/ejosa-pasquale/HoreCa/core/monitoring"
)

// Config defines settings for Sentry error monitoring.
type Config struct {
	DSN              string  `json:"dsn"`
	Environment      string  `json:"environment"`
	TracesSampleRate float64 `json:"traces_sample_rate"`
	Release          string  `json:"release"`
}

// NewSentryReporter initializes Sentry using the provided configuration and
// returns a Reporter. An empty DSN disables reporting.
func NewSentryReporter(cfg Config) (coremon.Reporter, error) {
	return newSentryReporter(cfg, nil)
}

func newSentryReporter(cfg Config, beforeSend func(*sentry.Event, *sentry.EventHint) *sentry.Event) (coremon.Reporter, error) {
	if cfg.DSN == "" {
		return coremon.NopReporter{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.DSN,
		Environment:      cfg.Environment,
		TracesSampleRate: cfg.TracesSampleRate,
		Release:          cfg.Release,
		BeforeSend:       beforeSend,
	})
	if err != nil {
		return nil, err
	}
	return &sentryReporter{}, nil
}

type sentryReporter struct{}

func (s *sentryReporter) CaptureException(err error, tags map[string]string) {
	if err == nil {
		return
	}
	if len(tags) == 0 {
		sentry.CaptureException(err)
		return
	}
	sentry.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		sentry.CaptureException(err)
	})
}

func (s *sentryReporter) Flush(timeout time.Duration) { sentry.Flush(timeout) }

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ejosa-pasquale/HoreCa/app"
	"github.com/ejosa-pasquale/HoreCa/config"
	coremon "github.com/ejosa-pasquale/HoreCa/core/monitoring"
	"github.com/ejosa-pasquale/HoreCa/infra/logger"
	"github.com/ejosa-pasquale/HoreCa/infra/monitoring"
)

var (
	cfgPath string
	outDir  string
)

var rootCmd = &cobra.Command{
	Use:          "chargeplan",
	Short:        "Size and schedule an EV charging site for a fleet",
	SilenceUsage: true,
	RunE:         runOptimize,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "config.yaml", "configuration file")
	rootCmd.PersistentFlags().StringVarP(&outDir, "out", "o", "", "output directory (overrides output.directory)")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// setup loads the configuration, applies the logging settings and builds the
// planning service. The returned context is cancelled on SIGINT or SIGTERM.
func setup() (context.Context, func(), *config.Config, *app.Service, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := logger.Configure(cfg.Logging); err != nil {
		return nil, nil, nil, nil, err
	}
	reporter, err := monitoring.NewSentryReporter(cfg.Sentry)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("sentry: %w", err)
	}
	coremon.SetReporter(reporter)
	if outDir != "" {
		cfg.Output.Directory = outDir
	}
	svc, err := app.New(cfg)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	cleanup := func() {
		stop()
		log := logger.New("main")
		if err := svc.Close(); err != nil {
			log.Errorf("service close: %v", err)
		}
		coremon.Flush(2 * time.Second)
		if err := logger.Close(); err != nil {
			log.Errorf("log file close: %v", err)
		}
	}
	return ctx, cleanup, cfg, svc, nil
}

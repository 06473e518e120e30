package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ejosa-pasquale/HoreCa/pkg/export"
)

var stations string

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Allocate the fleet on a given station configuration",
	RunE:  runSimulate,
}

func init() {
	simulateCmd.Flags().StringVar(&stations, "stations", "", `station configuration, e.g. "AC22=2,DC60=1"`)
	_ = simulateCmd.MarkFlagRequired("stations")
	rootCmd.AddCommand(simulateCmd)
}

func runSimulate(cmd *cobra.Command, args []string) error {
	ctx, cleanup, cfg, svc, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := svc.Simulate(ctx, stations)
	if err != nil {
		return fmt.Errorf("simulate %s: %w", stations, err)
	}
	paths, err := export.WriteDir(cfg.Output.Directory, out, cfg.Output.Formats)
	if err != nil {
		return err
	}
	printOutcome(cmd, out)
	for _, g := range out.Best.Groups() {
		fmt.Fprintf(cmd.OutOrStdout(), "  group %-12s %d/%d served, %.1f of %.1f kWh\n",
			g.Group, g.FullyServed, g.Vehicles, g.ServedKWh, g.RequestedKWh)
	}
	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
	}
	return nil
}

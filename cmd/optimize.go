package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ejosa-pasquale/HoreCa/core/optimizer"
	"github.com/ejosa-pasquale/HoreCa/pkg/export"
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize",
	Short: "Search the best station configuration for the fleet",
	RunE:  runOptimize,
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	ctx, cleanup, cfg, svc, err := setup()
	if err != nil {
		return err
	}
	defer cleanup()

	out, err := svc.Optimize(ctx)
	if errors.Is(err, optimizer.ErrNoSolution) {
		if _, werr := export.WriteDir(cfg.Output.Directory, out, cfg.Output.Formats); werr != nil {
			return werr
		}
		fmt.Fprintf(cmd.OutOrStdout(), "no solution: none of %d candidates fits the constraints\n", out.Candidates)
		return err
	}
	if err != nil {
		return err
	}

	paths, err := export.WriteDir(cfg.Output.Directory, out, cfg.Output.Formats)
	if err != nil {
		return err
	}
	printOutcome(cmd, out)
	for _, p := range paths {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", p)
	}
	return nil
}

func printOutcome(cmd *cobra.Command, out optimizer.Outcome) {
	w := cmd.OutOrStdout()
	best := out.Best
	s := best.Summary
	fmt.Fprintf(w, "run %s: best configuration %s (%d stations, %.0f kW, %.0f EUR)\n",
		out.RunID, best.Key, best.Score.Stations, best.Score.InstalledPowerKW, best.Score.CapitalCost)
	fmt.Fprintf(w, "  served internally %.1f%% (%.1f of %.1f kWh), external %.1f kWh\n",
		s.InternalFraction()*100, s.DeliveredKWh, s.RequestedKWh, s.ExternalKWh)
	fmt.Fprintf(w, "  vehicles fully served %d/%d, sessions %d, combined efficiency %.3f\n",
		s.FullyServed, s.Vehicles, s.Sessions, s.CombinedEfficiency)
	fmt.Fprintf(w, "  analytic bottleneck %s, upper bound %.1f kWh\n", best.Estimate.Bottleneck(), out.Bound.EnergyKWh)
	if out.Candidates > 1 {
		fmt.Fprintf(w, "  %d feasible of %d candidates\n", len(out.Ranked), out.Candidates)
	}
}

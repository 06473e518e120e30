package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ejosa-pasquale/HoreCa/config"
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "List the effective station catalog",
	RunE:  runCatalog,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
}

func runCatalog(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cat, err := cfg.BuildCatalog()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "KIND\tPOWER_KW\tUNIT_COST\tINSTALLATION\tCAPITAL\tMAINTENANCE\tMAX_SESSIONS")
	for _, t := range cat.Types() {
		sessions := "unlimited"
		if t.MaxDailySessions > 0 {
			sessions = fmt.Sprint(t.MaxDailySessions)
		}
		fmt.Fprintf(tw, "%s\t%g\t%.0f\t%.0f\t%.0f\t%.0f\t%s\n",
			t.Kind, t.PowerKW, t.UnitCost, t.InstallationCost, t.CapitalCost(), t.AnnualMaintenance, sessions)
	}
	return tw.Flush()
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ejosa-pasquale/HoreCa/api/runs"
	"github.com/ejosa-pasquale/HoreCa/infra/kpi"
	"github.com/ejosa-pasquale/HoreCa/infra/logger"
)

var (
	historyDB  string
	serveAddr  string
	serveToken string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recorded run history over HTTP",
	RunE:  runServe,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List the recorded runs",
	RunE:  runHistory,
}

func init() {
	for _, c := range []*cobra.Command{serveCmd, historyCmd} {
		c.Flags().StringVar(&historyDB, "db", "chargeplan.db", "run history database (sqlite sink path)")
		rootCmd.AddCommand(c)
	}
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":8080", "listen address")
	serveCmd.Flags().StringVar(&serveToken, "token", os.Getenv("CP_API_TOKEN"), "bearer token required by the API")
}

func runServe(cmd *cobra.Command, args []string) error {
	store, err := kpi.NewSQLiteStore(historyDB)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = store.Close() }()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return runs.Serve(ctx, serveAddr, store, serveToken, logger.New("api"))
}

func runHistory(cmd *cobra.Command, args []string) error {
	store, err := kpi.NewSQLiteStore(historyDB)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer func() { _ = store.Close() }()
	evs, err := store.Runs()
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RUN\tTIME\tVEHICLES\tCANDIDATES\tFEASIBLE\tBEST\tINTERNAL\tCOST")
	for _, ev := range evs {
		best := ev.Best
		if !ev.Solved {
			best = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t%.1f%%\t%.0f\n",
			ev.RunID, ev.Time.Format(time.RFC3339), ev.Vehicles, ev.Candidates, ev.Feasible, best, ev.BestFraction*100, ev.BestCost)
	}
	return tw.Flush()
}

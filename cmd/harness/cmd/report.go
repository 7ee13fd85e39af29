package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tradelab/harness/analytics"
	"github.com/tradelab/harness/journal"
	"github.com/tradelab/harness/ledger"
)

var reportCmd = &cobra.Command{
	Use:   "report [run-id]",
	Short: "Report on a journaled run",
	Long: `Recompute performance statistics for a run stored in the SQLite
journal. With no run ID the most recent run is reported.

Examples:
  harness report
  harness report 01JABCDEF0123456789ABCDEFG
  harness report --list`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReport,
}

var (
	reportDBPath  string
	reportList    bool
	reportFills   bool
	reportPeriods float64
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportDBPath, "db", "d", "./harness.sqlite", "path to SQLite journal DB")
	reportCmd.Flags().BoolVarP(&reportList, "list", "l", false, "list journaled run IDs and exit")
	reportCmd.Flags().BoolVar(&reportFills, "fills", false, "print the run's fill log")
	reportCmd.Flags().Float64Var(&reportPeriods, "periods", 252, "annualization factor for the Sharpe ratio")
}

func runReport(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(reportDBPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer j.Close()

	if reportList {
		runs, err := j.ListRuns()
		if err != nil {
			return fmt.Errorf("list runs: %w", err)
		}
		if len(runs) == 0 {
			fmt.Println("no runs journaled")
			return nil
		}
		for _, id := range runs {
			fmt.Println(id)
		}
		return nil
	}

	runID := ""
	if len(args) == 1 {
		runID = args[0]
	} else {
		runID, err = j.LatestRun()
		if err != nil {
			return fmt.Errorf("latest run: %w", err)
		}
	}

	equity, err := j.ListEquity(runID)
	if err != nil {
		return fmt.Errorf("query equity: %w", err)
	}
	if len(equity) == 0 {
		return fmt.Errorf("run %s: no equity records", runID)
	}
	fillRecs, err := j.ListFills(runID)
	if err != nil {
		return fmt.Errorf("query fills: %w", err)
	}

	curve := make([]ledger.EquityPoint, 0, len(equity))
	for _, e := range equity {
		curve = append(curve, ledger.EquityPoint{Date: e.Date, Equity: e.Equity})
	}
	fills := make([]ledger.Fill, 0, len(fillRecs))
	for _, f := range fillRecs {
		fills = append(fills, fillFromRecord(f))
	}

	rep := analytics.Analyze(curve, fills, analytics.Options{
		PeriodsPerYear: reportPeriods,
	})

	fmt.Printf("Run %s\n", runID)
	fmt.Printf("  Days: %d\n", rep.Days)
	fmt.Printf("  Fills: %d\n", rep.Trades)
	fmt.Printf("  Final Equity: $%.2f\n", curve[len(curve)-1].Equity)
	fmt.Printf("  Total PnL: $%.2f\n", rep.TotalPnL)
	fmt.Printf("  Max Drawdown: %.2f%%\n", 100*rep.MaxDrawdown)
	fmt.Printf("  Sharpe: %.3f\n", rep.Sharpe)
	fmt.Printf("  PD Ratio: %.3f\n", rep.PDRatio)
	fmt.Printf("  Activity: %.1f%%\n", rep.ActivityPct)

	if reportFills {
		fmt.Println()
		for _, f := range fillRecs {
			fmt.Printf("  day %3d  %s  %-4s %-10s %10.2f @ %.5f  (%s)\n",
				f.Day, f.Date.Format("2006-01-02"), f.Side, f.Instrument, f.Quantity, f.Price, f.Reason)
		}
	}
	return nil
}

func fillFromRecord(f journal.FillRecord) ledger.Fill {
	side := ledger.Buy
	if f.Side == ledger.Sell.String() {
		side = ledger.Sell
	}
	return ledger.Fill{
		ID:         f.FillID,
		Instrument: f.Instrument,
		Side:       side,
		Quantity:   f.Quantity,
		Price:      f.Price,
		Commission: f.Commission,
		Day:        f.Day,
		Date:       f.Date,
		CashDelta:  f.CashDelta,
		Reason:     f.Reason,
	}
}

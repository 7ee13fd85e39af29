package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"

	"github.com/spf13/cobra"

	"github.com/tradelab/harness/backtest"
	"github.com/tradelab/harness/config"
	"github.com/tradelab/harness/engine"
	"github.com/tradelab/harness/internal/logger"
	"github.com/tradelab/harness/journal"
	"github.com/tradelab/harness/market"
	"github.com/tradelab/harness/strategies"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a backtest",
	Long: `Run a strategy against a directory of daily OHLCV CSV files.

One CSV per instrument; all instruments must cover the same dates.
Fills and the equity curve are journaled, and a performance report is
printed when the run finishes.

Supported strategies:
  - noop: submits nothing (baseline test)
  - buy-and-hold: one market buy, held to the end
  - sma-cross: fast/slow SMA crossover, long-only
  - simple-limit: quotes a buy and sell limit around each day's open

Example:
  harness run --data ./data --strategy sma-cross --fast 10 --slow 30`,
	RunE: runRun,
}

var (
	runConfigPath string
	runDataDir    string
	runArchive    string
	runDBPath     string
	runCash       float64
	runStrategy   string
	runInstrument string
	runSize       float64
	runFast       int
	runSlow       int
	runSummary    string
	runLogLevel   string
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "c", "", "path to YAML/JSON config file")
	runCmd.Flags().StringVar(&runDataDir, "data", "", "directory of per-instrument daily CSVs")
	runCmd.Flags().StringVar(&runArchive, "archive", "", "zip archive of per-instrument CSVs (extracted into --data)")
	runCmd.Flags().StringVarP(&runDBPath, "db", "d", "", "path to SQLite journal DB")
	runCmd.Flags().Float64VarP(&runCash, "cash", "b", 0, "starting cash")
	runCmd.Flags().StringVarP(&runStrategy, "strategy", "s", "", "strategy name (noop, buy-and-hold, sma-cross, simple-limit)")
	runCmd.Flags().StringVarP(&runInstrument, "instrument", "i", "", "strategy instrument (default: first in dataset)")
	runCmd.Flags().Float64VarP(&runSize, "size", "u", 0, "order size in units")
	runCmd.Flags().IntVar(&runFast, "fast", 0, "sma-cross: fast SMA period")
	runCmd.Flags().IntVar(&runSlow, "slow", 0, "sma-cross: slow SMA period")
	runCmd.Flags().StringVarP(&runSummary, "summary", "o", "", "write a JSON run summary to this path")
	runCmd.Flags().StringVar(&runLogLevel, "log-level", "", "log level (debug, info, warn, error)")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := loadRunConfig()
	if err != nil {
		return err
	}

	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("logger: %w", err)
	}
	defer log.Sync()

	dataDir := cfg.Data.Dir
	if cfg.Data.Archive != "" {
		if dataDir == "" {
			dataDir, err = os.MkdirTemp("", "harness-data-")
			if err != nil {
				return fmt.Errorf("temp dir: %w", err)
			}
			defer os.RemoveAll(dataDir)
		}
		if _, err := market.ExtractArchive(cfg.Data.Archive, dataDir); err != nil {
			return err
		}
	}

	data, err := market.LoadDir(dataDir)
	if err != nil {
		return fmt.Errorf("load data: %w", err)
	}

	jour, err := openJournal(cfg.Journal)
	if err != nil {
		return err
	}
	defer jour.Close()

	eng := engine.New(data, engine.Config{
		StartingCash:    cfg.Account.StartingCash,
		Commission:      cfg.Rules.Commission,
		GapThreshold:    cfg.Rules.GapThreshold,
		SlippageMult:    cfg.Rules.SlippageMult,
		BankruptcyFloor: cfg.Rules.BankruptcyFloor,
		LiquidateAtEnd:  cfg.Rules.EndPolicy == "liquidate",
	}, jour, log)

	strat, err := strategies.ByName(cfg.Strategy.Name, strategies.Params{
		Instrument:     cfg.Strategy.Instrument,
		Size:           cfg.Strategy.Size,
		Fast:           cfg.Strategy.Fast,
		Slow:           cfg.Strategy.Slow,
		SpreadPct:      cfg.Strategy.SpreadPct,
		InventoryLimit: cfg.Strategy.InventoryLimit,
	})
	if err != nil {
		return fmt.Errorf("strategy: %w", err)
	}

	fmt.Printf("Running backtest with strategy: %s\n", cfg.Strategy.Name)
	fmt.Printf("  Data: %s (%d instruments, %d days)\n", dataDir, len(data.Instruments()), data.Len())
	fmt.Printf("  Run ID: %s\n\n", eng.RunID())

	runner := &backtest.Runner{
		Engine:         eng,
		Data:           data,
		Strategy:       strat,
		PeriodsPerYear: cfg.Analytics.AnnualizationFactor,
		StartingCash:   cfg.Account.StartingCash,
	}

	result, err := runner.Run(context.Background())
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}

	printResult(result)

	if runSummary != "" {
		if err := writeSummary(runSummary, result); err != nil {
			return err
		}
		fmt.Printf("\nSummary written to %s\n", runSummary)
	}
	return nil
}

// loadRunConfig merges the config file (or defaults) with whatever flags
// were given on the command line. Flags win.
func loadRunConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error

	if runConfigPath != "" {
		cfg, err = config.LoadFromFile(runConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg = config.Default()
	}

	if runDataDir != "" {
		cfg.Data.Dir = runDataDir
	}
	if runArchive != "" {
		cfg.Data.Archive = runArchive
	}
	if runDBPath != "" {
		cfg.Journal.Type = "sqlite"
		cfg.Journal.DBPath = runDBPath
	}
	if runCash > 0 {
		cfg.Account.StartingCash = runCash
	}
	if runStrategy != "" {
		cfg.Strategy.Name = runStrategy
	}
	if runInstrument != "" {
		cfg.Strategy.Instrument = runInstrument
	}
	if runSize > 0 {
		cfg.Strategy.Size = runSize
	}
	if runFast > 0 {
		cfg.Strategy.Fast = runFast
	}
	if runSlow > 0 {
		cfg.Strategy.Slow = runSlow
	}
	if runLogLevel != "" {
		cfg.LogLevel = runLogLevel
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func openJournal(jc config.JournalConfig) (journal.Journal, error) {
	switch jc.Type {
	case "sqlite":
		j, err := journal.NewSQLite(jc.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open db: %w", err)
		}
		return j, nil
	case "csv":
		j, err := journal.NewCSV(jc.FillsFile, jc.EquityFile)
		if err != nil {
			return nil, fmt.Errorf("open csv journal: %w", err)
		}
		return j, nil
	default:
		return journal.Nop{}, nil
	}
}

func printResult(r backtest.Result) {
	fmt.Printf("Backtest Complete!\n")
	fmt.Printf("  Status: %s\n", r.Status)
	fmt.Printf("  Days: %d (voided by overspend: %d)\n", r.Days, r.Overspends)
	fmt.Printf("  Fills: %d\n", r.Report.Trades)
	fmt.Printf("  Final Cash: $%.2f\n", r.FinalCash)
	fmt.Printf("  Final Equity: $%.2f\n", r.FinalEquity)
	fmt.Printf("  Total PnL: $%.2f\n", r.Report.TotalPnL)
	fmt.Printf("  Max Drawdown: %.2f%%\n", 100*r.Report.MaxDrawdown)
	fmt.Printf("  Sharpe: %.3f\n", r.Report.Sharpe)
	fmt.Printf("  PD Ratio: %.3f\n", r.Report.PDRatio)
	fmt.Printf("  Activity: %.1f%%\n", r.Report.ActivityPct)
}

// runSummaryJSON is the machine-readable sibling of printResult. Sharpe
// and PDRatio are pointers: nil (-> JSON null) when the ratio is
// undefined (NaN), so a legitimate value of 0 still round-trips.
type runSummaryJSON struct {
	RunID       string   `json:"run_id"`
	Status      string   `json:"status"`
	Days        int      `json:"days"`
	Overspends  int      `json:"overspends"`
	Fills       int      `json:"fills"`
	FinalCash   float64  `json:"final_cash"`
	FinalEquity float64  `json:"final_equity"`
	TotalPnL    float64  `json:"total_pnl"`
	MaxDrawdown float64  `json:"max_drawdown"`
	Sharpe      *float64 `json:"sharpe"`
	PDRatio     *float64 `json:"pd_ratio"`
	ActivityPct float64  `json:"activity_pct"`
}

func writeSummary(path string, r backtest.Result) error {
	s := runSummaryJSON{
		RunID:       r.RunID,
		Status:      r.Status.String(),
		Days:        r.Days,
		Overspends:  r.Overspends,
		Fills:       r.Report.Trades,
		FinalCash:   r.FinalCash,
		FinalEquity: r.FinalEquity,
		TotalPnL:    r.Report.TotalPnL,
		MaxDrawdown: r.Report.MaxDrawdown,
		ActivityPct: r.Report.ActivityPct,
	}
	s.Sharpe = finiteOrNil(r.Report.Sharpe)
	s.PDRatio = finiteOrNil(r.Report.PDRatio)

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}

// finiteOrNil maps NaN (undefined ratio) to nil; JSON cannot carry NaN.
func finiteOrNil(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}

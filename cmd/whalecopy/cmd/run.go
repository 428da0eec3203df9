package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/whalecopy/config"
	"github.com/rustyeddy/whalecopy/consensus"
	"github.com/rustyeddy/whalecopy/engine"
	"github.com/rustyeddy/whalecopy/journal"
	"github.com/rustyeddy/whalecopy/ledger"
	"github.com/rustyeddy/whalecopy/scorer"
	"github.com/rustyeddy/whalecopy/stream"
	"github.com/rustyeddy/whalecopy/tracker"
	"github.com/rustyeddy/whalecopy/whale"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the whale tracker from a config file",
	Long: `Run the whale copy-trading pipeline using settings from a configuration file.

The config file selects the event source (live websocket or CSV replay), the
whale and consensus thresholds, the copy sizing policy, and the journal.

Example:
  whalecopy run -f configs/tracker.yaml`,
	RunE: runRun,
}

var (
	runConfigPath string
	runVerbose    bool
)

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runConfigPath, "config", "f", "", "path to config file (YAML or JSON) (required)")
	runCmd.Flags().BoolVarP(&runVerbose, "verbose", "v", false, "enable debug logging")
	runCmd.MarkFlagRequired("config")
}

func runRun(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadFromFile(runConfigPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := buildLogger(runVerbose)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	j, err := buildJournal(cfg)
	if err != nil {
		return fmt.Errorf("create journal: %w", err)
	}
	defer j.Close()

	feed, err := buildFeed(cfg, log)
	if err != nil {
		return fmt.Errorf("create feed: %w", err)
	}
	defer feed.Close()

	tr, err := buildTracker(cfg, feed, j, log)
	if err != nil {
		return err
	}

	mode := "observation"
	if cfg.Copy.Enabled {
		mode = "auto-copy"
	}
	log.Info("whale tracker starting",
		zap.String("mode", mode),
		zap.Float64("balance", cfg.Account.Balance),
		zap.Float64("whale_threshold_usd", cfg.Whale.MinTradeUSD),
		zap.Int("estimators", len(cfg.Consensus.Estimators)),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := tr.Run(ctx); err != nil {
		return err
	}

	printSummary(tr)
	return nil
}

func buildLogger(verbose bool) (*zap.Logger, error) {
	if verbose {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func buildJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		if err := os.MkdirAll(cfg.Journal.Dir, 0o755); err != nil {
			return nil, err
		}
		return journal.NewCSV(
			filepath.Join(cfg.Journal.Dir, "trades.csv"),
			filepath.Join(cfg.Journal.Dir, "signals.csv"),
			filepath.Join(cfg.Journal.Dir, "balance.csv"),
		)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return journal.Nop{}, nil
	}
}

func buildFeed(cfg *config.Config, log *zap.Logger) (stream.Feed, error) {
	if cfg.Stream.Type == "csv" {
		return stream.NewCSV(cfg.Stream.Path)
	}
	return stream.NewWS(cfg.Stream.URL, log), nil
}

func buildTracker(cfg *config.Config, feed stream.Feed, j journal.Journal, log *zap.Logger) (*tracker.Tracker, error) {
	l := ledger.New(cfg.Account.Balance, j, log)
	s := scorer.New(cfg.Whale.MinResolvedTrades, log)

	backends := make([]consensus.Estimator, 0, len(cfg.Consensus.Estimators))
	for _, ec := range cfg.Consensus.Estimators {
		key := ec.APIKey
		if ec.APIKeyEnv != "" {
			key = os.Getenv(ec.APIKeyEnv)
		}
		backends = append(backends, consensus.NewLLM(ec.Label, ec.URL, ec.Model, key))
	}

	backendTimeout, _ := cfg.Consensus.ParseBackendTimeout()
	overallTimeout, _ := cfg.Consensus.ParseOverallTimeout()
	v := consensus.New(backends, consensus.Options{
		Quorum:             cfg.Consensus.Quorum,
		Tolerance:          cfg.Consensus.Tolerance,
		AgreementThreshold: cfg.Consensus.AgreementThreshold,
		EdgeMargin:         cfg.Consensus.EdgeMargin,
		BackendTimeout:     backendTimeout,
		OverallTimeout:     overallTimeout,
	}, log)

	e, err := engine.New(engine.Config{
		MinWinRate:      cfg.Whale.MinWinRate,
		MaxCopyNotional: cfg.Copy.MaxCopyNotional,
		CopyPercent:     cfg.Copy.CopyPercent,
		AutoCopy:        cfg.Copy.Enabled,
	}, whale.NewClassifier(cfg.Whale.MinTradeUSD), s, v, l, j, log)
	if err != nil {
		return nil, err
	}

	statusInterval, _ := cfg.Pipeline.ParseStatusInterval()
	return tracker.New(tracker.Config{
		QueueSize:      cfg.Pipeline.QueueSize,
		Workers:        cfg.Pipeline.Workers,
		StatusInterval: statusInterval,
	}, feed, e, l, s, log), nil
}

func printSummary(tr *tracker.Tracker) {
	perf := tr.Performance()

	fmt.Println("\nFinal account state:")
	fmt.Printf("  Balance:       $%.2f\n", tr.GetBalance())
	fmt.Printf("  Realized P/L:  $%.2f\n", perf.TotalPL)
	fmt.Printf("  Total Return:  %.2f%%\n", perf.TotalReturn)
	fmt.Printf("  Closed Trades: %d (%.0f%% winners)\n", perf.ClosedTrades, perf.WinRate*100)

	positions := tr.GetPositions()
	if len(positions) > 0 {
		fmt.Println("\nOpen positions:")
		for _, p := range positions {
			fmt.Printf("  %-40s qty %.2f @ %.3f (mark %.3f, unrealized $%.2f)\n",
				p.Market, p.Quantity, p.AvgEntry, p.Mark, p.UnrealizedPL())
		}
	}
}

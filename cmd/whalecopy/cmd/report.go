package cmd

import (
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/whalecopy/journal"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize a SQLite journal",
	Long: `Read a SQLite journal produced by a previous run and print decision
counts, recent trades, and the latest balance snapshot.

Example:
  whalecopy report --db ./whalecopy.sqlite --since 24h`,
	RunE: runReport,
}

var (
	reportDBPath string
	reportSince  time.Duration
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportDBPath, "db", "", "path to SQLite journal (required)")
	reportCmd.Flags().DurationVar(&reportSince, "since", 24*time.Hour, "report window")
	reportCmd.MarkFlagRequired("db")
}

func runReport(cmd *cobra.Command, args []string) error {
	j, err := journal.NewSQLite(reportDBPath)
	if err != nil {
		return fmt.Errorf("open journal: %w", err)
	}
	defer j.Close()

	end := time.Now().UTC()
	start := end.Add(-reportSince)

	counts, err := j.DecisionCounts()
	if err != nil {
		return fmt.Errorf("decision counts: %w", err)
	}
	fmt.Println("Decisions:")
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Printf("  %-14s %d\n", k, counts[k])
	}

	trades, err := j.ListTradesBetween(start, end)
	if err != nil {
		return fmt.Errorf("list trades: %w", err)
	}
	fmt.Printf("\nTrades since %s: %d\n", start.Format(time.RFC3339), len(trades))
	for _, t := range trades {
		fmt.Printf("  %s  %-4s %-40s %.2f @ %.3f  %s\n",
			t.Time.Format("2006-01-02 15:04:05"), t.Side, t.Market, t.Size, t.Price, t.Status)
	}

	signals, err := j.ListSignalsBetween(start, end)
	if err != nil {
		return fmt.Errorf("list signals: %w", err)
	}
	fmt.Printf("\nSignals since %s: %d\n", start.Format(time.RFC3339), len(signals))

	b, ok, err := j.LatestBalance()
	if err != nil {
		return fmt.Errorf("latest balance: %w", err)
	}
	if ok {
		fmt.Printf("\nLatest balance: $%.2f (equity $%.2f, realized $%.2f) at %s\n",
			b.Balance, b.Equity, b.RealizedPL, b.Time.Format(time.RFC3339))
	} else {
		fmt.Println("\nNo balance snapshots recorded.")
	}
	return nil
}

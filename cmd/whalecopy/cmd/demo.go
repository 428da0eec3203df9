package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/whalecopy/consensus"
	"github.com/rustyeddy/whalecopy/engine"
	"github.com/rustyeddy/whalecopy/ledger"
	"github.com/rustyeddy/whalecopy/market"
	"github.com/rustyeddy/whalecopy/scorer"
	"github.com/rustyeddy/whalecopy/stream"
	"github.com/rustyeddy/whalecopy/tracker"
	"github.com/rustyeddy/whalecopy/whale"
)

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a scripted copy-trading scenario offline",
	Long: `Run a small scripted scenario through the full pipeline with fixed
consensus estimators, no network, and no persistence.

Shows the basic workflow of:
  1. A whale buy arriving from the feed
  2. The wallet clearing the win-rate gate
  3. Consensus confirming the copy
  4. The simulated fill and the resulting position
  5. A later event moving the mark price`,
	RunE: runDemo,
}

func init() {
	rootCmd.AddCommand(demoCmd)
}

func runDemo(cmd *cobra.Command, args []string) error {
	log := zap.NewNop()

	l := ledger.New(10000, nil, log)
	s := scorer.New(5, log)
	v := consensus.New([]consensus.Estimator{
		consensus.Static{Label: "model-a", Value: 0.78},
		consensus.Static{Label: "model-b", Value: 0.80},
		consensus.Static{Label: "model-c", Value: 0.76},
	}, consensus.Options{}, log)

	e, err := engine.New(engine.Config{
		MinWinRate:      0.60,
		MaxCopyNotional: 100,
		CopyPercent:     0.10,
		AutoCopy:        true,
	}, whale.NewClassifier(10000), s, v, l, nil, log)
	if err != nil {
		return err
	}

	// A whale with a known track record: 7 wins, 3 losses.
	for i := 0; i < 7; i++ {
		s.RecordOutcome("0xdemo-whale", true)
	}
	for i := 0; i < 3; i++ {
		s.RecordOutcome("0xdemo-whale", false)
	}

	feed := stream.NewChanFeed(8)
	now := time.Now().UTC()
	feed.C <- market.RawEvent{
		Slug: "btc-150k-2026", Title: "Will Bitcoin hit $150k in 2026?",
		Outcome: "YES", Wallet: "0xdemo-whale", Side: market.Buy,
		Price: 0.60, Size: 25000, Time: now,
	}
	feed.C <- market.RawEvent{
		Slug: "btc-150k-2026", Title: "Will Bitcoin hit $150k in 2026?",
		Outcome: "YES", Wallet: "0xretail", Side: market.Buy,
		Price: 0.66, Size: 50, Time: now.Add(time.Second),
	}
	close(feed.C)

	tr := tracker.New(tracker.Config{}, feed, e, l, s, log)

	fmt.Println("Replaying scripted whale scenario...")
	fmt.Println("  Whale 0xdemo-whale buys $15,000 of btc-150k-2026/YES at 0.60")
	fmt.Println("  Wallet win rate: 70% over 10 resolved trades")
	fmt.Println("  Consensus: 3 models estimate 0.76-0.80 against 0.60 odds")
	fmt.Println()

	if err := tr.Run(context.Background()); err != nil {
		return err
	}

	for _, t := range tr.GetTradeHistory() {
		fmt.Printf("Copied: %s %s %.2f shares @ %.2f ($%.2f)\n",
			t.Side, t.Market, t.Size, t.Price, t.Notional)
	}
	printSummary(tr)
	return nil
}

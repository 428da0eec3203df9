package journal

import (
	"encoding/csv"
	"os"
	"strconv"
	"time"
)

type CSVJournal struct {
	trades  *csv.Writer
	signals *csv.Writer
	balance *csv.Writer
	tf      *os.File
	sf      *os.File
	bf      *os.File
}

func NewCSV(tradesPath, signalsPath, balancePath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	sf, err := os.Create(signalsPath)
	if err != nil {
		return nil, err
	}
	bf, err := os.Create(balancePath)
	if err != nil {
		return nil, err
	}

	tw := csv.NewWriter(tf)
	sw := csv.NewWriter(sf)
	bw := csv.NewWriter(bf)

	headers := []struct {
		w   *csv.Writer
		row []string
	}{
		{tw, []string{"trade_id", "time", "market", "title", "side", "price", "size", "notional", "kind", "status", "realized_pl", "note"}},
		{sw, []string{"signal_id", "time", "market", "title", "wallet", "whale_side", "whale_price", "whale_size", "whale_notional", "wallet_win_rate", "mean_estimate", "agreement", "decision", "reason", "copied_size", "trade_id"}},
		{bw, []string{"time", "balance", "realized_pl", "unrealized_pl", "equity"}},
	}
	for _, h := range headers {
		if err := h.w.Write(h.row); err != nil {
			return nil, err
		}
		h.w.Flush()
		if err := h.w.Error(); err != nil {
			return nil, err
		}
	}

	return &CSVJournal{trades: tw, signals: sw, balance: bw, tf: tf, sf: sf, bf: bf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.Time.Format(time.RFC3339),
		t.Market,
		t.Title,
		t.Side,
		f(t.Price),
		f(t.Size),
		f(t.Notional),
		t.Kind,
		t.Status,
		f(t.RealizedPL),
		t.Note,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordSignal(s SignalRecord) error {
	winRate := ""
	if s.WalletWinRate != nil {
		winRate = f(*s.WalletWinRate)
	}

	err := j.signals.Write([]string{
		s.SignalID,
		s.Time.Format(time.RFC3339),
		s.Market,
		s.Title,
		s.Wallet,
		s.WhaleSide,
		f(s.WhalePrice),
		f(s.WhaleSize),
		f(s.WhaleNotional),
		winRate,
		f(s.MeanEstimate),
		f(s.Agreement),
		s.Decision,
		s.Reason,
		f(s.CopiedSize),
		s.TradeID,
	})
	if err != nil {
		return err
	}
	j.signals.Flush()
	return j.signals.Error()
}

func (j *CSVJournal) RecordBalance(b BalanceSnapshot) error {
	err := j.balance.Write([]string{
		b.Time.Format(time.RFC3339),
		f(b.Balance),
		f(b.RealizedPL),
		f(b.UnrealizedPL),
		f(b.Equity),
	})
	if err != nil {
		return err
	}
	j.balance.Flush()
	return j.balance.Error()
}

func (j *CSVJournal) Close() error {
	for _, w := range []*csv.Writer{j.trades, j.signals, j.balance} {
		w.Flush()
		if err := w.Error(); err != nil {
			return err
		}
	}
	for _, file := range []*os.File{j.tf, j.sf, j.bf} {
		if err := file.Close(); err != nil {
			return err
		}
	}
	return nil
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

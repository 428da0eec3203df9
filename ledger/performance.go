package ledger

import "github.com/rustyeddy/whalecopy/market"

// Summary aggregates realized performance over closed trades plus the
// current account state.
type Summary struct {
	ClosedTrades  int
	WinningTrades int
	LosingTrades  int
	WinRate       float64 // 0 when no trades have closed
	TotalPL       float64
	AvgWin        float64
	AvgLoss       float64
	Balance       float64
	OpenPositions int
	TotalReturn   float64 // percent vs starting balance
}

// Performance computes win/loss statistics over trades with realized P&L.
// Only closing fills are counted; flipped opening records carry the same
// economics and would double the totals.
func (l *Ledger) Performance() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := Summary{
		Balance:       l.balance,
		OpenPositions: len(l.positions),
	}

	var winSum, lossSum float64
	for _, t := range l.trades {
		// Closing fills are sells; opening buys flipped to CLOSED carry the
		// same P&L and would double-count.
		if t.Side != market.Sell || t.RealizedPL == nil {
			continue
		}
		s.ClosedTrades++
		pl := *t.RealizedPL
		s.TotalPL += pl
		switch {
		case pl > 0:
			s.WinningTrades++
			winSum += pl
		case pl < 0:
			s.LosingTrades++
			lossSum += pl
		}
	}

	if s.ClosedTrades > 0 {
		s.WinRate = float64(s.WinningTrades) / float64(s.ClosedTrades)
	}
	if s.WinningTrades > 0 {
		s.AvgWin = winSum / float64(s.WinningTrades)
	}
	if s.LosingTrades > 0 {
		s.AvgLoss = lossSum / float64(s.LosingTrades)
	}
	if l.starting > 0 {
		s.TotalReturn = (l.balance - l.starting) / l.starting * 100
	}
	return s
}

package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// GetTrade returns a single trade record by ID.
func (j *SQLiteJournal) GetTrade(tradeID string) (TradeRecord, error) {
	var rec TradeRecord

	row := j.db.QueryRow(`
		SELECT trade_id, time, market, title, side, price, size, notional, kind, status, realized_pl, note
		FROM trades
		WHERE trade_id = ?`, tradeID)

	err := row.Scan(
		&rec.TradeID,
		&rec.Time,
		&rec.Market,
		&rec.Title,
		&rec.Side,
		&rec.Price,
		&rec.Size,
		&rec.Notional,
		&rec.Kind,
		&rec.Status,
		&rec.RealizedPL,
		&rec.Note,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesBetween returns trades whose time is within [start, end).
func (j *SQLiteJournal) ListTradesBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, time, market, title, side, price, size, notional, kind, status, realized_pl, note
		FROM trades
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var rec TradeRecord
		if err := rows.Scan(
			&rec.TradeID,
			&rec.Time,
			&rec.Market,
			&rec.Title,
			&rec.Side,
			&rec.Price,
			&rec.Size,
			&rec.Notional,
			&rec.Kind,
			&rec.Status,
			&rec.RealizedPL,
			&rec.Note,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListSignalsBetween returns decision records whose time is within [start, end).
func (j *SQLiteJournal) ListSignalsBetween(start, end time.Time) ([]SignalRecord, error) {
	rows, err := j.db.Query(`
		SELECT signal_id, time, market, title, wallet, whale_side, whale_price, whale_size, whale_notional,
		       wallet_win_rate, mean_estimate, agreement, decision, reason, copied_size, trade_id
		FROM signals
		WHERE time >= ? AND time < ?
		ORDER BY time ASC`, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SignalRecord
	for rows.Next() {
		var rec SignalRecord
		var winRate sql.NullFloat64
		if err := rows.Scan(
			&rec.SignalID,
			&rec.Time,
			&rec.Market,
			&rec.Title,
			&rec.Wallet,
			&rec.WhaleSide,
			&rec.WhalePrice,
			&rec.WhaleSize,
			&rec.WhaleNotional,
			&winRate,
			&rec.MeanEstimate,
			&rec.Agreement,
			&rec.Decision,
			&rec.Reason,
			&rec.CopiedSize,
			&rec.TradeID,
		); err != nil {
			return nil, err
		}
		if winRate.Valid {
			v := winRate.Float64
			rec.WalletWinRate = &v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// DecisionCounts returns how many signals ended in each terminal decision.
func (j *SQLiteJournal) DecisionCounts() (map[string]int, error) {
	rows, err := j.db.Query(`SELECT decision, COUNT(*) FROM signals GROUP BY decision`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]int)
	for rows.Next() {
		var decision string
		var n int
		if err := rows.Scan(&decision, &n); err != nil {
			return nil, err
		}
		out[decision] = n
	}
	return out, rows.Err()
}

// LatestBalance returns the most recent balance snapshot, if any.
func (j *SQLiteJournal) LatestBalance() (BalanceSnapshot, bool, error) {
	var b BalanceSnapshot
	row := j.db.QueryRow(`
		SELECT time, balance, realized_pl, unrealized_pl, equity
		FROM balance
		ORDER BY time DESC
		LIMIT 1`)

	err := row.Scan(&b.Time, &b.Balance, &b.RealizedPL, &b.UnrealizedPL, &b.Equity)
	if err == sql.ErrNoRows {
		return BalanceSnapshot{}, false, nil
	}
	if err != nil {
		return BalanceSnapshot{}, false, err
	}
	return b, true, nil
}

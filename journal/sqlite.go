package journal

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

type SQLiteJournal struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, time, market, title, side, price, size, notional, kind, status, realized_pl, note)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Time, t.Market, t.Title, t.Side, t.Price,
		t.Size, t.Notional, t.Kind, t.Status, t.RealizedPL, t.Note,
	)
	return err
}

func (j *SQLiteJournal) RecordSignal(s SignalRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO signals
		(signal_id, time, market, title, wallet, whale_side, whale_price, whale_size, whale_notional,
		 wallet_win_rate, mean_estimate, agreement, decision, reason, copied_size, trade_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SignalID, s.Time, s.Market, s.Title, s.Wallet, s.WhaleSide,
		s.WhalePrice, s.WhaleSize, s.WhaleNotional, s.WalletWinRate,
		s.MeanEstimate, s.Agreement, s.Decision, s.Reason, s.CopiedSize, s.TradeID,
	)
	return err
}

func (j *SQLiteJournal) RecordBalance(b BalanceSnapshot) error {
	_, err := j.db.Exec(`
		INSERT INTO balance
		(time, balance, realized_pl, unrealized_pl, equity)
		VALUES (?, ?, ?, ?, ?)`,
		b.Time, b.Balance, b.RealizedPL, b.UnrealizedPL, b.Equity,
	)
	return err
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

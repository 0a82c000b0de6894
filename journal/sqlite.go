package journal

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteJournal persists closed trades to a SQLite database.
type SQLiteJournal struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the database and applies the schema.
func NewSQLite(path string) (*SQLiteJournal, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteJournal{db: db}, nil
}

func (j *SQLiteJournal) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, pair, direction, entry_price, exit_price, size, risk_unit, open_time, close_time, exit_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Pair, int(t.Direction), t.EntryPrice, t.ExitPrice,
		t.Size, t.RiskUnit, t.OpenTime.UTC(), t.CloseTime.UTC(), t.Reason,
	)
	return err
}

// ListTrades returns all closed trades ordered by close time ascending,
// ties broken by trade id.
func (j *SQLiteJournal) ListTrades() ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT trade_id, pair, direction, entry_price, exit_price, size, risk_unit, open_time, close_time, exit_reason
		FROM trades
		ORDER BY close_time ASC, trade_id ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		var t TradeRecord
		var dir int
		var open, close time.Time
		if err := rows.Scan(&t.TradeID, &t.Pair, &dir, &t.EntryPrice, &t.ExitPrice,
			&t.Size, &t.RiskUnit, &open, &close, &t.Reason); err != nil {
			return nil, err
		}
		t.Direction = Direction(dir)
		t.OpenTime = open.UTC()
		t.CloseTime = close.UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

func (j *SQLiteJournal) Close() error {
	return j.db.Close()
}

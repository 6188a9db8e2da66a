package database

import (
	"context"
	"database/sql"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// DetectionRecord 是一条落库的检测结果摘要。
type DetectionRecord struct {
	ID        int64     `json:"id"`
	Symbol    string    `json:"symbol"`
	TradeDate string    `json:"trade_date"`
	ScanID    string    `json:"scan_id"`
	Detected  bool      `json:"detected"`
	Score     float64   `json:"score"`
	ZoneCount int       `json:"zone_count"`
	CreatedAt time.Time `json:"created_at"`
}

// DetectionJournal 只追加的检测流水，落在本地 sqlite。
type DetectionJournal struct {
	mu sync.Mutex
	db *sql.DB
}

func OpenDetectionJournal(path string) (*DetectionJournal, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	j := &DetectionJournal{db: db}
	if err := j.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return j, nil
}

func (j *DetectionJournal) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS detections (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			symbol TEXT NOT NULL,
			trade_date TEXT NOT NULL,
			scan_id TEXT NOT NULL,
			detected INTEGER NOT NULL,
			score REAL NOT NULL,
			zone_count INTEGER NOT NULL,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_detections_symbol_date ON detections(symbol, trade_date)`,
	}
	for _, q := range queries {
		if _, err := j.db.ExecContext(context.Background(), q); err != nil {
			return err
		}
	}
	return nil
}

// Append 写入一条流水。
func (j *DetectionJournal) Append(ctx context.Context, rec DetectionRecord) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO detections (symbol, trade_date, scan_id, detected, score, zone_count, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.Symbol, rec.TradeDate, rec.ScanID, boolToInt(rec.Detected), rec.Score, rec.ZoneCount,
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	return err
}

// Recent 返回某 symbol 最近的 limit 条流水，按时间倒序。
func (j *DetectionJournal) Recent(ctx context.Context, symbol string, limit int) ([]DetectionRecord, error) {
	if limit <= 0 {
		limit = 30
	}
	j.mu.Lock()
	defer j.mu.Unlock()
	rows, err := j.db.QueryContext(ctx,
		`SELECT id, symbol, trade_date, scan_id, detected, score, zone_count, created_at
		 FROM detections WHERE symbol = ? ORDER BY id DESC LIMIT ?`, symbol, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make([]DetectionRecord, 0, limit)
	for rows.Next() {
		var rec DetectionRecord
		var detected int
		var created string
		if err := rows.Scan(&rec.ID, &rec.Symbol, &rec.TradeDate, &rec.ScanID, &detected, &rec.Score, &rec.ZoneCount, &created); err != nil {
			return nil, err
		}
		rec.Detected = detected != 0
		rec.CreatedAt, _ = time.Parse(time.RFC3339, created)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (j *DetectionJournal) Close() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

package database

import (
	"context"
	"fmt"
	"time"
)

// QueryLogEntry is one served query.
type QueryLogEntry struct {
	ID         int64     `json:"id"`
	AskedAt    time.Time `json:"asked_at"`
	Client     string    `json:"client"`
	QName      string    `json:"qname"`
	QType      string    `json:"qtype"`
	Rcode      string    `json:"rcode"`
	Source     string    `json:"source"`
	DurationMs int64     `json:"duration_ms"`
}

// InsertQueryLog records one served query.
func (db *DB) InsertQueryLog(ctx context.Context, e QueryLogEntry) error {
	_, err := db.conn.ExecContext(ctx, `
		INSERT INTO query_log (asked_at, client, qname, qtype, rcode, source, duration_ms)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, e.AskedAt.UTC(), e.Client, e.QName, e.QType, e.Rcode, e.Source, e.DurationMs)
	if err != nil {
		return fmt.Errorf("failed to insert query log entry: %w", err)
	}
	return nil
}

// RecentQueries returns the newest entries, most recent first.
func (db *DB) RecentQueries(ctx context.Context, limit int) ([]QueryLogEntry, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, asked_at, client, qname, qtype, rcode, source, duration_ms
		FROM query_log
		ORDER BY id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query log entries: %w", err)
	}
	defer rows.Close()

	var entries []QueryLogEntry
	for rows.Next() {
		var e QueryLogEntry
		if err := rows.Scan(&e.ID, &e.AskedAt, &e.Client, &e.QName, &e.QType, &e.Rcode, &e.Source, &e.DurationMs); err != nil {
			return nil, fmt.Errorf("failed to scan query log entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// CountQueries returns the number of logged queries.
func (db *DB) CountQueries(ctx context.Context) (int64, error) {
	var n int64
	if err := db.conn.QueryRowContext(ctx, "SELECT COUNT(*) FROM query_log").Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count query log entries: %w", err)
	}
	return n, nil
}

// PruneQueryLog deletes the oldest rows beyond the retention budget.
func (db *DB) PruneQueryLog(ctx context.Context, maxRows int) error {
	if maxRows <= 0 {
		return nil
	}
	_, err := db.conn.ExecContext(ctx, `
		DELETE FROM query_log
		WHERE id NOT IN (SELECT id FROM query_log ORDER BY id DESC LIMIT ?)
	`, maxRows)
	if err != nil {
		return fmt.Errorf("failed to prune query log: %w", err)
	}
	return nil
}

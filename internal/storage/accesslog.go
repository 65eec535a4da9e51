package storage

import (
	"context"
	"fmt"
	"time"
)

// AppendAccessLog records one guest operation. Rows are append-only: the
// core never updates or deletes them.
func (s *SQLiteStore) AppendAccessLog(ctx context.Context, entry *AccessLog) error {
	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO access_logs (token_id, ip_address, timestamp, action, details) VALUES (?, ?, ?, ?, ?)",
		entry.TokenID, entry.IPAddress, ts, entry.Action, entry.Details)
	if err != nil {
		return fmt.Errorf("failed to append access log: %w", err)
	}
	return nil
}

// ListAccessLogs returns a page of log entries, newest first.
// Returns empty slice if no entries exist.
func (s *SQLiteStore) ListAccessLogs(ctx context.Context, offset, limit int) ([]*AccessLog, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, token_id, ip_address, timestamp, action, details
		 FROM access_logs ORDER BY timestamp DESC, id DESC LIMIT ? OFFSET ?`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query access logs: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var entries []*AccessLog
	for rows.Next() {
		var e AccessLog
		if err := rows.Scan(&e.ID, &e.TokenID, &e.IPAddress, &e.Timestamp, &e.Action, &e.Details); err != nil {
			return nil, fmt.Errorf("failed to scan access log row: %w", err)
		}
		entries = append(entries, &e)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating access logs: %w", err)
	}

	if entries == nil {
		entries = make([]*AccessLog, 0)
	}

	return entries, nil
}

// CountAccessLogs returns the total number of log entries.
func (s *SQLiteStore) CountAccessLogs(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM access_logs").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count access logs: %w", err)
	}
	return count, nil
}

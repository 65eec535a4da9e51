// Package storage handles all database operations for secure-drop.
package storage

import (
	"database/sql"
	"fmt"
)

// InitSchema creates all required tables and indexes.
// This is idempotent - safe to call multiple times.
func InitSchema(db *sql.DB) error {
	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	ddlStatements := []string{
		// admins table: administrator accounts for the management API
		`CREATE TABLE IF NOT EXISTS admins (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE,
			hashed_password TEXT NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,

		`CREATE INDEX IF NOT EXISTS idx_admins_username ON admins(username)`,

		// tokens table: one row per issued access token with its full policy
		`CREATE TABLE IF NOT EXISTS tokens (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token_string TEXT NOT NULL UNIQUE,
			description TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'unused',
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			expires_at TIMESTAMP,
			max_usage_count INTEGER NOT NULL DEFAULT 1,
			current_usage_count INTEGER NOT NULL DEFAULT 0,
			delete_on_exhaust BOOLEAN NOT NULL DEFAULT FALSE,
			page_title TEXT NOT NULL DEFAULT '',
			welcome_message TEXT NOT NULL DEFAULT '',
			allow_upload BOOLEAN NOT NULL DEFAULT FALSE,
			upload_path TEXT NOT NULL DEFAULT '',
			allowed_file_types TEXT NOT NULL DEFAULT '',
			max_file_size_mb INTEGER,
			max_total_upload_gb INTEGER,
			upload_bandwidth_limit_kbps INTEGER NOT NULL DEFAULT 0,
			filename_conflict_strategy TEXT NOT NULL DEFAULT 'rename',
			allow_download BOOLEAN NOT NULL DEFAULT FALSE,
			downloadable_path TEXT NOT NULL DEFAULT '',
			download_bandwidth_limit_kbps INTEGER NOT NULL DEFAULT 0,
			allow_resumable_download BOOLEAN NOT NULL DEFAULT TRUE
		)`,

		// Index on token_string for the validation hot path
		`CREATE INDEX IF NOT EXISTS idx_tokens_string ON tokens(token_string)`,

		// access_logs table: append-only audit trail. token_id is a weak
		// reference on purpose - log rows outlive token deletion.
		`CREATE TABLE IF NOT EXISTS access_logs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			token_id INTEGER NOT NULL,
			ip_address TEXT NOT NULL DEFAULT '',
			timestamp TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			action TEXT NOT NULL,
			details TEXT NOT NULL DEFAULT ''
		)`,

		`CREATE INDEX IF NOT EXISTS idx_access_logs_token ON access_logs(token_id)`,
	}

	for _, stmt := range ddlStatements {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}

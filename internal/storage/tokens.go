package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// tokenColumns is the column list shared by every token SELECT, kept in one
// place so scanToken stays in sync with it.
const tokenColumns = `id, token_string, description, status, created_at, expires_at,
	max_usage_count, current_usage_count, delete_on_exhaust,
	page_title, welcome_message,
	allow_upload, upload_path, allowed_file_types, max_file_size_mb,
	max_total_upload_gb, upload_bandwidth_limit_kbps, filename_conflict_strategy,
	allow_download, downloadable_path, download_bandwidth_limit_kbps,
	allow_resumable_download`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*Token, error) {
	var t Token
	var expiresAt sql.NullTime
	var maxFileSize, maxTotalUpload sql.NullInt64

	err := row.Scan(
		&t.ID, &t.TokenString, &t.Description, &t.Status, &t.CreatedAt, &expiresAt,
		&t.MaxUsageCount, &t.CurrentUsageCount, &t.DeleteOnExhaust,
		&t.PageTitle, &t.WelcomeMessage,
		&t.AllowUpload, &t.UploadPath, &t.AllowedFileTypes, &maxFileSize,
		&maxTotalUpload, &t.UploadBandwidthLimitKbps, &t.FilenameConflictStrategy,
		&t.AllowDownload, &t.DownloadablePath, &t.DownloadBandwidthLimitKbps,
		&t.AllowResumableDownload,
	)
	if err != nil {
		return nil, err
	}

	if expiresAt.Valid {
		v := expiresAt.Time
		t.ExpiresAt = &v
	}
	if maxFileSize.Valid {
		v := maxFileSize.Int64
		t.MaxFileSizeMB = &v
	}
	if maxTotalUpload.Valid {
		v := maxTotalUpload.Int64
		t.MaxTotalUploadGB = &v
	}

	return &t, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint error.
// The extended error code for UNIQUE constraint is 2067; the base constraint
// error code is 19.
func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == 2067 || (sqliteErr.Code()&0xFF) == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}

// CreateToken persists a new token. The caller supplies the generated
// TokenString; Status and CurrentUsageCount are forced to their initial
// values regardless of what the input carries.
// Returns ErrDuplicate if a token with this token string already exists.
func (s *SQLiteStore) CreateToken(ctx context.Context, t *Token) (*Token, error) {
	var expiresAt any
	if t.ExpiresAt != nil {
		expiresAt = *t.ExpiresAt
	}
	var maxFileSize any
	if t.MaxFileSizeMB != nil {
		maxFileSize = *t.MaxFileSizeMB
	}
	var maxTotalUpload any
	if t.MaxTotalUploadGB != nil {
		maxTotalUpload = *t.MaxTotalUploadGB
	}

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO tokens (
			token_string, description, status, expires_at,
			max_usage_count, current_usage_count, delete_on_exhaust,
			page_title, welcome_message,
			allow_upload, upload_path, allowed_file_types, max_file_size_mb,
			max_total_upload_gb, upload_bandwidth_limit_kbps, filename_conflict_strategy,
			allow_download, downloadable_path, download_bandwidth_limit_kbps,
			allow_resumable_download
		) VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TokenString, t.Description, StatusUnused, expiresAt,
		t.MaxUsageCount, t.DeleteOnExhaust,
		t.PageTitle, t.WelcomeMessage,
		t.AllowUpload, t.UploadPath, t.AllowedFileTypes, maxFileSize,
		maxTotalUpload, t.UploadBandwidthLimitKbps, t.FilenameConflictStrategy,
		t.AllowDownload, t.DownloadablePath, t.DownloadBandwidthLimitKbps,
		t.AllowResumableDownload)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create token: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert ID: %w", err)
	}

	return s.GetTokenByID(ctx, id)
}

// GetTokenByID retrieves a token by ID.
// Returns ErrNotFound if the token doesn't exist.
func (s *SQLiteStore) GetTokenByID(ctx context.Context, id int64) (*Token, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM tokens WHERE id = ?", id)

	t, err := scanToken(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get token by ID: %w", err)
	}
	return t, nil
}

// GetTokenByString retrieves a token by its bearer string.
// This is the validation hot path; token_string is indexed.
// Returns ErrNotFound if no token matches.
func (s *SQLiteStore) GetTokenByString(ctx context.Context, tokenString string) (*Token, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+tokenColumns+" FROM tokens WHERE token_string = ?", tokenString)

	t, err := scanToken(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get token by string: %w", err)
	}
	return t, nil
}

// UpdateToken applies a partial update: only non-nil fields in upd are
// written. TokenString, Status and CurrentUsageCount cannot be changed here.
// Returns ErrNotFound if the token doesn't exist.
func (s *SQLiteStore) UpdateToken(ctx context.Context, id int64, upd *TokenUpdate) (*Token, error) {
	var sets []string
	var args []any

	set := func(col string, v any) {
		sets = append(sets, col+" = ?")
		args = append(args, v)
	}

	if upd.Description != nil {
		set("description", *upd.Description)
	}
	if upd.ClearExpiresAt {
		sets = append(sets, "expires_at = NULL")
	} else if upd.ExpiresAt != nil {
		set("expires_at", *upd.ExpiresAt)
	}
	if upd.MaxUsageCount != nil {
		set("max_usage_count", *upd.MaxUsageCount)
	}
	if upd.DeleteOnExhaust != nil {
		set("delete_on_exhaust", *upd.DeleteOnExhaust)
	}
	if upd.PageTitle != nil {
		set("page_title", *upd.PageTitle)
	}
	if upd.WelcomeMessage != nil {
		set("welcome_message", *upd.WelcomeMessage)
	}
	if upd.AllowUpload != nil {
		set("allow_upload", *upd.AllowUpload)
	}
	if upd.UploadPath != nil {
		set("upload_path", *upd.UploadPath)
	}
	if upd.AllowedFileTypes != nil {
		set("allowed_file_types", *upd.AllowedFileTypes)
	}
	if upd.MaxFileSizeMB != nil {
		set("max_file_size_mb", *upd.MaxFileSizeMB)
	}
	if upd.MaxTotalUploadGB != nil {
		set("max_total_upload_gb", *upd.MaxTotalUploadGB)
	}
	if upd.UploadBandwidthLimitKbps != nil {
		set("upload_bandwidth_limit_kbps", *upd.UploadBandwidthLimitKbps)
	}
	if upd.FilenameConflictStrategy != nil {
		set("filename_conflict_strategy", *upd.FilenameConflictStrategy)
	}
	if upd.AllowDownload != nil {
		set("allow_download", *upd.AllowDownload)
	}
	if upd.DownloadablePath != nil {
		set("downloadable_path", *upd.DownloadablePath)
	}
	if upd.DownloadBandwidthLimitKbps != nil {
		set("download_bandwidth_limit_kbps", *upd.DownloadBandwidthLimitKbps)
	}
	if upd.AllowResumableDownload != nil {
		set("allow_resumable_download", *upd.AllowResumableDownload)
	}

	if len(sets) == 0 {
		// Nothing to change; still report ErrNotFound for a missing token.
		return s.GetTokenByID(ctx, id)
	}

	query := "UPDATE tokens SET "
	for i, clause := range sets {
		if i > 0 {
			query += ", "
		}
		query += clause
	}
	query += " WHERE id = ?"
	args = append(args, id)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to update token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return nil, ErrNotFound
	}

	return s.GetTokenByID(ctx, id)
}

// SetTokenStatus overwrites the token's status. Used by the lifecycle
// manager for revoke and by the validator for lazy expiry/exhaustion.
// Returns ErrNotFound if the token doesn't exist.
func (s *SQLiteStore) SetTokenStatus(ctx context.Context, id int64, status string) error {
	result, err := s.db.ExecContext(ctx,
		"UPDATE tokens SET status = ? WHERE id = ?", status, id)
	if err != nil {
		return fmt.Errorf("failed to set token status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// DeleteToken deletes a token by ID.
// Returns ErrNotFound if the token doesn't exist.
func (s *SQLiteStore) DeleteToken(ctx context.Context, id int64) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM tokens WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete token: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}

	return nil
}

// ConsumeUsage increments current_usage_count by one with an atomic
// conditional UPDATE. The quota check happens inside the same statement, so
// concurrent consumers can never push the count past max_usage_count.
// Returns ErrQuotaExceeded when the quota is already spent and ErrNotFound
// when the token doesn't exist.
func (s *SQLiteStore) ConsumeUsage(ctx context.Context, id int64) (*Token, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE tokens SET current_usage_count = current_usage_count + 1
		 WHERE id = ? AND (max_usage_count = 0 OR current_usage_count < max_usage_count)`,
		id)
	if err != nil {
		return nil, fmt.Errorf("failed to consume usage: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		// Either the token is gone or the quota is spent; look it up to
		// tell the two apart.
		if _, err := s.GetTokenByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, ErrQuotaExceeded
	}

	return s.GetTokenByID(ctx, id)
}

// ListTokens returns a page of tokens ordered by creation time, newest first.
// Returns empty slice if no tokens exist.
func (s *SQLiteStore) ListTokens(ctx context.Context, offset, limit int) ([]*Token, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+tokenColumns+" FROM tokens ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query tokens: %w", err)
	}
	defer rows.Close() //nolint:errcheck

	var tokens []*Token
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan token row: %w", err)
		}
		tokens = append(tokens, t)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tokens: %w", err)
	}

	// Return empty slice instead of nil
	if tokens == nil {
		tokens = make([]*Token, 0)
	}

	return tokens, nil
}

// CountTokens returns the total number of tokens.
func (s *SQLiteStore) CountTokens(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM tokens").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count tokens: %w", err)
	}
	return count, nil
}

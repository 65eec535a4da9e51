package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CreateAdmin creates an administrator account with a pre-hashed password.
// Returns ErrDuplicate if the username is taken.
func (s *SQLiteStore) CreateAdmin(ctx context.Context, username, hashedPassword string) (*Admin, error) {
	result, err := s.db.ExecContext(ctx,
		"INSERT INTO admins (username, hashed_password) VALUES (?, ?)",
		username, hashedPassword)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicate
		}
		return nil, fmt.Errorf("failed to create admin: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("failed to get insert ID: %w", err)
	}

	return &Admin{
		ID:             id,
		Username:       username,
		HashedPassword: hashedPassword,
	}, nil
}

// GetAdminByUsername retrieves an admin account for login verification.
// Returns ErrNotFound if the username doesn't exist.
func (s *SQLiteStore) GetAdminByUsername(ctx context.Context, username string) (*Admin, error) {
	var a Admin
	err := s.db.QueryRowContext(ctx,
		"SELECT id, username, hashed_password, created_at FROM admins WHERE username = ?",
		username).
		Scan(&a.ID, &a.Username, &a.HashedPassword, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get admin by username: %w", err)
	}
	return &a, nil
}

// Package storage provides types and interfaces for SQLite persistence operations.
package storage

import (
	"context"
)

// Store defines the interface for SQLite persistence operations.
type Store interface {
	// Token operations
	CreateToken(ctx context.Context, t *Token) (*Token, error)
	GetTokenByID(ctx context.Context, id int64) (*Token, error)
	GetTokenByString(ctx context.Context, tokenString string) (*Token, error)
	UpdateToken(ctx context.Context, id int64, upd *TokenUpdate) (*Token, error)
	SetTokenStatus(ctx context.Context, id int64, status string) error
	DeleteToken(ctx context.Context, id int64) error
	ConsumeUsage(ctx context.Context, id int64) (*Token, error)
	ListTokens(ctx context.Context, offset, limit int) ([]*Token, error)
	CountTokens(ctx context.Context) (int64, error)

	// Admin account operations
	CreateAdmin(ctx context.Context, username, hashedPassword string) (*Admin, error)
	GetAdminByUsername(ctx context.Context, username string) (*Admin, error)

	// Access log operations
	AppendAccessLog(ctx context.Context, entry *AccessLog) error
	ListAccessLogs(ctx context.Context, offset, limit int) ([]*AccessLog, error)
	CountAccessLogs(ctx context.Context) (int64, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Close() error
}

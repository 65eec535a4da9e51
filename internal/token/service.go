package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ID-VerNe/secure-drop/internal/storage"
)

// createAttempts bounds the retry loop on token string collisions.
const createAttempts = 3

// Store is the narrow persistence interface the lifecycle service needs.
type Store interface {
	CreateToken(ctx context.Context, t *storage.Token) (*storage.Token, error)
	GetTokenByID(ctx context.Context, id int64) (*storage.Token, error)
	UpdateToken(ctx context.Context, id int64, upd *storage.TokenUpdate) (*storage.Token, error)
	SetTokenStatus(ctx context.Context, id int64, status string) error
	DeleteToken(ctx context.Context, id int64) error
	ConsumeUsage(ctx context.Context, id int64) (*storage.Token, error)
	ListTokens(ctx context.Context, offset, limit int) ([]*storage.Token, error)
	CountTokens(ctx context.Context) (int64, error)
}

// Service owns every write to token records. Validation and the file
// exchange guard only read; usage accounting goes through ConsumeUsage here
// so the quota invariant holds under concurrent requests.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a lifecycle service.
func NewService(store Store, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger}
}

// Create issues a new token: generates a unique bearer string, forces the
// initial lifecycle state and persists the policy. The draft's TokenString,
// Status and CurrentUsageCount are ignored.
func (s *Service) Create(ctx context.Context, draft *storage.Token) (*storage.Token, error) {
	if draft.FilenameConflictStrategy == "" {
		draft.FilenameConflictStrategy = storage.ConflictRename
	}
	switch draft.FilenameConflictStrategy {
	case storage.ConflictRename, storage.ConflictOverwrite, storage.ConflictReject:
	default:
		return nil, fmt.Errorf("invalid conflict strategy %q", draft.FilenameConflictStrategy)
	}

	for attempt := 0; attempt < createAttempts; attempt++ {
		tokenString, err := NewTokenString()
		if err != nil {
			return nil, fmt.Errorf("failed to generate token string: %w", err)
		}
		draft.TokenString = tokenString

		created, err := s.store.CreateToken(ctx, draft)
		if err != nil {
			if errors.Is(err, storage.ErrDuplicate) {
				continue
			}
			return nil, err
		}

		s.logger.Info("token created", "id", created.ID, "token", Mask(created.TokenString))
		return created, nil
	}

	return nil, fmt.Errorf("failed to generate a unique token string after %d attempts", createAttempts)
}

// Update applies a partial policy update. Absent fields stay untouched;
// the bearer string, status and usage count cannot be changed this way.
func (s *Service) Update(ctx context.Context, id int64, upd *storage.TokenUpdate) (*storage.Token, error) {
	if upd.FilenameConflictStrategy != nil {
		switch *upd.FilenameConflictStrategy {
		case storage.ConflictRename, storage.ConflictOverwrite, storage.ConflictReject:
		default:
			return nil, fmt.Errorf("invalid conflict strategy %q", *upd.FilenameConflictStrategy)
		}
	}

	updated, err := s.store.UpdateToken(ctx, id, upd)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.logger.Info("token updated", "id", id)
	return updated, nil
}

// Revoke unconditionally moves the token to the revoked state, regardless of
// its current state. Idempotent: revoking a revoked token succeeds.
func (s *Service) Revoke(ctx context.Context, id int64) (*storage.Token, error) {
	if err := s.store.SetTokenStatus(ctx, id, storage.StatusRevoked); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.logger.Info("token revoked", "id", id)
	return s.store.GetTokenByID(ctx, id)
}

// Delete removes the token record. Returns whether a record existed.
func (s *Service) Delete(ctx context.Context, id int64) (bool, error) {
	err := s.store.DeleteToken(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return false, nil
		}
		return false, err
	}

	s.logger.Info("token deleted", "id", id)
	return true, nil
}

// Get returns a single token record.
func (s *Service) Get(ctx context.Context, id int64) (*storage.Token, error) {
	t, err := s.store.GetTokenByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// ConsumeUsage spends one usage unit. The increment is an atomic
// conditional update in storage, so two concurrent consumers racing for the
// last unit cannot both win: the loser gets ErrExhausted and the token is
// moved to its terminal state (deleted instead, when the policy says so).
func (s *Service) ConsumeUsage(ctx context.Context, id int64) (*storage.Token, error) {
	t, err := s.store.ConsumeUsage(ctx, id)
	if err == nil {
		return t, nil
	}

	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrNotFound
	case errors.Is(err, storage.ErrQuotaExceeded):
		if exhErr := s.exhaust(ctx, id); exhErr != nil {
			s.logger.Error("failed to mark token exhausted", "id", id, "error", exhErr)
		}
		return nil, ErrExhausted
	default:
		return nil, err
	}
}

// List returns one page of tokens plus the total count.
func (s *Service) List(ctx context.Context, offset, limit int) ([]*storage.Token, int64, error) {
	items, err := s.store.ListTokens(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.store.CountTokens(ctx)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// exhaust marks the token exhausted, or deletes it when the policy asks for
// removal on exhaustion.
func (s *Service) exhaust(ctx context.Context, id int64) error {
	t, err := s.store.GetTokenByID(ctx, id)
	if err != nil {
		return err
	}
	if t.DeleteOnExhaust {
		return s.store.DeleteToken(ctx, id)
	}
	return s.store.SetTokenStatus(ctx, id, storage.StatusExhausted)
}

// Mask shortens a bearer string for logging so full secrets never reach the
// log stream.
func Mask(tokenString string) string {
	if len(tokenString) <= 4 {
		return "****"
	}
	return tokenString[:4] + "****"
}

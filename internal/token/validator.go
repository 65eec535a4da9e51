package token

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/ID-VerNe/secure-drop/internal/storage"
)

// ValidatorStore is the narrow persistence interface validation needs.
// Status transitions discovered during validation (expiry, exhaustion,
// first-use activation) are persisted through it.
type ValidatorStore interface {
	GetTokenByString(ctx context.Context, tokenString string) (*storage.Token, error)
	SetTokenStatus(ctx context.Context, id int64, status string) error
	DeleteToken(ctx context.Context, id int64) error
}

// Validator checks a presented token string against the lifecycle rules.
// Expiry and exhaustion are detected lazily here, at validation time; there
// is no background sweep.
type Validator struct {
	store  ValidatorStore
	logger *slog.Logger
	now    func() time.Time
}

// NewValidator creates a Validator.
func NewValidator(store ValidatorStore, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{store: store, logger: logger, now: time.Now}
}

// Validate runs the lifecycle checks in order, short-circuiting on the
// first failure:
//
//  1. a record must exist for the string (ErrNotFound otherwise),
//  2. the status must be unused or active (per-status rejection otherwise),
//  3. a set expiry in the past moves the token to expired and rejects,
//  4. a spent usage quota moves the token to exhausted (deleting it when
//     the policy says so) and rejects.
//
// On success an unused token is activated: first use marks activation.
func (v *Validator) Validate(ctx context.Context, tokenString string) (*storage.Token, error) {
	t, err := v.store.GetTokenByString(ctx, tokenString)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if t.Status != storage.StatusUnused && t.Status != storage.StatusActive {
		return nil, statusError(t.Status)
	}

	if t.ExpiresAt != nil && v.now().After(*t.ExpiresAt) {
		if err := v.store.SetTokenStatus(ctx, t.ID, storage.StatusExpired); err != nil {
			return nil, err
		}
		v.logger.Info("token expired", "id", t.ID, "token", Mask(tokenString))
		return nil, ErrExpired
	}

	if t.MaxUsageCount > 0 && t.CurrentUsageCount >= t.MaxUsageCount {
		if t.DeleteOnExhaust {
			if err := v.store.DeleteToken(ctx, t.ID); err != nil {
				return nil, err
			}
		} else {
			if err := v.store.SetTokenStatus(ctx, t.ID, storage.StatusExhausted); err != nil {
				return nil, err
			}
		}
		v.logger.Info("token exhausted", "id", t.ID, "token", Mask(tokenString))
		return nil, ErrExhausted
	}

	if t.Status == storage.StatusUnused {
		if err := v.store.SetTokenStatus(ctx, t.ID, storage.StatusActive); err != nil {
			return nil, err
		}
		t.Status = storage.StatusActive
	}

	return t, nil
}

// statusError maps a terminal status to its rejection.
func statusError(status string) error {
	switch status {
	case storage.StatusRevoked:
		return ErrRevoked
	case storage.StatusExpired:
		return ErrExpired
	case storage.StatusExhausted:
		return ErrExhausted
	default:
		return ErrForbidden
	}
}

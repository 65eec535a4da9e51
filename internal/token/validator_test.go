package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ID-VerNe/secure-drop/internal/storage"
)

// TestValidateUnknownString verifies rejection of a string with no record.
func TestValidateUnknownString(t *testing.T) {
	t.Parallel()

	v := NewValidator(newTestStore(t), nil)

	if _, err := v.Validate(context.Background(), "NOSUCHTOKEN12345"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// TestValidateActivatesUnused verifies that the first successful validation
// moves an unused token to active and persists the transition.
func TestValidateActivatesUnused(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewService(store, nil)
	v := NewValidator(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, testDraft())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	got, err := v.Validate(ctx, created.TokenString)
	if err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	if got.Status != storage.StatusActive {
		t.Errorf("expected returned status %q, got %q", storage.StatusActive, got.Status)
	}

	persisted, err := store.GetTokenByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTokenByID failed: %v", err)
	}
	if persisted.Status != storage.StatusActive {
		t.Errorf("activation not persisted: %q", persisted.Status)
	}

	// A second validation of the now-active token also succeeds.
	if _, err := v.Validate(ctx, created.TokenString); err != nil {
		t.Errorf("second Validate failed: %v", err)
	}
}

// TestValidateRevoked verifies rejection of a revoked token.
func TestValidateRevoked(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewService(store, nil)
	v := NewValidator(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, testDraft())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Revoke(ctx, created.ID); err != nil {
		t.Fatalf("Revoke failed: %v", err)
	}

	if _, err := v.Validate(ctx, created.TokenString); !errors.Is(err, ErrRevoked) {
		t.Fatalf("expected ErrRevoked, got %v", err)
	}
}

// TestValidateExpiry verifies that a passed deadline is detected lazily at
// validation time and the expired status is persisted.
func TestValidateExpiry(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewService(store, nil)
	v := NewValidator(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, testDraft())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	past := time.Now().Add(-time.Minute).UTC()
	if _, err := store.UpdateToken(ctx, created.ID, &storage.TokenUpdate{ExpiresAt: &past}); err != nil {
		t.Fatalf("UpdateToken failed: %v", err)
	}

	if _, err := v.Validate(ctx, created.TokenString); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	persisted, err := store.GetTokenByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTokenByID failed: %v", err)
	}
	if persisted.Status != storage.StatusExpired {
		t.Errorf("expiry not persisted: %q", persisted.Status)
	}

	// Later validations reject on the persisted status.
	if _, err := v.Validate(ctx, created.TokenString); !errors.Is(err, ErrExpired) {
		t.Errorf("expected ErrExpired on revalidation, got %v", err)
	}
}

// TestValidateExhaustion verifies the lazy exhaustion transition when the
// quota is already spent at validation time.
func TestValidateExhaustion(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewService(store, nil)
	v := NewValidator(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, testDraft())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.ConsumeUsage(ctx, created.ID); err != nil {
		t.Fatalf("ConsumeUsage failed: %v", err)
	}

	if _, err := v.Validate(ctx, created.TokenString); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	persisted, err := store.GetTokenByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTokenByID failed: %v", err)
	}
	if persisted.Status != storage.StatusExhausted {
		t.Errorf("exhaustion not persisted: %q", persisted.Status)
	}
}

// TestValidateExhaustionDeletes verifies that delete_on_exhaust removes the
// record during lazy exhaustion.
func TestValidateExhaustionDeletes(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewService(store, nil)
	v := NewValidator(store, nil)
	ctx := context.Background()

	draft := testDraft()
	draft.DeleteOnExhaust = true
	created, err := svc.Create(ctx, draft)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.ConsumeUsage(ctx, created.ID); err != nil {
		t.Fatalf("ConsumeUsage failed: %v", err)
	}

	if _, err := v.Validate(ctx, created.TokenString); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}
	if _, err := store.GetTokenByID(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected record to be deleted, got %v", err)
	}
}

// TestValidateUnlimitedQuota verifies that max_usage_count 0 never
// exhausts at validation time.
func TestValidateUnlimitedQuota(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewService(store, nil)
	v := NewValidator(store, nil)
	ctx := context.Background()

	draft := testDraft()
	draft.MaxUsageCount = 0
	created, err := svc.Create(ctx, draft)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < 5; i++ {
		if _, err := store.ConsumeUsage(ctx, created.ID); err != nil {
			t.Fatalf("ConsumeUsage failed: %v", err)
		}
		if _, err := v.Validate(ctx, created.TokenString); err != nil {
			t.Fatalf("Validate failed after %d uses: %v", i+1, err)
		}
	}
}

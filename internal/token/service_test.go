package token

import (
	"context"
	"errors"
	"testing"

	"github.com/ID-VerNe/secure-drop/internal/storage"
)

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()

	s, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func testDraft() *storage.Token {
	return &storage.Token{
		Description:   "test token",
		MaxUsageCount: 1,
		AllowUpload:   true,
		UploadPath:    "incoming",
	}
}

// TestServiceCreate verifies that issuing a token generates the bearer
// string and forces the initial lifecycle state.
func TestServiceCreate(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestStore(t), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, testDraft())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if len(created.TokenString) != 16 {
		t.Errorf("expected 16-char token string, got %q", created.TokenString)
	}
	if created.Status != storage.StatusUnused {
		t.Errorf("expected status %q, got %q", storage.StatusUnused, created.Status)
	}
	if created.CurrentUsageCount != 0 {
		t.Errorf("expected zero usage count, got %d", created.CurrentUsageCount)
	}
	if created.FilenameConflictStrategy != storage.ConflictRename {
		t.Errorf("expected default conflict strategy %q, got %q",
			storage.ConflictRename, created.FilenameConflictStrategy)
	}
}

// TestServiceCreateInvalidStrategy verifies rejection of an unknown
// conflict strategy.
func TestServiceCreateInvalidStrategy(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestStore(t), nil)

	draft := testDraft()
	draft.FilenameConflictStrategy = "merge"
	if _, err := svc.Create(context.Background(), draft); err == nil {
		t.Fatal("expected error for invalid conflict strategy")
	}
}

// TestServiceUpdate verifies partial updates and strategy validation.
func TestServiceUpdate(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestStore(t), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, testDraft())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	strategy := storage.ConflictReject
	updated, err := svc.Update(ctx, created.ID, &storage.TokenUpdate{FilenameConflictStrategy: &strategy})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.FilenameConflictStrategy != storage.ConflictReject {
		t.Errorf("strategy not updated: %q", updated.FilenameConflictStrategy)
	}

	bad := "merge"
	if _, err := svc.Update(ctx, created.ID, &storage.TokenUpdate{FilenameConflictStrategy: &bad}); err == nil {
		t.Error("expected error for invalid conflict strategy")
	}

	desc := "x"
	if _, err := svc.Update(ctx, 999, &storage.TokenUpdate{Description: &desc}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestServiceRevoke verifies that revocation is unconditional and
// idempotent, including from the exhausted state.
func TestServiceRevoke(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, testDraft())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	// Exhaust the single-use token first.
	if _, err := svc.ConsumeUsage(ctx, created.ID); err != nil {
		t.Fatalf("ConsumeUsage failed: %v", err)
	}
	if _, err := svc.ConsumeUsage(ctx, created.ID); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	revoked, err := svc.Revoke(ctx, created.ID)
	if err != nil {
		t.Fatalf("Revoke from exhausted failed: %v", err)
	}
	if revoked.Status != storage.StatusRevoked {
		t.Errorf("expected status %q, got %q", storage.StatusRevoked, revoked.Status)
	}

	// Revoking again succeeds and leaves the state unchanged.
	again, err := svc.Revoke(ctx, created.ID)
	if err != nil {
		t.Fatalf("second Revoke failed: %v", err)
	}
	if again.Status != storage.StatusRevoked {
		t.Errorf("expected status %q, got %q", storage.StatusRevoked, again.Status)
	}

	if _, err := svc.Revoke(ctx, 999); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// TestServiceDelete verifies the existed flag.
func TestServiceDelete(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestStore(t), nil)
	ctx := context.Background()

	created, err := svc.Create(ctx, testDraft())
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	existed, err := svc.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if !existed {
		t.Error("expected existed=true on first delete")
	}

	existed, err = svc.Delete(ctx, created.ID)
	if err != nil {
		t.Fatalf("second Delete failed: %v", err)
	}
	if existed {
		t.Error("expected existed=false on second delete")
	}
}

// TestServiceConsumeUsageExhausts verifies the terminal transition when the
// quota is spent.
func TestServiceConsumeUsageExhausts(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()

	draft := testDraft()
	draft.MaxUsageCount = 2
	created, err := svc.Create(ctx, draft)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := svc.ConsumeUsage(ctx, created.ID); err != nil {
			t.Fatalf("ConsumeUsage %d failed: %v", i, err)
		}
	}

	if _, err := svc.ConsumeUsage(ctx, created.ID); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	final, err := store.GetTokenByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("GetTokenByID failed: %v", err)
	}
	if final.Status != storage.StatusExhausted {
		t.Errorf("expected status %q, got %q", storage.StatusExhausted, final.Status)
	}
}

// TestServiceConsumeUsageDeleteOnExhaust verifies that the record is
// removed instead of marked when the policy asks for it.
func TestServiceConsumeUsageDeleteOnExhaust(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	svc := NewService(store, nil)
	ctx := context.Background()

	draft := testDraft()
	draft.DeleteOnExhaust = true
	created, err := svc.Create(ctx, draft)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.ConsumeUsage(ctx, created.ID); err != nil {
		t.Fatalf("ConsumeUsage failed: %v", err)
	}
	if _, err := svc.ConsumeUsage(ctx, created.ID); !errors.Is(err, ErrExhausted) {
		t.Fatalf("expected ErrExhausted, got %v", err)
	}

	if _, err := store.GetTokenByID(ctx, created.ID); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected record to be deleted, got %v", err)
	}
}

// TestServiceList verifies pagination and the total count.
func TestServiceList(t *testing.T) {
	t.Parallel()

	svc := NewService(newTestStore(t), nil)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := svc.Create(ctx, testDraft()); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}

	items, total, err := svc.List(ctx, 0, 2)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(items) != 2 {
		t.Errorf("expected 2 items, got %d", len(items))
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
}

// TestMask verifies bearer string masking for log output.
func TestMask(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"AB12CD34EF56AB12", "AB12****"},
		{"ABCD", "****"},
		{"", "****"},
	}
	for _, tt := range tests {
		if got := Mask(tt.in); got != tt.want {
			t.Errorf("Mask(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

package storage

import (
	"context"
	"testing"
	"time"
)

// TestAppendAccessLog verifies the append/list round-trip and newest-first
// ordering.
func TestAppendAccessLog(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	created, err := s.CreateToken(ctx, testToken("AUDITTOKEN123456"))
	if err != nil {
		t.Fatalf("CreateToken failed: %v", err)
	}

	base := time.Now().UTC().Truncate(time.Second)
	entries := []*AccessLog{
		{TokenID: created.ID, IPAddress: "10.0.0.1", Timestamp: base.Add(-2 * time.Minute), Action: "guest_login"},
		{TokenID: created.ID, IPAddress: "10.0.0.1", Timestamp: base.Add(-time.Minute), Action: "upload", Details: "report.txt"},
		{TokenID: created.ID, IPAddress: "10.0.0.2", Timestamp: base, Action: "download", Details: "report.txt"},
	}
	for _, e := range entries {
		if err := s.AppendAccessLog(ctx, e); err != nil {
			t.Fatalf("AppendAccessLog failed: %v", err)
		}
	}

	got, err := s.ListAccessLogs(ctx, 0, 10)
	if err != nil {
		t.Fatalf("ListAccessLogs failed: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(got))
	}
	if got[0].Action != "download" || got[2].Action != "guest_login" {
		t.Errorf("entries not in newest-first order: %q, %q, %q",
			got[0].Action, got[1].Action, got[2].Action)
	}
	if got[1].Details != "report.txt" {
		t.Errorf("details not preserved: %q", got[1].Details)
	}

	total, err := s.CountAccessLogs(ctx)
	if err != nil {
		t.Fatalf("CountAccessLogs failed: %v", err)
	}
	if total != 3 {
		t.Errorf("expected total 3, got %d", total)
	}
}

// TestAppendAccessLogDefaultTimestamp verifies that a zero timestamp is
// filled in at insert time.
func TestAppendAccessLogDefaultTimestamp(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx := context.Background()

	if err := s.AppendAccessLog(ctx, &AccessLog{TokenID: 1, IPAddress: "10.0.0.1", Action: "list_files"}); err != nil {
		t.Fatalf("AppendAccessLog failed: %v", err)
	}

	got, err := s.ListAccessLogs(ctx, 0, 1)
	if err != nil {
		t.Fatalf("ListAccessLogs failed: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(got))
	}
	if got[0].Timestamp.IsZero() {
		t.Errorf("expected timestamp to be set")
	}
}

// TestListAccessLogsEmpty verifies the empty case.
func TestListAccessLogsEmpty(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)

	got, err := s.ListAccessLogs(context.Background(), 0, 10)
	if err != nil {
		t.Fatalf("ListAccessLogs failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("expected empty slice, got %v", got)
	}
}

package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"gatesphere.dev/internal/auth"
	"gatesphere.dev/internal/obs"
	"gatesphere.dev/internal/society"
	"gatesphere.dev/internal/store"
)

func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	logger := obs.Logger()
	original := logger.Writer()
	logger.SetFlags(0)
	var buf bytes.Buffer
	logger.SetOutput(&buf)
	t.Cleanup(func() { logger.SetOutput(original) })
	return &buf
}

func TestLogEvent(t *testing.T) {
	buf := captureLog(t)

	ctx := context.Background()
	ctx = WithRequestID(ctx, "req-123")
	ctx = auth.ContextWithUser(ctx, "user-42", society.RoleAdmin, "soc-a")

	if err := LogEvent(ctx, "visitor.approve", map[string]any{"visitor_id": "v1"}); err != nil {
		t.Fatalf("LogEvent failed: %v", err)
	}

	line := buf.String()
	if line == "" {
		t.Fatal("expected log output")
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		t.Fatalf("log not valid JSON: %v", err)
	}
	if entry["type"] != "audit" {
		t.Fatalf("unexpected type: %v", entry["type"])
	}
	if entry["event"] != "visitor.approve" {
		t.Fatalf("unexpected event: %v", entry["event"])
	}
	if entry["request_id"] != "req-123" {
		t.Fatalf("unexpected request id: %v", entry["request_id"])
	}
	if entry["user_id"] != "user-42" {
		t.Fatalf("unexpected user id: %v", entry["user_id"])
	}
	fields, ok := entry["fields"].(map[string]any)
	if !ok || fields["visitor_id"] != "v1" {
		t.Fatalf("fields missing or incorrect: %v", entry["fields"])
	}
}

func TestRecorderAppendsRow(t *testing.T) {
	captureLog(t)

	mem := store.NewMemory()
	rec := NewRecorder(mem.Audit())

	ctx := auth.ContextWithUser(context.Background(), "guard-1", society.RoleGuard, "soc-a")
	rec.Record(ctx, "soc-a", "visitor.create", "visitor", "v1", nil, map[string]any{"status": "pending"})

	rows, err := mem.Audit().ListBySociety(ctx, "soc-a", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("audit rows %d, want 1", len(rows))
	}
	row := rows[0]
	if row.Action != "visitor.create" || row.Entity != "visitor" || row.EntityID != "v1" {
		t.Fatalf("row mismatch: %+v", row)
	}
	if row.UserID != "guard-1" {
		t.Fatalf("user id %q", row.UserID)
	}
	if row.NewData["status"] != "pending" {
		t.Fatalf("new data %v", row.NewData)
	}
}

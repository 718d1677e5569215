package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"gatesphere.dev/internal/society"
)

func seedVisitor(t *testing.T, m *Memory, societyID string, status society.VisitorStatus) *society.Visitor {
	t.Helper()
	v := &society.Visitor{
		Name:        "Ravi Kumar",
		Phone:       "9000000001",
		VisitorType: society.VisitorGuest,
		FlatID:      "flat-1",
		SocietyID:   societyID,
		Status:      status,
	}
	if err := m.Visitors().Create(context.Background(), v); err != nil {
		t.Fatalf("create visitor: %v", err)
	}
	return v
}

func TestMemoryVisitorTenantIsolation(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	v := seedVisitor(t, m, "soc-a", society.VisitorPending)

	if _, err := m.Visitors().Find(ctx, "soc-b", v.ID); !errors.Is(err, society.ErrNotFound) {
		t.Fatalf("cross-tenant find: got %v, want ErrNotFound", err)
	}
	got, err := m.Visitors().Find(ctx, "soc-a", v.ID)
	if err != nil {
		t.Fatalf("same-tenant find: %v", err)
	}
	if got.Name != v.Name {
		t.Fatalf("got name %q, want %q", got.Name, v.Name)
	}

	rows, err := m.Visitors().ListBySociety(ctx, "soc-b", VisitorFilter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("cross-tenant list leaked %d rows", len(rows))
	}
}

func TestMemoryVisitorUpdateStatusCAS(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	v := seedVisitor(t, m, "soc-a", society.VisitorPending)

	approved := *v
	approved.Status = society.VisitorApproved
	if err := m.Visitors().UpdateStatus(ctx, &approved, society.VisitorPending); err != nil {
		t.Fatalf("first update: %v", err)
	}

	// A second writer that read "pending" before the first committed must lose.
	blocked := *v
	blocked.Status = society.VisitorBlocked
	err := m.Visitors().UpdateStatus(ctx, &blocked, society.VisitorPending)
	if !errors.Is(err, society.ErrInvalidTransition) {
		t.Fatalf("stale update: got %v, want ErrInvalidTransition", err)
	}

	got, err := m.Visitors().Find(ctx, "soc-a", v.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got.Status != society.VisitorApproved {
		t.Fatalf("status %q, want approved", got.Status)
	}
}

func TestMemoryVisitorFilters(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	seedVisitor(t, m, "soc-a", society.VisitorPending)
	seedVisitor(t, m, "soc-a", society.VisitorExited)

	rows, err := m.Visitors().ListBySociety(ctx, "soc-a", VisitorFilter{Status: society.VisitorPending})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != society.VisitorPending {
		t.Fatalf("status filter returned %d rows", len(rows))
	}

	yesterday := time.Now().UTC().AddDate(0, 0, -1)
	rows, err = m.Visitors().ListBySociety(ctx, "soc-a", VisitorFilter{Date: &yesterday})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("date filter returned %d rows, want 0", len(rows))
	}
}

func TestMemoryCopiesOnReturn(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	v := seedVisitor(t, m, "soc-a", society.VisitorPending)

	first, err := m.Visitors().Find(ctx, "soc-a", v.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	first.Name = "mutated"

	second, err := m.Visitors().Find(ctx, "soc-a", v.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if second.Name != "Ravi Kumar" {
		t.Fatalf("store row mutated through returned pointer: %q", second.Name)
	}
}

func TestMemoryUserUniqueUsername(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	u := &society.User{Username: "9000000001", Name: "A", Phone: "9000000001", Role: society.RoleResident, SocietyID: "soc-a"}
	if err := m.Users().Create(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}
	dup := &society.User{Username: "9000000001", Name: "B", Phone: "9000000001", Role: society.RoleResident, SocietyID: "soc-a"}
	if err := m.Users().Create(ctx, dup); !errors.Is(err, society.ErrInvalidInput) {
		t.Fatalf("duplicate username: got %v, want ErrInvalidInput", err)
	}
}

func TestMemoryComplaintUpdateStatusCAS(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	c := &society.Complaint{
		Title:       "Lift stuck",
		Description: "Lift B not moving",
		Category:    "maintenance",
		FlatID:      "flat-1",
		SocietyID:   "soc-a",
		RaisedBy:    "user-1",
	}
	if err := m.Complaints().Create(ctx, c); err != nil {
		t.Fatalf("create: %v", err)
	}
	if c.Status != society.ComplaintOpen {
		t.Fatalf("default status %q, want open", c.Status)
	}

	next := *c
	next.Status = society.ComplaintInProgress
	if err := m.Complaints().UpdateStatus(ctx, &next, society.ComplaintOpen); err != nil {
		t.Fatalf("update: %v", err)
	}
	stale := *c
	stale.Status = society.ComplaintEscalated
	if err := m.Complaints().UpdateStatus(ctx, &stale, society.ComplaintOpen); !errors.Is(err, society.ErrInvalidTransition) {
		t.Fatalf("stale update: got %v, want ErrInvalidTransition", err)
	}
}

func TestMemoryAttendanceUpsert(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	st := &society.Staff{Name: "Guard One", Phone: "9000000002", Category: society.StaffSecurity, SocietyID: "soc-a"}
	if err := m.Staff().Create(ctx, st); err != nil {
		t.Fatalf("create staff: %v", err)
	}

	day := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	a := &society.StaffAttendance{StaffID: st.ID, SocietyID: "soc-a", Date: day, Status: "present"}
	if err := m.Staff().MarkAttendance(ctx, a); err != nil {
		t.Fatalf("mark: %v", err)
	}
	again := &society.StaffAttendance{StaffID: st.ID, SocietyID: "soc-a", Date: day, Status: "half_day"}
	if err := m.Staff().MarkAttendance(ctx, again); err != nil {
		t.Fatalf("re-mark: %v", err)
	}
	rows, err := m.Staff().ListAttendance(ctx, "soc-a", day)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("attendance rows %d, want 1 (upsert)", len(rows))
	}
	if rows[0].Status != "half_day" {
		t.Fatalf("status %q, want half_day", rows[0].Status)
	}
}

func TestMemoryMessagesListBetween(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	msgs := []society.Message{
		{SenderID: "u1", ReceiverID: "u2", SocietyID: "soc-a", Content: "hi"},
		{SenderID: "u2", ReceiverID: "u1", SocietyID: "soc-a", Content: "hello"},
		{SenderID: "u1", ReceiverID: "u3", SocietyID: "soc-a", Content: "other"},
		{SenderID: "u1", SocietyID: "soc-a", Content: "broadcast"},
	}
	for i := range msgs {
		if err := m.Messages().Create(ctx, &msgs[i]); err != nil {
			t.Fatalf("create: %v", err)
		}
		// Creation order decides conversation order.
		time.Sleep(2 * time.Millisecond)
	}
	if !msgs[3].IsGroupMessage {
		t.Fatal("empty receiver should mark a group message")
	}

	rows, err := m.Messages().ListBetween(ctx, "soc-a", "u1", "u2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("conversation rows %d, want 2", len(rows))
	}
	if rows[0].Content != "hi" || rows[1].Content != "hello" {
		t.Fatalf("conversation out of order: %q, %q", rows[0].Content, rows[1].Content)
	}
}

func TestMemoryAuditAppendOnly(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		entry := &society.AuditLog{SocietyID: "soc-a", Action: "create", Entity: "visitor"}
		if err := m.Audit().Append(ctx, entry); err != nil {
			t.Fatalf("append: %v", err)
		}
	}
	rows, err := m.Audit().ListBySociety(ctx, "soc-a", 2)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("limited list returned %d rows, want 2", len(rows))
	}
}

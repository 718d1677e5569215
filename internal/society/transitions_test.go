package society

import (
	"errors"
	"testing"
	"time"
)

func TestVisitorLegalEdges(t *testing.T) {
	legal := []struct{ from, to VisitorStatus }{
		{VisitorPending, VisitorApproved},
		{VisitorPending, VisitorBlocked},
		{VisitorApproved, VisitorInside},
		{VisitorInside, VisitorExited},
	}
	for _, edge := range legal {
		if err := CheckVisitorTransition(edge.from, edge.to); err != nil {
			t.Fatalf("expected %s -> %s to be legal: %v", edge.from, edge.to, err)
		}
	}
}

func TestVisitorIllegalEdgesRejected(t *testing.T) {
	all := []VisitorStatus{VisitorPending, VisitorApproved, VisitorInside, VisitorExited, VisitorBlocked}
	legal := map[[2]VisitorStatus]bool{
		{VisitorPending, VisitorApproved}: true,
		{VisitorPending, VisitorBlocked}:  true,
		{VisitorApproved, VisitorInside}:  true,
		{VisitorInside, VisitorExited}:    true,
	}
	for _, from := range all {
		for _, to := range all {
			if legal[[2]VisitorStatus{from, to}] {
				continue
			}
			err := CheckVisitorTransition(from, to)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Fatalf("expected %s -> %s rejected, got %v", from, to, err)
			}
		}
	}
}

func TestApplyVisitorTransitionSideEffects(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	v := Visitor{ID: "v1", Status: VisitorPending}

	v, err := ApplyVisitorTransition(v, VisitorApproved, "user-7", now)
	if err != nil {
		t.Fatal(err)
	}
	if v.ApprovedBy != "user-7" {
		t.Fatalf("approved_by not set: %q", v.ApprovedBy)
	}
	if v.CheckInTime == nil || !v.CheckInTime.Equal(now) {
		t.Fatalf("check_in_time not stamped on approval: %v", v.CheckInTime)
	}
	if v.CheckOutTime != nil {
		t.Fatalf("check_out_time must stay empty until exit")
	}

	later := now.Add(time.Hour)
	v, err = ApplyVisitorTransition(v, VisitorInside, "", later)
	if err != nil {
		t.Fatal(err)
	}
	if !v.CheckInTime.Equal(now) {
		t.Fatalf("check_in_time must not move when entering inside")
	}

	v, err = ApplyVisitorTransition(v, VisitorExited, "", later.Add(time.Hour))
	if err != nil {
		t.Fatal(err)
	}
	if v.CheckOutTime == nil || !v.CheckOutTime.Equal(later.Add(time.Hour)) {
		t.Fatalf("check_out_time not stamped on exit: %v", v.CheckOutTime)
	}
}

func TestApplyVisitorTransitionRejectionLeavesInputAlone(t *testing.T) {
	v := Visitor{ID: "v1", Status: VisitorInside}
	if _, err := ApplyVisitorTransition(v, VisitorApproved, "u", time.Now()); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("expected invalid transition, got %v", err)
	}
	if v.Status != VisitorInside {
		t.Fatalf("input mutated on rejection")
	}
}

func TestComplaintEdgesAndAdminGate(t *testing.T) {
	if err := CheckComplaintTransition(ComplaintOpen, ComplaintInProgress, RoleResident); err != nil {
		t.Fatalf("open -> in_progress should not need admin: %v", err)
	}
	if err := CheckComplaintTransition(ComplaintInProgress, ComplaintResolved, RoleGuard); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected admin gate on resolved, got %v", err)
	}
	if err := CheckComplaintTransition(ComplaintOpen, ComplaintEscalated, RoleResident); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected admin gate on escalated, got %v", err)
	}
	if err := CheckComplaintTransition(ComplaintEscalated, ComplaintInProgress, RoleAdmin); err != nil {
		t.Fatalf("escalated -> in_progress should be legal: %v", err)
	}
	if err := CheckComplaintTransition(ComplaintClosed, ComplaintOpen, RoleAdmin); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("closed is terminal, got %v", err)
	}
}

func TestApplyComplaintTransitionStampsResolvedAt(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	c := Complaint{ID: "c1", Status: ComplaintInProgress}

	c, err := ApplyComplaintTransition(c, ComplaintResolved, RoleAdmin, now)
	if err != nil {
		t.Fatal(err)
	}
	if c.ResolvedAt == nil || !c.ResolvedAt.Equal(now) {
		t.Fatalf("resolved_at not stamped: %v", c.ResolvedAt)
	}
}

func TestApplyComplaintEscalationBumpsLevel(t *testing.T) {
	c := Complaint{ID: "c1", Status: ComplaintOpen}
	c, err := ApplyComplaintTransition(c, ComplaintEscalated, RoleAdmin, time.Now())
	if err != nil {
		t.Fatal(err)
	}
	if c.EscalationLevel != 1 {
		t.Fatalf("escalation level not incremented: %d", c.EscalationLevel)
	}
}

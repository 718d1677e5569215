package society

import (
	"fmt"
	"time"
)

// Legal edges of the visitor lifecycle. Everything else, self-transitions
// included, is rejected.
var visitorEdges = map[VisitorStatus][]VisitorStatus{
	VisitorPending:  {VisitorApproved, VisitorBlocked},
	VisitorApproved: {VisitorInside},
	VisitorInside:   {VisitorExited},
}

// Legal edges of the complaint lifecycle.
var complaintEdges = map[ComplaintStatus][]ComplaintStatus{
	ComplaintOpen:       {ComplaintInProgress, ComplaintEscalated},
	ComplaintInProgress: {ComplaintResolved, ComplaintEscalated},
	ComplaintEscalated:  {ComplaintInProgress},
	ComplaintResolved:   {ComplaintClosed},
}

// CheckVisitorTransition reports whether from->to is a legal visitor edge.
func CheckVisitorTransition(from, to VisitorStatus) error {
	for _, next := range visitorEdges[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("visitor %s -> %s: %w", from, to, ErrInvalidTransition)
}

// ApplyVisitorTransition validates the edge and applies the side effects bound
// to it: entering approved records the approver and check-in time; entering
// exited records the check-out time. The caller persists the returned copy
// only when the error is nil.
func ApplyVisitorTransition(v Visitor, to VisitorStatus, approvedBy string, now time.Time) (Visitor, error) {
	if err := CheckVisitorTransition(v.Status, to); err != nil {
		return Visitor{}, err
	}
	v.Status = to
	v.UpdatedAt = now
	switch to {
	case VisitorApproved:
		v.ApprovedBy = approvedBy
		t := now
		v.CheckInTime = &t
	case VisitorBlocked:
		v.ApprovedBy = approvedBy
	case VisitorExited:
		t := now
		v.CheckOutTime = &t
	}
	return v, nil
}

// CheckComplaintTransition reports whether from->to is a legal complaint edge
// and whether the acting role may take it. Only admins may resolve or
// escalate.
func CheckComplaintTransition(from, to ComplaintStatus, actor Role) error {
	legal := false
	for _, next := range complaintEdges[from] {
		if next == to {
			legal = true
			break
		}
	}
	if !legal {
		return fmt.Errorf("complaint %s -> %s: %w", from, to, ErrInvalidTransition)
	}
	if (to == ComplaintResolved || to == ComplaintEscalated) && actor != RoleAdmin {
		return fmt.Errorf("complaint %s -> %s requires admin: %w", from, to, ErrForbidden)
	}
	return nil
}

// ApplyComplaintTransition validates the edge and stamps ResolvedAt when the
// complaint enters resolved.
func ApplyComplaintTransition(c Complaint, to ComplaintStatus, actor Role, now time.Time) (Complaint, error) {
	if err := CheckComplaintTransition(c.Status, to, actor); err != nil {
		return Complaint{}, err
	}
	c.Status = to
	c.UpdatedAt = now
	switch to {
	case ComplaintResolved:
		t := now
		c.ResolvedAt = &t
	case ComplaintEscalated:
		c.EscalationLevel++
	}
	return c, nil
}

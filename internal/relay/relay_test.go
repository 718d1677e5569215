package relay

import (
	"context"
	"encoding/json"
	"testing"

	"gatesphere.dev/internal/audit"
	"gatesphere.dev/internal/society"
	"gatesphere.dev/internal/store"
)

type testRig struct {
	relay *Relay
	store *store.Memory
}

func newRig(t *testing.T) *testRig {
	t.Helper()
	mem := store.NewMemory()
	reg := NewRegistry()
	return &testRig{
		relay: New(reg, mem, audit.NewRecorder(mem.Audit())),
		store: mem,
	}
}

func (rig *testRig) addUser(t *testing.T, id, societyID string, role society.Role) *society.User {
	t.Helper()
	u := &society.User{ID: id, Username: id, Name: "User " + id, Phone: id, Role: role, SocietyID: societyID, IsActive: true}
	if err := rig.store.Users().Create(context.Background(), u); err != nil {
		t.Fatalf("create user: %v", err)
	}
	return u
}

// connect registers a connection and, if userID is non-empty, authenticates
// it through the relay's own authenticate event.
func (rig *testRig) connect(t *testing.T, userID string) (string, *fakeSender) {
	t.Helper()
	s := &fakeSender{}
	id := rig.relay.Registry().Register(s)
	if userID != "" {
		rig.send(t, id, map[string]any{"type": EventAuthenticate, "user_id": userID})
		last := lastFrame(t, s)
		if last["type"] != EventAuthenticated {
			t.Fatalf("authenticate ack: %v", last)
		}
		s.frames = nil
	}
	return id, s
}

func (rig *testRig) send(t *testing.T, connID string, payload map[string]any) {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	rig.relay.HandleFrame(context.Background(), connID, raw)
}

func lastFrame(t *testing.T, s *fakeSender) map[string]any {
	t.Helper()
	if len(s.frames) == 0 {
		t.Fatal("no frames delivered")
	}
	var out map[string]any
	if err := json.Unmarshal(s.frames[len(s.frames)-1], &out); err != nil {
		t.Fatalf("frame not JSON: %v", err)
	}
	return out
}

func frameTypes(t *testing.T, s *fakeSender) []string {
	t.Helper()
	var types []string
	for _, raw := range s.frames {
		var f struct {
			Type string `json:"type"`
		}
		if err := json.Unmarshal(raw, &f); err != nil {
			t.Fatalf("frame not JSON: %v", err)
		}
		types = append(types, f.Type)
	}
	return types
}

func TestAuthenticateUnknownUser(t *testing.T) {
	rig := newRig(t)
	connID, s := rig.connect(t, "")

	rig.send(t, connID, map[string]any{"type": EventAuthenticate, "user_id": "ghost"})
	if got := lastFrame(t, s); got["type"] != EventAuthError {
		t.Fatalf("got %v, want auth_error", got)
	}
	if c, _ := rig.relay.Registry().Get(connID); c.Authenticated {
		t.Fatal("connection authenticated after failed lookup")
	}
}

func TestUnauthenticatedEventsRejectedWithoutSideEffects(t *testing.T) {
	rig := newRig(t)
	connID, s := rig.connect(t, "")

	rig.send(t, connID, map[string]any{
		"type": EventEmergencyAlert, "alert_type": "panic", "location": "gate 2",
	})
	if got := lastFrame(t, s); got["type"] != EventError {
		t.Fatalf("got %v, want error frame", got)
	}
	alerts, err := rig.store.Alerts().ListBySociety(context.Background(), "soc-a")
	if err != nil {
		t.Fatalf("list alerts: %v", err)
	}
	if len(alerts) != 0 {
		t.Fatal("unauthenticated alert was persisted")
	}

	// Ping stays open to everyone.
	rig.send(t, connID, map[string]any{"type": EventPing})
	if got := lastFrame(t, s); got["type"] != EventPong {
		t.Fatalf("ping after rejection: %v", got)
	}
}

func TestMalformedFrameKeepsConnectionAlive(t *testing.T) {
	rig := newRig(t)
	rig.addUser(t, "guard-1", "soc-a", society.RoleGuard)
	connID, s := rig.connect(t, "guard-1")

	rig.relay.HandleFrame(context.Background(), connID, []byte("{not json"))
	if got := lastFrame(t, s); got["type"] != EventError {
		t.Fatalf("got %v, want error frame", got)
	}

	rig.send(t, connID, map[string]any{"type": EventPing})
	if got := lastFrame(t, s); got["type"] != EventPong {
		t.Fatalf("connection dead after malformed frame: %v", got)
	}
}

func TestUnknownEventTypeIgnored(t *testing.T) {
	rig := newRig(t)
	rig.addUser(t, "guard-1", "soc-a", society.RoleGuard)
	connID, s := rig.connect(t, "guard-1")

	rig.send(t, connID, map[string]any{"type": "teleport"})
	if len(s.frames) != 0 {
		t.Fatalf("unexpected reply to unknown type: %v", frameTypes(t, s))
	}
}

func TestVisitorStatusUpdatePersistsAndNotifiesGuards(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.addUser(t, "res-1", "soc-a", society.RoleResident)
	rig.addUser(t, "guard-1", "soc-a", society.RoleGuard)
	rig.addUser(t, "guard-b", "soc-b", society.RoleGuard)

	v := &society.Visitor{Name: "Visitor", Phone: "1", VisitorType: society.VisitorGuest, FlatID: "f1", SocietyID: "soc-a"}
	if err := rig.store.Visitors().Create(ctx, v); err != nil {
		t.Fatalf("create visitor: %v", err)
	}

	resConn, _ := rig.connect(t, "res-1")
	_, guardA := rig.connect(t, "guard-1")
	_, guardB := rig.connect(t, "guard-b")

	rig.send(t, resConn, map[string]any{
		"type": EventVisitorStatusUpdate, "visitor_id": v.ID, "status": "approved",
	})

	stored, err := rig.store.Visitors().Find(ctx, "soc-a", v.ID)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if stored.Status != society.VisitorApproved {
		t.Fatalf("status %q, want approved", stored.Status)
	}
	if stored.ApprovedBy != "res-1" || stored.CheckInTime == nil {
		t.Fatalf("approval side effects missing: %+v", stored)
	}

	if got := frameTypes(t, guardA); len(got) != 1 || got[0] != EventVisitorStatusUpdated {
		t.Fatalf("guard frames: %v", got)
	}
	// Tenant isolation: the other society's guard hears nothing.
	if len(guardB.frames) != 0 {
		t.Fatalf("cross-tenant delivery: %v", frameTypes(t, guardB))
	}

	audits, err := rig.store.Audit().ListBySociety(ctx, "soc-a", 10)
	if err != nil {
		t.Fatalf("audit list: %v", err)
	}
	if len(audits) != 1 || audits[0].Action != "visitor.status_update" {
		t.Fatalf("audit rows: %+v", audits)
	}
}

func TestVisitorStatusUpdateIllegalTransition(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.addUser(t, "guard-1", "soc-a", society.RoleGuard)

	v := &society.Visitor{Name: "V", Phone: "1", VisitorType: society.VisitorGuest, FlatID: "f1", SocietyID: "soc-a", Status: society.VisitorExited}
	if err := rig.store.Visitors().Create(ctx, v); err != nil {
		t.Fatalf("create: %v", err)
	}

	connID, s := rig.connect(t, "guard-1")
	rig.send(t, connID, map[string]any{
		"type": EventVisitorStatusUpdate, "visitor_id": v.ID, "status": "approved",
	})
	if got := lastFrame(t, s); got["type"] != EventError {
		t.Fatalf("got %v, want error frame", got)
	}

	stored, _ := rig.store.Visitors().Find(ctx, "soc-a", v.ID)
	if stored.Status != society.VisitorExited {
		t.Fatalf("status mutated to %q on rejected transition", stored.Status)
	}
	audits, _ := rig.store.Audit().ListBySociety(ctx, "soc-a", 10)
	if len(audits) != 0 {
		t.Fatal("audit row written for rejected transition")
	}
}

func TestEmergencyAlertFanOut(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.addUser(t, "res-1", "soc-a", society.RoleResident)
	rig.addUser(t, "res-2", "soc-a", society.RoleResident)
	rig.addUser(t, "guard-1", "soc-a", society.RoleGuard)
	rig.addUser(t, "admin-1", "soc-a", society.RoleAdmin)

	resConn, _ := rig.connect(t, "res-1")
	_, otherRes := rig.connect(t, "res-2")
	_, guard := rig.connect(t, "guard-1")
	_, admin := rig.connect(t, "admin-1")

	rig.send(t, resConn, map[string]any{
		"type": EventEmergencyAlert, "alert_type": "panic", "location": "block C",
	})

	alerts, err := rig.store.Alerts().ListBySociety(ctx, "soc-a")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("alerts %d, want 1", len(alerts))
	}
	if alerts[0].TriggeredBy != "res-1" || alerts[0].Status != society.AlertActive {
		t.Fatalf("alert row: %+v", alerts[0])
	}

	for name, s := range map[string]*fakeSender{"guard": guard, "admin": admin} {
		if got := frameTypes(t, s); len(got) != 1 || got[0] != EventEmergencyAlert {
			t.Fatalf("%s frames: %v", name, got)
		}
	}
	if len(otherRes.frames) != 0 {
		t.Fatalf("resident received emergency fan-out: %v", frameTypes(t, otherRes))
	}
}

func TestDirectMessageDelivery(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.addUser(t, "u1", "soc-a", society.RoleResident)
	rig.addUser(t, "u2", "soc-a", society.RoleResident)

	senderConn, senderFrames := rig.connect(t, "u1")
	_, receiver := rig.connect(t, "u2")

	rig.send(t, senderConn, map[string]any{
		"type": EventMessage, "receiver_id": "u2", "content": "hello",
	})

	got := lastFrame(t, receiver)
	if got["type"] != EventNewMessage {
		t.Fatalf("receiver frame: %v", got)
	}
	msg, ok := got["message"].(map[string]any)
	if !ok || msg["content"] != "hello" || msg["sender_id"] != "u1" {
		t.Fatalf("message body: %v", got["message"])
	}
	if len(senderFrames.frames) != 0 {
		t.Fatal("direct message echoed to sender")
	}

	rows, err := rig.store.Messages().ListBetween(ctx, "soc-a", "u1", "u2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("persisted messages %d, want 1", len(rows))
	}
}

func TestBroadcastMessageExcludesSender(t *testing.T) {
	rig := newRig(t)
	rig.addUser(t, "u1", "soc-a", society.RoleResident)
	rig.addUser(t, "u2", "soc-a", society.RoleResident)
	rig.addUser(t, "u3", "soc-a", society.RoleGuard)
	rig.addUser(t, "ub", "soc-b", society.RoleResident)

	senderConn, senderFrames := rig.connect(t, "u1")
	_, r2 := rig.connect(t, "u2")
	_, r3 := rig.connect(t, "u3")
	_, rb := rig.connect(t, "ub")

	rig.send(t, senderConn, map[string]any{"type": EventMessage, "content": "meeting at 6"})

	for name, s := range map[string]*fakeSender{"u2": r2, "u3": r3} {
		if got := frameTypes(t, s); len(got) != 1 || got[0] != EventNewMessage {
			t.Fatalf("%s frames: %v", name, got)
		}
	}
	if len(senderFrames.frames) != 0 {
		t.Fatal("broadcast echoed to sender")
	}
	if len(rb.frames) != 0 {
		t.Fatal("broadcast crossed society boundary")
	}
}

func TestVoiceCallRoundTrip(t *testing.T) {
	rig := newRig(t)
	rig.addUser(t, "caller", "soc-a", society.RoleResident)
	rig.addUser(t, "callee", "soc-a", society.RoleResident)

	callerConn, callerFrames := rig.connect(t, "caller")
	calleeConn, calleeFrames := rig.connect(t, "callee")

	rig.send(t, callerConn, map[string]any{
		"type": EventVoiceCallRequest, "receiver_id": "callee", "call_id": "call-1",
	})
	got := lastFrame(t, calleeFrames)
	if got["type"] != EventIncomingVoiceCall || got["caller_name"] != "User caller" {
		t.Fatalf("incoming call frame: %v", got)
	}

	rig.send(t, calleeConn, map[string]any{
		"type": EventVoiceCallResponse, "caller_id": "caller", "call_id": "call-1", "accepted": true,
	})
	got = lastFrame(t, callerFrames)
	if got["type"] != EventVoiceCallAnswered || got["accepted"] != true {
		t.Fatalf("answer frame: %v", got)
	}
}

func TestVisitorApprovalRequestRoutesToFlatResident(t *testing.T) {
	rig := newRig(t)
	ctx := context.Background()
	rig.addUser(t, "guard-1", "soc-a", society.RoleGuard)
	owner := rig.addUser(t, "owner-1", "soc-a", society.RoleResident)

	flat := &society.Flat{BuildingID: "b1", SocietyID: "soc-a", FlatNumber: "A-101", OwnerID: owner.ID}
	if err := rig.store.Flats().Create(ctx, flat); err != nil {
		t.Fatalf("create flat: %v", err)
	}
	v := &society.Visitor{Name: "V", Phone: "1", VisitorType: society.VisitorGuest, FlatID: flat.ID, SocietyID: "soc-a"}
	if err := rig.store.Visitors().Create(ctx, v); err != nil {
		t.Fatalf("create visitor: %v", err)
	}

	guardConn, _ := rig.connect(t, "guard-1")
	_, ownerFrames := rig.connect(t, "owner-1")

	rig.send(t, guardConn, map[string]any{
		"type": EventVisitorApprovalRequest, "visitor_id": v.ID,
	})

	got := lastFrame(t, ownerFrames)
	if got["type"] != EventVisitorApprovalRequest {
		t.Fatalf("owner frame: %v", got)
	}
	if _, ok := got["visitor"].(map[string]any); !ok {
		t.Fatalf("visitor not embedded: %v", got)
	}
	if _, ok := got["flat"].(map[string]any); !ok {
		t.Fatalf("flat not embedded: %v", got)
	}
}

func TestSlowConsumerDropsFrame(t *testing.T) {
	rig := newRig(t)
	rig.addUser(t, "u1", "soc-a", society.RoleResident)
	rig.addUser(t, "u2", "soc-a", society.RoleResident)

	senderConn, _ := rig.connect(t, "u1")

	// A receiver whose queue always refuses.
	stuck := &fakeSender{fail: true}
	id := rig.relay.Registry().Register(stuck)
	if err := rig.relay.Registry().Authenticate(id, &society.User{ID: "u2", SocietyID: "soc-a", Role: society.RoleResident}); err != nil {
		t.Fatalf("authenticate: %v", err)
	}

	// Must not block or error out the sender's handler.
	rig.send(t, senderConn, map[string]any{"type": EventMessage, "receiver_id": "u2", "content": "hi"})
	if len(stuck.frames) != 0 {
		t.Fatal("frame recorded despite full queue")
	}
}

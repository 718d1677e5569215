package relay

import (
	"testing"

	"gatesphere.dev/internal/society"
)

type fakeSender struct {
	frames [][]byte
	fail   bool
}

func (f *fakeSender) Send(data []byte) error {
	if f.fail {
		return ErrQueueFull
	}
	f.frames = append(f.frames, data)
	return nil
}

func TestRegistryLifecycle(t *testing.T) {
	r := NewRegistry()
	s := &fakeSender{}

	id := r.Register(s)
	if id == "" {
		t.Fatal("empty conn id")
	}
	c, ok := r.Get(id)
	if !ok || c.Authenticated {
		t.Fatalf("fresh connection: ok=%v authed=%v", ok, c.Authenticated)
	}

	user := &society.User{ID: "u1", SocietyID: "soc-a", Role: society.RoleGuard}
	if err := r.Authenticate(id, user); err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	c, _ = r.Get(id)
	if !c.Authenticated || c.UserID != "u1" || c.SocietyID != "soc-a" || c.Role != society.RoleGuard {
		t.Fatalf("snapshot after auth: %+v", c)
	}

	r.Unregister(id)
	r.Unregister(id) // idempotent
	if _, ok := r.Get(id); ok {
		t.Fatal("connection survived unregister")
	}
	if r.Len() != 0 {
		t.Fatalf("len %d, want 0", r.Len())
	}
}

func TestRegistryAuthenticateUnknownConn(t *testing.T) {
	r := NewRegistry()
	user := &society.User{ID: "u1", SocietyID: "soc-a", Role: society.RoleGuard}
	if err := r.Authenticate("missing", user); err == nil {
		t.Fatal("expected error for unknown connection")
	}
}

func TestRegistryLookupsScopeBySocietyAndAuth(t *testing.T) {
	r := NewRegistry()

	add := func(userID, societyID string, role society.Role) string {
		id := r.Register(&fakeSender{})
		if err := r.Authenticate(id, &society.User{ID: userID, SocietyID: societyID, Role: role}); err != nil {
			t.Fatalf("authenticate %s: %v", userID, err)
		}
		return id
	}
	add("guard-a", "soc-a", society.RoleGuard)
	add("admin-a", "soc-a", society.RoleAdmin)
	add("res-a", "soc-a", society.RoleResident)
	add("guard-b", "soc-b", society.RoleGuard)
	r.Register(&fakeSender{}) // never authenticated

	if got := r.ByUser("soc-a", "guard-a"); len(got) != 1 || got[0].UserID != "guard-a" {
		t.Fatalf("ByUser: %+v", got)
	}
	if got := r.ByUser("soc-b", "guard-a"); len(got) != 0 {
		t.Fatal("ByUser leaked across societies")
	}

	got := r.ByRole("soc-a", society.RoleAdmin, society.RoleGuard)
	if len(got) != 2 {
		t.Fatalf("ByRole returned %d, want 2", len(got))
	}
	for _, c := range got {
		if c.SocietyID != "soc-a" || c.Role == society.RoleResident {
			t.Fatalf("ByRole member: %+v", c)
		}
	}

	all := r.BySociety("soc-a", "")
	if len(all) != 3 {
		t.Fatalf("BySociety returned %d, want 3", len(all))
	}
	excl := r.BySociety("soc-a", "res-a")
	if len(excl) != 2 {
		t.Fatalf("BySociety with exclusion returned %d, want 2", len(excl))
	}
	for _, c := range excl {
		if c.UserID == "res-a" {
			t.Fatal("excluded user still present")
		}
	}
}

func TestRegistrySameUserTwoConnections(t *testing.T) {
	r := NewRegistry()
	user := &society.User{ID: "u1", SocietyID: "soc-a", Role: society.RoleResident}
	for i := 0; i < 2; i++ {
		id := r.Register(&fakeSender{})
		if err := r.Authenticate(id, user); err != nil {
			t.Fatalf("authenticate: %v", err)
		}
	}
	if got := r.ByUser("soc-a", "u1"); len(got) != 2 {
		t.Fatalf("ByUser returned %d, want 2", len(got))
	}
}

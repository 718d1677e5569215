package obs

import "testing"

func TestCanonicalPath(t *testing.T) {
	cases := map[string]string{
		"":                               "/",
		"/metrics":                       "/metrics",
		"/api/visitors":                  "/api/visitors",
		"/api/visitors/abc":              "/api/visitors/:id",
		"/api/visitors/export":           "/api/visitors/export",
		"/api/staff/abc/attendance":      "/api/staff/:id/attendance",
		"/api/messages/u42":              "/api/messages/:id",
		"/api/security/alert/a1":         "/api/security/alert/:id",
		"/api/complaints?status=open":    "/api/complaints",
		"/api/complaints/c9?foo=bar":     "/api/complaints/:id",
		"/ws":                            "/ws",
	}
	for input, expected := range cases {
		if got := CanonicalPath(input); got != expected {
			t.Fatalf("CanonicalPath(%q)=%q, want %q", input, got, expected)
		}
	}
}

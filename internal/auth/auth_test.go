package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"gatesphere.dev/internal/society"
)

func setSecret(t *testing.T) {
	t.Helper()
	t.Setenv(secretEnvVariable, "test-secret")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)
}

func TestGenerateAndParse(t *testing.T) {
	setSecret(t)

	token, err := GenerateToken("user-1", society.RoleResident, "soc-a", time.Hour)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	claims, err := ParseAndValidate(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.Subject != "user-1" {
		t.Fatalf("subject %q", claims.Subject)
	}
	if claims.Role != society.RoleResident {
		t.Fatalf("role %q", claims.Role)
	}
	if claims.SocietyID != "soc-a" {
		t.Fatalf("society %q", claims.SocietyID)
	}
}

func TestParseRejectsGarbage(t *testing.T) {
	setSecret(t)
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := ParseAndValidate(tok); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("token %q: got %v, want ErrInvalidToken", tok, err)
		}
	}
}

func TestParseRejectsExpired(t *testing.T) {
	setSecret(t)
	token, err := GenerateToken("user-1", society.RoleGuard, "soc-a", time.Millisecond)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := ParseAndValidate(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expired token: got %v, want ErrInvalidToken", err)
	}
}

func TestGenerateRequiresSecret(t *testing.T) {
	t.Setenv(secretEnvVariable, "")
	ResetSecretForTests()
	t.Cleanup(ResetSecretForTests)
	if _, err := GenerateToken("user-1", society.RoleAdmin, "", time.Hour); err == nil {
		t.Fatal("expected error without secret")
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := ContextWithUser(context.Background(), "user-1", society.RoleGuard, "soc-a")

	if id, ok := UserIDFromContext(ctx); !ok || id != "user-1" {
		t.Fatalf("user id %q ok=%v", id, ok)
	}
	if role, ok := RoleFromContext(ctx); !ok || role != society.RoleGuard {
		t.Fatalf("role %q ok=%v", role, ok)
	}
	if sid, ok := SocietyIDFromContext(ctx); !ok || sid != "soc-a" {
		t.Fatalf("society %q ok=%v", sid, ok)
	}
	if !HasRole(ctx, society.RoleGuard) || HasRole(ctx, society.RoleAdmin) {
		t.Fatal("HasRole mismatch")
	}
	if _, ok := UserIDFromContext(context.Background()); ok {
		t.Fatal("empty context should have no user")
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	if err := VerifyPassword(hash, "s3cret"); err != nil {
		t.Fatalf("verify: %v", err)
	}
	if err := VerifyPassword(hash, "wrong"); err == nil {
		t.Fatal("wrong password accepted")
	}
}

func TestOTPIssueAndVerify(t *testing.T) {
	t.Setenv(otpEnvDemo, "999000")
	o := NewOTPIssuer()

	code, err := o.Issue("9000000001")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if code != "999000" {
		t.Fatalf("demo code %q", code)
	}
	if err := o.Verify("9000000001", "111111"); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("wrong code: got %v", err)
	}
	if err := o.Verify("9000000001", code); err != nil {
		t.Fatalf("verify: %v", err)
	}
	// Single use.
	if err := o.Verify("9000000001", code); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("reuse: got %v", err)
	}
}

func TestOTPExpiry(t *testing.T) {
	t.Setenv(otpEnvDemo, "999000")
	o := NewOTPIssuer()
	code, err := o.Issue("9000000002")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	o.now = func() time.Time { return time.Now().Add(otpTTL + time.Minute) }
	if err := o.Verify("9000000002", code); !errors.Is(err, ErrOTPMismatch) {
		t.Fatalf("expired code: got %v", err)
	}
}

package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-unit-tests"

func TestIssueAndVerify(t *testing.T) {
	tok, err := Issue(testSecret, "legacy", "alice@example.com", "alice@example.com", time.Now(), time.Hour)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}

	claims, err := Verify(testSecret, "legacy", tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "alice@example.com" {
		t.Errorf("Subject = %q, want alice@example.com", claims.Subject)
	}
	if claims.ExpiresAt == nil {
		t.Error("ExpiresAt should be set for a positive ttl")
	}
}

func TestIssueNoExpiry(t *testing.T) {
	tok, err := Issue(testSecret, "legacy", "alice", "", time.Now(), 0)
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	claims, err := Verify(testSecret, "legacy", tok)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.ExpiresAt != nil {
		t.Errorf("ExpiresAt = %v, want none", claims.ExpiresAt)
	}
}

func TestIssueRejectsEmpty(t *testing.T) {
	if _, err := Issue("", "legacy", "alice", "", time.Now(), 0); err == nil {
		t.Error("expected error for empty secret")
	}
	if _, err := Issue(testSecret, "legacy", "", "", time.Now(), 0); err == nil {
		t.Error("expected error for empty principal")
	}
}

func TestVerifyRejects(t *testing.T) {
	good, _ := Issue(testSecret, "legacy", "alice", "", time.Now(), time.Hour)
	expired, _ := Issue(testSecret, "legacy", "alice", "", time.Now().Add(-2*time.Hour), time.Hour)
	otherIssuer, _ := Issue(testSecret, "someone-else", "alice", "", time.Now(), time.Hour)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "alice", Issuer: "legacy"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign none token: %v", err)
	}

	tests := []struct {
		name   string
		secret string
		token  string
	}{
		{"wrong secret", "other-secret", good},
		{"expired", testSecret, expired},
		{"wrong issuer", testSecret, otherIssuer},
		{"alg none", testSecret, none},
		{"garbage", testSecret, "not.a.token"},
		{"empty", testSecret, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Verify(tt.secret, "legacy", tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("err = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc.def", "abc.def", true},
		{"Bearer ", "", false},
		{"Basic dXNlcg==", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := BearerToken(tt.header)
		if got != tt.want || ok != tt.ok {
			t.Errorf("BearerToken(%q) = %q, %v; want %q, %v", tt.header, got, ok, tt.want, tt.ok)
		}
	}
}

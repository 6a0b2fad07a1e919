package auth

import (
	"testing"
	"time"
)

func newTestService(t *testing.T, opts ...TokenOption) *TokenService {
	t.Helper()
	svc, err := NewTokenService("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour, opts...)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return svc
}

func testClaims() Claims {
	return Claims{
		UserID:       "user-42",
		Email:        "user@gcghub.id",
		Role:         RoleUser,
		DirektoratID: "D1",
	}
}

func TestAccessTokenRoundTrip(t *testing.T) {
	svc := newTestService(t)

	token, err := svc.IssueAccessToken(testClaims())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	claims, err := svc.VerifyAccessToken(token)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}
	if claims.UserID != "user-42" {
		t.Fatalf("unexpected userId: %s", claims.UserID)
	}
	if claims.Email != "user@gcghub.id" {
		t.Fatalf("unexpected email: %s", claims.Email)
	}
	if claims.Role != RoleUser {
		t.Fatalf("unexpected role: %s", claims.Role)
	}
	if claims.DirektoratID != "D1" {
		t.Fatalf("unexpected direktorat: %s", claims.DirektoratID)
	}
	if claims.Issuer != Issuer {
		t.Fatalf("unexpected issuer: %s", claims.Issuer)
	}
}

func TestSecretKindIsolation(t *testing.T) {
	svc := newTestService(t)

	access, err := svc.IssueAccessToken(testClaims())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}
	refresh, err := svc.IssueRefreshToken(testClaims())
	if err != nil {
		t.Fatalf("IssueRefreshToken: %v", err)
	}

	if _, err := svc.VerifyAccessToken(refresh); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for refresh token on access verify, got %v", err)
	}
	if _, err := svc.VerifyRefreshToken(access); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for access token on refresh verify, got %v", err)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	now := time.Now().UTC()
	clock := now
	svc := newTestService(t, WithClock(func() time.Time { return clock }))

	token, err := svc.IssueAccessToken(testClaims())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	clock = now.Add(16 * time.Minute)
	if _, err := svc.VerifyAccessToken(token); err != ErrInvalidToken {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
	if !svc.IsExpired(token) {
		t.Fatal("expected IsExpired true for expired token")
	}

	clock = now
	if svc.IsExpired(token) {
		t.Fatal("expected IsExpired false within validity window")
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	svc := newTestService(t)
	for _, token := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := svc.VerifyAccessToken(token); err != ErrInvalidToken {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestIsExpiredOnUndecodable(t *testing.T) {
	svc := newTestService(t)
	if !svc.IsExpired("garbage") {
		t.Fatal("expected undecodable token to count as expired")
	}
}

func TestDecodeWithoutVerification(t *testing.T) {
	svc := newTestService(t)
	token, err := svc.IssueAccessToken(testClaims())
	if err != nil {
		t.Fatalf("IssueAccessToken: %v", err)
	}

	claims := svc.Decode(token)
	if claims == nil || claims.UserID != "user-42" {
		t.Fatalf("Decode lost claims: %+v", claims)
	}
	if svc.Decode("garbage") != nil {
		t.Fatal("expected nil for undecodable token")
	}
}

func TestIssueTokenPairExpiresIn(t *testing.T) {
	svc := newTestService(t)
	pair, err := svc.IssueTokenPair(testClaims())
	if err != nil {
		t.Fatalf("IssueTokenPair: %v", err)
	}
	if pair.AccessToken == "" || pair.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if pair.ExpiresIn != 15*60 {
		t.Fatalf("expected 900 second lifetime, got %d", pair.ExpiresIn)
	}
}

func TestNewTokenServiceRejectsSharedSecret(t *testing.T) {
	if _, err := NewTokenService("same", "same", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for identical secrets")
	}
	if _, err := NewTokenService("", "refresh", time.Minute, time.Hour); err == nil {
		t.Fatal("expected error for empty access secret")
	}
}

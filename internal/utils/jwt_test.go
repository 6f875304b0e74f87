package utils

import (
	"strings"
	"testing"
	"time"
)

const (
	testSecret        = "test-access-secret"
	testRefreshSecret = "test-refresh-secret"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, "jane@example.com", "user", 30)
	if err != nil {
		t.Fatal(err)
	}
	if tok.Token == "" {
		t.Fatal("empty token")
	}

	claims, err := ParseAccessToken(testSecret, tok.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 42 {
		t.Errorf("got user id %d, want 42", claims.UserID)
	}
	if claims.Email != "jane@example.com" {
		t.Errorf("got email %q, want jane@example.com", claims.Email)
	}
	if claims.Role != "user" {
		t.Errorf("got role %q, want user", claims.Role)
	}
	if claims.Kind != KindAccess {
		t.Errorf("got kind %q, want %q", claims.Kind, KindAccess)
	}
}

func TestParseRejectsWrongKind(t *testing.T) {
	// A refresh token signed with the access secret must still be
	// rejected by ParseAccessToken on its kind claim.
	refresh, err := newToken(testSecret, 42, "jane@example.com", "user", KindRefresh, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ParseAccessToken(testSecret, refresh.Token)
	if err != ErrTokenInvalid {
		t.Errorf("got err %v, want ErrTokenInvalid", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, "jane@example.com", "user", 30)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ParseAccessToken("other-secret", tok.Token)
	if err != ErrTokenInvalid {
		t.Errorf("got err %v, want ErrTokenInvalid", err)
	}
}

func TestParseRejectsTamperedToken(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 42, "jane@example.com", "user", 30)
	if err != nil {
		t.Fatal(err)
	}
	parts := strings.Split(tok.Token, ".")
	if len(parts) != 3 {
		t.Fatal("unexpected token shape")
	}
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]
	_, err = ParseAccessToken(testSecret, tampered)
	if err != ErrTokenInvalid {
		t.Errorf("got err %v, want ErrTokenInvalid", err)
	}
}

func TestParseReportsExpiry(t *testing.T) {
	expired, err := newToken(testSecret, 42, "jane@example.com", "user", KindAccess, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	_, err = ParseAccessToken(testSecret, expired.Token)
	if err != ErrTokenExpired {
		t.Errorf("got err %v, want ErrTokenExpired", err)
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	tok, err := NewRefreshToken(testRefreshSecret, 7, "joe@example.com", "admin", 7)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := ParseRefreshToken(testRefreshSecret, tok.Token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.Kind != KindRefresh {
		t.Errorf("got kind %q, want %q", claims.Kind, KindRefresh)
	}

	// The refresh token must never verify as an access token.
	if _, err := ParseAccessToken(testRefreshSecret, tok.Token); err == nil {
		t.Error("refresh token accepted as access token")
	}
}

func TestDecodeExpiry(t *testing.T) {
	tok, err := NewAccessToken(testSecret, 9, "a@b.c", "user", 30)
	if err != nil {
		t.Fatal(err)
	}
	uid, exp, ok := DecodeExpiry(tok.Token)
	if !ok {
		t.Fatal("decode failed")
	}
	if uid != 9 {
		t.Errorf("got uid %d, want 9", uid)
	}
	// jwt truncates NumericDate to seconds.
	if got, want := exp.Unix(), tok.Exp.Unix(); got != want {
		t.Errorf("got exp %d, want %d", got, want)
	}

	// An expired token still decodes; logout depends on this.
	expired, err := newToken(testSecret, 9, "a@b.c", "user", KindAccess, -time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, ok := DecodeExpiry(expired.Token); !ok {
		t.Error("expired token did not decode")
	}

	if _, _, ok := DecodeExpiry("not-a-jwt"); ok {
		t.Error("garbage decoded")
	}
}

func TestHashToken(t *testing.T) {
	h := HashToken("abc")
	if len(h) != 64 {
		t.Fatalf("got digest length %d, want 64", len(h))
	}
	if h != HashToken("abc") {
		t.Error("digest not deterministic")
	}
	if h == HashToken("abd") {
		t.Error("distinct inputs produced equal digests")
	}
}

func TestRandomHex(t *testing.T) {
	a, err := RandomHex(32)
	if err != nil {
		t.Fatal(err)
	}
	if len(a) != 64 {
		t.Fatalf("got length %d, want 64", len(a))
	}
	b, err := RandomHex(32)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Error("two random tokens are equal")
	}
}

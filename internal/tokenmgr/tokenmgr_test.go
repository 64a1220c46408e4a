package tokenmgr

import (
	"context"
	"strconv"
	"testing"
	"time"
)

func TestGetValidTokenReturnsCachedTokenWithoutReauthorizing(t *testing.T) {
	store := NewMemoryStore()
	store.Set(keyAccessToken, "cached-token")
	store.Set(keyTokenExpiresAt, strconv.FormatInt(time.Now().Add(time.Hour).Unix(), 10))

	m := New(store, Config{})

	tok, err := m.GetValidToken(context.Background())
	if err != nil {
		t.Fatalf("GetValidToken() error = %v", err)
	}
	if tok != "cached-token" {
		t.Errorf("GetValidToken() = %q, want cached-token", tok)
	}
}

func TestLoadAccessTokenMissingExpiry(t *testing.T) {
	store := NewMemoryStore()
	store.Set(keyAccessToken, "tok")

	m := New(store, Config{})
	if _, _, ok := m.loadAccessToken(); ok {
		t.Error("expected loadAccessToken to report not-ok when expiry key absent")
	}
}

func TestLoadRefreshTokenRoundTrip(t *testing.T) {
	store := NewMemoryStore()
	expiresAt := time.Now().Add(defaultRefreshTokenLifetime)
	store.Set(keyRefreshToken, "refresh-tok")
	store.Set(keyRefreshTokenExpires, strconv.FormatInt(expiresAt.Unix(), 10))

	m := New(store, Config{})
	tok, got, ok := m.loadRefreshToken()
	if !ok {
		t.Fatal("expected loadRefreshToken to report ok")
	}
	if tok != "refresh-tok" {
		t.Errorf("token = %q, want refresh-tok", tok)
	}
	if got.Unix() != expiresAt.Unix() {
		t.Errorf("expiry = %v, want %v", got, expiresAt)
	}
}

func TestMemoryStoreGetMissingKey(t *testing.T) {
	store := NewMemoryStore()
	if _, ok := store.Get("nope"); ok {
		t.Error("expected Get on missing key to report not-ok")
	}
}

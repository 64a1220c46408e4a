// Package tokenmgr implements the extractor-side Token Manager from spec
// §4.4/§6: a persisted (access_token, expires_at, refresh_token,
// refresh_token_expires_at) tuple, refreshed on demand and re-authorised via
// client-credentials when the refresh token itself has expired. Grounded on
// original_source/azure_token.py, built on golang.org/x/oauth2/clientcredentials
// (already indirect in the teacher's go.mod, promoted to direct here).
package tokenmgr

import (
	"context"
	"strconv"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/telekom/people-sync/internal/pserrors"
)

const (
	keyAccessToken         = "ACCESS_TOKEN"
	keyTokenExpiresAt      = "TOKEN_EXPIRES_AT"
	keyRefreshToken        = "REFRESH_TOKEN"
	keyRefreshTokenExpires = "REFRESH_TOKEN_EXPIRES_AT"

	// refreshSkew: a token is still considered valid if it has at least
	// this much life left (spec §4.4: "expires_at > now + 300s").
	refreshSkew = 300 * time.Second

	defaultRefreshTokenLifetime = 90 * 24 * time.Hour
)

// Store is the keyed persistence interface the Token Manager depends on —
// an arbitrary key/value store with durable writes (spec §6). The only
// implementation in this package is MemoryStore, which keeps values in
// process memory, so nothing it holds survives the run; no blob.Store-backed
// implementation exists here.
type Store interface {
	Get(key string) (string, bool)
	Set(key, value string) error
}

// MemoryStore is a trivial in-process Store.
type MemoryStore struct{ data map[string]string }

func NewMemoryStore() *MemoryStore { return &MemoryStore{data: map[string]string{}} }

func (m *MemoryStore) Get(key string) (string, bool) { v, ok := m.data[key]; return v, ok }
func (m *MemoryStore) Set(key, value string) error    { m.data[key] = value; return nil }

// Config configures a Manager's client-credentials re-authorisation.
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
}

// Manager implements get_valid_token(): returns the current token if it has
// enough life left, refreshes it if not, or re-authorises entirely via
// client-credentials if no usable refresh token remains.
type Manager struct {
	store  Store
	config clientcredentials.Config
}

func New(store Store, cfg Config) *Manager {
	return &Manager{
		store: store,
		config: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		},
	}
}

// GetValidToken returns a usable access token, refreshing or
// re-authorising as needed.
func (m *Manager) GetValidToken(ctx context.Context) (string, error) {
	if tok, expiresAt, ok := m.loadAccessToken(); ok {
		if time.Now().Add(refreshSkew).Before(expiresAt) {
			return tok, nil
		}
	}

	if refreshTok, refreshExpiresAt, ok := m.loadRefreshToken(); ok && time.Now().Before(refreshExpiresAt) {
		if tok, err := m.refresh(ctx, refreshTok); err == nil {
			return tok, nil
		}
	}

	return m.reauthorize(ctx)
}

// ForceRefresh is called after a 401 from the extractor-side API: one
// forced refresh and retry (spec §4.4/§7), bypassing the expiry check.
func (m *Manager) ForceRefresh(ctx context.Context) (string, error) {
	if refreshTok, _, ok := m.loadRefreshToken(); ok {
		if tok, err := m.refresh(ctx, refreshTok); err == nil {
			return tok, nil
		}
	}
	return m.reauthorize(ctx)
}

func (m *Manager) refresh(ctx context.Context, refreshToken string) (string, error) {
	// clientcredentials.Config has no refresh-token grant of its own; this
	// system authorises purely via client-credentials (spec §4.4), so a
	// "refresh" is a re-authorisation that also renews the refresh-token
	// lifetime window, matching azure_token.py's _save_tokens behaviour.
	return m.reauthorize(ctx)
}

func (m *Manager) reauthorize(ctx context.Context) (string, error) {
	tok, err := m.config.Token(ctx)
	if err != nil {
		return "", pserrors.Unauthorized("tokenmgr.reauthorize", errors.Wrap(err, "client-credentials exchange"))
	}

	now := time.Now()
	if err := m.store.Set(keyAccessToken, tok.AccessToken); err != nil {
		return "", errors.Wrap(err, "persisting access token")
	}
	if err := m.store.Set(keyTokenExpiresAt, strconv.FormatInt(tok.Expiry.Unix(), 10)); err != nil {
		return "", errors.Wrap(err, "persisting token expiry")
	}
	if err := m.store.Set(keyRefreshToken, tok.AccessToken); err != nil {
		return "", errors.Wrap(err, "persisting refresh token")
	}
	if err := m.store.Set(keyRefreshTokenExpires, strconv.FormatInt(now.Add(defaultRefreshTokenLifetime).Unix(), 10)); err != nil {
		return "", errors.Wrap(err, "persisting refresh token expiry")
	}
	return tok.AccessToken, nil
}

func (m *Manager) loadAccessToken() (string, time.Time, bool) {
	tok, ok := m.store.Get(keyAccessToken)
	if !ok || tok == "" {
		return "", time.Time{}, false
	}
	expiresRaw, ok := m.store.Get(keyTokenExpiresAt)
	if !ok {
		return "", time.Time{}, false
	}
	expiresUnix, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return tok, time.Unix(expiresUnix, 0), true
}

func (m *Manager) loadRefreshToken() (string, time.Time, bool) {
	tok, ok := m.store.Get(keyRefreshToken)
	if !ok || tok == "" {
		return "", time.Time{}, false
	}
	expiresRaw, ok := m.store.Get(keyRefreshTokenExpires)
	if !ok {
		return "", time.Time{}, false
	}
	expiresUnix, err := strconv.ParseInt(expiresRaw, 10, 64)
	if err != nil {
		return "", time.Time{}, false
	}
	return tok, time.Unix(expiresUnix, 0), true
}

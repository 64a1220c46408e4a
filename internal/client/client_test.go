package client

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := New(Config{Domain: srv.URL, APIKey: "tok"})
	if err != nil {
		t.Fatal(err)
	}
	return c
}

func TestListUsers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/users" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer tok" {
			t.Errorf("missing bearer auth header")
		}
		_ = json.NewEncoder(w).Encode([]User{{UserID: 1, Email: "a@x.com"}})
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	users, err := c.ListUsers(t.Context())
	if err != nil {
		t.Fatal(err)
	}
	if len(users) != 1 || users[0].Email != "a@x.com" {
		t.Errorf("unexpected users: %+v", users)
	}
}

func TestGetUserSettingsDictShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"1":[{"name":"additional_email","value":"x@y.com"}],"2":[{"name":"additional_email","value":"z@y.com"}]}`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	m, err := c.GetUserSettings(t.Context(), []int{1, 2}, "additional_email")
	if err != nil {
		t.Fatal(err)
	}
	if m[1] != "x@y.com" || m[2] != "z@y.com" {
		t.Errorf("unexpected map: %+v", m)
	}
}

func TestGetUserSettingsFlatShape(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"userId":1,"name":"external_id","value":"E1"},{"userId":2,"name":"external_id","value":"E2"}]`))
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	m, err := c.GetUserSettings(t.Context(), []int{1, 2}, "external_id")
	if err != nil {
		t.Fatal(err)
	}
	if m[1] != "E1" || m[2] != "E2" {
		t.Errorf("unexpected map: %+v", m)
	}
}

func TestRateLimitedExhaustsToError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	c.limiter.SetLimit(1e9) // don't let the courtesy limiter slow the test down
	_, err := c.ListUsers(t.Context())
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
}

func TestUnauthorizedSurfacesImmediately(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(t, srv)
	_, err := c.ListUsers(t.Context())
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Errorf("expected exactly one call, got %d", calls)
	}
}

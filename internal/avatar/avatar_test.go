package avatar

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/starford/raido/internal/apperr"
)

func newPlatform(t *testing.T, avatar string, profileStatus int) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/api/machine/profile/", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer secret" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		if profileStatus != http.StatusOK {
			w.WriteHeader(profileStatus)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"info":{"avatar":"` + avatar + `"}}`))
	})
	mux.HandleFunc("/storage/avatars/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("PNGDATA"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func client(srv *httptest.Server, token string) *Client {
	return New(Config{BaseURL: srv.URL + "/api", StorageURL: srv.URL + "/storage", Token: token})
}

func TestFetch(t *testing.T) {
	srv := newPlatform(t, "/avatars/abc123.png", http.StatusOK)
	data, err := client(srv, "secret").Fetch(context.Background(), "puppy")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if string(data) != "PNGDATA" {
		t.Errorf("data = %q", data)
	}
}

func TestFetch_OversizedImage(t *testing.T) {
	srv := newPlatform(t, "/avatars/abc123.png", http.StatusOK)
	c := client(srv, "secret")

	c.maxBytes = int64(len("PNGDATA"))
	if _, err := c.Fetch(context.Background(), "puppy"); err != nil {
		t.Fatalf("image at the limit: %v", err)
	}
	c.maxBytes = 4
	data, err := c.Fetch(context.Background(), "puppy")
	if !errors.Is(err, apperr.ErrExternalFetch) {
		t.Fatalf("err = %v, want ErrExternalFetch", err)
	}
	if data != nil {
		t.Errorf("truncated data returned: %q", data)
	}
}

func TestFetch_Degrades(t *testing.T) {
	cases := []struct {
		name   string
		avatar string
		status int
		token  string
		key    string
	}{
		{"bad key", "/avatars/a.png", http.StatusOK, "secret", "../etc"},
		{"unauthorized", "/avatars/a.png", http.StatusOK, "wrong", "puppy"},
		{"server error", "/avatars/a.png", http.StatusInternalServerError, "secret", "puppy"},
		{"unsafe avatar", "http://evil/x.png", http.StatusOK, "secret", "puppy"},
		{"missing image", "/missing/a.png", http.StatusOK, "secret", "puppy"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv := newPlatform(t, tc.avatar, tc.status)
			_, err := client(srv, tc.token).Fetch(context.Background(), tc.key)
			if !errors.Is(err, apperr.ErrExternalFetch) {
				t.Fatalf("err = %v, want ErrExternalFetch", err)
			}
		})
	}
}

func TestConfigEnabled(t *testing.T) {
	if (Config{BaseURL: "x", StorageURL: "y"}).Enabled() {
		t.Error("config without token should be disabled")
	}
}

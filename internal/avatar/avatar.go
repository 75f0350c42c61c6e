// Package avatar looks up a machine's avatar on the lab platform API and
// downloads the image bytes.
package avatar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"time"

	"github.com/starford/raido/internal/apperr"
)

const maxImageBytes = 10 << 20

var (
	validKey    = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
	validAvatar = regexp.MustCompile(`^/[a-zA-Z0-9/_\-.]+$`)
)

// Config holds the platform endpoints.
type Config struct {
	BaseURL    string        `yaml:"base_url"`
	StorageURL string        `yaml:"storage_url"`
	Token      string        `yaml:"token"`
	Timeout    time.Duration `yaml:"timeout"`
}

// Enabled reports whether lookups can be attempted at all.
func (c Config) Enabled() bool { return c.BaseURL != "" && c.StorageURL != "" && c.Token != "" }

// Client fetches avatars over HTTP.
type Client struct {
	client   *http.Client
	cfg      Config
	maxBytes int64
}

// New creates a client. A zero timeout means 30s.
func New(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{client: &http.Client{Timeout: cfg.Timeout}, cfg: cfg, maxBytes: maxImageBytes}
}

type profile struct {
	Info struct {
		Avatar string `json:"avatar"`
	} `json:"info"`
}

// AvatarPath returns the storage path of key's avatar. Every failure wraps
// apperr.ErrExternalFetch.
func (c *Client) AvatarPath(ctx context.Context, key string) (string, error) {
	if !validKey.MatchString(key) {
		return "", fmt.Errorf("avatar: invalid machine name %q: %w", key, apperr.ErrExternalFetch)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+"/machine/profile/"+key, nil)
	if err != nil {
		return "", fmt.Errorf("avatar: create request: %w", apperr.ErrExternalFetch)
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json, text/plain, */*")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("avatar: fetch profile %s: %v: %w", key, err, apperr.ErrExternalFetch)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return "", fmt.Errorf("avatar: profile %s: status %d: %w", key, resp.StatusCode, apperr.ErrExternalFetch)
	}

	var p profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return "", fmt.Errorf("avatar: decode profile %s: %v: %w", key, err, apperr.ErrExternalFetch)
	}
	if !validAvatar.MatchString(p.Info.Avatar) {
		return "", fmt.Errorf("avatar: unusable avatar path %q: %w", p.Info.Avatar, apperr.ErrExternalFetch)
	}
	return p.Info.Avatar, nil
}

// Fetch resolves and downloads key's avatar.
func (c *Client) Fetch(ctx context.Context, key string) ([]byte, error) {
	path, err := c.AvatarPath(ctx, key)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.StorageURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("avatar: create download request: %w", apperr.ErrExternalFetch)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("avatar: download %s: %v: %w", path, err, apperr.ErrExternalFetch)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		return nil, fmt.Errorf("avatar: download %s: status %d: %w", path, resp.StatusCode, apperr.ErrExternalFetch)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("avatar: read %s: %v: %w", path, err, apperr.ErrExternalFetch)
	}
	if int64(len(data)) > c.maxBytes {
		return nil, fmt.Errorf("avatar: image %s exceeds %d bytes: %w", path, c.maxBytes, apperr.ErrExternalFetch)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("avatar: empty image %s: %w", path, apperr.ErrExternalFetch)
	}
	return data, nil
}

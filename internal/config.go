package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/raido/internal/avatar"
	"github.com/starford/raido/internal/catalog"
	"github.com/starford/raido/internal/registry"
	"github.com/starford/raido/internal/session"
	"github.com/starford/raido/internal/view"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Site     SiteConfig        `yaml:"site"`
	Views    []view.Spec       `yaml:"views"`
	Tags     catalog.TagsSpec  `yaml:"tags"`
	Registry registry.Spec     `yaml:"registry"`
	Defaults DefaultsConfig    `yaml:"defaults"`
	Avatar   avatar.Config     `yaml:"avatar"`
	SQLite   SQLiteConfig      `yaml:"sqlite"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := validateViews(c.Views); err != nil {
		return err
	}
	if err := validation.ValidateStruct(&c.Tags,
		validation.Field(&c.Tags.File, validation.Required),
		validation.Field(&c.Tags.PostsArray, validation.Required),
	); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	if err := c.Defaults.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

func validateViews(views []view.Spec) error {
	if len(views) == 0 {
		return errors.New("views: at least one view is required")
	}
	canonical := 0
	for i := range views {
		v := &views[i]
		if err := validation.ValidateStruct(v,
			validation.Field(&v.Name, validation.Required),
			validation.Field(&v.File, validation.Required),
			validation.Field(&v.Array, validation.Required),
			validation.Field(&v.Fields, validation.Required),
		); err != nil {
			return fmt.Errorf("views[%d]: %w", i, err)
		}
		if v.Canonical {
			canonical++
		}
	}
	if canonical != 1 {
		return fmt.Errorf("views: exactly one canonical view is required, found %d", canonical)
	}
	return nil
}

// Layout resolves the site description against the pages directory.
func (c *Config) Layout() catalog.Layout {
	return catalog.Resolve(c.Site.PagesDir, c.Views, c.Tags, c.Registry, c.Site.WriteupsDir, c.Site.TemplatesDir)
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel   slog.Level `yaml:"log_level"`
	LogFile    string     `yaml:"log_file"`
	MaxSizeMB  int        `yaml:"max_size_mb"`
	MaxBackups int        `yaml:"max_backups"`
	HTTP       HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MaxSizeMB, validation.Min(0)),
		validation.Field(&c.MaxBackups, validation.Min(0)),
	); err != nil {
		return err
	}
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// SiteConfig locates the React site. Every directory except Root is
// relative to Root.
type SiteConfig struct {
	Root         string `yaml:"root"`
	PagesDir     string `yaml:"pages_dir"`
	WriteupsDir  string `yaml:"writeups_dir"`
	ImagesDir    string `yaml:"images_dir"`
	ImagesURL    string `yaml:"images_url"`
	TemplatesDir string `yaml:"templates_dir"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	relative := validation.By(func(v any) error {
		if s, _ := v.(string); filepath.IsAbs(s) {
			return errors.New("must be relative to the site root")
		}
		return nil
	})
	return validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.PagesDir, validation.Required, relative),
		validation.Field(&c.WriteupsDir, validation.Required, relative),
		validation.Field(&c.ImagesDir, validation.Required, relative),
		validation.Field(&c.ImagesURL, validation.Required),
		validation.Field(&c.TemplatesDir, relative),
	)
}

// DefaultsConfig holds the values substituted for missing operator input.
type DefaultsConfig struct {
	Difficulty    string   `yaml:"difficulty"`
	Difficulties  []string `yaml:"difficulties"`
	OS            string   `yaml:"os"`
	OSes          []string `yaml:"oses"`
	IPAddress     string   `yaml:"ip_address"`
	Category      string   `yaml:"category"`
	DateFormat    string   `yaml:"date_format"`
	ExcerptSuffix string   `yaml:"excerpt_suffix"`
}

// Validate validates the defaults.
func (c *DefaultsConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Difficulties, validation.Required),
		validation.Field(&c.Difficulty, validation.Required, validation.In(toAny(c.Difficulties)...)),
		validation.Field(&c.OSes, validation.Required),
		validation.Field(&c.OS, validation.Required, validation.In(toAny(c.OSes)...)),
		validation.Field(&c.Category, validation.Required),
		validation.Field(&c.DateFormat, validation.Required),
	)
}

// Session converts the defaults for the interactive sessions.
func (c *DefaultsConfig) Session() session.Defaults {
	return session.Defaults{
		Difficulty:    c.Difficulty,
		Difficulties:  c.Difficulties,
		OS:            c.OS,
		OSes:          c.OSes,
		IPAddress:     c.IPAddress,
		Category:      c.Category,
		ExcerptSuffix: c.ExcerptSuffix,
	}
}

func toAny(s []string) []any {
	out := make([]any, len(s))
	for i, v := range s {
		out[i] = v
	}
	return out
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration for the HTTP API.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig describes the portfolio site layout rooted at the
// working directory.
func NewDefaultConfig() *Config {
	d := session.StandardDefaults()
	return &Config{
		App: ApplicationConfig{
			LogLevel:   slog.LevelInfo,
			MaxSizeMB:  10,
			MaxBackups: 3,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Site: SiteConfig{
			Root:         ".",
			PagesDir:     "src/pages",
			WriteupsDir:  "src/pages/writeups",
			ImagesDir:    "public/images/writeups",
			ImagesURL:    "/images/writeups",
			TemplatesDir: "writeups",
		},
		Views:    catalog.DefaultViews(),
		Tags:     catalog.DefaultTags(),
		Registry: catalog.DefaultRegistry(),
		Defaults: DefaultsConfig{
			Difficulty:    d.Difficulty,
			Difficulties:  d.Difficulties,
			OS:            d.OS,
			OSes:          d.OSes,
			IPAddress:     d.IPAddress,
			Category:      d.Category,
			DateFormat:    catalog.DefaultDateFormat,
			ExcerptSuffix: d.ExcerptSuffix,
		},
		Avatar: avatar.Config{
			BaseURL:    "https://labs.hackthebox.com/api/v4",
			StorageURL: "https://labs.hackthebox.com/storage",
			Timeout:    30 * time.Second,
		},
		SQLite: SQLiteConfig{
			Path: ".raido/index.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

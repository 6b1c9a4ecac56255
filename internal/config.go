package internal

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"slices"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"

	"github.com/starford/zettelmark/internal/revision"
	"github.com/starford/zettelmark/internal/site"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App    ApplicationConfig `yaml:"app" toml:"app"`
	Site   SiteConfig        `yaml:"site" toml:"site"`
	Git    GitConfig         `yaml:"git" toml:"git"`
	SQLite SQLiteConfig      `yaml:"sqlite" toml:"sqlite"`
	Auth   AuthConfig        `yaml:"auth" toml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Site.Validate(); err != nil {
		return err
	}
	if err := c.Git.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level" toml:"log_level"`
	HTTP     HTTPConfig `yaml:"http" toml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port" toml:"port"`
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

// SiteConfig describes the documents to build and where the output goes.
type SiteConfig struct {
	DocsDir          string `yaml:"docs_dir" toml:"docs_dir"`
	OutputDir        string `yaml:"output_dir" toml:"output_dir"`
	SiteURL          string `yaml:"site_url" toml:"site_url"`
	UseDirectoryURLs bool   `yaml:"use_directory_urls" toml:"use_directory_urls"`
	Workers          int    `yaml:"workers" toml:"workers"`
	// Timezone names the location dates are parsed in; empty means local.
	Timezone   string `yaml:"timezone" toml:"timezone"`
	UnsafeHTML bool   `yaml:"unsafe_html" toml:"unsafe_html"`
}

// Validate validates the site configuration.
func (c *SiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.DocsDir, validation.Required),
		validation.Field(&c.OutputDir, validation.Required, validation.By(c.distinctOutput)),
		validation.Field(&c.SiteURL, is.URL),
		validation.Field(&c.Workers, validation.Required, validation.Min(1), validation.Max(64)),
		validation.Field(&c.Timezone, validation.By(validTimezone)),
	)
}

// distinctOutput rejects an output_dir that is, contains, or lies inside
// docs_dir.
func (c *SiteConfig) distinctOutput(any) error {
	if c.DocsDir == "" || c.OutputDir == "" {
		return nil
	}
	docs, err := filepath.Abs(c.DocsDir)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(c.OutputDir)
	if err != nil {
		return err
	}
	switch {
	case docs == out:
		return errors.New("must differ from docs_dir")
	case site.Within(docs, out):
		return errors.New("must not be inside docs_dir")
	case site.Within(out, docs):
		return errors.New("must not contain docs_dir")
	}
	return nil
}

func validTimezone(v any) error {
	name, _ := v.(string)
	if name == "" {
		return nil
	}
	if _, err := time.LoadLocation(name); err != nil {
		return fmt.Errorf("unknown timezone %q", name)
	}
	return nil
}

// Location returns the configured time zone, or time.Local.
func (c *SiteConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// BuildConfig returns the settings the site builder needs.
func (c *SiteConfig) BuildConfig() site.Config {
	return site.Config{
		SiteURL:          c.SiteURL,
		UseDirectoryURLs: c.UseDirectoryURLs,
		Workers:          c.Workers,
	}
}

// GitConfig controls the version-control revision date source.
type GitConfig struct {
	Binary string `yaml:"binary" toml:"binary"`
	// HostMarkers select the documents whose dates come from git.
	HostMarkers []string `yaml:"host_markers" toml:"host_markers"`
}

// Validate validates the git configuration.
func (c *GitConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Binary, validation.Required),
	)
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path" toml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode" toml:"mode"`
	Token string `yaml:"token" toml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	// Normalise empty mode to "disabled".
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

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Site: SiteConfig{
			DocsDir:          "./docs",
			OutputDir:        "./site",
			UseDirectoryURLs: true,
			Workers:          site.DefaultWorkers,
		},
		Git: GitConfig{
			Binary:      "git",
			HostMarkers: slices.Clone(revision.DefaultHostMarkers),
		},
		SQLite: SQLiteConfig{
			Path: "./zettelmark.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}

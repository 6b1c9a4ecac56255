package internal

import (
	"strings"
	"testing"
	"time"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_InvalidMode(t *testing.T) {
	cfg := AuthConfig{Mode: "magic", Token: "x"}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("invalid mode should fail validation")
	}
}

func TestFullConfig_AuthValidationCalled(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Auth.Mode = "token"
	cfg.Auth.Token = ""
	err := cfg.Validate()
	if err == nil {
		t.Fatal("full config validate should catch auth error")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if !cfg.Site.UseDirectoryURLs || cfg.Site.Workers != 4 {
		t.Errorf("site defaults = %+v", cfg.Site)
	}
}

func TestSiteConfig_Validation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*SiteConfig)
		errSub string
	}{
		{"missing docs dir", func(c *SiteConfig) { c.DocsDir = "" }, "DocsDir"},
		{"missing output dir", func(c *SiteConfig) { c.OutputDir = "" }, "OutputDir"},
		{"output equals docs", func(c *SiteConfig) { c.OutputDir = "./docs/" }, "must differ from docs_dir"},
		{"output inside docs", func(c *SiteConfig) { c.OutputDir = "./docs/site" }, "must not be inside docs_dir"},
		{"docs inside output", func(c *SiteConfig) { c.DocsDir = "./site/docs" }, "must not contain docs_dir"},
		{"too many workers", func(c *SiteConfig) { c.Workers = 65 }, "Workers"},
		{"zero workers", func(c *SiteConfig) { c.Workers = 0 }, "Workers"},
		{"bad site url", func(c *SiteConfig) { c.SiteURL = "not a url" }, "SiteURL"},
		{"bad timezone", func(c *SiteConfig) { c.Timezone = "Mars/Olympus" }, "unknown timezone"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig().Site
			tt.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.errSub) {
				t.Errorf("error %q does not mention %q", err, tt.errSub)
			}
		})
	}
}

func TestSiteConfig_Location(t *testing.T) {
	cfg := SiteConfig{Timezone: "UTC"}
	if cfg.Location() != time.UTC {
		t.Errorf("location = %v, want UTC", cfg.Location())
	}
	cfg.Timezone = ""
	if cfg.Location() != time.Local {
		t.Errorf("empty timezone = %v, want Local", cfg.Location())
	}
}

func TestSiteConfig_BuildConfig(t *testing.T) {
	cfg := SiteConfig{SiteURL: "https://example.org/", UseDirectoryURLs: true, Workers: 8}
	bc := cfg.BuildConfig()
	if bc.SiteURL != cfg.SiteURL || !bc.UseDirectoryURLs || bc.Workers != 8 {
		t.Errorf("build config = %+v", bc)
	}
}

func TestGitConfig_RequiresBinary(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Git.Binary = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("empty git binary should fail")
	}
}

func TestDefaultHostMarkersAreCopied(t *testing.T) {
	a := NewDefaultConfig()
	a.Git.HostMarkers[0] = "changed"
	b := NewDefaultConfig()
	if b.Git.HostMarkers[0] == "changed" {
		t.Error("default host markers share storage")
	}
}

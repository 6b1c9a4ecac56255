package internal

import "io"

// Mode selects what Run does.
type Mode string

// Run modes.
const (
	// ModeBuild runs one build and prints a summary.
	ModeBuild Mode = "build"
	// ModeServe builds, then serves the HTTP API and event stream.
	ModeServe Mode = "serve"
	// ModeMCP builds, then serves MCP tools over stdio.
	ModeMCP Mode = "mcp"
)

// Option is a functional option for configuring the application.
type Option func(*application)

type application struct {
	config  *Config
	mode    Mode
	version string
	stdout  io.Writer
}

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *application) {
		a.config = cfg
	}
}

// WithMode sets the run mode. The default is ModeServe.
func WithMode(m Mode) Option {
	return func(a *application) {
		a.mode = m
	}
}

// WithVersion sets the version reported to MCP clients.
func WithVersion(v string) Option {
	return func(a *application) {
		a.version = v
	}
}

// WithStdout redirects the build summary.
func WithStdout(w io.Writer) Option {
	return func(a *application) {
		a.stdout = w
	}
}

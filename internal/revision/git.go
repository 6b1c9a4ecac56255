package revision

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// Git asks git for the date of the last commit touching a file.
type Git struct {
	Binary   string
	Location *time.Location
}

// NewGit returns a Git source using binary, or "git" when empty.
func NewGit(binary string) *Git {
	if binary == "" {
		binary = "git"
	}
	return &Git{Binary: binary}
}

// RevisionDate implements Source. It runs
// `git log -n 1 --date=short --format=%ad -- <path>` from the file's directory.
func (g *Git) RevisionDate(ctx context.Context, path string) (time.Time, error) {
	cmd := exec.CommandContext(ctx, g.Binary, "log", "-n", "1", "--date=short", "--format=%ad", "--", filepath.Base(path))
	cmd.Dir = filepath.Dir(path)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return time.Time{}, fmt.Errorf("revision: git log %s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return parseGitDate(string(out), g.location())
}

func (g *Git) location() *time.Location {
	if g.Location == nil {
		return time.Local
	}
	return g.Location
}

func parseGitDate(out string, loc *time.Location) (time.Time, error) {
	s := strings.TrimSpace(out)
	if s == "" {
		return time.Time{}, fmt.Errorf("revision: no commits recorded")
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("revision: unexpected git date %q: %w", s, err)
	}
	return t, nil
}

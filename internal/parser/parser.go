// Package parser turns raw markdown documents into validated notes: it splits
// the YAML header from the body, extracts links, and resolves the title and
// last-update date.
package parser

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/starford/zettelmark/internal/dates"
	"github.com/starford/zettelmark/internal/models"
	"github.com/starford/zettelmark/internal/revision"
)

var timestampPrefixRe = regexp.MustCompile(`^\d{14}`)

// Parser builds notes from documents.
type Parser struct {
	revisions revision.Source
	loc       *time.Location
	now       func() time.Time
	logger    *slog.Logger
}

// Option configures a Parser.
type Option func(*Parser)

// WithRevisionSource sets where revision dates come from.
func WithRevisionSource(src revision.Source) Option {
	return func(p *Parser) { p.revisions = src }
}

// WithLocation sets the time zone loosely formatted dates are read in.
func WithLocation(loc *time.Location) Option {
	return func(p *Parser) { p.loc = loc }
}

// WithClock replaces time.Now, the last-resort date of a note.
func WithClock(now func() time.Time) Option {
	return func(p *Parser) { p.now = now }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Parser) { p.logger = l }
}

// New returns a Parser. Without options it reads dates in local time and
// takes revision dates from git for hosted checkouts, file mtimes otherwise.
func New(opts ...Option) *Parser {
	p := &Parser{
		loc:    time.Local,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.revisions == nil {
		p.revisions = revision.NewSelector(revision.NewGit(""), revision.ModTime{Location: p.loc})
	}
	return p
}

// ParseFile reads the document at path and parses it.
func (p *Parser) ParseFile(ctx context.Context, path, relPath string) (*models.Note, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, formatError(path, ReasonUnreadable, err)
	}
	return p.Parse(ctx, path, relPath, data)
}

// Parse builds a note from data. path is the absolute identity of the
// document, relPath its display path. Structural problems are reported as
// *FormatError; a failing revision source is returned as is.
func (p *Parser) Parse(ctx context.Context, path, relPath string, data []byte) (*models.Note, error) {
	header, body, err := Split(data)
	if err != nil {
		if fe, ok := err.(*FormatError); ok {
			fe.Path = path
		}
		return nil, err
	}

	meta, ferr := parseHeader(header)
	if ferr != nil {
		ferr.Path = path
		return nil, ferr
	}

	rawID, ok := meta["id"]
	if !ok || falsy(rawID) {
		return nil, formatError(path, ReasonMissingID, nil)
	}
	id, ok := scalarString(rawID)
	if !ok {
		return nil, formatError(path, ReasonInvalidID, fmt.Errorf("id must be a scalar, got %T", rawID))
	}

	lines := strings.Split(body, "\n")
	note := &models.Note{
		ID:        id,
		Path:      path,
		RelPath:   relPath,
		Links:     ExtractLinks(body),
		Backlinks: []models.Backlink{},
		Tags:      headerTags(meta),
		Meta:      meta,
	}
	note.Title = resolveTitle(meta, lines, path)

	date, err := p.lastUpdate(ctx, meta, id, path)
	if err != nil {
		return nil, err
	}
	note.LastUpdateDate = dates.Format(date)

	p.logger.Debug("parser: note parsed",
		slog.String("path", relPath),
		slog.String("id", note.ID),
		slog.String("title", note.Title),
		slog.Int("links", len(note.Links)))
	return note, nil
}

// lastUpdate applies the date precedence: an explicit last_update field
// wins outright, otherwise the later of the header-derived date and the
// revision date.
func (p *Parser) lastUpdate(ctx context.Context, meta map[string]any, id, path string) (time.Time, error) {
	candidate := p.candidateDate(meta, id)
	if _, explicit := meta["last_update"]; explicit {
		return candidate, nil
	}
	rev, err := p.revisions.RevisionDate(ctx, path)
	if err != nil {
		return time.Time{}, fmt.Errorf("parser: revision date for %s: %w", path, err)
	}
	return dates.Later(candidate, rev), nil
}

func (p *Parser) candidateDate(meta map[string]any, id string) time.Time {
	for _, field := range []string{"last_update", "date"} {
		v, ok := meta[field]
		if !ok {
			continue
		}
		s, _ := scalarString(v)
		if t, ok := dates.Parse(s, p.loc); ok {
			return t
		}
	}
	if t, ok := dates.Parse(id, p.loc); ok {
		return t
	}
	return p.now().In(p.loc)
}

func parseHeader(header string) (map[string]any, *FormatError) {
	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(header), &doc); err != nil {
		return nil, formatError("", ReasonInvalidSyntax, err)
	}
	if doc.Kind == 0 {
		return map[string]any{}, nil
	}
	keepLastKeys(&doc)
	var raw any
	if err := doc.Decode(&raw); err != nil {
		return nil, formatError("", ReasonInvalidSyntax, err)
	}
	switch v := raw.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		return v, nil
	case map[any]any:
		out := make(map[string]any, len(v))
		for k, val := range v {
			out[fmt.Sprint(k)] = val
		}
		return out, nil
	default:
		return nil, formatError("", ReasonInvalidStructure, fmt.Errorf("header is a %T, not a mapping", raw))
	}
}

// keepLastKeys drops every earlier occurrence of a repeated mapping key,
// so "tags: a" followed by "tags: b" reads as "tags: b".
func keepLastKeys(n *yaml.Node) {
	for _, c := range n.Content {
		keepLastKeys(c)
	}
	if n.Kind != yaml.MappingNode {
		return
	}
	last := make(map[string]int, len(n.Content)/2)
	for i := 0; i+1 < len(n.Content); i += 2 {
		if k := n.Content[i]; k.Kind == yaml.ScalarNode && k.ShortTag() != "!!merge" {
			last[k.ShortTag()+":"+k.Value] = i
		}
	}
	kept := make([]*yaml.Node, 0, len(n.Content))
	for i := 0; i+1 < len(n.Content); i += 2 {
		k := n.Content[i]
		if j, ok := last[k.ShortTag()+":"+k.Value]; ok && k.Kind == yaml.ScalarNode && j != i {
			continue
		}
		kept = append(kept, k, n.Content[i+1])
	}
	n.Content = kept
}

// resolveTitle picks the header title, then the first "# " heading of the
// body, then a title derived from the file name.
func resolveTitle(meta map[string]any, lines []string, path string) string {
	if v, ok := meta["title"]; ok && !falsy(v) {
		if s, ok := scalarString(v); ok {
			return s
		}
		return fmt.Sprint(v)
	}
	if t := headingTitle(lines); t != "" {
		return t
	}
	return FilenameTitle(path)
}

func headingTitle(lines []string) string {
	for _, line := range lines {
		trimmed := strings.TrimLeftFunc(line, unicode.IsSpace)
		if strings.HasPrefix(trimmed, "# ") {
			// Only the "# " marker and the line ends are trimmed; extra
			// spaces after the marker belong to the title.
			if s := strings.TrimSpace(line); len(s) > 2 {
				return s[2:]
			}
			return ""
		}
	}
	return ""
}

// FilenameTitle derives a title from a file name: a leading 14-digit
// timestamp is dropped, underscores and hyphens become spaces, and only the
// first letter stays upper case.
func FilenameTitle(path string) string {
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = timestampPrefixRe.ReplaceAllString(stem, "")
	stem = strings.NewReplacer("_", " ", "-", " ").Replace(stem)
	return capitalize(strings.TrimSpace(stem))
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + cases.Lower(language.Und).String(s[size:])
}

func headerTags(meta map[string]any) []string {
	var out []string
	switch v := meta["tags"].(type) {
	case []any:
		for _, item := range v {
			if s, ok := scalarString(item); ok && strings.TrimSpace(s) != "" {
				out = append(out, strings.TrimSpace(s))
			}
		}
	case string:
		for _, s := range strings.Split(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// scalarString renders YAML scalars the way they were most likely written.
func scalarString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(x), true
	case time.Time:
		if x.Hour() == 0 && x.Minute() == 0 && x.Second() == 0 && x.Nanosecond() == 0 {
			return x.Format("2006-01-02"), true
		}
		return x.Format("2006-01-02 15:04:05"), true
	default:
		return "", false
	}
}

// falsy mirrors the usual notion of an "empty" header value.
func falsy(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String, reflect.Slice, reflect.Map, reflect.Array:
		return rv.Len() == 0
	case reflect.Bool:
		return !rv.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() == 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() == 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() == 0
	}
	return false
}

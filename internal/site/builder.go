package site

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/starford/zettelmark/internal/parser"
	"github.com/starford/zettelmark/internal/render"
	"github.com/starford/zettelmark/internal/storage"
)

// RefSuffix replaces ".md" in the file name of a rendered reference footer.
const RefSuffix = ".ref.html"

// Result is the outcome of one build.
type Result struct {
	Index    *Index
	Rendered []*Rendered
	// Written and Pruned count output files.
	Written  int
	Pruned   int
	Started  time.Time
	Duration time.Duration
}

// Builder runs the whole pipeline: discover, scan, transform, write.
type Builder struct {
	docs     storage.Provider
	out      storage.Provider
	parser   *parser.Parser
	renderer render.Renderer
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithOutput makes Build write rendered pages to out.
func WithOutput(out storage.Provider) BuilderOption {
	return func(b *Builder) { b.out = out }
}

// WithBuildLogger sets the logger.
func WithBuildLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) { b.logger = l }
}

// NewBuilder returns a Builder reading documents from docs.
func NewBuilder(docs storage.Provider, p *parser.Parser, r render.Renderer, cfg Config, opts ...BuilderOption) *Builder {
	b := &Builder{
		docs:     docs,
		parser:   p,
		renderer: r,
		cfg:      cfg,
		logger:   slog.Default(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build runs one full pass over the docs directory.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	res := &Result{Started: b.now()}

	docs, err := Discover(ctx, b.docs)
	if err != nil {
		return nil, err
	}
	if b.out != nil {
		if docs, err = b.withoutOutputs(docs); err != nil {
			return nil, err
		}
	}
	ix, err := Scan(ctx, docs, b.parser, b.cfg, b.logger)
	if err != nil {
		return nil, fmt.Errorf("site: scan: %w", err)
	}
	res.Index = ix

	for _, c := range ix.Documents {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		r, err := Transform(ix, c, b.renderer)
		if err != nil {
			return nil, err
		}
		res.Rendered = append(res.Rendered, r)
	}

	if b.out != nil {
		if err := b.write(res); err != nil {
			return nil, err
		}
	}

	res.Duration = b.now().Sub(res.Started)
	b.logger.Info("build: completed",
		slog.Int("documents", len(ix.Documents)),
		slog.Int("notes", ix.Store.Len()),
		slog.Int("invalid", len(ix.Invalid())),
		slog.Int("written", res.Written),
		slog.Int("pruned", res.Pruned),
		slog.Duration("duration", res.Duration))
	return res, nil
}

// withoutOutputs drops documents that live under the output root. An
// output root that is or contains the docs root is an error.
func (b *Builder) withoutOutputs(docs []Document) ([]Document, error) {
	outRoot, err := b.out.Abs("")
	if err != nil {
		return nil, fmt.Errorf("site: output root: %w", err)
	}
	docsRoot, err := b.docs.Abs("")
	if err != nil {
		return nil, fmt.Errorf("site: docs root: %w", err)
	}
	if outRoot == docsRoot || Within(outRoot, docsRoot) {
		return nil, fmt.Errorf("site: output %s contains docs %s", outRoot, docsRoot)
	}

	kept := docs[:0]
	for _, d := range docs {
		if Within(outRoot, d.AbsPath) {
			b.logger.Debug("build: skipping output file", slog.String("path", d.RelPath))
			continue
		}
		kept = append(kept, d)
	}
	return kept, nil
}

// Within reports whether path lies strictly below root. Both must be
// absolute and clean.
func Within(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// RefPath returns the output path of the reference footer of relPath.
func RefPath(relPath string) string {
	return strings.TrimSuffix(relPath, path.Ext(relPath)) + RefSuffix
}

// write stores every rendered page and removes outputs of documents that
// no longer exist.
func (b *Builder) write(res *Result) error {
	keep := make(map[string]struct{}, len(res.Rendered)*2)
	for _, r := range res.Rendered {
		rel := r.Page.RelPath
		if err := b.out.Write(rel, []byte(r.Markdown)); err != nil {
			return fmt.Errorf("site: write %s: %w", rel, err)
		}
		keep[rel] = struct{}{}
		res.Written++

		if r.RefHTML == "" {
			continue
		}
		ref := RefPath(rel)
		if err := b.out.Write(ref, []byte(r.RefHTML)); err != nil {
			return fmt.Errorf("site: write %s: %w", ref, err)
		}
		keep[ref] = struct{}{}
		res.Written++
	}

	existing, err := b.out.List("", ".md", RefSuffix)
	if err != nil {
		return fmt.Errorf("site: list outputs: %w", err)
	}
	for _, f := range existing {
		if _, ok := keep[f.Path]; ok {
			continue
		}
		if err := b.out.Delete(f.Path); err != nil {
			return fmt.Errorf("site: prune %s: %w", f.Path, err)
		}
		b.logger.Debug("build: pruned stale output", slog.String("path", f.Path))
		res.Pruned++
	}
	return nil
}

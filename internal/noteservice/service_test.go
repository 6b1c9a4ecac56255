package noteservice

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/starford/zettelmark/internal/apperr"
	"github.com/starford/zettelmark/internal/site"
	"github.com/starford/zettelmark/internal/sse"
	"github.com/starford/zettelmark/internal/testutil"
)

const siteURL = "https://example.org/"

var docs = map[string]string{
	"index.md": "# Home\n",
	"zettel/20230101000000_alpha.md": "---\nid: 20230101000000\ntags: [go]\n---\n" +
		"Alpha links to [[20230102000000_beta]].\n---\nSource: Go docs\n",
	"zettel/20230102000000_beta.md": "---\nid: 20230102000000\ntitle: Beta\n---\n# Beta\nplain\n",
	"broken.md":                     "---\ntitle: no id\n---\nbody\n",
}

type recorder struct {
	mu     sync.Mutex
	events []sse.BuildEvent
}

func (r *recorder) PublishBuild(ev sse.BuildEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func testService(t *testing.T) (*Service, *recorder, func(map[string]string)) {
	t.Helper()
	_, store := testutil.TestDocs(t)
	testutil.WriteDocs(t, store, docs)
	rec := &recorder{}
	svc := NewService(testutil.TestBuilder(store, siteURL), testutil.TestDB(t), WithPublisher(rec))
	return svc, rec, func(files map[string]string) {
		testutil.WriteDocs(t, store, files)
	}
}

func TestRebuild(t *testing.T) {
	svc, rec, write := testService(t)
	ctx := context.Background()

	sum, err := svc.Rebuild(ctx)
	if err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	if sum.Documents != 4 || sum.Notes != 2 || sum.Invalid != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	if len(sum.Updated) != 2 || len(sum.Removed) != 0 {
		t.Fatalf("first rebuild updated=%v removed=%v", sum.Updated, sum.Removed)
	}

	// Nothing changed.
	sum, err = svc.Rebuild(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Updated) != 0 {
		t.Errorf("unchanged rebuild updated = %v", sum.Updated)
	}

	// Editing beta's body leaves alpha's rendered page untouched.
	write(map[string]string{"zettel/20230102000000_beta.md": "---\nid: 20230102000000\ntitle: Beta\n---\n# Beta\nedited\n"})
	sum, err = svc.Rebuild(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Updated) != 1 || sum.Updated[0] != "20230102000000" {
		t.Errorf("updated = %v, want [20230102000000]", sum.Updated)
	}

	if len(rec.events) != 3 {
		t.Fatalf("published %d events, want 3", len(rec.events))
	}
	if _, ok := rec.events[0].Summary.(*BuildSummary); !ok {
		t.Errorf("summary type = %T", rec.events[0].Summary)
	}
}

func TestRebuild_ReportsRemoved(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()
	if _, err := svc.Rebuild(ctx); err != nil {
		t.Fatal(err)
	}

	svc.builder = builderFor(t, map[string]string{
		"zettel/20230102000000_beta.md": docs["zettel/20230102000000_beta.md"],
	})
	sum, err := svc.Rebuild(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(sum.Removed) != 1 || sum.Removed[0] != "20230101000000" {
		t.Errorf("removed = %v", sum.Removed)
	}
}

func builderFor(t *testing.T, files map[string]string) *site.Builder {
	t.Helper()
	_, store := testutil.TestDocs(t)
	testutil.WriteDocs(t, store, files)
	return testutil.TestBuilder(store, siteURL)
}

func TestRebuild_BuildError(t *testing.T) {
	svc, rec, _ := testService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.Rebuild(ctx); err == nil {
		t.Fatal("expected error for cancelled context")
	}
	if len(rec.events) != 0 {
		t.Errorf("failed rebuild published %d events", len(rec.events))
	}
}

func TestRebuild_Conflict(t *testing.T) {
	svc, _, _ := testService(t)
	svc.mu.Lock()
	defer svc.mu.Unlock()

	_, err := svc.Rebuild(context.Background())
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("err = %v, want ErrConflict", err)
	}
}

func TestQueries(t *testing.T) {
	svc, _, _ := testService(t)
	ctx := context.Background()

	if b, err := svc.LastBuild(ctx); err != nil || b != nil {
		t.Fatalf("LastBuild before rebuild = %v, %v", b, err)
	}
	if _, err := svc.Rebuild(ctx); err != nil {
		t.Fatal(err)
	}

	beta, err := svc.GetNote(ctx, "20230102000000")
	if err != nil {
		t.Fatalf("GetNote: %v", err)
	}
	if beta.Title != "Beta" || beta.URL != siteURL+"zettel/20230102000000_beta/" {
		t.Errorf("beta = %+v", beta)
	}
	if len(beta.Backlinks) != 1 || beta.Backlinks[0].URL != siteURL+"zettel/20230101000000_alpha/" {
		t.Errorf("beta backlinks = %+v", beta.Backlinks)
	}

	byPath, err := svc.GetNote(ctx, "zettel/20230101000000_alpha.md")
	if err != nil {
		t.Fatalf("GetNote by path: %v", err)
	}
	if byPath.RefHTML == "" {
		t.Error("alpha should carry a rendered reference footer")
	}

	if _, err := svc.GetNote(ctx, "nope"); !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("GetNote missing err = %v", err)
	}

	bl, err := svc.Backlinks(ctx, "zettel/20230102000000_beta.md")
	if err != nil || len(bl) != 1 {
		t.Errorf("Backlinks = %v, %v", bl, err)
	}

	items, total, err := svc.ListNotes(ctx, 10, 0, "go", "")
	if err != nil {
		t.Fatal(err)
	}
	if total != 1 || len(items) != 1 || items[0].ID != "20230101000000" {
		t.Errorf("ListNotes(tag=go) = %+v total=%d", items, total)
	}

	if _, err := svc.Search(ctx, "  ", 10); !errors.Is(err, apperr.ErrValidation) {
		t.Errorf("Search empty err = %v", err)
	}

	nodes, links, err := svc.Graph(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(nodes) != 2 || len(links) != 1 {
		t.Errorf("graph nodes=%d links=%d", len(nodes), len(links))
	}

	invalid, err := svc.Invalid(ctx)
	if err != nil || len(invalid) != 2 || invalid[0].Path != "broken.md" {
		t.Errorf("Invalid = %+v, %v", invalid, err)
	}

	groups, err := svc.Tags(ctx)
	if err != nil || len(groups) != 1 || groups[0].Tag != "go" {
		t.Errorf("Tags = %+v, %v", groups, err)
	}

	keys, err := svc.BacklinkKeys(ctx)
	if err != nil || len(keys) != 1 || keys[0].Link != "20230102000000_beta.md" {
		t.Errorf("BacklinkKeys = %+v, %v", keys, err)
	}

	b, err := svc.LastBuild(ctx)
	if err != nil || b == nil || b.Notes != 2 {
		t.Errorf("LastBuild = %+v, %v", b, err)
	}
}

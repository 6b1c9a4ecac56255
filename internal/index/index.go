package index

import "github.com/starford/zettelmark/internal/models"

// NoteIndex defines the interface for snapshot queries.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type NoteIndex interface {
	Replace(s *Snapshot) error
	GetNote(key string) (*NoteRow, error)
	ListNotes(limit, offset int, tag, sort string) ([]NoteRow, int, error)
	Search(query string, limit int) ([]SearchResult, error)
	Graph() ([]GraphNode, []GraphLink, error)
	Backlinks(id string) ([]models.Backlink, error)
	BacklinkKeys() ([]BacklinkKeyRow, error)
	Tags() ([]TagGroup, error)
	Invalid() ([]InvalidRow, error)
	LastBuild() (*BuildRow, error)
	Close() error
}

// Verify *DB satisfies NoteIndex at compile time.
var _ NoteIndex = (*DB)(nil)

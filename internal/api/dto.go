package api

import (
	"github.com/starford/zettelmark/internal/index"
	"github.com/starford/zettelmark/internal/models"
	"github.com/starford/zettelmark/internal/noteservice"
)

// NoteDetail is the full note response type (aliased from the domain layer).
type NoteDetail = noteservice.NoteDetail

// NoteListItem is a lightweight item in a list response (aliased from the domain layer).
type NoteListItem = noteservice.NoteListItem

// BuildSummary is the rebuild response type (aliased from the domain layer).
type BuildSummary = noteservice.BuildSummary

// BuildRow describes a stored build.
type BuildRow = index.BuildRow

// NoteListResponse wraps paginated note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []index.SearchResult `json:"results" validate:"required"`
}

// GraphResponse wraps the link graph.
type GraphResponse struct {
	Nodes []index.GraphNode `json:"nodes" validate:"required"`
	Links []index.GraphLink `json:"links" validate:"required"`
}

// BacklinksResponse lists the pages linking to a note.
type BacklinksResponse struct {
	Backlinks []models.Backlink `json:"backlinks" validate:"required"`
}

// BacklinkKeysResponse lists the backlink map as (link, source) pairs.
type BacklinkKeysResponse struct {
	Keys []index.BacklinkKeyRow `json:"keys" validate:"required"`
}

// TagsResponse wraps the tag index.
type TagsResponse struct {
	Tags []index.TagGroup `json:"tags" validate:"required"`
}

// InvalidResponse lists rejected documents.
type InvalidResponse struct {
	Documents []index.InvalidRow `json:"documents" validate:"required"`
}

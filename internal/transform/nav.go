package transform

import (
	"path/filepath"

	"github.com/starford/zettelmark/internal/models"
)

// Neighbours returns the pages before and after page in note order.
//
// The home page links forward to the first note and the tags page has no
// neighbours. A note links back to the previous note, or to the home page
// for the first one, and forward to the next note. Other pages get none.
func Neighbours(page Page, pages []Page, notes []*models.Note) (prev, next *Page) {
	switch filepath.ToSlash(page.RelPath) {
	case HomePage:
		if len(notes) > 0 {
			next = findPage(pages, notes[0].Path)
		}
		return nil, next
	case TagsPage:
		return nil, nil
	}
	if page.Note == nil {
		return nil, nil
	}

	i := -1
	for j, n := range notes {
		if n.Equal(page.Note) {
			i = j
			break
		}
	}
	if i < 0 {
		return nil, nil
	}

	if i > 0 {
		prev = findPage(pages, notes[i-1].Path)
	}
	if prev == nil {
		prev = homePage(pages)
	}
	if i < len(notes)-1 {
		next = findPage(pages, notes[i+1].Path)
	}
	return prev, next
}

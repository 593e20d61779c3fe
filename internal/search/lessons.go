package search

import (
	"context"

	"github.com/yavin-ai/yavin/internal/pages"
)

// BuildLessonIndex indexes every lesson in lib with a trigram embedder.
func BuildLessonIndex(ctx context.Context, lib *pages.Library) (*Index, error) {
	ix, err := NewIndex(NewTrigramEmbedder(0))
	if err != nil {
		return nil, err
	}
	docs := make([]Document, 0, len(lib.All()))
	for _, l := range lib.All() {
		href := "/" + l.ID
		if l.ID == pages.HomeID {
			href = "/"
		}
		docs = append(docs, Document{
			ID:      l.ID,
			Heading: l.Heading,
			Href:    href,
			Summary: l.Summary,
			Content: l.Text,
		})
	}
	if err := ix.Add(ctx, docs); err != nil {
		return nil, err
	}
	return ix, nil
}

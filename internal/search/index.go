package search

import (
	"context"
	"errors"
	"fmt"
	"strings"

	chromem "github.com/philippgille/chromem-go"
)

const collectionName = "lessons"

// ErrEmptyQuery is returned for queries without any searchable characters.
var ErrEmptyQuery = errors.New("query has no searchable words")

// Document is one searchable lesson.
type Document struct {
	ID      string
	Heading string
	Href    string
	Summary string
	Content string
}

// Result pairs a lesson with its cosine similarity to the query.
type Result struct {
	ID         string  `json:"id"`
	Heading    string  `json:"heading"`
	Href       string  `json:"href"`
	Summary    string  `json:"summary"`
	Similarity float32 `json:"similarity"`
}

// Index is an in-memory chromem collection of lessons.
type Index struct {
	db         *chromem.DB
	collection *chromem.Collection
	embedder   Embedder
}

// NewIndex creates an empty index.
func NewIndex(embedder Embedder) (*Index, error) {
	db := chromem.NewDB()
	col, err := db.GetOrCreateCollection(collectionName, nil, ToChromemFunc(embedder))
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Index{db: db, collection: col, embedder: embedder}, nil
}

// Add indexes documents. The heading is repeated in the embedded text so
// title matches outrank body matches.
func (ix *Index) Add(ctx context.Context, docs []Document) error {
	if len(docs) == 0 {
		return nil
	}
	chromDocs := make([]chromem.Document, len(docs))
	for i, d := range docs {
		chromDocs[i] = chromem.Document{
			ID:      d.ID,
			Content: strings.Repeat(d.Heading+" ", 3) + d.Content,
			Metadata: map[string]string{
				"heading": d.Heading,
				"href":    d.Href,
				"summary": d.Summary,
			},
		}
	}
	return ix.collection.AddDocuments(ctx, chromDocs, 1)
}

// Count returns the number of indexed documents.
func (ix *Index) Count() int {
	return ix.collection.Count()
}

// Search returns up to limit lessons ordered by similarity. Results below
// minSimilarity are dropped.
func (ix *Index) Search(ctx context.Context, query string, limit int, minSimilarity float32) ([]Result, error) {
	if len(words(query)) == 0 {
		return nil, ErrEmptyQuery
	}
	if limit <= 0 {
		limit = 5
	}
	count := ix.collection.Count()
	if count == 0 {
		return nil, nil
	}
	// chromem requires nResults <= collection size.
	limit = min(limit, count)

	hits, err := ix.collection.Query(ctx, query, limit, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("chromem query: %w", err)
	}
	results := make([]Result, 0, len(hits))
	for _, h := range hits {
		if h.Similarity < minSimilarity {
			continue
		}
		results = append(results, Result{
			ID:         h.ID,
			Heading:    h.Metadata["heading"],
			Href:       h.Metadata["href"],
			Summary:    h.Metadata["summary"],
			Similarity: h.Similarity,
		})
	}
	return results, nil
}

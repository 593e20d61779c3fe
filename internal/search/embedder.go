// Package search is a fuzzy full-text index over the course lessons. It is a
// chromem vector collection fed by a character-trigram embedder, so queries
// tolerate typos and partial words without calling an embedding API.
package search

import (
	"context"
	"hash/fnv"
	"math"
	"strings"
	"unicode"

	chromem "github.com/philippgille/chromem-go"
)

// DefaultDimensions is the vector size used by NewTrigramEmbedder(0).
const DefaultDimensions = 2048

// Embedder generates text embeddings.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	Dimensions() int
	Name() string
}

// TrigramEmbedder hashes the character trigrams of every word into a fixed
// number of buckets and L2-normalises the counts.
type TrigramEmbedder struct {
	dims int
}

// NewTrigramEmbedder creates an embedder with dims buckets.
func NewTrigramEmbedder(dims int) *TrigramEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &TrigramEmbedder{dims: dims}
}

func (e *TrigramEmbedder) Dimensions() int { return e.dims }
func (e *TrigramEmbedder) Name() string    { return "trigram" }

func (e *TrigramEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out[i] = e.vector(t)
	}
	return out, nil
}

func (e *TrigramEmbedder) vector(text string) []float32 {
	v := make([]float32, e.dims)
	for _, word := range words(text) {
		padded := []rune(" " + word + " ")
		for i := 0; i+3 <= len(padded); i++ {
			h := fnv.New32a()
			h.Write([]byte(string(padded[i : i+3])))
			v[h.Sum32()%uint32(e.dims)]++
		}
	}
	normalize(v)
	return v
}

// words lowercases text and splits it on anything that is not a letter or
// digit.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}

// ToChromemFunc adapts an Embedder to chromem's single-text signature.
func ToChromemFunc(e Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		results, err := e.Embed(ctx, []string{text})
		if err != nil {
			return nil, err
		}
		if len(results) == 0 {
			return nil, nil
		}
		return results[0], nil
	}
}

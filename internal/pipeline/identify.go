package pipeline

import (
	"context"
	"fmt"

	"github.com/jsvoboda/facegate/internal/database"
	"github.com/jsvoboda/facegate/internal/imaging"
	"github.com/jsvoboda/facegate/internal/match"
)

// Candidate is one possible identity for an unidentified photo.
type Candidate struct {
	Person   database.PersonRecord
	Distance float64
	Score    float64
}

// Identifier answers "who is this?" queries: given only a photo, it
// returns the enrolled identities closest to the extracted embedding.
// It prefers the in-memory HNSW index when one was built and falls
// back to the store's vector search otherwise.
type Identifier struct {
	locator   Locator
	extractor Extractor
	store     database.PersonReader
	index     *database.IdentifyIndex // optional fast path
}

// NewIdentifier creates the identification workflow. index may be nil,
// in which case every query goes to the store.
func NewIdentifier(locator Locator, extractor Extractor, store database.PersonReader, index *database.IdentifyIndex) *Identifier {
	return &Identifier{
		locator:   locator,
		extractor: extractor,
		store:     store,
		index:     index,
	}
}

// Identify returns up to limit candidates ordered by ascending
// distance. An empty result means nobody enrolled is close; it is not
// an error.
func (id *Identifier) Identify(ctx context.Context, photo []byte, limit int) ([]Candidate, error) {
	if len(photo) == 0 {
		return nil, fmt.Errorf("%w: photo", ErrMissingField)
	}
	if limit <= 0 {
		limit = 5
	}

	grid, err := imaging.Normalize(photo)
	if err != nil {
		return nil, err
	}

	region, err := id.locator.Locate(ctx, grid)
	if err != nil {
		return nil, err
	}

	embedding, err := id.extractor.Extract(ctx, region)
	if err != nil {
		return nil, err
	}

	matches, err := id.findNearest(ctx, embedding, limit)
	if err != nil {
		return nil, err
	}

	candidates := make([]Candidate, 0, len(matches))
	for _, m := range matches {
		candidates = append(candidates, Candidate{
			Person:   m.Person,
			Distance: m.Distance,
			Score:    match.DistanceToScore(m.Distance),
		})
	}
	return candidates, nil
}

func (id *Identifier) findNearest(ctx context.Context, embedding []float32, limit int) ([]database.PersonMatch, error) {
	if id.index != nil && id.index.Count() > 0 {
		return id.index.Search(embedding, limit)
	}
	return id.store.FindNearest(ctx, embedding, limit)
}

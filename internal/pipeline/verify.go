package pipeline

import (
	"context"
	"fmt"

	"github.com/jsvoboda/facegate/internal/database"
	"github.com/jsvoboda/facegate/internal/imaging"
	"github.com/jsvoboda/facegate/internal/match"
)

// VerifyResult is the outcome of a completed verification: the verdict
// plus the identity the live photo was compared against.
type VerifyResult struct {
	Verified bool
	Score    float64
	Distance float64
	Person   *database.PersonRecord
}

// Verifier runs the verification workflow: look up the enrolled
// identity, process the live photo, compare. The lookup happens first
// so an unknown document identifier costs no model calls.
type Verifier struct {
	locator    Locator
	extractor  Extractor
	store      database.PersonReader
	comparator *match.Comparator
}

// NewVerifier creates the verification workflow.
func NewVerifier(locator Locator, extractor Extractor, store database.PersonReader, comparator *match.Comparator) *Verifier {
	return &Verifier{
		locator:    locator,
		extractor:  extractor,
		store:      store,
		comparator: comparator,
	}
}

// Verify decides whether the live photo shows the person enrolled
// under documentID. A verdict is only produced when both embeddings
// came from located faces. Outcomes: ErrMissingField,
// database.ErrNotFound, imaging.ErrDecode, face.ErrNoFace,
// face.ErrExtraction, database.ErrDimensionMismatch, or an
// infrastructure error.
func (v *Verifier) Verify(ctx context.Context, documentID string, photo []byte) (*VerifyResult, error) {
	if documentID == "" {
		return nil, fmt.Errorf("%w: document_id", ErrMissingField)
	}
	if len(photo) == 0 {
		return nil, fmt.Errorf("%w: photo", ErrMissingField)
	}

	stored, err := v.store.FindByDocumentID(ctx, documentID)
	if err != nil {
		return nil, err
	}

	grid, err := imaging.Normalize(photo)
	if err != nil {
		return nil, err
	}

	region, err := v.locator.Locate(ctx, grid)
	if err != nil {
		return nil, err
	}

	live, err := v.extractor.Extract(ctx, region)
	if err != nil {
		return nil, err
	}

	result, err := v.comparator.Compare(live, stored.Embedding)
	if err != nil {
		// Lengths are validated on both the write and read paths, so
		// reaching this means the store let a bad record through.
		return nil, fmt.Errorf("%w: %v", database.ErrDimensionMismatch, err)
	}

	return &VerifyResult{
		Verified: result.Verified,
		Score:    result.Score,
		Distance: result.Distance,
		Person:   stored,
	}, nil
}

package pipeline

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jsvoboda/facegate/internal/database"
	"github.com/jsvoboda/facegate/internal/imaging"
)

// Enroller runs the enrollment workflow: normalize, locate, extract,
// store. No record is written for a photo in which no face was
// located, and no embedding outside the configured space is written.
type Enroller struct {
	locator   Locator
	extractor Extractor
	store     database.PersonWriter
	model     string
	dim       int

	// OnEnrolled, if set, is called after a successful insert. Used to
	// keep the in-memory identify index current.
	OnEnrolled func(*database.PersonRecord)
}

// NewEnroller creates the enrollment workflow for the configured
// embedding space.
func NewEnroller(locator Locator, extractor Extractor, store database.PersonWriter, model string, dim int) *Enroller {
	return &Enroller{
		locator:   locator,
		extractor: extractor,
		store:     store,
		model:     model,
		dim:       dim,
	}
}

// Enroll registers a new identity from a photo. Outcomes:
// ErrMissingField, imaging.ErrDecode, face.ErrNoFace,
// face.ErrExtraction, database.ErrDuplicateDocumentID, or an
// infrastructure error from the store.
func (e *Enroller) Enroll(ctx context.Context, name, documentID string, photo []byte) (*database.PersonRecord, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: name", ErrMissingField)
	}
	if documentID == "" {
		return nil, fmt.Errorf("%w: document_id", ErrMissingField)
	}
	if len(photo) == 0 {
		return nil, fmt.Errorf("%w: photo", ErrMissingField)
	}

	grid, err := imaging.Normalize(photo)
	if err != nil {
		return nil, err
	}

	region, err := e.locator.Locate(ctx, grid)
	if err != nil {
		return nil, err
	}

	embedding, err := e.extractor.Extract(ctx, region)
	if err != nil {
		return nil, err
	}
	if len(embedding) != e.dim {
		return nil, fmt.Errorf("%w: extracted %d, configured %d", database.ErrDimensionMismatch, len(embedding), e.dim)
	}

	record, err := e.store.Insert(ctx, &database.PersonRecord{
		UID:        uuid.NewString(),
		Name:       name,
		DocumentID: documentID,
		Embedding:  embedding,
		Model:      e.model,
		Dim:        e.dim,
	})
	if err != nil {
		return nil, err
	}

	if e.OnEnrolled != nil {
		e.OnEnrolled(record)
	}
	return record, nil
}

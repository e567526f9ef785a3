// Package database defines the identity store contract and the types
// shared by its PostgreSQL implementation and the test mock.
package database

import (
	"context"
	"errors"
)

var (
	// ErrDuplicateDocumentID is returned when enrolling a document
	// identifier that already exists. The failed insert leaves no
	// partial record behind.
	ErrDuplicateDocumentID = errors.New("document identifier already enrolled")

	// ErrNotFound is returned when no record exists for a document
	// identifier.
	ErrNotFound = errors.New("person not found")

	// ErrDimensionMismatch is returned when an embedding's length does
	// not match the configured embedding space. On read this is a
	// data-integrity failure, never a best-effort comparison.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// PersonWriter persists new identities.
type PersonWriter interface {
	// Insert atomically stores a new record and returns it with the
	// store-assigned ID and creation timestamp filled in. Fails with
	// ErrDuplicateDocumentID if the document identifier exists; the
	// uniqueness check is atomic, so concurrent enrollments for the
	// same identifier yield exactly one success.
	Insert(ctx context.Context, record *PersonRecord) (*PersonRecord, error)
}

// PersonReader retrieves enrolled identities.
type PersonReader interface {
	// FindByDocumentID returns the record for a document identifier,
	// or ErrNotFound.
	FindByDocumentID(ctx context.Context, documentID string) (*PersonRecord, error)

	// List returns records, newest first, optionally filtered by a
	// diacritic-insensitive name substring.
	List(ctx context.Context, nameFilter string, limit int) ([]PersonRecord, error)

	// Count returns the total number of enrolled identities.
	Count(ctx context.Context) (int, error)

	// FindNearest returns up to limit records ordered by ascending
	// cosine distance to the query embedding.
	FindNearest(ctx context.Context, embedding []float32, limit int) ([]PersonMatch, error)

	// All returns every record. Used to build the in-memory identify
	// index at startup.
	All(ctx context.Context) ([]PersonRecord, error)
}

// PersonRepository combines read and write access.
type PersonRepository interface {
	PersonReader
	PersonWriter
}

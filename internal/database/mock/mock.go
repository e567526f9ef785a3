// Package mock provides an in-memory implementation of the identity
// store interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jsvoboda/facegate/internal/database"
	"github.com/jsvoboda/facegate/internal/match"
)

// PersonRepository is an in-memory database.PersonRepository with
// error injection for exercising failure paths.
type PersonRepository struct {
	mu      sync.RWMutex
	nextID  int64
	records map[string]*database.PersonRecord // keyed by document ID

	// Error injection
	InsertError      error
	FindError        error
	ListError        error
	CountError       error
	FindNearestError error
	AllError         error
}

// NewPersonRepository creates an empty mock repository.
func NewPersonRepository() *PersonRepository {
	return &PersonRepository{
		nextID:  1,
		records: make(map[string]*database.PersonRecord),
	}
}

// Insert stores a record, enforcing document ID uniqueness.
func (m *PersonRepository) Insert(ctx context.Context, record *database.PersonRecord) (*database.PersonRecord, error) {
	if m.InsertError != nil {
		return nil, m.InsertError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.records[record.DocumentID]; exists {
		return nil, database.ErrDuplicateDocumentID
	}

	stored := *record
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	m.nextID++
	m.records[record.DocumentID] = &stored

	result := stored
	return &result, nil
}

// FindByDocumentID returns the record for a document identifier.
func (m *PersonRepository) FindByDocumentID(ctx context.Context, documentID string) (*database.PersonRecord, error) {
	if m.FindError != nil {
		return nil, m.FindError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	record, ok := m.records[documentID]
	if !ok {
		return nil, database.ErrNotFound
	}
	result := *record
	return &result, nil
}

// List returns records filtered by normalized name substring.
func (m *PersonRepository) List(ctx context.Context, nameFilter string, limit int) ([]database.PersonRecord, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	normalized := database.NormalizeName(nameFilter)
	var persons []database.PersonRecord
	for _, record := range m.records {
		if normalized != "" && !strings.Contains(database.NormalizeName(record.Name), normalized) {
			continue
		}
		persons = append(persons, *record)
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].ID > persons[j].ID })
	if limit > 0 && len(persons) > limit {
		persons = persons[:limit]
	}
	return persons, nil
}

// Count returns the number of stored records.
func (m *PersonRepository) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records), nil
}

// All returns every stored record ordered by ID.
func (m *PersonRepository) All(ctx context.Context) ([]database.PersonRecord, error) {
	if m.AllError != nil {
		return nil, m.AllError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var persons []database.PersonRecord
	for _, record := range m.records {
		persons = append(persons, *record)
	}
	sort.Slice(persons, func(i, j int) bool { return persons[i].ID < persons[j].ID })
	return persons, nil
}

// FindNearest brute-forces cosine distance over all stored records.
func (m *PersonRepository) FindNearest(ctx context.Context, embedding []float32, limit int) ([]database.PersonMatch, error) {
	if m.FindNearestError != nil {
		return nil, m.FindNearestError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	var matches []database.PersonMatch
	for _, record := range m.records {
		if len(record.Embedding) != len(embedding) {
			return nil, fmt.Errorf("%w: stored %d vs query %d",
				database.ErrDimensionMismatch, len(record.Embedding), len(embedding))
		}
		matches = append(matches, database.PersonMatch{
			Person:   *record,
			Distance: match.CosineDistance(embedding, record.Embedding),
		})
	}
	sort.Slice(matches, func(i, j int) bool { return matches[i].Distance < matches[j].Distance })
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

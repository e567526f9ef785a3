package database

import (
	"errors"
	"sync"

	"github.com/coder/hnsw"

	"github.com/jsvoboda/facegate/internal/match"
)

// HNSW index parameters for 512-dim face embeddings.
const (
	// hnswMaxNeighbors (M) is the maximum number of neighbors per node.
	hnswMaxNeighbors = 16
)

// IdentifyIndex is an in-memory HNSW index over enrolled embeddings,
// used to answer 1:N identification queries without a database round
// trip per candidate. It is built once at startup and appended to as
// enrollments happen; it is a cache over the store, never the source
// of truth.
type IdentifyIndex struct {
	graph      *hnsw.Graph[int64]
	idToPerson map[int64]*PersonRecord
	mu         sync.RWMutex
}

// NewIdentifyIndex creates a new empty index.
func NewIdentifyIndex() *IdentifyIndex {
	return &IdentifyIndex{
		idToPerson: make(map[int64]*PersonRecord),
	}
}

func newGraph() *hnsw.Graph[int64] {
	g := hnsw.NewGraph[int64]()
	g.M = hnswMaxNeighbors
	g.Ml = 1.0 / float64(hnswMaxNeighbors) // standard HNSW formula
	g.Distance = hnsw.CosineDistance
	return g
}

// Build populates the index from a slice of records, replacing any
// previous contents.
func (idx *IdentifyIndex) Build(persons []PersonRecord) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	g := newGraph()
	idx.idToPerson = make(map[int64]*PersonRecord, len(persons))

	for i := range persons {
		p := &persons[i]
		if len(p.Embedding) == 0 {
			continue
		}
		g.Add(hnsw.MakeNode(p.ID, p.Embedding))
		idx.idToPerson[p.ID] = p
	}

	idx.graph = g
	return nil
}

// Add inserts a single record into the index.
func (idx *IdentifyIndex) Add(p *PersonRecord) {
	if len(p.Embedding) == 0 {
		return
	}

	idx.mu.Lock()
	defer idx.mu.Unlock()

	if idx.graph == nil {
		idx.graph = newGraph()
	}
	idx.graph.Add(hnsw.MakeNode(p.ID, p.Embedding))
	idx.idToPerson[p.ID] = p
}

// Search returns up to k records nearest to the query embedding,
// ordered by ascending cosine distance.
func (idx *IdentifyIndex) Search(query []float32, k int) ([]PersonMatch, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if idx.graph == nil {
		return nil, errors.New("identify index not initialized")
	}

	neighbors := idx.graph.Search(query, k)
	matches := make([]PersonMatch, 0, len(neighbors))
	for _, n := range neighbors {
		p, ok := idx.idToPerson[n.Key]
		if !ok {
			continue
		}
		matches = append(matches, PersonMatch{
			Person:   *p,
			Distance: match.CosineDistance(query, n.Value),
		})
	}
	return matches, nil
}

// Count returns the number of indexed records.
func (idx *IdentifyIndex) Count() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.idToPerson)
}

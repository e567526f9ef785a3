package database

import "time"

// PersonRecord is a stored identity: a document identifier bound to a
// display name and the face embedding captured at enrollment. Records
// are immutable after creation; there is no update or delete path.
type PersonRecord struct {
	ID         int64
	UID        string // process-assigned reference, returned to API callers
	Name       string
	DocumentID string
	Embedding  []float32
	Model      string // embedding model that produced the vector
	Dim        int
	CreatedAt  time.Time
}

// PersonMatch pairs a record with its cosine distance to a query
// embedding, as returned by nearest-neighbor lookups.
type PersonMatch struct {
	Person   PersonRecord
	Distance float64
}

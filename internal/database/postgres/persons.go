package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/jsvoboda/facegate/internal/database"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique constraint violations.
const uniqueViolation = "23505"

// hnswEfSearch is the candidate pool size for pgvector HNSW scans.
const hnswEfSearch = 100

// PersonRepository provides PostgreSQL-backed identity storage. It is
// pinned to one embedding space (model + dim); vectors from any other
// space are rejected before they reach a statement.
type PersonRepository struct {
	pool  *Pool
	model string
	dim   int
}

// NewPersonRepository creates a repository for the configured embedding space.
func NewPersonRepository(pool *Pool, model string, dim int) *PersonRepository {
	return &PersonRepository{pool: pool, model: model, dim: dim}
}

// Insert atomically stores a new identity. The unique constraint on
// document_id decides races between concurrent enrollments; the loser
// receives ErrDuplicateDocumentID and no row is written.
func (r *PersonRepository) Insert(ctx context.Context, record *database.PersonRecord) (*database.PersonRecord, error) {
	if err := r.validateEmbedding(record.Embedding, record.Model); err != nil {
		return nil, err
	}

	inserted := *record
	inserted.Dim = r.dim
	err := r.pool.QueryRow(ctx, `
		INSERT INTO persons (uid, name, document_id, embedding, model, dim)
		VALUES ($1, $2, $3, $4::vector, $5, $6)
		RETURNING id, created_at
	`,
		record.UID,
		record.Name,
		record.DocumentID,
		pgvector.NewVector(record.Embedding),
		record.Model,
		r.dim,
	).Scan(&inserted.ID, &inserted.CreatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, database.ErrDuplicateDocumentID
		}
		return nil, fmt.Errorf("insert person: %w", err)
	}

	return &inserted, nil
}

// FindByDocumentID returns the record for a document identifier.
func (r *PersonRepository) FindByDocumentID(ctx context.Context, documentID string) (*database.PersonRecord, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, uid, name, document_id, embedding, model, dim, created_at
		FROM persons
		WHERE document_id = $1
	`, documentID)

	record, err := scanPerson(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, database.ErrNotFound
		}
		return nil, fmt.Errorf("find person by document ID: %w", err)
	}

	if err := r.validateStored(record); err != nil {
		return nil, err
	}
	return record, nil
}

// List returns records newest first. A non-empty nameFilter restricts
// results to names containing the filter, compared diacritic- and
// case-insensitively on both sides.
func (r *PersonRepository) List(ctx context.Context, nameFilter string, limit int) ([]database.PersonRecord, error) {
	query := `
		SELECT id, uid, name, document_id, embedding, model, dim, created_at
		FROM persons
	`
	args := []any{}
	if nameFilter != "" {
		query += ` WHERE LOWER(REPLACE(unaccent(name), '-', ' ')) LIKE '%' || $1 || '%'`
		args = append(args, database.NormalizeName(nameFilter))
	}
	query += fmt.Sprintf(` ORDER BY created_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list persons: %w", err)
	}
	defer rows.Close()

	return scanPersons(rows)
}

// Count returns the total number of enrolled identities.
func (r *PersonRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM persons").Scan(&count); err != nil {
		return 0, fmt.Errorf("count persons: %w", err)
	}
	return count, nil
}

// All returns every record, used to build the identify index at startup.
func (r *PersonRepository) All(ctx context.Context) ([]database.PersonRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, uid, name, document_id, embedding, model, dim, created_at
		FROM persons
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("query all persons: %w", err)
	}
	defer rows.Close()

	return scanPersons(rows)
}

// FindNearest returns up to limit records ordered by ascending cosine
// distance to the query embedding, using the pgvector HNSW index.
func (r *PersonRepository) FindNearest(ctx context.Context, embedding []float32, limit int) ([]database.PersonMatch, error) {
	if err := r.validateEmbedding(embedding, r.model); err != nil {
		return nil, err
	}

	// Read-only transaction so SET LOCAL scopes the ef_search tuning
	// to this query alone.
	tx, err := r.pool.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("SET LOCAL hnsw.ef_search = %d", hnswEfSearch)); err != nil {
		return nil, fmt.Errorf("set ef_search: %w", err)
	}

	vec := pgvector.NewVector(embedding)
	rows, err := tx.QueryContext(ctx, `
		SELECT id, uid, name, document_id, embedding, model, dim, created_at,
		       embedding <=> $1::vector AS distance
		FROM persons
		ORDER BY distance
		LIMIT $2
	`, vec, limit)
	if err != nil {
		return nil, fmt.Errorf("query nearest persons: %w", err)
	}
	defer rows.Close()

	var matches []database.PersonMatch
	for rows.Next() {
		var p database.PersonRecord
		var vec pgvector.Vector
		var distance float64
		if err := rows.Scan(&p.ID, &p.UID, &p.Name, &p.DocumentID, &vec, &p.Model, &p.Dim, &p.CreatedAt, &distance); err != nil {
			return nil, fmt.Errorf("scan person match: %w", err)
		}
		p.Embedding = vec.Slice()
		matches = append(matches, database.PersonMatch{Person: p, Distance: distance})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate person matches: %w", err)
	}

	return matches, nil
}

// validateEmbedding rejects vectors from a different embedding space
// before they reach the database.
func (r *PersonRepository) validateEmbedding(embedding []float32, model string) error {
	if len(embedding) != r.dim {
		return fmt.Errorf("%w: got %d, store requires %d", database.ErrDimensionMismatch, len(embedding), r.dim)
	}
	if model != r.model {
		return fmt.Errorf("%w: embedding model %q, store requires %q", database.ErrDimensionMismatch, model, r.model)
	}
	return nil
}

// validateStored guards reads: a stored vector whose recorded space
// disagrees with the configuration is a data-integrity failure, not
// material for a best-effort comparison.
func (r *PersonRepository) validateStored(record *database.PersonRecord) error {
	if record.Dim != r.dim || len(record.Embedding) != r.dim {
		return fmt.Errorf("%w: record %q has dim %d (%d values), store requires %d",
			database.ErrDimensionMismatch, record.DocumentID, record.Dim, len(record.Embedding), r.dim)
	}
	if record.Model != r.model {
		return fmt.Errorf("%w: record %q was enrolled with model %q, store requires %q",
			database.ErrDimensionMismatch, record.DocumentID, record.Model, r.model)
	}
	return nil
}

// rowScanner abstracts sql.Row and sql.Rows for scanPerson.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPerson(row rowScanner) (*database.PersonRecord, error) {
	var p database.PersonRecord
	var vec pgvector.Vector
	if err := row.Scan(&p.ID, &p.UID, &p.Name, &p.DocumentID, &vec, &p.Model, &p.Dim, &p.CreatedAt); err != nil {
		return nil, err
	}
	p.Embedding = vec.Slice()
	return &p, nil
}

func scanPersons(rows *sql.Rows) ([]database.PersonRecord, error) {
	var persons []database.PersonRecord
	for rows.Next() {
		p, err := scanPerson(rows)
		if err != nil {
			return nil, fmt.Errorf("scan person: %w", err)
		}
		persons = append(persons, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate persons: %w", err)
	}
	return persons, nil
}

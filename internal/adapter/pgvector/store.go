// Package pgvector implements the vector store on Postgres with the pgvector
// extension. Vectors cross the driver boundary as textual literals
// ('[v1,v2,...]') cast to the vector column type.
package pgvector

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ragcore/features/ingest"
	"ragcore/internal/retrieval"
)

type Store struct {
	db *sql.DB
}

func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// UpsertDocument creates the document on first ingest of a title and returns
// the existing id on every later one. Identity is a random UUID; the title
// carries its own uniqueness constraint. A non-empty source wins over the
// stored one, an empty source leaves it untouched.
func (s *Store) UpsertDocument(ctx context.Context, title, source string) (string, error) {
	query := `
		INSERT INTO rag_documents (document_id, title, source)
		VALUES ($1, $2, NULLIF($3, ''))
		ON CONFLICT (title) DO UPDATE
		  SET source = COALESCE(NULLIF(EXCLUDED.source, ''), rag_documents.source),
		      updated_at = NOW()
		RETURNING document_id`

	var id string
	err := s.db.QueryRowContext(ctx, query, uuid.New().String(), title, source).Scan(&id)
	if err != nil {
		return "", err
	}
	return id, nil
}

// ReplaceChunks swaps the document's chunk set inside one transaction. The
// advisory lock serializes concurrent ingests of the same document, and the
// transaction keeps the delete-then-insert invisible to readers until commit.
func (s *Store) ReplaceChunks(ctx context.Context, documentID string, chunks []ingest.StoredChunk) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, documentID); err != nil {
		return 0, err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM rag_chunks WHERE document_id = $1`, documentID); err != nil {
		return 0, err
	}

	inserted := 0
	for _, c := range chunks {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO rag_chunks (document_id, chunk_index, title, content, content_hash, embedding)
			VALUES ($1, $2, $3, $4, $5, $6::vector)`,
			documentID, c.ChunkIndex, c.Title, c.Content, c.ContentHash, VectorLiteral(c.Embedding))
		if err != nil {
			return 0, err
		}
		inserted++
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return inserted, nil
}

func (s *Store) CountChunks(ctx context.Context, documentID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rag_chunks WHERE document_id = $1`, documentID).Scan(&count)
	return count, err
}

// Query runs the ANN cosine search. Score is 1 - cosine distance; only hits
// at or above the threshold come back, closest first. The secondary order on
// (document_id, chunk_index) keeps equal-distance hits stable.
func (s *Store) Query(ctx context.Context, vector []float32, scoreThreshold float64, limit int) ([]retrieval.Hit, error) {
	query := `
		WITH q AS (SELECT $1::vector AS v)
		SELECT d.title,
		       c.chunk_index,
		       c.content,
		       1 - (c.embedding <=> (SELECT v FROM q)) AS score
		FROM rag_chunks c
		JOIN rag_documents d ON d.document_id = c.document_id
		WHERE 1 - (c.embedding <=> (SELECT v FROM q)) >= $2
		ORDER BY c.embedding <=> (SELECT v FROM q) ASC, c.document_id, c.chunk_index
		LIMIT $3`

	rows, err := s.db.QueryContext(ctx, query, VectorLiteral(vector), scoreThreshold, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var hits []retrieval.Hit
	for rows.Next() {
		var h retrieval.Hit
		if err := rows.Scan(&h.Title, &h.ChunkIndex, &h.Content, &h.Score); err != nil {
			return nil, err
		}
		hits = append(hits, h)
	}
	return hits, rows.Err()
}

func (s *Store) CountDocuments(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rag_documents`).Scan(&count)
	return count, err
}

func (s *Store) CountAllChunks(ctx context.Context) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM rag_chunks`).Scan(&count)
	return count, err
}

// VectorLiteral renders a vector as the pgvector textual literal with fixed
// precision, so identical vectors always produce identical literals.
func VectorLiteral(vector []float32) string {
	var sb strings.Builder
	sb.WriteByte('[')
	for i, v := range vector {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%.6f", v)
	}
	sb.WriteByte(']')
	return sb.String()
}

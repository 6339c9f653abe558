// Package artifact persists generated packages: metadata in SQL, bytes in
// the blob store.
package artifact

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/OPS-PIvers/Doc2LMS/internal/storage"
)

// ErrNotFound is returned when an artifact id has no row.
var ErrNotFound = errors.New("doc2lms: artifact not found")

// Ref identifies a stored artifact to callers of the conversion API.
type Ref struct {
	ID          string `json:"artifact_id"`
	DisplayName string `json:"display_name"`
}

// Meta is the stored metadata row for one artifact.
type Meta struct {
	Ref
	Format        string    `json:"format"`
	SizeBytes     int64     `json:"size_bytes"`
	QuestionCount int       `json:"question_count"`
	Warnings      []string  `json:"warnings,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type Store struct {
	db    *sql.DB
	blobs storage.BlobStore
}

func NewStore(h *sql.DB, blobs storage.BlobStore) *Store {
	return &Store{db: h, blobs: blobs}
}

func blobKey(id string) string { return "artifacts/" + id + ".zip" }

// Save stores the archive bytes and records metadata, returning the ref the
// conversion API hands back to clients.
func (s *Store) Save(ctx context.Context, displayName, format string, questionCount int, warnings []string, data []byte) (Ref, error) {
	id := uuid.NewString()
	if _, err := s.blobs.Put(blobKey(id), bytes.NewReader(data)); err != nil {
		return Ref{}, fmt.Errorf("storing artifact bytes: %w", err)
	}
	wj, err := json.Marshal(warnings)
	if err != nil {
		wj = []byte("[]")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO artifacts (id, display_name, format, size_bytes, question_count, warnings_json, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		id, displayName, format, int64(len(data)), questionCount, string(wj), time.Now().Unix())
	if err != nil {
		_ = s.blobs.Delete(blobKey(id))
		return Ref{}, fmt.Errorf("storing artifact metadata: %w", err)
	}
	return Ref{ID: id, DisplayName: displayName}, nil
}

// Get returns the metadata and an open reader over the archive bytes.
func (s *Store) Get(ctx context.Context, id string) (Meta, io.ReadCloser, error) {
	m, err := s.Stat(ctx, id)
	if err != nil {
		return Meta{}, nil, err
	}
	rc, err := s.blobs.Get(blobKey(id))
	if err != nil {
		return Meta{}, nil, fmt.Errorf("opening artifact bytes: %w", err)
	}
	return m, rc, nil
}

// Stat returns metadata only.
func (s *Store) Stat(ctx context.Context, id string) (Meta, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, display_name, format, size_bytes, question_count, warnings_json, created_at
		 FROM artifacts WHERE id = $1`, id)
	return scanMeta(row)
}

// List returns metadata for every stored artifact, newest first.
func (s *Store) List(ctx context.Context) ([]Meta, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, display_name, format, size_bytes, question_count, warnings_json, created_at
		 FROM artifacts ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Meta
	for rows.Next() {
		m, err := scanMeta(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMeta(r rowScanner) (Meta, error) {
	var m Meta
	var wj string
	var created int64
	err := r.Scan(&m.ID, &m.DisplayName, &m.Format, &m.SizeBytes, &m.QuestionCount, &wj, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Meta{}, ErrNotFound
	}
	if err != nil {
		return Meta{}, err
	}
	_ = json.Unmarshal([]byte(wj), &m.Warnings)
	m.CreatedAt = time.Unix(created, 0)
	return m, nil
}

package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jsliwa/docatlas"
)

// Compile-time interface verification.
var _ docatlas.RecordStore = (*RecordStore)(nil)

// RecordStore implements docatlas.RecordStore using SQLite. Endpoints and
// parameters are stored as a JSON payload; the columns queried by filters
// are first-class.
type RecordStore struct {
	db *DB
}

// NewRecordStore creates a new RecordStore.
func NewRecordStore(db *DB) *RecordStore {
	return &RecordStore{db: db}
}

// payload is the JSON-encoded portion of a record.
type payload struct {
	Endpoints  []docatlas.Endpoint  `json:"endpoints"`
	Parameters []docatlas.Parameter `json:"parameters"`
	Method     string               `json:"method"`
}

// SaveRecord inserts a record or overwrites the existing record for the
// same source URL. A new ID is assigned on insert; an overwrite keeps the
// original ID.
func (s *RecordStore) SaveRecord(ctx context.Context, rec *docatlas.ExtractionRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}

	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.ExtractedAt.IsZero() {
		rec.ExtractedAt = time.Now().UTC()
	}

	body, err := json.Marshal(payload{
		Endpoints:  rec.Endpoints,
		Parameters: rec.Parameters,
		Method:     rec.Method,
	})
	if err != nil {
		return fmt.Errorf("failed to encode record payload: %w", err)
	}

	// RETURNING reports the row's actual ID so that an overwrite reflects
	// the original record's ID back into rec.
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO extraction_records (id, source_url, payload, content_hash, extracted_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(source_url) DO UPDATE SET
			payload = excluded.payload,
			content_hash = excluded.content_hash,
			extracted_at = excluded.extracted_at
		RETURNING id
	`, rec.ID, rec.SourceURL, string(body), rec.ContentHash, rec.ExtractedAt.Format(time.RFC3339))

	return row.Scan(&rec.ID)
}

// FindRecordByURL retrieves the record for a normalized source URL.
func (s *RecordStore) FindRecordByURL(ctx context.Context, url string) (*docatlas.ExtractionRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, source_url, payload, content_hash, extracted_at
		FROM extraction_records
		WHERE source_url = ?
	`, url)

	rec, err := scanRecord(row.Scan)
	if err == sql.ErrNoRows {
		return nil, docatlas.Errorf(docatlas.ENOTFOUND, "no record for %s", url)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

// FindRecords retrieves records matching the filter, most recently
// extracted first.
func (s *RecordStore) FindRecords(ctx context.Context, filter docatlas.RecordFilter) ([]*docatlas.ExtractionRecord, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, source_url, payload, content_hash, extracted_at FROM extraction_records WHERE 1=1")

	if filter.SourceURL != nil {
		query.WriteString(" AND source_url = ?")
		args = append(args, *filter.SourceURL)
	}
	if filter.URLPrefix != nil {
		query.WriteString(" AND source_url LIKE ? || '%'")
		args = append(args, *filter.URLPrefix)
	}

	query.WriteString(" ORDER BY extracted_at DESC")

	if filter.Limit > 0 {
		query.WriteString(" LIMIT ?")
		args = append(args, filter.Limit)
	}
	if filter.Offset > 0 {
		query.WriteString(" OFFSET ?")
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recs []*docatlas.ExtractionRecord
	for rows.Next() {
		rec, err := scanRecord(rows.Scan)
		if err != nil {
			return nil, err
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// scanRecord decodes one row into a record through any row-shaped Scan.
func scanRecord(scan func(dest ...any) error) (*docatlas.ExtractionRecord, error) {
	var rec docatlas.ExtractionRecord
	var body, extractedAt string

	if err := scan(&rec.ID, &rec.SourceURL, &body, &rec.ContentHash, &extractedAt); err != nil {
		return nil, err
	}

	var p payload
	if err := json.Unmarshal([]byte(body), &p); err != nil {
		return nil, fmt.Errorf("failed to decode record payload: %w", err)
	}
	rec.Endpoints = p.Endpoints
	rec.Parameters = p.Parameters
	rec.Method = p.Method

	var err error
	rec.ExtractedAt, err = time.Parse(time.RFC3339, extractedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse extracted_at: %w", err)
	}

	return &rec, nil
}

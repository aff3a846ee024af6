package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/blackwell-systems/devinsight/internal/analysis"
)

// createdAtLayout is fixed-width so stored timestamps sort as text.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

const recordColumns = "id, source, path, project_type, framework, partial, route_count, created_at"

// InsertAnalysis archives res and returns the new record ID. An empty
// source falls back to the result path.
func (db *DB) InsertAnalysis(res analysis.Result) (string, error) {
	payload, err := json.Marshal(res)
	if err != nil {
		return "", fmt.Errorf("encoding result: %w", err)
	}
	source := res.Source
	if source == "" {
		source = res.Path
	}
	created := res.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	id := uuid.NewString()
	_, err = db.conn.Exec(
		`INSERT INTO analyses
		(id, source, path, project_type, framework, partial, route_count, created_at, result_json)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, source, res.Path, string(res.Classification.ProjectType), res.Framework,
		res.Partial, res.RouteCount(), created.UTC().Format(createdAtLayout), string(payload),
	)
	if err != nil {
		return "", fmt.Errorf("inserting analysis: %w", err)
	}
	return id, nil
}

// GetAnalysis returns the record with its full result, or nil if no
// record has that ID.
func (db *DB) GetAnalysis(id string) (*Record, error) {
	row := db.conn.QueryRow(
		"SELECT "+recordColumns+", result_json FROM analyses WHERE id = ?", id,
	)
	var payload string
	rec, err := scanRecord(row, &payload)
	if rec == nil || err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(payload), &rec.Result); err != nil {
		return nil, fmt.Errorf("decoding result %s: %w", id, err)
	}
	return rec, nil
}

// ListAnalyses returns up to limit records, newest first, without their
// results. A non-positive limit lists everything.
func (db *DB) ListAnalyses(limit int) ([]Record, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.conn.Query(
		"SELECT "+recordColumns+" FROM analyses ORDER BY created_at DESC, rowid DESC LIMIT ?", limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// LatestForSource returns the newest record for source with its full
// result, or nil if none exists.
func (db *DB) LatestForSource(source string) (*Record, error) {
	var id string
	err := db.conn.QueryRow(
		"SELECT id FROM analyses WHERE source = ? ORDER BY created_at DESC, rowid DESC LIMIT 1", source,
	).Scan(&id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return db.GetAnalysis(id)
}

// DeleteAnalysis removes a record. Deleting a missing ID is not an error.
func (db *DB) DeleteAnalysis(id string) error {
	_, err := db.conn.Exec("DELETE FROM analyses WHERE id = ?", id)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner, extra ...any) (*Record, error) {
	var r Record
	var createdAt string
	dest := append([]any{
		&r.ID, &r.Source, &r.Path, &r.ProjectType, &r.Framework,
		&r.Partial, &r.RouteCount, &createdAt,
	}, extra...)
	err := row.Scan(dest...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.CreatedAt, _ = time.Parse(createdAtLayout, createdAt)
	return &r, nil
}

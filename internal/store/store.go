// Package store persists uploaded datasets in SQLite so a dashboard
// request can reference an earlier upload by id instead of re-sending the
// whole record set.
package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/riskpulse-ai/riskpulse/internal/records"
)

// ErrNotFound is returned when no dataset exists under the given id.
var ErrNotFound = errors.New("dataset not found")

// Store wraps the SQLite handle.
type Store struct {
	db *sql.DB
}

// Open creates or opens the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open dataset store: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS datasets (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL DEFAULT '',
		row_count  INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	CREATE TABLE IF NOT EXISTS dataset_records (
		dataset_id TEXT NOT NULL,
		idx        INTEGER NOT NULL,
		fields     TEXT NOT NULL,
		PRIMARY KEY (dataset_id, idx)
	);
	CREATE INDEX IF NOT EXISTS idx_datasets_created_at ON datasets(created_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create dataset schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// SaveDataset stores a record set under a fresh id and returns the id.
func (s *Store) SaveDataset(name string, recs records.RecordSet) (string, error) {
	id := uuid.NewString()

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("begin save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`INSERT INTO datasets (id, name, row_count) VALUES (?, ?, ?)`,
		id, name, len(recs),
	); err != nil {
		return "", fmt.Errorf("insert dataset: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO dataset_records (dataset_id, idx, fields) VALUES (?, ?, ?)`)
	if err != nil {
		return "", fmt.Errorf("prepare record insert: %w", err)
	}
	defer stmt.Close()

	for i, rec := range recs {
		fields, err := json.Marshal(rec)
		if err != nil {
			return "", fmt.Errorf("encode record %d: %w", i, err)
		}
		if _, err := stmt.Exec(id, i, string(fields)); err != nil {
			return "", fmt.Errorf("insert record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit save: %w", err)
	}
	return id, nil
}

// Dataset loads a stored record set in its original order.
func (s *Store) Dataset(id string) (records.RecordSet, error) {
	var exists int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM datasets WHERE id = ?`, id).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("lookup dataset: %w", err)
	}
	if exists == 0 {
		return nil, ErrNotFound
	}

	rows, err := s.db.Query(
		`SELECT fields FROM dataset_records WHERE dataset_id = ? ORDER BY idx`, id)
	if err != nil {
		return nil, fmt.Errorf("query dataset records: %w", err)
	}
	defer rows.Close()

	var out records.RecordSet
	for rows.Next() {
		var fields string
		if err := rows.Scan(&fields); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		var rec records.Record
		if err := json.Unmarshal([]byte(fields), &rec); err != nil {
			return nil, fmt.Errorf("decode record: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dataset records: %w", err)
	}
	return out, nil
}

// PruneOlderThan deletes datasets created before now-age and returns how
// many were removed.
func (s *Store) PruneOlderThan(age time.Duration) (int, error) {
	cutoff := time.Now().UTC().Add(-age)

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin prune: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(
		`DELETE FROM dataset_records WHERE dataset_id IN (SELECT id FROM datasets WHERE created_at < ?)`,
		cutoff,
	); err != nil {
		return 0, fmt.Errorf("prune records: %w", err)
	}

	res, err := tx.Exec(`DELETE FROM datasets WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune datasets: %w", err)
	}
	n, _ := res.RowsAffected()

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit prune: %w", err)
	}
	return int(n), nil
}

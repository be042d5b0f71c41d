package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"depictsgo/pkg/db"
)

// SQLiteStore implements QueryLogStore, EditStore and DepictsStore on a
// single sqlite database.
type SQLiteStore struct {
	db *db.DB
}

// NewSQLiteStore creates a store backed by the given database.
func NewSQLiteStore(database *db.DB) *SQLiteStore {
	return &SQLiteStore{db: database}
}

// RecordQuery inserts one query execution record.
func (s *SQLiteStore) RecordQuery(ctx context.Context, rec *QueryRecord) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO query_log (id, template, query_hash, status_code, row_count, error, start_time, end_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Template, rec.QueryHash, rec.StatusCode, rec.RowCount, rec.Error, rec.StartTime, rec.EndTime)
	if err != nil {
		return fmt.Errorf("failed to record query: %w", err)
	}
	return nil
}

// RecentQueries returns the most recent query records, newest first.
func (s *SQLiteStore) RecentQueries(ctx context.Context, limit int) ([]*QueryRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, template, query_hash, status_code, row_count, error, start_time, end_time
		FROM query_log ORDER BY start_time DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query records: %w", err)
	}
	defer rows.Close()

	var records []*QueryRecord
	for rows.Next() {
		rec := &QueryRecord{}
		if err := rows.Scan(&rec.ID, &rec.Template, &rec.QueryHash, &rec.StatusCode,
			&rec.RowCount, &rec.Error, &rec.StartTime, &rec.EndTime); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SaveEdit inserts one curator edit.
func (s *SQLiteStore) SaveEdit(ctx context.Context, edit *Edit) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO edit (id, artwork_id, depicts_id, username, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		edit.ID, edit.ArtworkID, edit.DepictsID, edit.Username, edit.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save edit: %w", err)
	}
	return nil
}

// EditsForArtwork returns all edits recorded for an artwork, oldest first.
func (s *SQLiteStore) EditsForArtwork(ctx context.Context, artworkID int64) ([]*Edit, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, artwork_id, depicts_id, username, created_at
		FROM edit WHERE artwork_id = ? ORDER BY created_at`, artworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to query edits: %w", err)
	}
	defer rows.Close()

	var edits []*Edit
	for rows.Next() {
		edit := &Edit{}
		if err := rows.Scan(&edit.ID, &edit.ArtworkID, &edit.DepictsID, &edit.Username, &edit.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan edit: %w", err)
		}
		edits = append(edits, edit)
	}
	return edits, rows.Err()
}

// GetDepictsLabel returns the stored label for an item, or nil when unknown.
func (s *SQLiteStore) GetDepictsLabel(ctx context.Context, itemID int64) (*DepictsLabel, error) {
	label := &DepictsLabel{}
	err := s.db.QueryRowContext(ctx, `
		SELECT item_id, label, description, count
		FROM depicts_label WHERE item_id = ?`, itemID).
		Scan(&label.ItemID, &label.Label, &label.Description, &label.Count)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get depicts label: %w", err)
	}
	return label, nil
}

// SaveDepictsLabel inserts or replaces the label for an item.
func (s *SQLiteStore) SaveDepictsLabel(ctx context.Context, label *DepictsLabel) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO depicts_label (item_id, label, description, count)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(item_id) DO UPDATE SET
			label = excluded.label,
			description = excluded.description,
			count = excluded.count`,
		label.ItemID, label.Label, label.Description, label.Count)
	if err != nil {
		return fmt.Errorf("failed to save depicts label: %w", err)
	}
	return nil
}

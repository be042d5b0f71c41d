package store

import (
	"context"
	"time"
)

// QueryRecord is the execution metadata for one query service invocation.
type QueryRecord struct {
	ID         string
	Template   string
	QueryHash  string
	StatusCode int
	RowCount   int
	Error      string
	StartTime  time.Time
	EndTime    time.Time
}

// QueryLogStore records query execution metadata for observability.
type QueryLogStore interface {
	RecordQuery(ctx context.Context, rec *QueryRecord) error
	RecentQueries(ctx context.Context, limit int) ([]*QueryRecord, error)
}

// Edit is one recorded curator edit: a depicts value added to an artwork.
// Pushing the edit to the remote write API happens elsewhere.
type Edit struct {
	ID        string
	ArtworkID int64
	DepictsID int64
	Username  string
	CreatedAt time.Time
}

// EditStore persists curator edits.
type EditStore interface {
	SaveEdit(ctx context.Context, edit *Edit) error
	EditsForArtwork(ctx context.Context, artworkID int64) ([]*Edit, error)
}

// DepictsLabel is a locally known label for a depicts value, kept so
// suggestion lists render without an extra round trip.
type DepictsLabel struct {
	ItemID      int64
	Label       string
	Description string
	Count       int
}

// DepictsStore handles depicts label lookups.
type DepictsStore interface {
	GetDepictsLabel(ctx context.Context, itemID int64) (*DepictsLabel, error)
	SaveDepictsLabel(ctx context.Context, label *DepictsLabel) error
}

package store

import (
	"context"
	"time"
)

// Rating is one persisted question/answer/rating/provider outcome.
// Records are append-only: never mutated or deleted by this system.
type Rating struct {
	ID        int64
	UserID    int64
	Question  string
	Answer    string
	Rating    int
	Model     string
	CreatedAt time.Time
}

// Filter narrows aggregate queries. Zero-value fields are ignored.
type Filter struct {
	UserID *int64
	Model  string
}

// Store defines the rating log contract. Aggregate queries over an empty
// store return zero values, never an error. Implementations must accept
// concurrent appends from different sessions.
type Store interface {
	// Append persists a record and returns it with the assigned id.
	Append(ctx context.Context, r Rating) (Rating, error)
	Count(ctx context.Context, f Filter) (int64, error)
	// Average returns 0 when no rows match.
	Average(ctx context.Context, f Filter) (float64, error)
	// List returns a snapshot of all records for chart generation.
	List(ctx context.Context) ([]Rating, error)
	Close() error
}

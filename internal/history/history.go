package history

import (
	"context"
	"errors"
	"time"
)

// Errors returned by repositories.
var (
	ErrShutterIDRequired = errors.New("history: shutter id is required")
	ErrInvalidRetention  = errors.New("history: retention must be positive")
)

// List limits.
const (
	DefaultLimit = 50
	MaxLimit     = 200
)

// Entry is one recorded decision.
type Entry struct {
	ID        string    `json:"id"`
	ShutterID string    `json:"shutter_id"`
	Mode      string    `json:"mode"`
	Special   string    `json:"special,omitempty"`
	Reason    string    `json:"reason,omitempty"`
	Position  float64   `json:"position"`
	Output    *float64  `json:"output,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository stores and retrieves decision history.
type Repository interface {
	// Record stores an entry. A missing ID or CreatedAt is filled in.
	Record(ctx context.Context, entry Entry) error

	// List returns up to limit entries for a shutter, newest first.
	// A non-positive limit means DefaultLimit; larger than MaxLimit is capped.
	List(ctx context.Context, shutterID string, limit int) ([]Entry, error)

	// Prune deletes entries older than now minus olderThan and returns how
	// many were removed.
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// clampLimit applies DefaultLimit and MaxLimit.
func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

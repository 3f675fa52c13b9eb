package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// timestampLayout is fixed width so created_at sorts as text.
const timestampLayout = "2006-01-02T15:04:05.000Z"

// SQLiteRepository implements Repository on the shutter_history table.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a repository on an open, migrated database.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Record inserts an entry.
//
// Parameters:
//   - ctx: Context for cancellation and timeout
//   - entry: Decision to store; ShutterID is required
//
// Returns:
//   - error: ErrShutterIDRequired or the wrapped database error
func (r *SQLiteRepository) Record(ctx context.Context, entry Entry) error {
	if entry.ShutterID == "" {
		return ErrShutterIDRequired
	}
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}

	var output sql.NullFloat64
	if entry.Output != nil {
		output = sql.NullFloat64{Float64: *entry.Output, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO shutter_history (id, shutter_id, mode, special, reason, position, output, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.ShutterID,
		entry.Mode,
		entry.Special,
		entry.Reason,
		entry.Position,
		output,
		entry.CreatedAt.UTC().Format(timestampLayout),
	)
	if err != nil {
		return fmt.Errorf("inserting shutter history: %w", err)
	}
	return nil
}

// List returns recent entries for a shutter, newest first.
func (r *SQLiteRepository) List(ctx context.Context, shutterID string, limit int) ([]Entry, error) {
	if shutterID == "" {
		return nil, ErrShutterIDRequired
	}
	limit = clampLimit(limit)

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, shutter_id, mode, special, reason, position, output, created_at
		 FROM shutter_history
		 WHERE shutter_id = ?
		 ORDER BY created_at DESC, rowid DESC
		 LIMIT ?`,
		shutterID,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying shutter history: %w", err)
	}
	defer rows.Close()

	entries := make([]Entry, 0, limit)
	for rows.Next() {
		var e Entry
		var output sql.NullFloat64
		var createdAt string

		if err := rows.Scan(&e.ID, &e.ShutterID, &e.Mode, &e.Special, &e.Reason, &e.Position, &output, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning shutter history: %w", err)
		}
		if output.Valid {
			v := output.Float64
			e.Output = &v
		}
		if e.CreatedAt, err = time.Parse(timestampLayout, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shutter history: %w", err)
	}
	return entries, nil
}

// Prune deletes entries older than the retention window.
func (r *SQLiteRepository) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, ErrInvalidRetention
	}

	cutoff := r.now().UTC().Add(-olderThan).Format(timestampLayout)
	result, err := r.db.ExecContext(ctx, "DELETE FROM shutter_history WHERE created_at < ?", cutoff)
	if err != nil {
		return 0, fmt.Errorf("deleting shutter history: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("checking rows affected: %w", err)
	}
	return n, nil
}

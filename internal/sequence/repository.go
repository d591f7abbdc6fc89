package sequence

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var ErrEmptyPartition = errors.New("empty partition key")

// Store is satisfied by *pgxpool.Pool and pgx.Tx.
type Store interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repository numbers catalog events per partition (a product id, or the
// whole catalog for export events) so consumers can detect gaps and
// replays.
type Repository struct {
	store Store
}

func NewRepository(store Store) *Repository {
	return &Repository{store: store}
}

const nextSequenceSQL = `
	INSERT INTO event_sequence (partition_key, last_sequence)
	VALUES ($1, 1)
	ON CONFLICT (partition_key)
	DO UPDATE SET last_sequence = event_sequence.last_sequence + 1, updated_at = now()
	RETURNING last_sequence`

// NextSequence atomically increments and returns the next sequence for a
// partition, starting at 1.
func (r *Repository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, ErrEmptyPartition
	}

	var seq int64
	if err := r.store.QueryRow(ctx, nextSequenceSQL, partitionKey).Scan(&seq); err != nil {
		return 0, fmt.Errorf("next sequence for %s: %w", partitionKey, err)
	}
	return seq, nil
}

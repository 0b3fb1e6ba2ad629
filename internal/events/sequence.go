package events

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

type seqDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// SequenceRepository hands out a monotonically increasing sequence per
// partition key. The single upsert statement is atomic, so no explicit
// transaction is needed.
type SequenceRepository struct {
	db seqDB
}

func NewSequenceRepository(db seqDB) *SequenceRepository {
	return &SequenceRepository{db: db}
}

func (r *SequenceRepository) NextSequence(ctx context.Context, partitionKey string) (int64, error) {
	if partitionKey == "" {
		return 0, fmt.Errorf("partition key is required")
	}

	const query = `
INSERT INTO event_sequences (partition_key, last_sequence, updated_at)
VALUES ($1, 1, now())
ON CONFLICT (partition_key) DO UPDATE
SET last_sequence = event_sequences.last_sequence + 1, updated_at = now()
RETURNING last_sequence
`
	var next int64
	if err := r.db.QueryRow(ctx, query, partitionKey).Scan(&next); err != nil {
		return 0, fmt.Errorf("increment sequence: %w", err)
	}
	return next, nil
}

package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type prefillDB interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

// PostgresPrefillStore keeps the customer name and phone written after a
// confirmed order, read back to prefill the next checkout.
type PostgresPrefillStore struct {
	pool prefillDB
}

func NewPostgresPrefillStore(pool prefillDB) *PostgresPrefillStore {
	return &PostgresPrefillStore{pool: pool}
}

func (s *PostgresPrefillStore) Save(ctx context.Context, sessionID, name, phone string) error {
	_, err := s.pool.Exec(ctx, `
INSERT INTO customer_prefill (session_id, customer_name, customer_phone, updated_at)
VALUES ($1, $2, $3, now())
ON CONFLICT (session_id) DO UPDATE
SET customer_name=EXCLUDED.customer_name, customer_phone=EXCLUDED.customer_phone, updated_at=now()
`, sessionID, name, phone)
	if err != nil {
		return fmt.Errorf("upsert prefill: %w", err)
	}
	return nil
}

// Load returns empty strings when nothing was stored yet; that is not an
// error, the form just starts blank.
func (s *PostgresPrefillStore) Load(ctx context.Context, sessionID string) (string, string, error) {
	var name, phone string
	row := s.pool.QueryRow(ctx,
		`SELECT customer_name, customer_phone FROM customer_prefill WHERE session_id=$1`, sessionID)
	if err := row.Scan(&name, &phone); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", "", nil
		}
		return "", "", fmt.Errorf("select prefill: %w", err)
	}
	return name, phone, nil
}

package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var ErrNotFound = errors.New("not found")

// DBPool matches the methods from *pgxpool.Pool that we use, so tests can
// swap in a fake.
type DBPool interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type Repository interface {
	Load(ctx context.Context, sessionID string) (Cart, error)
	Save(ctx context.Context, sessionID string, c Cart) error
	Delete(ctx context.Context, sessionID string) error
}

type PostgresRepository struct {
	pool DBPool
}

func NewPostgresRepository(pool DBPool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) Load(ctx context.Context, sessionID string) (Cart, error) {
	var c Cart
	row := r.pool.QueryRow(ctx,
		`SELECT business_slug, table_id, order_note FROM carts WHERE session_id=$1`, sessionID)
	if err := row.Scan(&c.BusinessSlug, &c.TableID, &c.OrderNote); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Cart{}, ErrNotFound
		}
		return Cart{}, fmt.Errorf("select cart: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT id, product_id, product_name, quantity, unit_price, options
         FROM cart_lines WHERE session_id=$1 ORDER BY position`, sessionID)
	if err != nil {
		return Cart{}, fmt.Errorf("select cart_lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var li LineItem
		var opts []byte
		if err := rows.Scan(&li.ID, &li.ProductID, &li.ProductName, &li.Quantity, &li.UnitPrice, &opts); err != nil {
			return Cart{}, fmt.Errorf("scan cart_line: %w", err)
		}
		if len(opts) > 0 {
			if err := json.Unmarshal(opts, &li.Options); err != nil {
				return Cart{}, fmt.Errorf("decode line options: %w", err)
			}
		}
		c.Lines = append(c.Lines, li)
	}
	if err := rows.Err(); err != nil {
		return Cart{}, fmt.Errorf("rows: %w", err)
	}

	return c, nil
}

// Save writes the whole cart: upsert the head row, then replace the lines.
// Line position is the slice index so display order survives a reload.
func (r *PostgresRepository) Save(ctx context.Context, sessionID string, c Cart) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx, `
INSERT INTO carts (session_id, business_slug, table_id, order_note, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (session_id) DO UPDATE
SET business_slug=EXCLUDED.business_slug, table_id=EXCLUDED.table_id,
    order_note=EXCLUDED.order_note, updated_at=now()
`, sessionID, c.BusinessSlug, c.TableID, c.OrderNote)
	if err != nil {
		return fmt.Errorf("upsert cart: %w", err)
	}

	if _, err = tx.Exec(ctx, `DELETE FROM cart_lines WHERE session_id=$1`, sessionID); err != nil {
		return fmt.Errorf("delete cart_lines: %w", err)
	}

	for i, li := range c.Lines {
		var opts []byte
		if len(li.Options) > 0 {
			if opts, err = json.Marshal(li.Options); err != nil {
				return fmt.Errorf("encode line options: %w", err)
			}
		}
		_, err = tx.Exec(ctx, `
INSERT INTO cart_lines (id, session_id, product_id, product_name, quantity, unit_price, options, position)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
`, li.ID, sessionID, li.ProductID, li.ProductName, li.Quantity, li.UnitPrice, opts, i)
		if err != nil {
			return fmt.Errorf("insert cart_line: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, sessionID string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM carts WHERE session_id=$1`, sessionID); err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	return nil
}

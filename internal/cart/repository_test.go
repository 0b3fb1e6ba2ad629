package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

func TestPostgresRepository_SaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	pool := newMockPool()
	repo := NewPostgresRepository(pool)

	saved := Cart{
		BusinessSlug: "lezzet-burger",
		TableID:      "masa-3",
		OrderNote:    "no onions",
		Lines: []LineItem{
			{ID: "line-1", ProductID: "p1", ProductName: "Burger", Quantity: 2, UnitPrice: 120,
				Options: []SelectedOption{{GroupID: "size", OptionID: "large", Modifier: 15}}},
			{ID: "line-2", ProductID: "p2", ProductName: "Ayran", Quantity: 1, UnitPrice: 20},
		},
	}
	if err := repo.Save(ctx, "sess-1", saved); err != nil {
		t.Fatalf("save: %v", err)
	}
	if pool.lastTx == nil || !pool.lastTx.committed {
		t.Fatalf("save did not commit: %+v", pool.lastTx)
	}

	loaded, err := repo.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.BusinessSlug != "lezzet-burger" || loaded.TableID != "masa-3" || loaded.OrderNote != "no onions" {
		t.Fatalf("unexpected head row: %+v", loaded)
	}
	if len(loaded.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(loaded.Lines))
	}
	if loaded.Lines[0].ID != "line-1" || loaded.Lines[1].ID != "line-2" {
		t.Fatalf("line order not preserved: %+v", loaded.Lines)
	}
	if len(loaded.Lines[0].Options) != 1 || loaded.Lines[0].Options[0].Modifier != 15 {
		t.Fatalf("options not restored: %+v", loaded.Lines[0].Options)
	}
	if got := loaded.Subtotal(); got != 290 {
		t.Fatalf("subtotal after reload: got %v, want 290", got)
	}
}

func TestPostgresRepository_LoadMissing(t *testing.T) {
	repo := NewPostgresRepository(newMockPool())

	_, err := repo.Load(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresRepository_SaveReplacesLines(t *testing.T) {
	ctx := context.Background()
	pool := newMockPool()
	repo := NewPostgresRepository(pool)

	first := Cart{BusinessSlug: "lezzet-burger", Lines: []LineItem{
		{ID: "line-1", ProductID: "p1", Quantity: 1, UnitPrice: 100},
		{ID: "line-2", ProductID: "p2", Quantity: 1, UnitPrice: 50},
	}}
	if err := repo.Save(ctx, "sess-1", first); err != nil {
		t.Fatalf("save: %v", err)
	}

	second := Cart{BusinessSlug: "lezzet-burger", Lines: []LineItem{
		{ID: "line-3", ProductID: "p3", Quantity: 3, UnitPrice: 10},
	}}
	if err := repo.Save(ctx, "sess-1", second); err != nil {
		t.Fatalf("second save: %v", err)
	}

	loaded, err := repo.Load(ctx, "sess-1")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(loaded.Lines) != 1 || loaded.Lines[0].ID != "line-3" {
		t.Fatalf("old lines not replaced: %+v", loaded.Lines)
	}
}

func TestPostgresRepository_Delete(t *testing.T) {
	ctx := context.Background()
	pool := newMockPool()
	repo := NewPostgresRepository(pool)

	if err := repo.Save(ctx, "sess-1", Cart{BusinessSlug: "lezzet-burger"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Delete(ctx, "sess-1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.Load(ctx, "sess-1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("cart still present after delete: %v", err)
	}
}

func TestPostgresRepository_SaveBeginError(t *testing.T) {
	pool := newMockPool()
	pool.beginErr = errors.New("cannot begin")
	repo := NewPostgresRepository(pool)

	if err := repo.Save(context.Background(), "sess-1", Cart{}); err == nil {
		t.Fatalf("expected begin error")
	}
}

func TestPostgresRepository_SaveExecErrorRollsBack(t *testing.T) {
	pool := newMockPool()
	pool.execErr = errors.New("insert fail")
	repo := NewPostgresRepository(pool)

	if err := repo.Save(context.Background(), "sess-1", Cart{BusinessSlug: "lezzet-burger"}); err == nil {
		t.Fatalf("expected exec error")
	}
	if pool.lastTx == nil || pool.lastTx.committed {
		t.Fatalf("failed save must not commit")
	}
	if _, ok := pool.carts["sess-1"]; ok {
		t.Fatalf("failed save leaked state")
	}
}

type cartRow struct {
	businessSlug string
	tableID      string
	orderNote    string
}

type lineRow struct {
	id          string
	productID   string
	productName string
	quantity    int
	unitPrice   float64
	options     []byte
}

// mockPool keeps carts and lines in memory and answers the repository's SQL
// by inspecting the statement text. Transactions stage writes and apply them
// on commit.
type mockPool struct {
	carts map[string]cartRow
	lines map[string][]lineRow

	beginErr error
	execErr  error

	lastTx *mockTx
}

func newMockPool() *mockPool {
	return &mockPool{carts: make(map[string]cartRow), lines: make(map[string][]lineRow)}
}

func (p *mockPool) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	sessionID := args[0].(string)
	row, ok := p.carts[sessionID]
	if !ok {
		return mockRow{err: pgx.ErrNoRows}
	}
	return mockRow{values: []any{row.businessSlug, row.tableID, row.orderNote}}
}

func (p *mockPool) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	sessionID := args[0].(string)
	return &mockRows{lines: p.lines[sessionID], idx: -1}, nil
}

func (p *mockPool) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if p.execErr != nil {
		return pgconn.CommandTag{}, p.execErr
	}
	sessionID := args[0].(string)
	delete(p.carts, sessionID)
	delete(p.lines, sessionID)
	return pgconn.NewCommandTag("DELETE"), nil
}

func (p *mockPool) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	if p.beginErr != nil {
		return nil, p.beginErr
	}
	tx := &mockTx{pool: p, pendingLines: make(map[string][]lineRow)}
	p.lastTx = tx
	return tx, nil
}

// mockTx embeds pgx.Tx for interface completeness; only the methods the
// repository calls are implemented.
type mockTx struct {
	pgx.Tx
	pool *mockPool

	pendingCarts map[string]cartRow
	pendingLines map[string][]lineRow
	cleared      []string

	committed  bool
	rolledBack bool
}

func (tx *mockTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx.pool.execErr != nil {
		return pgconn.CommandTag{}, tx.pool.execErr
	}
	switch {
	case strings.Contains(sql, "INSERT INTO carts"):
		if tx.pendingCarts == nil {
			tx.pendingCarts = make(map[string]cartRow)
		}
		tx.pendingCarts[args[0].(string)] = cartRow{
			businessSlug: args[1].(string),
			tableID:      args[2].(string),
			orderNote:    args[3].(string),
		}
	case strings.Contains(sql, "DELETE FROM cart_lines"):
		tx.cleared = append(tx.cleared, args[0].(string))
	case strings.Contains(sql, "INSERT INTO cart_lines"):
		sessionID := args[1].(string)
		var opts []byte
		if args[6] != nil {
			opts = args[6].([]byte)
		}
		tx.pendingLines[sessionID] = append(tx.pendingLines[sessionID], lineRow{
			id:          args[0].(string),
			productID:   args[2].(string),
			productName: args[3].(string),
			quantity:    args[4].(int),
			unitPrice:   args[5].(float64),
			options:     opts,
		})
	default:
		return pgconn.CommandTag{}, fmt.Errorf("unexpected statement: %s", sql)
	}
	return pgconn.NewCommandTag("EXEC"), nil
}

func (tx *mockTx) Commit(ctx context.Context) error {
	for _, sessionID := range tx.cleared {
		delete(tx.pool.lines, sessionID)
	}
	for sessionID, row := range tx.pendingCarts {
		tx.pool.carts[sessionID] = row
	}
	for sessionID, rows := range tx.pendingLines {
		tx.pool.lines[sessionID] = append(tx.pool.lines[sessionID], rows...)
	}
	tx.committed = true
	return nil
}

func (tx *mockTx) Rollback(ctx context.Context) error {
	if !tx.committed {
		tx.rolledBack = true
	}
	return nil
}

type mockRow struct {
	values []any
	err    error
}

func (r mockRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	return scanInto(r.values, dest)
}

type mockRows struct {
	pgx.Rows
	lines []lineRow
	idx   int
}

func (r *mockRows) Next() bool {
	r.idx++
	return r.idx < len(r.lines)
}

func (r *mockRows) Scan(dest ...any) error {
	li := r.lines[r.idx]
	return scanInto([]any{li.id, li.productID, li.productName, li.quantity, li.unitPrice, li.options}, dest)
}

func (r *mockRows) Close() {}

func (r *mockRows) Err() error { return nil }

func scanInto(values, dest []any) error {
	if len(values) != len(dest) {
		return fmt.Errorf("scan: want %d destinations, got %d", len(values), len(dest))
	}
	for i, v := range values {
		switch d := dest[i].(type) {
		case *string:
			*d = v.(string)
		case *int:
			*d = v.(int)
		case *float64:
			*d = v.(float64)
		case *[]byte:
			if v == nil {
				*d = nil
			} else {
				*d = v.([]byte)
			}
		default:
			return fmt.Errorf("scan: unsupported destination %T", dest[i])
		}
	}
	return nil
}


package events

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
)

type fakeSeqDB struct {
	sequences map[string]int64
	fail      bool
}

type fakeSeqRow struct {
	value int64
	err   error
}

func (r fakeSeqRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	ptr, ok := dest[0].(*int64)
	if !ok {
		return errors.New("expected *int64 destination")
	}
	*ptr = r.value
	return nil
}

func (f *fakeSeqDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if f.fail {
		return fakeSeqRow{err: errors.New("db down")}
	}
	partition := args[0].(string)
	f.sequences[partition]++
	return fakeSeqRow{value: f.sequences[partition]}
}

func TestNextSequencePerPartition(t *testing.T) {
	db := &fakeSeqDB{sequences: make(map[string]int64)}
	repo := NewSequenceRepository(db)
	ctx := context.Background()

	seq, err := repo.NextSequence(ctx, "lezzet-burger")
	if err != nil || seq != 1 {
		t.Fatalf("first sequence: %d, %v", seq, err)
	}
	seq, err = repo.NextSequence(ctx, "lezzet-burger")
	if err != nil || seq != 2 {
		t.Fatalf("second sequence: %d, %v", seq, err)
	}
	seq, err = repo.NextSequence(ctx, "kahve-duragi")
	if err != nil || seq != 1 {
		t.Fatalf("other partition should start at 1: %d, %v", seq, err)
	}

	if _, err := repo.NextSequence(ctx, ""); err == nil {
		t.Fatalf("expected error for empty partition key")
	}

	db.fail = true
	if _, err := repo.NextSequence(ctx, "lezzet-burger"); err == nil {
		t.Fatalf("expected db error to surface")
	}
}

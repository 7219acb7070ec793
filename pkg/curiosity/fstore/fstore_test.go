package fstore

import (
	"errors"
	"path/filepath"
	"testing"

	"go.etcd.io/bbolt"

	"github.com/atthetable/curiosity/pkg/curiosity/curiosityerr"
)

func openTestDB(t *testing.T) *bbolt.DB {
	t.Helper()
	path := filepath.Join(t.TempDir(), "index.db")
	db, err := bbolt.Open(path, 0o600, nil)
	if err != nil {
		t.Fatalf("bbolt.Open: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestPutGet(t *testing.T) {
	db := openTestDB(t)
	store, err := Open(db)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := []byte("archived episode bytes")
	if err := store.Put(42, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	var got []byte
	err = store.Get(42, func(b []byte) error {
		got = append(got, b...)
		return nil
	})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(got) != string(want) {
		t.Errorf("Get returned %q, want %q", got, want)
	}
}

func TestGetMissing(t *testing.T) {
	db := openTestDB(t)
	store, err := Open(db)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	err = store.Get(999, func([]byte) error { return nil })
	if !errors.Is(err, curiosityerr.ErrNotFound) {
		t.Errorf("Get(missing) error = %v, want ErrNotFound", err)
	}
}

func TestTruncate(t *testing.T) {
	db := openTestDB(t)
	store, err := Open(db)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := store.Put(1, []byte("a")); err != nil {
		t.Fatalf("Put: %v", err)
	}
	if err := store.Truncate(); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 0 {
		t.Errorf("Count after truncate = %d, want 0", n)
	}

	err = store.Get(1, func([]byte) error { return nil })
	if !errors.Is(err, curiosityerr.ErrNotFound) {
		t.Errorf("Get after truncate error = %v, want ErrNotFound", err)
	}
}

func TestCount(t *testing.T) {
	db := openTestDB(t)
	store, err := Open(db)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for i := uint64(1); i <= 3; i++ {
		if err := store.Put(i, []byte("x")); err != nil {
			t.Fatalf("Put(%d): %v", i, err)
		}
	}

	n, err := store.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Errorf("Count() = %d, want 3", n)
	}
}

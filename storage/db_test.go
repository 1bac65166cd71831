package storage

import (
	"errors"
	"testing"
)

func TestMemDBGetMissingKey(t *testing.T) {
	db := NewMemDB()
	if _, err := db.Get([]byte("absent")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	ok, err := db.Has([]byte("absent"))
	if err != nil || ok {
		t.Fatalf("expected absent key, got ok=%v err=%v", ok, err)
	}
}

func TestMemDBRoundTrip(t *testing.T) {
	db := NewMemDB()
	if err := db.Put([]byte("k"), []byte("v1")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	if err := db.Put([]byte("k"), []byte("v2")); err != nil {
		t.Fatalf("overwrite failed: %v", err)
	}
	value, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(value) != "v2" {
		t.Fatalf("expected v2, got %q", value)
	}
}

func TestMemDBCopiesValues(t *testing.T) {
	db := NewMemDB()
	original := []byte("payload")
	if err := db.Put([]byte("k"), original); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	original[0] = 'X'

	value, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(value) != "payload" {
		t.Fatalf("stored value aliased caller slice: %q", value)
	}
	value[0] = 'Y'

	again, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if string(again) != "payload" {
		t.Fatalf("returned value aliased store: %q", again)
	}
}

func TestLevelDBRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db, err := NewLevelDB(dir)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer db.Close()

	if _, err := db.Get([]byte("absent")); !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("expected ErrKeyNotFound, got %v", err)
	}
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put failed: %v", err)
	}
	value, err := db.Get([]byte("k"))
	if err != nil || string(value) != "v" {
		t.Fatalf("get returned %q, %v", value, err)
	}
	ok, err := db.Has([]byte("k"))
	if err != nil || !ok {
		t.Fatalf("expected key present, got ok=%v err=%v", ok, err)
	}
}

package kv

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

// backends returns a fresh instance of every Store implementation with the
// given capacity.
func backends(t *testing.T, capacity int) map[string]Store {
	t.Helper()
	dir := t.TempDir()

	sq, err := OpenSQLite(filepath.Join(dir, "kv.db"), capacity)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = sq.Close() })

	bl, err := OpenBolt(filepath.Join(dir, "kv.bolt"), capacity)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = bl.Close() })

	return map[string]Store{
		"sqlite": sq,
		"bolt":   bl,
		"memory": NewMemory(capacity),
	}
}

func TestGetAbsentKey(t *testing.T) {
	for name, s := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			v, ok, err := s.Get("never-written")
			if err != nil {
				t.Fatalf("Get() error = %v", err)
			}
			if ok || v != nil {
				t.Errorf("Get() = %q, %v; want absent", v, ok)
			}
		})
	}
}

func TestSetGetOverwrite(t *testing.T) {
	for name, s := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set(KeyTopics, []byte("one")); err != nil {
				t.Fatal(err)
			}
			if err := s.Set(KeyTopics, []byte("two")); err != nil {
				t.Fatal(err)
			}
			v, ok, err := s.Get(KeyTopics)
			if err != nil || !ok {
				t.Fatalf("Get() = %v, %v", ok, err)
			}
			if !bytes.Equal(v, []byte("two")) {
				t.Errorf("value = %q, want two", v)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	for name, s := range backends(t, 0) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set(KeyActive, []byte("t1")); err != nil {
				t.Fatal(err)
			}
			if err := s.Delete(KeyActive); err != nil {
				t.Fatal(err)
			}
			if _, ok, _ := s.Get(KeyActive); ok {
				t.Error("key still present after Delete")
			}
			// Deleting an absent key is a no-op.
			if err := s.Delete("missing"); err != nil {
				t.Errorf("Delete(missing) error = %v", err)
			}
		})
	}
}

func TestCapacityExceeded(t *testing.T) {
	for name, s := range backends(t, 100) {
		t.Run(name, func(t *testing.T) {
			small := []byte(strings.Repeat("a", 50))
			if err := s.Set(KeyTopics, small); err != nil {
				t.Fatalf("small write failed: %v", err)
			}

			big := []byte(strings.Repeat("b", 200))
			err := s.Set(KeyTopics, big)
			if !errors.Is(err, ErrCapacityExceeded) {
				t.Fatalf("Set() error = %v, want ErrCapacityExceeded", err)
			}

			// The failed write must not disturb the stored value.
			v, ok, err := s.Get(KeyTopics)
			if err != nil || !ok {
				t.Fatalf("Get() = %v, %v", ok, err)
			}
			if !bytes.Equal(v, small) {
				t.Errorf("value changed after failed Set")
			}
		})
	}
}

func TestCapacityCountsReplacedValueOnce(t *testing.T) {
	for name, s := range backends(t, 100) {
		t.Run(name, func(t *testing.T) {
			if err := s.Set("k", []byte(strings.Repeat("a", 90))); err != nil {
				t.Fatal(err)
			}
			// Replacing the same key with a value of equal size stays within
			// capacity: the old value is released by the overwrite.
			if err := s.Set("k", []byte(strings.Repeat("b", 90))); err != nil {
				t.Errorf("replace within capacity failed: %v", err)
			}
		})
	}
}

func TestSQLiteReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kv.db")
	s, err := OpenSQLite(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Set(KeyTopics, []byte("persisted")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s2, err := OpenSQLite(path, 0)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = s2.Close() }()
	v, ok, err := s2.Get(KeyTopics)
	if err != nil || !ok {
		t.Fatalf("Get() after reopen = %v, %v", ok, err)
	}
	if string(v) != "persisted" {
		t.Errorf("value = %q, want persisted", v)
	}
}

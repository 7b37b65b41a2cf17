package kv

import (
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"
)

var boltBucket = []byte("kv")

// Bolt is the bbolt-backed bounded store, selected with backend = "bolt".
type Bolt struct {
	db       *bolt.DB
	capacity int
}

// OpenBolt opens (creating if needed) the kv database at path. capacity is
// the quota in bytes; zero or less means unbounded.
func OpenBolt(path string, capacity int) (*Bolt, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt db: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(boltBucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}
	return &Bolt{db: db, capacity: capacity}, nil
}

// Get returns the stored value for key.
func (b *Bolt) Get(key string) ([]byte, bool, error) {
	var value []byte
	var found bool
	err := b.db.View(func(tx *bolt.Tx) error {
		v := tx.Bucket(boltBucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		found = true
		value = make([]byte, len(v))
		copy(value, v)
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

// Set stores value under key, enforcing the capacity. The handful of keys
// the client uses keeps the usage scan cheap.
func (b *Bolt) Set(key string, value []byte) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		bkt := tx.Bucket(boltBucket)
		if b.capacity > 0 {
			used := entrySize(key, value)
			err := bkt.ForEach(func(k, v []byte) error {
				if string(k) != key {
					used += len(k) + len(v)
				}
				return nil
			})
			if err != nil {
				return err
			}
			if used > b.capacity {
				return ErrCapacityExceeded
			}
		}
		return bkt.Put([]byte(key), value)
	})
}

// Delete removes key if present.
func (b *Bolt) Delete(key string) error {
	return b.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(boltBucket).Delete([]byte(key))
	})
}

// Close closes the underlying database.
func (b *Bolt) Close() error {
	return b.db.Close()
}

package hoststore

import (
	"errors"
	"fmt"
	"sync"

	badger "github.com/dgraph-io/badger/v4"
)

var _ Store = (*BadgerStore)(nil)

// BadgerStore is the durable Store, kept in a BadgerDB directory. Sizes are
// tracked in memory so capacity checks do not scan the database.
type BadgerStore struct {
	mu       sync.Mutex
	db       *badger.DB
	sizes    map[string]int64
	used     int64
	capacity int64
}

// OpenBadger opens (or creates) a BadgerStore. dir can be:
//   - empty string or ":memory:" for an in-memory store (ephemeral)
//   - a directory path for persistent storage
//
// capacity is in bytes; 0 means unlimited.
func OpenBadger(dir string, capacity int64) (*BadgerStore, error) {
	var opts badger.Options
	if dir == "" || dir == ":memory:" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(dir)
	}
	opts = opts.WithLogger(nil)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger %q: %w", dir, err)
	}

	s := &BadgerStore{db: db, sizes: make(map[string]int64), capacity: capacity}
	if err := s.loadSizes(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// loadSizes scans key and value sizes once at open.
func (s *BadgerStore) loadSizes() error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()
		for it.Rewind(); it.Valid(); it.Next() {
			item := it.Item()
			size := item.KeySize() + item.ValueSize()
			s.sizes[string(item.Key())] = size
			s.used += size
		}
		return nil
	})
}

// Get implements Store.
func (s *BadgerStore) Get(key string) (string, bool, error) {
	s.mu.Lock()
	db := s.db
	s.mu.Unlock()
	if db == nil {
		return "", false, ErrClosed
	}

	var value []byte
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get %q: %w", key, err)
	}
	return string(value), true, nil
}

// Set implements Store.
func (s *BadgerStore) Set(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	size := entrySize(key, value)
	used := s.used - s.sizes[key] + size
	if s.capacity > 0 && used > s.capacity {
		return ErrQuotaExceeded
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(key), []byte(value))
	})
	if err != nil {
		return fmt.Errorf("set %q: %w", key, err)
	}
	s.sizes[key] = size
	s.used = used
	return nil
}

// Remove implements Store.
func (s *BadgerStore) Remove(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return ErrClosed
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(key))
	})
	if err != nil {
		return fmt.Errorf("remove %q: %w", key, err)
	}
	s.used -= s.sizes[key]
	delete(s.sizes, key)
	return nil
}

// Size implements Store.
func (s *BadgerStore) Size(key string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int(s.sizes[key])
}

// Close releases the database. Close is idempotent.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

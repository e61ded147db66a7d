// Package state holds reactive in-memory containers whose value is persisted
// through a named-blob Storage such as the bridge.
package state

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/mesh-intelligence/daybook/internal/kvstore"
	"github.com/mesh-intelligence/daybook/pkg/types"
)

// Storage reads and writes named blobs.
type Storage interface {
	GetItem(ctx context.Context, name string) (string, bool, error)
	SetItem(ctx context.Context, name, value string) error
}

// defaulter is implemented by values that fill in missing fields.
type defaulter[T any] interface {
	WithDefaults() T
}

// Listener receives the complete wrapped value after every change.
type Listener func(name, value string)

// Store is a reactive container for a value of type T.
type Store[T any] struct {
	name    string
	initial T
	storage Storage

	mu        sync.RWMutex
	value     T
	version   int
	listeners map[int]Listener
	nextID    int
}

// New creates a container named name holding initial. The version is the
// container's own format version, written alongside the state.
func New[T any](name string, initial T, storage Storage, version int) *Store[T] {
	return &Store[T]{
		name:      name,
		initial:   initial,
		storage:   storage,
		value:     initial,
		version:   version,
		listeners: make(map[int]Listener),
	}
}

// NewItems creates the items container.
func NewItems(storage Storage) *Store[types.ItemCollection] {
	return New(types.KeyItems, types.EmptyItems(), storage, 0)
}

// NewSettings creates the settings container.
func NewSettings(storage Storage) *Store[types.Settings] {
	return New(types.KeySettings, types.DefaultSettings(), storage, 0)
}

// Name returns the storage name of the container.
func (s *Store[T]) Name() string {
	return s.name
}

// Get returns the current value.
func (s *Store[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.value
}

// Set replaces the value and notifies listeners.
func (s *Store[T]) Set(v T) error {
	s.mu.Lock()
	s.value = v
	encoded, err := kvstore.Wrap(v, s.version)
	listeners := make([]Listener, 0, len(s.listeners))
	for _, l := range s.listeners {
		listeners = append(listeners, l)
	}
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("encode %s: %w", s.name, err)
	}
	for _, l := range listeners {
		l(s.name, string(encoded))
	}
	return nil
}

// Update applies fn to the current value and stores the result.
func (s *Store[T]) Update(fn func(T) T) error {
	return s.Set(fn(s.Get()))
}

// Subscribe registers l and returns a function that removes it.
func (s *Store[T]) Subscribe(l Listener) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = l
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.listeners, id)
	}
}

// Rehydrate reloads the value from storage without notifying listeners. A
// missing blob resets the container to its initial value.
func (s *Store[T]) Rehydrate(ctx context.Context) error {
	raw, ok, err := s.storage.GetItem(ctx, s.name)
	if err != nil {
		return fmt.Errorf("rehydrate %s: %w", s.name, err)
	}

	next := s.initial
	if ok && raw != "" {
		inner, err := kvstore.Unwrap([]byte(raw))
		if err != nil {
			return fmt.Errorf("rehydrate %s: %w", s.name, err)
		}
		var v T
		if err := json.Unmarshal(inner, &v); err != nil {
			return fmt.Errorf("rehydrate %s: %w: %v", s.name, types.ErrMalformedData, err)
		}
		if d, ok := any(v).(defaulter[T]); ok {
			v = d.WithDefaults()
		}
		next = v
	}

	s.mu.Lock()
	s.value = next
	s.mu.Unlock()
	return nil
}

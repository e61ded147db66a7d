// Package hoststoretest provides host store doubles for tests.
package hoststoretest

import (
	"errors"
	"strings"
	"sync"

	"github.com/mesh-intelligence/daybook/internal/hoststore"
)

// ErrInjected is the error a Faulty store returns for injected failures.
var ErrInjected = errors.New("injected host store failure")

var _ hoststore.Store = (*Faulty)(nil)

// Faulty wraps a Store and fails selected operations on demand.
type Faulty struct {
	hoststore.Store

	mu         sync.Mutex
	failGet    bool
	failSet    bool
	failRemove bool
	setPrefix  string
	sets       map[string]int
}

// NewFaulty wraps inner. A nil inner gets an unlimited MemoryStore.
func NewFaulty(inner hoststore.Store) *Faulty {
	if inner == nil {
		inner = hoststore.NewMemoryStore(0)
	}
	return &Faulty{Store: inner, sets: make(map[string]int)}
}

// FailAll makes every operation fail (an unavailable host store).
func (f *Faulty) FailAll(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failGet, f.failSet, f.failRemove = fail, fail, fail
	f.setPrefix = ""
}

// FailSets makes Set fail for keys with the given prefix ("" means all keys).
func (f *Faulty) FailSets(fail bool, prefix string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failSet = fail
	f.setPrefix = prefix
}

// SetCount returns how many successful Set calls key has received.
func (f *Faulty) SetCount(key string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.sets[key]
}

// Get implements hoststore.Store.
func (f *Faulty) Get(key string) (string, bool, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return "", false, ErrInjected
	}
	return f.Store.Get(key)
}

// Set implements hoststore.Store.
func (f *Faulty) Set(key, value string) error {
	f.mu.Lock()
	fail := f.failSet && strings.HasPrefix(key, f.setPrefix)
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	if err := f.Store.Set(key, value); err != nil {
		return err
	}
	f.mu.Lock()
	f.sets[key]++
	f.mu.Unlock()
	return nil
}

// Remove implements hoststore.Store.
func (f *Faulty) Remove(key string) error {
	f.mu.Lock()
	fail := f.failRemove
	f.mu.Unlock()
	if fail {
		return ErrInjected
	}
	return f.Store.Remove(key)
}

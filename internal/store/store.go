// Package store provides the ordered, keyed in-memory cache used for one
// resource collection of an owner session.
package store

import (
	"errors"
	"fmt"
	"sync"
)

var (
	ErrNotFound    = errors.New("id not found in store")
	ErrDuplicateID = errors.New("id already present in store")
)

// Entity is anything that can be cached by its id.
type Entity interface {
	Key() string
}

// KeyError reports a store operation that referenced an absent or
// already-present id.
type KeyError struct {
	Op  string
	ID  string
	Err error
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("store %s %q: %v", e.Op, e.ID, e.Err)
}

func (e *KeyError) Unwrap() error {
	return e.Err
}

// Store keeps items in an explicit order with an id index.
//
// Every successful mutation bumps Version, which callers use to detect that the
// collection changed between two points in time. Failed mutations leave both
// the contents and the version untouched.
type Store[T Entity] struct {
	mu      sync.RWMutex
	items   []T
	index   map[string]int
	version uint64
}

// New returns an empty store.
func New[T Entity]() *Store[T] {
	return &Store[T]{index: make(map[string]int)}
}

// Load replaces the whole collection with items, in the given order.
// When items repeats an id only its first occurrence is kept.
func (s *Store[T]) Load(items []T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fillLocked(items)
	s.version++
}

// InsertFront adds item at the head of the collection.
func (s *Store[T]) InsertFront(item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := item.Key()
	if _, ok := s.index[k]; ok {
		return &KeyError{Op: "insert", ID: k, Err: ErrDuplicateID}
	}

	s.items = append(s.items, item)
	copy(s.items[1:], s.items[:len(s.items)-1])
	s.items[0] = item
	s.reindexLocked()
	s.version++
	return nil
}

// ReplaceByID swaps the item stored under id for item, keeping its position.
func (s *Store[T]) ReplaceByID(id string, item T) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return &KeyError{Op: "replace", ID: id, Err: ErrNotFound}
	}
	if k := item.Key(); k != id {
		if _, taken := s.index[k]; taken {
			return &KeyError{Op: "replace", ID: k, Err: ErrDuplicateID}
		}
		delete(s.index, id)
		s.index[k] = pos
	}
	s.items[pos] = item
	s.version++
	return nil
}

// RemoveByID deletes exactly one entry and closes the gap.
func (s *Store[T]) RemoveByID(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.index[id]
	if !ok {
		return &KeyError{Op: "remove", ID: id, Err: ErrNotFound}
	}
	s.items = append(s.items[:pos], s.items[pos+1:]...)
	s.reindexLocked()
	s.version++
	return nil
}

// Clear empties the collection.
func (s *Store[T]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.index = make(map[string]int)
	s.version++
}

// List returns the current items in order. The returned slice is a copy.
func (s *Store[T]) List() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Get returns the item stored under id.
func (s *Store[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var zero T
	pos, ok := s.index[id]
	if !ok {
		return zero, false
	}
	return s.items[pos], true
}

func (s *Store[T]) Has(id string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.index[id]
	return ok
}

func (s *Store[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}

// IDs returns the ids of the current items in order.
func (s *Store[T]) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, len(s.items))
	for i, it := range s.items {
		ids[i] = it.Key()
	}
	return ids
}

// Version returns the mutation counter.
func (s *Store[T]) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// LoadIfVersion behaves like Load but only when the store is still at
// version want. It reports whether the load was applied.
func (s *Store[T]) LoadIfVersion(want uint64, items []T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version != want {
		return false
	}
	s.fillLocked(items)
	s.version++
	return true
}

func (s *Store[T]) fillLocked(items []T) {
	s.items = make([]T, 0, len(items))
	s.index = make(map[string]int, len(items))
	for _, it := range items {
		k := it.Key()
		if _, dup := s.index[k]; dup {
			continue
		}
		s.index[k] = len(s.items)
		s.items = append(s.items, it)
	}
}

func (s *Store[T]) reindexLocked() {
	s.index = make(map[string]int, len(s.items))
	for i, it := range s.items {
		s.index[it.Key()] = i
	}
}

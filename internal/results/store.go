// Package results holds the keyed result store shared by one selection session.
package results

import "sort"

// Key identifies a value in the store.
type Key string

// absent is the type of the Absent sentinel.
type absent struct{}

func (absent) String() string { return "<absent>" }

// Absent is returned by Get when a key has no value.
var Absent any = absent{}

// Store is a keyed store of selection results. The zero value is ready to use.
//
// Store performs no locking. Callers serialize writes; in practice the owning
// session holds a mutex around every callback.
type Store struct {
	values map[Key]any
}

// New creates an empty Store.
func New() *Store {
	return &Store{values: make(map[Key]any)}
}

// Set stores value under key. Setting nil is equivalent to Delete.
func (s *Store) Set(key Key, value any) {
	if value == nil {
		delete(s.values, key)
		return
	}
	if s.values == nil {
		s.values = make(map[Key]any)
	}
	s.values[key] = value
}

// Get returns the value stored under key, or Absent.
func (s *Store) Get(key Key) any {
	v, ok := s.values[key]
	if !ok {
		return Absent
	}
	return v
}

// Lookup returns the value stored under key and whether it was present.
func (s *Store) Lookup(key Key) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}

// Delete removes key from the store.
func (s *Store) Delete(key Key) {
	delete(s.values, key)
}

// Keys returns the stored keys in lexical order.
func (s *Store) Keys() []Key {
	keys := make([]Key, 0, len(s.values))
	for k := range s.values {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the number of stored keys.
func (s *Store) Len() int { return len(s.values) }

// IsAbsent reports whether v is the Absent sentinel.
func IsAbsent(v any) bool {
	_, ok := v.(absent)
	return ok
}

// Typed returns the value under key converted to T. The second result is false
// when the key is missing or holds a value of another type.
func Typed[T any](s *Store, key Key) (T, bool) {
	var zero T
	v, ok := s.values[key]
	if !ok {
		return zero, false
	}
	t, ok := v.(T)
	if !ok {
		return zero, false
	}
	return t, true
}

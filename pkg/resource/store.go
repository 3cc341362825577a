// Package resource provides the named, typed resource store that conscript
// commands populate. Resources are keyed by Go type and name, so a palette
// and a sound may share a name without colliding.
package resource

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
)

// TempPrefix marks a resource name as temporary. Temporary resources live in
// a separate store scoped to the active LOAD chain.
const TempPrefix = "temp_"

var (
	// ErrNotFound is returned when a resource does not exist.
	ErrNotFound = errors.New("resource not found")
	// ErrExists is returned when adding a resource whose name is taken.
	ErrExists = errors.New("resource already exists")
)

// IsTemporary reports whether name uses the temporary-resource prefix.
func IsTemporary(name string) bool {
	return strings.HasPrefix(name, TempPrefix)
}

// Store holds resources by type and name. It is not safe for concurrent
// use; scripts are loaded on a single goroutine.
type Store struct {
	entries map[reflect.Type]map[string]any
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{entries: make(map[reflect.Type]map[string]any)}
}

func bucket[T any](s *Store, create bool) map[string]any {
	t := reflect.TypeOf((*T)(nil)).Elem()
	b, ok := s.entries[t]
	if !ok && create {
		b = make(map[string]any)
		s.entries[t] = b
	}
	return b
}

// Contains reports whether a resource of type T named name exists.
func Contains[T any](s *Store, name string) bool {
	_, ok := bucket[T](s, false)[name]
	return ok
}

// Get returns the resource of type T named name.
func Get[T any](s *Store, name string) (T, error) {
	v, ok := bucket[T](s, false)[name]
	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %q", ErrNotFound, typeName[T](), name)
	}
	return v.(T), nil
}

// Add stores value under name, failing if a resource of type T already
// uses that name.
func Add[T any](s *Store, name string, value T) error {
	b := bucket[T](s, true)
	if _, ok := b[name]; ok {
		return fmt.Errorf("%w: %s %q", ErrExists, typeName[T](), name)
	}
	b[name] = value
	return nil
}

// Set stores value under name, replacing any existing resource of type T.
func Set[T any](s *Store, name string, value T) {
	bucket[T](s, true)[name] = value
}

// Remove deletes the resource of type T named name. It reports whether the
// resource existed.
func Remove[T any](s *Store, name string) bool {
	b := bucket[T](s, false)
	if _, ok := b[name]; ok {
		delete(b, name)
		return true
	}
	return false
}

// Names returns the names of every resource of type T, sorted.
func Names[T any](s *Store) []string {
	b := bucket[T](s, false)
	names := make([]string, 0, len(b))
	for k := range b {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// Len returns the total number of resources across all types.
func (s *Store) Len() int {
	n := 0
	for _, b := range s.entries {
		n += len(b)
	}
	return n
}

// Summary returns the number of resources per type name.
func (s *Store) Summary() map[string]int {
	out := make(map[string]int, len(s.entries))
	for t, b := range s.entries {
		if len(b) > 0 {
			out[t.String()] = len(b)
		}
	}
	return out
}

// Clear removes every resource.
func (s *Store) Clear() {
	s.entries = make(map[reflect.Type]map[string]any)
}

func typeName[T any]() string {
	return reflect.TypeOf((*T)(nil)).Elem().String()
}

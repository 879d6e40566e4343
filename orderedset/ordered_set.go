// Package orderedset provides a generic set that remembers the order in which
// elements were added. It backs rosters that are displayed as lists but must
// never hold duplicates.
package orderedset

// Set is a collection of unique elements of comparable type T that preserves
// insertion order. It is not safe for concurrent use; callers own it from a
// single goroutine.
type Set[T comparable] struct {
	index map[T]int
	items []T
}

// New creates and returns a new empty Set.
func New[T comparable]() *Set[T] {
	return &Set[T]{index: make(map[T]int)}
}

// Add appends value to the set if it is not already present.
//
// Parameters:
//   - value: The element to add
//
// Returns:
//   - true if value was added, false if it was already a member
func (s *Set[T]) Add(value T) bool {
	if _, ok := s.index[value]; ok {
		return false
	}

	s.index[value] = len(s.items)
	s.items = append(s.items, value)
	return true
}

// Remove deletes value from the set, keeping the relative order of the
// remaining elements.
//
// Parameters:
//   - value: The element to remove
//
// Returns:
//   - true if value was a member and has been removed
func (s *Set[T]) Remove(value T) bool {
	i, ok := s.index[value]
	if !ok {
		return false
	}

	delete(s.index, value)
	s.items = append(s.items[:i], s.items[i+1:]...)
	for j := i; j < len(s.items); j++ {
		s.index[s.items[j]] = j
	}

	return true
}

// Contains reports whether the set contains the given element.
func (s *Set[T]) Contains(value T) bool {
	_, ok := s.index[value]
	return ok
}

// Len returns the number of elements in the set.
func (s *Set[T]) Len() int {
	return len(s.items)
}

// Newest returns the elements with the most recently added first. The
// returned slice is a copy.
func (s *Set[T]) Newest() []T {
	out := make([]T, len(s.items))
	for i, v := range s.items {
		out[len(s.items)-1-i] = v
	}

	return out
}

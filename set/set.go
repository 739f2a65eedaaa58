// Package set provides a minimal generic set.
package set

// Set is an unordered collection of distinct values. The zero value is ready to use.
type Set[T comparable] struct {
	items map[T]struct{}
}

// Of returns a set holding the given values.
func Of[T comparable](values ...T) *Set[T] {
	s := &Set[T]{}
	for _, v := range values {
		s.Insert(v)
	}
	return s
}

// Insert adds k and reports whether it was absent.
func (s *Set[T]) Insert(k T) bool {
	if s.items == nil {
		s.items = make(map[T]struct{})
	}
	if _, ok := s.items[k]; ok {
		return false
	}
	s.items[k] = struct{}{}
	return true
}

func (s *Set[T]) Contains(k T) bool {
	_, ok := s.items[k]
	return ok
}

func (s *Set[T]) Len() int {
	return len(s.items)
}

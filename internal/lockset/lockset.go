// Package lockset provides one mutex per key.
package lockset

import (
	"sort"
	"sync"
)

type entry struct {
	mu   sync.Mutex
	refs int
}

// Set hands out a mutex per key. Entries are dropped once no goroutine holds
// or waits on them.
type Set struct {
	mu      sync.Mutex
	entries map[string]*entry
}

func New() *Set {
	return &Set{entries: make(map[string]*entry)}
}

// Lock acquires the mutex of every key and returns the function that releases
// them. Keys are taken in sorted order so overlapping multi-key locks cannot
// deadlock. Duplicate and empty keys are ignored.
func (s *Set) Lock(keys ...string) (unlock func()) {
	ordered := dedupe(keys)

	held := make([]*entry, 0, len(ordered))
	for _, key := range ordered {
		e := s.acquire(key)
		e.mu.Lock()
		held = append(held, e)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			s.release(ordered[i], held[i])
		}
	}
}

func (s *Set) acquire(key string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{}
		s.entries[key] = e
	}
	e.refs++
	return e
}

func (s *Set) release(key string, e *entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e.refs--
	if e.refs == 0 {
		delete(s.entries, key)
	}
}

func dedupe(keys []string) []string {
	seen := make(map[string]struct{}, len(keys))
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package ratelimit

import (
	"sync"
	"time"
)

// Record is the fixed-window state kept for one client key.
type Record struct {
	Count   int
	ResetAt time.Time
}

// Expired reports whether the window closed before now.
func (r Record) Expired(now time.Time) bool {
	return now.After(r.ResetAt)
}

// Store holds per-key records. Implementations must make Hit atomic per key:
// the read, reset and increment happen under one critical section.
type Store interface {
	// Hit counts one request for key. It opens a fresh window when the key is
	// unknown or its window expired, increments when below max, and otherwise
	// leaves the record untouched. It returns the resulting record and whether
	// the request was admitted.
	Hit(key string, now time.Time, window time.Duration, max int) (Record, bool)

	// Sweep drops every record whose window expired before now and returns
	// how many were removed.
	Sweep(now time.Time) int

	// Len returns the number of tracked keys.
	Len() int
}

// MemoryStore is a process-local Store guarded by a mutex.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]*Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Hit(key string, now time.Time, window time.Duration, max int) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok || rec.Expired(now) {
		rec = &Record{Count: 1, ResetAt: now.Add(window)}
		s.records[key] = rec
		return *rec, true
	}

	if rec.Count >= max {
		return *rec, false
	}

	rec.Count++
	return *rec, true
}

func (s *MemoryStore) Sweep(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, rec := range s.records {
		if rec.ResetAt.Before(now) {
			delete(s.records, key)
			removed++
		}
	}
	return removed
}

func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Get returns a copy of the record for key.
func (s *MemoryStore) Get(key string) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[key]
	if !ok {
		return Record{}, false
	}
	return *rec, true
}

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/lehigh-university-libraries/regionocr/internal/models"
)

type entry struct {
	doc     *models.Document
	expires time.Time
}

// MemoryStore is a bounded in-process Store. When full, Put evicts the entry
// closest to expiry.
type MemoryStore struct {
	entries    map[string]entry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	mu         sync.RWMutex
}

// NewMemory creates a MemoryStore. A zero ttl or maxEntries means no limit.
func NewMemory(ttl time.Duration, maxEntries int) *MemoryStore {
	return &MemoryStore{
		entries:    make(map[string]entry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

func (s *MemoryStore) Put(_ context.Context, doc *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	s.pruneLocked(now)
	if _, exists := s.entries[doc.ID]; !exists && s.maxEntries > 0 && len(s.entries) >= s.maxEntries {
		s.evictOldestLocked()
	}

	var expires time.Time
	if s.ttl > 0 {
		expires = now.Add(s.ttl)
	}
	cp := *doc
	s.entries[doc.ID] = entry{doc: &cp, expires: expires}
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, exists := s.entries[id]
	if !exists || e.expired(s.now()) {
		return nil, ErrNotFound
	}
	cp := *e.doc
	return &cp, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]entry)
	return nil
}

// Len reports the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pruneLocked(s.now())
	return len(s.entries)
}

func (s *MemoryStore) pruneLocked(now time.Time) {
	for id, e := range s.entries {
		if e.expired(now) {
			delete(s.entries, id)
		}
	}
}

func (s *MemoryStore) evictOldestLocked() {
	var oldestID string
	var oldest time.Time
	for id, e := range s.entries {
		if oldestID == "" || e.doc.CreatedAt.Before(oldest) {
			oldestID, oldest = id, e.doc.CreatedAt
		}
	}
	delete(s.entries, oldestID)
}

func (e entry) expired(now time.Time) bool {
	return !e.expires.IsZero() && !now.Before(e.expires)
}

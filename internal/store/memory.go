package store

import (
	"context"
	"fmt"
	"sync"
)

// MemoryStore is an in-memory CorpusStore for embedding the engine in a
// host application and for tests. Safe for concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	faqs []FAQ
}

// Verify interface implementation at compile time
var _ CorpusStore = (*MemoryStore)(nil)

// NewMemoryStore creates a store seeded with the given records.
// Records failing validation are rejected.
func NewMemoryStore(faqs []FAQ) (*MemoryStore, error) {
	for _, f := range faqs {
		if err := f.Validate(); err != nil {
			return nil, err
		}
	}
	s := &MemoryStore{faqs: make([]FAQ, len(faqs))}
	copy(s.faqs, faqs)
	return s, nil
}

// ListFAQs returns a copied snapshot. Callers may rank against it while
// the store is mutated concurrently.
func (s *MemoryStore) ListFAQs(_ context.Context) ([]FAQ, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]FAQ, len(s.faqs))
	copy(out, s.faqs)
	return out, nil
}

// Add appends a record.
func (s *MemoryStore) Add(f FAQ) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faqs = append(s.faqs, f)
	return nil
}

// Update replaces the record with the same ID.
func (s *MemoryStore) Update(f FAQ) error {
	if err := f.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.faqs {
		if s.faqs[i].ID == f.ID {
			s.faqs[i] = f
			return nil
		}
	}
	return fmt.Errorf("faq %d not found", f.ID)
}

// Delete removes the record with the given ID, if present.
func (s *MemoryStore) Delete(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.faqs {
		if s.faqs[i].ID == id {
			s.faqs = append(s.faqs[:i], s.faqs[i+1:]...)
			return
		}
	}
}

package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/aretw0/partree/pkg/domain"
)

// Store implements ports.SummaryStore in memory.
// Safe for concurrent use.
type Store struct {
	data []domain.EpisodeSummary
	mu   sync.RWMutex
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{}
}

// Append records a copy of the summary.
func (s *Store) Append(ctx context.Context, summary *domain.EpisodeSummary) error {
	if summary == nil {
		return errors.New("nil summary")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = append(s.data, *summary)
	return nil
}

// List returns copies so callers cannot mutate the stored summaries.
func (s *Store) List(ctx context.Context) ([]*domain.EpisodeSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*domain.EpisodeSummary, len(s.data))
	for i := range s.data {
		cp := s.data[i]
		out[i] = &cp
	}
	return out, nil
}

// Len returns the number of recorded summaries.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.data)
}

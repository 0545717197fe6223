package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/partree/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// Store implements ports.SummaryStore on a Redis list.
type Store struct {
	client backend.UniversalClient
	key    string
	limit  int64
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithKey sets the list key. Default "partree:summaries".
func WithKey(key string) StoreOption {
	return func(s *Store) {
		s.key = key
	}
}

// WithLimit keeps only the most recent n summaries. Zero keeps everything.
func WithLimit(n int64) StoreOption {
	return func(s *Store) {
		s.limit = n
	}
}

// NewStore creates a store on an existing client.
func NewStore(client backend.UniversalClient, opts ...StoreOption) *Store {
	s := &Store{
		client: client,
		key:    "partree:summaries",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Append pushes the summary as JSON to the tail of the list.
func (s *Store) Append(ctx context.Context, summary *domain.EpisodeSummary) error {
	if summary == nil {
		return errors.New("nil summary")
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}

	_, err = s.client.TxPipelined(ctx, func(pipe backend.Pipeliner) error {
		pipe.RPush(ctx, s.key, data)
		if s.limit > 0 {
			pipe.LTrim(ctx, s.key, -s.limit, -1)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append summary: %w", err)
	}
	return nil
}

// List reads the whole list, oldest first.
func (s *Store) List(ctx context.Context) ([]*domain.EpisodeSummary, error) {
	raw, err := s.client.LRange(ctx, s.key, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list summaries: %w", err)
	}
	out := make([]*domain.EpisodeSummary, 0, len(raw))
	for i, item := range raw {
		var summary domain.EpisodeSummary
		if err := json.Unmarshal([]byte(item), &summary); err != nil {
			return nil, fmt.Errorf("corrupt summary at index %d: %w", i, err)
		}
		out = append(out, &summary)
	}
	return out, nil
}

package file

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/aretw0/partree/pkg/domain"
)

// Store implements ports.SummaryStore as a JSON-lines file, one summary per line.
// Appends from one process are serialized; the file is synced after every write.
type Store struct {
	Path string
	mu   sync.Mutex
}

// NewStore creates a store writing to path.
// If path is empty, it defaults to ".partree/summaries.jsonl".
func NewStore(path string) *Store {
	if path == "" {
		path = filepath.Join(".partree", "summaries.jsonl")
	}
	return &Store{Path: path}
}

// Append writes the summary as one line.
func (s *Store) Append(ctx context.Context, summary *domain.EpisodeSummary) error {
	if summary == nil {
		return errors.New("nil summary")
	}
	data, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to marshal summary: %w", err)
	}
	data = append(data, '\n')

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(filepath.Dir(s.Path), 0o755); err != nil {
		return fmt.Errorf("failed to ensure summary directory: %w", err)
	}
	f, err := os.OpenFile(s.Path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open summary file: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("failed to write summary: %w", err)
	}
	if err := f.Sync(); err != nil {
		return fmt.Errorf("failed to fsync summary file: %w", err)
	}
	return f.Close()
}

// List reads every line. A missing file is an empty store.
func (s *Store) List(ctx context.Context) ([]*domain.EpisodeSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.Path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open summary file: %w", err)
	}
	defer f.Close()

	var out []*domain.EpisodeSummary
	sc := bufio.NewScanner(f)
	for n := 1; sc.Scan(); n++ {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var summary domain.EpisodeSummary
		if err := json.Unmarshal(sc.Bytes(), &summary); err != nil {
			return nil, fmt.Errorf("corrupt summary on line %d: %w", n, err)
		}
		out = append(out, &summary)
	}
	return out, sc.Err()
}

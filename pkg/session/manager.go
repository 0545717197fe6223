package session

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/aretw0/partree/internal/logging"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/ports"
	"github.com/google/uuid"
)

// Episode is what the manager needs from a live episode.
type Episode interface {
	ports.Environment
	ID() string
	Status() domain.EpisodeStatus
	Summary() *domain.EpisodeSummary
	Regions() []*domain.Region
}

// Factory creates an episode with the given ID. Reset is called by the manager.
type Factory func(id string) (Episode, error)

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

// Manager orchestrates episode access, ensuring safe concurrent operations.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	factory Factory

	mu    sync.Mutex            // Global lock for the lock map
	locks map[string]*lockEntry // Map of active locks

	emu      sync.RWMutex
	episodes map[string]Episode

	locker  ports.DistributedLocker // Optional distributed locker
	lockTTL time.Duration
	sink    ports.SummaryStore // Optional summary sink
	logger  *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLocker enables distributed locking.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(m *Manager) {
		m.locker = locker
	}
}

// WithLockTTL sets the expiry of distributed locks. Default 30s.
func WithLockTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.lockTTL = ttl
		}
	}
}

// WithSummaryStore records the summary of every episode that finishes.
func WithSummaryStore(store ports.SummaryStore) Option {
	return func(m *Manager) {
		m.sink = store
	}
}

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// NewManager creates a manager spawning episodes through factory.
func NewManager(factory Factory, opts ...Option) *Manager {
	m := &Manager{
		factory:  factory,
		locks:    make(map[string]*lockEntry),
		episodes: make(map[string]Episode),
		lockTTL:  30 * time.Second,
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(id) after unlocking.
func (m *Manager) acquire(id string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		entry = &lockEntry{}
		m.locks[id] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[id]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, id)
	}
}

// Create spawns and resets a new episode under a fresh UUID.
func (m *Manager) Create(ctx context.Context) (string, map[domain.RegionID]domain.Observation, error) {
	id := uuid.NewString()
	var obs map[domain.RegionID]domain.Observation
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		ep, err := m.factory(id)
		if err != nil {
			return fmt.Errorf("failed to create episode: %w", err)
		}
		obs, err = ep.Reset(ctx)
		if err != nil {
			return err
		}
		m.emu.Lock()
		m.episodes[id] = ep
		m.emu.Unlock()
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	m.logger.DebugContext(ctx, "episode created", "episode_id", id)
	return id, obs, nil
}

// Reset restarts an existing episode from the root.
func (m *Manager) Reset(ctx context.Context, id string) (map[domain.RegionID]domain.Observation, error) {
	var obs map[domain.RegionID]domain.Observation
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		ep, err := m.lookup(id)
		if err != nil {
			return err
		}
		obs, err = ep.Reset(ctx)
		return err
	})
	return obs, err
}

// Step applies an action batch to the episode. When the step ends the episode, the
// summary is appended to the configured store; a store failure is logged, not returned.
func (m *Manager) Step(ctx context.Context, id string, actions map[domain.RegionID]domain.Action) (*domain.StepResult, error) {
	var res *domain.StepResult
	err := m.WithLock(ctx, id, func(ctx context.Context) error {
		ep, err := m.lookup(id)
		if err != nil {
			return err
		}
		res, err = ep.Step(ctx, actions)
		if err != nil {
			return err
		}
		if res.Done && m.sink != nil {
			if err := m.sink.Append(ctx, res.Summary()); err != nil {
				m.logger.WarnContext(ctx, "failed to record episode summary", "episode_id", id, "err", err)
			}
		}
		return nil
	})
	return res, err
}

// View runs fn on the episode while holding its lock.
func (m *Manager) View(ctx context.Context, id string, fn func(Episode) error) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		ep, err := m.lookup(id)
		if err != nil {
			return err
		}
		return fn(ep)
	})
}

// Delete drops the episode.
func (m *Manager) Delete(ctx context.Context, id string) error {
	return m.WithLock(ctx, id, func(ctx context.Context) error {
		m.emu.Lock()
		defer m.emu.Unlock()
		if _, ok := m.episodes[id]; !ok {
			return fmt.Errorf("%w: %s", domain.ErrEpisodeNotFound, id)
		}
		delete(m.episodes, id)
		return nil
	})
}

// List returns the IDs of live episodes, sorted.
func (m *Manager) List(ctx context.Context) []string {
	m.emu.RLock()
	defer m.emu.RUnlock()
	ids := make([]string, 0, len(m.episodes))
	for id := range m.episodes {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Summaries returns the recorded summaries, or nil when no store is configured.
func (m *Manager) Summaries(ctx context.Context) ([]*domain.EpisodeSummary, error) {
	if m.sink == nil {
		return nil, nil
	}
	return m.sink.List(ctx)
}

func (m *Manager) lookup(id string) (Episode, error) {
	m.emu.RLock()
	defer m.emu.RUnlock()
	ep, ok := m.episodes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrEpisodeNotFound, id)
	}
	return ep, nil
}

// WithLock executes a function while holding the lock for the episode.
func (m *Manager) WithLock(ctx context.Context, id string, fn func(context.Context) error) error {
	entry := m.acquire(id)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(id)
	}()

	if m.locker != nil {
		unlock, err := m.locker.Lock(ctx, id, m.lockTTL)
		if err != nil {
			return fmt.Errorf("failed to acquire distributed lock: %w", err)
		}
		defer func() {
			if err := unlock(context.WithoutCancel(ctx)); err != nil {
				m.logger.Warn("Failed to release distributed lock (will expire via TTL)",
					"episode_id", id,
					"err", err,
				)
			}
		}()
	}

	return fn(ctx)
}

package http

import (
	"sync"
)

// StreamManager fans step results out to the SSE subscribers of each episode.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{}
}

// NewStreamManager creates an empty stream manager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
	}
}

// Subscribe registers a buffered channel for episodeID. The returned function
// unregisters and closes it.
func (sm *StreamManager) Subscribe(episodeID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 10)
	if _, ok := sm.subscribers[episodeID]; !ok {
		sm.subscribers[episodeID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[episodeID][ch] = struct{}{}

	return ch, func() {
		sm.mu.Lock()
		defer sm.mu.Unlock()
		if subs, ok := sm.subscribers[episodeID]; ok {
			delete(subs, ch)
			close(ch)
			if len(subs) == 0 {
				delete(sm.subscribers, episodeID)
			}
		}
	}
}

// Broadcast sends msg to every subscriber of episodeID. Slow subscribers miss it.
func (sm *StreamManager) Broadcast(episodeID, msg string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	sent := 0
	for ch := range sm.subscribers[episodeID] {
		select {
		case ch <- msg:
			sent++
		default:
		}
	}
	return sent
}

package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventEpisodeReset EventType = "episode_reset"
	EventRegionCut    EventType = "region_cut"
	EventStep         EventType = "step"
	EventEpisodeEnd   EventType = "episode_end"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	EpisodeID string    `json:"episode_id"`
}

// CutEvent describes one region cut.
type CutEvent struct {
	EventBase
	RegionID  RegionID  `json:"region_id"`
	Depth     int       `json:"depth"`
	Dimension Dimension `json:"dimension"`
	Count     int64     `json:"count"`
	Children  int       `json:"children"`
	Leaves    int       `json:"leaves"`
}

// StepEvent describes a processed action batch.
type StepEvent struct {
	EventBase
	Actions  int `json:"actions"`
	Frontier int `json:"frontier"`
	Regions  int `json:"regions"`
}

// EpisodeEvent marks the start or end of an episode.
type EpisodeEvent struct {
	EventBase
	Summary *EpisodeSummary `json:"summary,omitempty"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnReset      func(context.Context, *EpisodeEvent)
	OnCut        func(context.Context, *CutEvent)
	OnStep       func(context.Context, *StepEvent)
	OnEpisodeEnd func(context.Context, *EpisodeEvent)
}

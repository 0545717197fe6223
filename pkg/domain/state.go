package domain

// EpisodeStatus defines the lifecycle stage of an episode.
type EpisodeStatus string

const (
	StatusActive    EpisodeStatus = "active"    // Regions remain and budget is left
	StatusComplete  EpisodeStatus = "complete"  // Every region is a leaf
	StatusTruncated EpisodeStatus = "truncated" // Action budget exceeded with regions remaining
	StatusFailed    EpisodeStatus = "failed"    // A precondition violation ended the episode
)

// Terminal reports whether no further step is accepted.
func (s EpisodeStatus) Terminal() bool {
	return s != StatusActive
}

// EpisodeSummary carries the aggregate figures of a finished episode.
type EpisodeSummary struct {
	EpisodeID        string        `json:"episode_id,omitempty"`
	Status           EpisodeStatus `json:"status"`
	TreeDepth        int           `json:"tree_depth"`
	RegionsRemaining int           `json:"regions_remaining"`
	NumRegions       int           `json:"num_regions"`
	NumCuts          int           `json:"num_cuts"`
	NumLeaves        int           `json:"num_leaves"`
	MaxLeafRules     int           `json:"max_leaf_rules"`
	RuleReplication  float64       `json:"rule_replication"`
	Valid            bool          `json:"valid"`
}

// Info is the per-region auxiliary payload of a step. Only the AggregateKey entry of a
// final step carries a Summary; every other entry is empty.
type Info struct {
	Summary *EpisodeSummary `json:"summary,omitempty"`
}

// StepResult is what the engine exposes at every step boundary.
type StepResult struct {
	Observations map[RegionID]Observation `json:"observations"`
	Rewards      map[RegionID]float64     `json:"rewards"`
	Done         bool                     `json:"done"`
	Infos        map[RegionID]Info        `json:"infos"`
}

// Summary returns the aggregate info of a final step, or nil.
func (r *StepResult) Summary() *EpisodeSummary {
	if r == nil || r.Infos == nil {
		return nil
	}
	return r.Infos[AggregateKey].Summary
}

package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Action is the discrete decision an external policy makes for one active region.
// Dimension selects the field to cut; Magnitude selects the cut granularity
// on an exponential scale (see the runtime's action decoder).
type Action struct {
	Dimension int `json:"dimension" mapstructure:"dimension"`
	Magnitude int `json:"magnitude" mapstructure:"magnitude"`
}

// UnmarshalJSON accepts both the object form {"dimension":d,"magnitude":m}
// and the tuple form [d, m] emitted by gym-style trainers.
func (a *Action) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		var pair []int
		if err := json.Unmarshal(data, &pair); err != nil {
			return err
		}
		if len(pair) != 2 {
			return fmt.Errorf("action tuple must have 2 elements, got %d", len(pair))
		}
		a.Dimension, a.Magnitude = pair[0], pair[1]
		return nil
	}
	type plain Action
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*a = Action(p)
	return nil
}

// Cut is a decoded action: the concrete dimension and number of pieces.
type Cut struct {
	Dimension Dimension `json:"dimension"`
	Count     int64     `json:"count"`
}

// Observation is the fixed-size numeric encoding of a region handed to the policy.
type Observation []float64

package runner

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/aretw0/partree/pkg/domain"
	"github.com/aretw0/partree/pkg/ports"
)

// Message types written by JSONPolicy.
const (
	MessageObserve = "observe"
	MessageResult  = "result"
)

// Message is one line written to the trainer.
type Message struct {
	Type         string                                 `json:"type"`
	Frontier     []domain.RegionID                      `json:"frontier,omitempty"`
	Observations map[domain.RegionID]domain.Observation `json:"observations,omitempty"`
	Rewards      map[domain.RegionID]float64            `json:"rewards,omitempty"`
	Done         bool                                   `json:"done,omitempty"`
	Summary      *domain.EpisodeSummary                 `json:"summary,omitempty"`
}

// Reply is one line read back from the trainer after an observe message.
// Actions accept both {"dimension":d,"magnitude":m} and [d, m].
type Reply struct {
	Actions map[domain.RegionID]domain.Action `json:"actions"`
	Error   string                            `json:"error,omitempty"`
}

// JSONPolicy implements ports.Policy and ports.Observer over newline-delimited JSON.
// Each Decide writes an observe message and blocks on one reply line; each Observe
// writes a result message carrying rewards and, at the end, the summary.
type JSONPolicy struct {
	mu      sync.Mutex
	reader  *bufio.Reader
	encoder *json.Encoder
}

// NewJSONPolicy creates a policy reading replies from r and writing messages to w.
func NewJSONPolicy(r io.Reader, w io.Writer) *JSONPolicy {
	return &JSONPolicy{
		reader:  bufio.NewReader(r),
		encoder: json.NewEncoder(w),
	}
}

// Decide implements ports.Policy.
func (p *JSONPolicy) Decide(ctx context.Context, view ports.RegionView, obs map[domain.RegionID]domain.Observation) (map[domain.RegionID]domain.Action, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := Message{Type: MessageObserve, Frontier: view.Frontier(), Observations: obs}
	if err := p.encoder.Encode(msg); err != nil {
		return nil, fmt.Errorf("failed to write observation: %w", err)
	}

	line, err := p.readLine(ctx)
	if err != nil {
		return nil, err
	}
	var reply Reply
	if err := json.Unmarshal(line, &reply); err != nil {
		return nil, fmt.Errorf("failed to decode reply: %w", err)
	}
	if reply.Error != "" {
		return nil, fmt.Errorf("trainer error: %s", reply.Error)
	}
	if reply.Actions == nil {
		reply.Actions = map[domain.RegionID]domain.Action{}
	}
	return reply.Actions, nil
}

// Observe implements ports.Observer.
func (p *JSONPolicy) Observe(ctx context.Context, res *domain.StepResult) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	msg := Message{Type: MessageResult, Rewards: res.Rewards, Done: res.Done, Summary: res.Summary()}
	if err := p.encoder.Encode(msg); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// readLine reads one reply line. A trailing line without newline is accepted at EOF.
func (p *JSONPolicy) readLine(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	line, err := p.reader.ReadBytes('\n')
	if err != nil && (err != io.EOF || len(line) == 0) {
		return nil, fmt.Errorf("failed to read reply: %w", err)
	}
	return line, nil
}

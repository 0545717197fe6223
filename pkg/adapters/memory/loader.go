package memory

import (
	"context"
	"fmt"

	"github.com/aretw0/partree/pkg/domain"
)

// Loader implements ports.RuleLoader over rules held in memory.
type Loader struct {
	set *domain.RuleSet
}

// NewLoader serves the given rules, bounded by the full field space.
func NewLoader(rules ...*domain.Rule) *Loader {
	return &Loader{set: domain.NewRuleSet(rules...)}
}

// NewFromFlat builds rules from ten-integer rows, as produced by rule-file parsers.
// This improves DX for tests and fixtures.
func NewFromFlat(rows ...[]int64) (*Loader, error) {
	rules := make([]*domain.Rule, 0, len(rows))
	for i, row := range rows {
		ranges, err := domain.RangesFromFlat(row...)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rule, err := domain.NewRule(ranges)
		if err != nil {
			return nil, fmt.Errorf("rule %d: %w", i, err)
		}
		rules = append(rules, rule)
	}
	return NewLoader(rules...), nil
}

// WithBounds overrides the root bounding box.
func (l *Loader) WithBounds(bounds domain.Ranges) *Loader {
	l.set.Bounds = bounds
	return l
}

// LoadRuleSet returns a copy of the rule set. Rules are immutable and shared.
func (l *Loader) LoadRuleSet(ctx context.Context) (*domain.RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &domain.RuleSet{
		Rules:  append([]*domain.Rule(nil), l.set.Rules...),
		Bounds: l.set.Bounds,
	}, nil
}

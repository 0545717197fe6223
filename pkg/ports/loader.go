package ports

import (
	"context"

	"github.com/aretw0/partree/pkg/domain"
)

// RuleLoader supplies the rule set an engine builds trees over.
// The storage layer (files, memory) stays decoupled from the engine.
type RuleLoader interface {
	LoadRuleSet(ctx context.Context) (*domain.RuleSet, error)
}

package ports

import (
	"context"

	"github.com/aretw0/partree/pkg/domain"
)

// SummaryStore records the summaries of finished episodes, in the order they finished.
type SummaryStore interface {
	// Append records one summary.
	Append(ctx context.Context, summary *domain.EpisodeSummary) error

	// List returns every recorded summary, oldest first.
	List(ctx context.Context) ([]*domain.EpisodeSummary, error)
}

package runtime

import (
	"fmt"

	"github.com/aretw0/partree/pkg/domain"
)

// Decoder maps a policy action to a concrete cut.
// Magnitudes range over [0, MaxMagnitude); dimensions over [0, domain.NumDimensions).
type Decoder struct {
	MaxMagnitude int
}

// Validate checks that the action lies within the discrete action space.
func (d Decoder) Validate(a domain.Action) error {
	if !domain.Dimension(a.Dimension).Valid() {
		return fmt.Errorf("%w: dimension %d not in [0, %d)", domain.ErrActionOutOfBounds, a.Dimension, domain.NumDimensions)
	}
	if a.Magnitude < 0 || a.Magnitude >= d.MaxMagnitude {
		return fmt.Errorf("%w: magnitude %d not in [0, %d)", domain.ErrActionOutOfBounds, a.Magnitude, d.MaxMagnitude)
	}
	return nil
}

// Decode turns an action into a cut of region r:
// count = min(2^(magnitude+1), width of r on the chosen dimension).
// A zero-width dimension decodes to count 0, which the tree clamps to a single child.
func (d Decoder) Decode(r *domain.Region, a domain.Action) (domain.Cut, error) {
	if err := d.Validate(a); err != nil {
		return domain.Cut{}, err
	}
	dim := domain.Dimension(a.Dimension)
	return domain.Cut{
		Dimension: dim,
		Count:     min(int64(1)<<(a.Magnitude+1), r.Width(dim)),
	}, nil
}

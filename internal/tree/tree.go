// Package tree implements the partitioning tree: an append-only arena of regions,
// the frontier of regions awaiting a cut, and the cut algorithm itself.
package tree

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"github.com/aretw0/partree/pkg/domain"
	"golang.org/x/sync/errgroup"
)

// DefaultLeafThreshold makes a region a leaf once it holds a single rule.
const DefaultLeafThreshold = 1

// Option configures a Tree.
type Option func(*Tree)

// WithLeafThreshold sets the maximum number of rules a leaf may hold.
func WithLeafThreshold(n int) Option {
	return func(t *Tree) {
		t.leafThreshold = n
	}
}

// WithWorkers bounds the number of goroutines used by CutBatch.
func WithWorkers(n int) Option {
	return func(t *Tree) {
		if n > 0 {
			t.workers = n
		}
	}
}

// Tree owns every region of one build. Regions are stored in an arena indexed by
// RegionID and are never removed; children are referenced by ID.
type Tree struct {
	regions  []*domain.Region
	frontier []domain.RegionID
	active   map[domain.RegionID]struct{}

	leafThreshold int
	workers       int
	depth         int
}

// New creates a tree whose root covers bounds and holds every rule.
func New(bounds domain.Ranges, rules []*domain.Rule, opts ...Option) *Tree {
	t := &Tree{
		active:        make(map[domain.RegionID]struct{}),
		leafThreshold: DefaultLeafThreshold,
		workers:       runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(t)
	}

	root := domain.NewRegion(domain.RootRegionID, 1, bounds, slices.Clone(rules))
	t.regions = append(t.regions, root)
	t.depth = root.Depth
	if !t.IsLeaf(root) {
		t.push(root.ID)
	}
	return t
}

// Request is one planned cut of an active region.
type Request struct {
	Region domain.RegionID
	Cut    domain.Cut
}

// Cut splits one active region and returns its children in creation order.
func (t *Tree) Cut(id domain.RegionID, dim domain.Dimension, count int64) ([]*domain.Region, error) {
	out, err := t.CutBatch(context.Background(), []Request{{Region: id, Cut: domain.Cut{Dimension: dim, Count: count}}})
	if err != nil {
		return nil, err
	}
	return out[0], nil
}

// CutBatch applies independent cuts to distinct active regions. Children are built
// concurrently, but IDs are reserved up front and results are committed in request
// order, so the outcome is identical to applying the requests one by one.
// Either every request is applied or none is.
func (t *Tree) CutBatch(ctx context.Context, reqs []Request) ([][]*domain.Region, error) {
	if err := t.validate(reqs); err != nil {
		return nil, err
	}

	firstIDs := make([]domain.RegionID, len(reqs))
	next := domain.RegionID(len(t.regions))
	for i, req := range reqs {
		firstIDs[i] = next
		parent := t.regions[req.Region]
		next += domain.RegionID(EffectiveCount(parent.Width(req.Cut.Dimension), req.Cut.Count))
	}

	results := make([][]*domain.Region, len(reqs))
	if len(reqs) == 1 || t.workers <= 1 {
		for i, req := range reqs {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			results[i] = split(t.regions[req.Region], firstIDs[i], req.Cut)
		}
	} else {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(t.workers)
		for i, req := range reqs {
			parent := t.regions[req.Region]
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				results[i] = split(parent, firstIDs[i], req.Cut)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	}

	t.commit(reqs, results)
	return results, nil
}

func (t *Tree) validate(reqs []Request) error {
	seen := make(map[domain.RegionID]struct{}, len(reqs))
	for _, req := range reqs {
		if _, ok := t.active[req.Region]; !ok {
			return fmt.Errorf("%w: region %d", domain.ErrRegionNotActive, req.Region)
		}
		if _, dup := seen[req.Region]; dup {
			return fmt.Errorf("%w: region %d requested twice", domain.ErrPreconditionViolation, req.Region)
		}
		seen[req.Region] = struct{}{}
		if !req.Cut.Dimension.Valid() {
			return fmt.Errorf("%w: dimension %d", domain.ErrActionOutOfBounds, req.Cut.Dimension)
		}
		if req.Cut.Count < 0 {
			return fmt.Errorf("%w: cut count %d", domain.ErrActionOutOfBounds, req.Cut.Count)
		}
	}
	return nil
}

func (t *Tree) commit(reqs []Request, results [][]*domain.Region) {
	cut := make(map[domain.RegionID]struct{}, len(reqs))
	var fresh []domain.RegionID

	for i, req := range reqs {
		parent := t.regions[req.Region]
		children := results[i]

		ids := make([]domain.RegionID, len(children))
		for j, child := range children {
			ids[j] = child.ID
			t.regions = append(t.regions, child)
			t.depth = max(t.depth, child.Depth)
			if !t.IsLeaf(child) {
				fresh = append(fresh, child.ID)
			}
		}
		parent.Children = ids
		parent.Cut = &domain.Cut{
			Dimension: req.Cut.Dimension,
			Count:     int64(len(children)),
		}

		cut[parent.ID] = struct{}{}
		delete(t.active, parent.ID)
	}

	t.frontier = slices.DeleteFunc(t.frontier, func(id domain.RegionID) bool {
		_, ok := cut[id]
		return ok
	})
	for _, id := range fresh {
		t.push(id)
	}
}

func (t *Tree) push(id domain.RegionID) {
	t.frontier = append(t.frontier, id)
	t.active[id] = struct{}{}
}

// Root returns the root region.
func (t *Tree) Root() *domain.Region {
	return t.regions[domain.RootRegionID]
}

// Region looks up a region by ID.
func (t *Tree) Region(id domain.RegionID) (*domain.Region, bool) {
	if id < 0 || int(id) >= len(t.regions) {
		return nil, false
	}
	return t.regions[id], true
}

// Regions returns every region in ID order.
func (t *Tree) Regions() []*domain.Region {
	return slices.Clone(t.regions)
}

// Len returns the number of regions created so far.
func (t *Tree) Len() int {
	return len(t.regions)
}

// Frontier returns the active regions in the order they became active.
func (t *Tree) Frontier() []domain.RegionID {
	return slices.Clone(t.frontier)
}

// IsActive reports whether a region is awaiting a cut decision.
func (t *Tree) IsActive(id domain.RegionID) bool {
	_, ok := t.active[id]
	return ok
}

// IsLeaf applies the configured leaf criterion.
func (t *Tree) IsLeaf(r *domain.Region) bool {
	return r.IsLeaf(t.leafThreshold)
}

// LeafThreshold returns the configured leaf criterion.
func (t *Tree) LeafThreshold() int {
	return t.leafThreshold
}

// Depth returns the depth of the deepest region; the root alone has depth 1.
func (t *Tree) Depth() int {
	return t.depth
}

// Done reports whether every region is a leaf.
func (t *Tree) Done() bool {
	return len(t.frontier) == 0
}

// Leaves returns the regions classified as leaves, in ID order.
func (t *Tree) Leaves() []*domain.Region {
	var out []*domain.Region
	for _, r := range t.regions {
		if !r.IsCut() && t.IsLeaf(r) {
			out = append(out, r)
		}
	}
	return out
}

// Layers groups the first n levels of the tree by depth, walking children in order.
func (t *Tree) Layers(n int) [][]*domain.Region {
	var layers [][]*domain.Region
	level := []*domain.Region{t.Root()}
	for i := 0; i < n && len(level) > 0; i++ {
		layers = append(layers, level)
		var next []*domain.Region
		for _, r := range level {
			for _, id := range r.Children {
				next = append(next, t.regions[id])
			}
		}
		level = next
	}
	return layers
}

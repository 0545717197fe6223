package domain

import (
	"fmt"
	"strings"
)

// Dimension indexes one of the five packet header fields.
type Dimension int

const (
	SrcIP Dimension = iota
	DstIP
	SrcPort
	DstPort
	Proto
)

var dimensionNames = [NumDimensions]string{"src_ip", "dst_ip", "src_port", "dst_port", "proto"}

func (d Dimension) String() string {
	if !d.Valid() {
		return fmt.Sprintf("dim(%d)", int(d))
	}
	return dimensionNames[d]
}

// Valid reports whether d names one of the five fields.
func (d Dimension) Valid() bool {
	return d >= 0 && d < NumDimensions
}

// Range is a half-open integer interval [Left, Right).
type Range struct {
	Left  int64 `json:"left" yaml:"left"`
	Right int64 `json:"right" yaml:"right"`
}

// Width returns the number of discrete units covered by the range.
func (r Range) Width() int64 {
	return r.Right - r.Left
}

// Ranges holds one Range per Dimension.
type Ranges [NumDimensions]Range

// Flat returns the ranges as ten integers: left/right pairs in Dimension order.
func (rs Ranges) Flat() []int64 {
	out := make([]int64, 0, NumDimensions*2)
	for _, r := range rs {
		out = append(out, r.Left, r.Right)
	}
	return out
}

// RangesFromFlat builds Ranges from ten integers laid out as left/right pairs.
func RangesFromFlat(flat ...int64) (Ranges, error) {
	var rs Ranges
	if len(flat) != NumDimensions*2 {
		return rs, fmt.Errorf("%w: expected %d bounds, got %d", ErrInvalidRule, NumDimensions*2, len(flat))
	}
	for i := range rs {
		rs[i] = Range{Left: flat[i*2], Right: flat[i*2+1]}
	}
	return rs, nil
}

// FullSpace returns the bounding box of the whole packet header field space.
func FullSpace() Ranges {
	var rs Ranges
	for i, bits := range FieldBits {
		rs[i] = Range{Left: 0, Right: int64(1) << bits}
	}
	return rs
}

// Rule is an immutable classification entry: one half-open range per field.
type Rule struct {
	ranges Ranges
}

// Validate checks that every range is ordered and lies inside FullSpace.
func (rs Ranges) Validate() error {
	for d, r := range rs {
		if r.Left > r.Right {
			return fmt.Errorf("%w: %s has left %d > right %d", ErrInvalidRule, Dimension(d), r.Left, r.Right)
		}
		if limit := int64(1) << FieldBits[d]; r.Left < 0 || r.Right > limit {
			return fmt.Errorf("%w: %s range [%d, %d) outside [0, %d)", ErrInvalidRule, Dimension(d), r.Left, r.Right, limit)
		}
	}
	return nil
}

// NewRule validates the ranges and returns a Rule.
func NewRule(ranges Ranges) (*Rule, error) {
	if err := ranges.Validate(); err != nil {
		return nil, err
	}
	return &Rule{ranges: ranges}, nil
}

// MustRule builds a Rule from ten flat bounds and panics on invalid input.
// Intended for tests and static fixtures.
func MustRule(flat ...int64) *Rule {
	rs, err := RangesFromFlat(flat...)
	if err != nil {
		panic(err)
	}
	r, err := NewRule(rs)
	if err != nil {
		panic(err)
	}
	return r
}

// Ranges returns a copy of the rule's ranges.
func (r *Rule) Ranges() Ranges {
	return r.ranges
}

// Range returns the rule's interval on one dimension.
func (r *Rule) Range(d Dimension) Range {
	return r.ranges[d]
}

// Intersects reports whether [left, right) overlaps the rule on dimension d.
func (r *Rule) Intersects(d Dimension, left, right int64) bool {
	rr := r.ranges[d]
	return !(right <= rr.Left || left >= rr.Right)
}

func (r *Rule) String() string {
	var sb strings.Builder
	for d, rr := range r.ranges {
		if d > 0 {
			sb.WriteByte(' ')
		}
		fmt.Fprintf(&sb, "%s:[%d, %d)", Dimension(d), rr.Left, rr.Right)
	}
	return sb.String()
}

// RuleSet is a parsed list of rules and the bounding box the root region starts from.
type RuleSet struct {
	Rules  []*Rule
	Bounds Ranges
}

// NewRuleSet returns a rule set spanning the full field space.
func NewRuleSet(rules ...*Rule) *RuleSet {
	return &RuleSet{Rules: rules, Bounds: FullSpace()}
}

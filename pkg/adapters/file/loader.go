package file

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aretw0/partree/pkg/domain"
	"gopkg.in/yaml.v3"
)

// RuleFile is the on-disk layout of a YAML or JSON rule set.
// Each rule is ten integers: left/right pairs for src_ip, dst_ip, src_port, dst_port
// and proto. Bounds is optional and defaults to the full field space.
type RuleFile struct {
	Bounds []int64   `yaml:"bounds,omitempty" json:"bounds,omitempty"`
	Rules  [][]int64 `yaml:"rules" json:"rules"`
}

// Loader implements ports.RuleLoader over a local file.
//
// Files ending in .yaml, .yml or .json are decoded as RuleFile. Anything else is parsed
// as a ClassBench filter set ("@src/len dst/len lo : hi lo : hi proto/mask ...").
type Loader struct {
	Path string
}

// NewLoader creates a loader for path.
func NewLoader(path string) *Loader {
	return &Loader{Path: path}
}

// LoadRuleSet reads and parses the file.
func (l *Loader) LoadRuleSet(ctx context.Context) (*domain.RuleSet, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rule file: %w", err)
	}

	switch strings.ToLower(filepath.Ext(l.Path)) {
	case ".yaml", ".yml":
		var rf RuleFile
		if err := yaml.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(l.Path), err)
		}
		return rf.RuleSet()
	case ".json":
		var rf RuleFile
		if err := json.Unmarshal(data, &rf); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", filepath.Base(l.Path), err)
		}
		return rf.RuleSet()
	default:
		return ParseClassBench(data)
	}
}

// RuleSet validates the file contents.
func (rf RuleFile) RuleSet() (*domain.RuleSet, error) {
	rules := make([]*domain.Rule, 0, len(rf.Rules))
	for i, row := range rf.Rules {
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

	set := domain.NewRuleSet(rules...)
	if len(rf.Bounds) > 0 {
		bounds, err := domain.RangesFromFlat(rf.Bounds...)
		if err == nil {
			err = bounds.Validate()
		}
		if err != nil {
			return nil, fmt.Errorf("bounds: %w", err)
		}
		set.Bounds = bounds
	}
	return set, nil
}

// ParseClassBench parses a ClassBench filter set. Empty lines are skipped;
// trailing columns after the protocol are ignored.
func ParseClassBench(data []byte) (*domain.RuleSet, error) {
	var rules []*domain.Rule
	sc := bufio.NewScanner(bytes.NewReader(data))
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rule, err := parseClassBenchLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", n, err)
		}
		rules = append(rules, rule)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return domain.NewRuleSet(rules...), nil
}

func parseClassBenchLine(line string) (*domain.Rule, error) {
	fields := strings.Fields(strings.TrimPrefix(line, "@"))
	// src dst lo : hi lo : hi proto/mask
	if len(fields) < 9 || fields[3] != ":" || fields[6] != ":" {
		return nil, fmt.Errorf("%w: malformed filter %q", domain.ErrInvalidRule, line)
	}

	var ranges domain.Ranges
	var err error
	if ranges[domain.SrcIP], err = parsePrefix(fields[0]); err != nil {
		return nil, err
	}
	if ranges[domain.DstIP], err = parsePrefix(fields[1]); err != nil {
		return nil, err
	}
	if ranges[domain.SrcPort], err = parsePortRange(fields[2], fields[4]); err != nil {
		return nil, err
	}
	if ranges[domain.DstPort], err = parsePortRange(fields[5], fields[7]); err != nil {
		return nil, err
	}
	if ranges[domain.Proto], err = parseProto(fields[8]); err != nil {
		return nil, err
	}
	return domain.NewRule(ranges)
}

func parsePrefix(s string) (domain.Range, error) {
	p, err := netip.ParsePrefix(s)
	if err != nil || !p.Addr().Is4() {
		return domain.Range{}, fmt.Errorf("%w: bad prefix %q", domain.ErrInvalidRule, s)
	}
	b := p.Masked().Addr().As4()
	left := int64(b[0])<<24 | int64(b[1])<<16 | int64(b[2])<<8 | int64(b[3])
	return domain.Range{Left: left, Right: left + int64(1)<<(32-p.Bits())}, nil
}

func parsePortRange(lo, hi string) (domain.Range, error) {
	l, err := strconv.ParseInt(lo, 10, 64)
	if err != nil {
		return domain.Range{}, fmt.Errorf("%w: bad port %q", domain.ErrInvalidRule, lo)
	}
	h, err := strconv.ParseInt(hi, 10, 64)
	if err != nil {
		return domain.Range{}, fmt.Errorf("%w: bad port %q", domain.ErrInvalidRule, hi)
	}
	return domain.Range{Left: l, Right: h + 1}, nil
}

// parseProto reads "0x06/0xFF": an exact protocol, or any protocol when the mask is zero.
func parseProto(s string) (domain.Range, error) {
	value, mask, ok := strings.Cut(s, "/")
	if !ok {
		return domain.Range{}, fmt.Errorf("%w: bad protocol %q", domain.ErrInvalidRule, s)
	}
	v, err := strconv.ParseInt(value, 0, 64)
	if err != nil {
		return domain.Range{}, fmt.Errorf("%w: bad protocol %q", domain.ErrInvalidRule, s)
	}
	m, err := strconv.ParseInt(mask, 0, 64)
	if err != nil {
		return domain.Range{}, fmt.Errorf("%w: bad protocol mask %q", domain.ErrInvalidRule, s)
	}
	if m == 0 {
		return domain.Range{Left: 0, Right: 256}, nil
	}
	return domain.Range{Left: v, Right: v + 1}, nil
}

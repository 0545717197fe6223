package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/partree/pkg/adapters/file"
	"github.com/aretw0/partree/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoader_YAML(t *testing.T) {
	path := writeFile(t, "rules.yaml", `
bounds: [0, 1000, 0, 1000, 0, 1000, 0, 1000, 0, 1000]
rules:
  - [0, 500, 0, 500, 0, 1000, 0, 1000, 0, 1000]
  - [500, 1000, 0, 500, 0, 1000, 0, 1000, 0, 1000]
`)
	set, err := file.NewLoader(path).LoadRuleSet(context.Background())
	require.NoError(t, err)
	require.Len(t, set.Rules, 2)
	assert.Equal(t, domain.Range{Left: 0, Right: 1000}, set.Bounds[domain.Proto])
	assert.Equal(t, domain.Range{Left: 500, Right: 1000}, set.Rules[1].Range(domain.SrcIP))
}

func TestLoader_JSONDefaultsToFullSpace(t *testing.T) {
	path := writeFile(t, "rules.json", `{"rules": [[0, 1, 0, 1, 0, 1, 0, 1, 6, 7]]}`)
	set, err := file.NewLoader(path).LoadRuleSet(context.Background())
	require.NoError(t, err)
	assert.Equal(t, domain.FullSpace(), set.Bounds)
	assert.Len(t, set.Rules, 1)
}

func TestLoader_InvalidRule(t *testing.T) {
	path := writeFile(t, "rules.yaml", "rules:\n  - [5, 1, 0, 1, 0, 1, 0, 1, 0, 1]\n")
	_, err := file.NewLoader(path).LoadRuleSet(context.Background())
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
	assert.Contains(t, err.Error(), "rule 0")
}

func TestLoader_RejectsRangesOutsideFieldSpace(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"rule wider than src_ip", "rules:\n  - [0, 9223372036854775807, 0, 1, 0, 1, 0, 1, 0, 1]\n", "rule 0"},
		{"negative port", "rules:\n  - [0, 1, 0, 1, -1, 1, 0, 1, 0, 1]\n", "src_port"},
		{"proto past 8 bits", "rules:\n  - [0, 1, 0, 1, 0, 1, 0, 1, 0, 257]\n", "proto"},
		{"inverted bounds", "bounds: [10, 0, 0, 1, 0, 1, 0, 1, 0, 1]\nrules: []\n", "bounds"},
		{"bounds past field space", "bounds: [0, 4294967297, 0, 1, 0, 1, 0, 1, 0, 1]\nrules: []\n", "bounds"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "rules.yaml", tt.content)
			_, err := file.NewLoader(path).LoadRuleSet(context.Background())
			assert.ErrorIs(t, err, domain.ErrInvalidRule)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoader_Missing(t *testing.T) {
	_, err := file.NewLoader(filepath.Join(t.TempDir(), "none.yaml")).LoadRuleSet(context.Background())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParseClassBench(t *testing.T) {
	data := "@192.151.10.0/23\t23.176.123.0/24\t0 : 65535\t1521 : 1521\t0x06/0xFF\t0x0000/0x0200\n" +
		"\n" +
		"@0.0.0.0/0\t10.0.0.1/32\t1024 : 2047\t80 : 80\t0x00/0x00\n"

	set, err := file.ParseClassBench([]byte(data))
	require.NoError(t, err)
	require.Len(t, set.Rules, 2)

	r := set.Rules[0]
	src := int64(192)<<24 | int64(151)<<16 | int64(10)<<8
	assert.Equal(t, domain.Range{Left: src, Right: src + 512}, r.Range(domain.SrcIP))
	assert.Equal(t, domain.Range{Left: 0, Right: 65536}, r.Range(domain.SrcPort))
	assert.Equal(t, domain.Range{Left: 1521, Right: 1522}, r.Range(domain.DstPort))
	assert.Equal(t, domain.Range{Left: 6, Right: 7}, r.Range(domain.Proto))

	r = set.Rules[1]
	assert.Equal(t, domain.Range{Left: 0, Right: 1 << 32}, r.Range(domain.SrcIP))
	dst := int64(10)<<24 | 1
	assert.Equal(t, domain.Range{Left: dst, Right: dst + 1}, r.Range(domain.DstIP))
	assert.Equal(t, domain.Range{Left: 0, Right: 256}, r.Range(domain.Proto))
}

func TestParseClassBench_Malformed(t *testing.T) {
	_, err := file.ParseClassBench([]byte("@1.2.3.4/8 5.6.7.8/8 0 65535\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
	assert.Contains(t, err.Error(), "line 1")

	_, err = file.ParseClassBench([]byte("@1.2.3.4/40\t5.6.7.8/8\t0 : 1\t0 : 1\t0x06/0xFF\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidRule)
}

func TestLoader_ClassBenchByExtension(t *testing.T) {
	path := writeFile(t, "acl1_seed", "@10.0.0.0/8\t0.0.0.0/0\t0 : 65535\t0 : 65535\t0x11/0xFF\n")
	set, err := file.NewLoader(path).LoadRuleSet(context.Background())
	require.NoError(t, err)
	require.Len(t, set.Rules, 1)
	assert.Equal(t, domain.Range{Left: 17, Right: 18}, set.Rules[0].Range(domain.Proto))
}

package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileSourceLoadsCityFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "abq.json"), []byte(`{
		"rules": {
			"handyman": {"base_price_cents": 11000, "platform_fee_pct": 30},
			"cleaning": {"base_price_cents": 12000, "platform_fee_pct": 25}
		}
	}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{nope`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ignore.txt"), []byte(`x`), 0o644))

	src := NewFileSource(dir)

	rule, ok := src.Lookup("abq", "handyman")
	require.True(t, ok)
	assert.Equal(t, int64(11000), rule.BasePriceCents)
	assert.Equal(t, 30, rule.PlatformFeePct)

	_, ok = src.Lookup("abq", "alchemy")
	assert.False(t, ok)
	_, ok = src.Lookup("atlantis", "handyman")
	assert.False(t, ok)
	_, ok = src.Lookup("broken", "handyman")
	assert.False(t, ok, "a malformed file is skipped, not fatal")
}

func TestFileSourceMissingDirDegrades(t *testing.T) {
	src := NewFileSource(filepath.Join(t.TempDir(), "does-not-exist"))
	_, ok := src.Lookup("abq", "handyman")
	assert.False(t, ok)
}

func TestRuleSplitIntegerMath(t *testing.T) {
	tests := []struct {
		name                        string
		rule                        Rule
		total, platform, contractor int64
	}{
		{"even split", Rule{BasePriceCents: 10000, PlatformFeePct: 30}, 10000, 3000, 7000},
		{"floor on platform cut", Rule{BasePriceCents: 999, PlatformFeePct: 30}, 999, 299, 700},
		{"zero fee", Rule{BasePriceCents: 5000, PlatformFeePct: 0}, 5000, 0, 5000},
		{"full fee", Rule{BasePriceCents: 5000, PlatformFeePct: 100}, 5000, 5000, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, platform, contractor := tt.rule.Split()
			assert.Equal(t, tt.total, total)
			assert.Equal(t, tt.platform, platform)
			assert.Equal(t, tt.contractor, contractor)
			assert.Equal(t, total, platform+contractor, "cuts must sum to total")
		})
	}
}

package params

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePresetFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "presets.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestNewRegistry_LoadsPresets(t *testing.T) {
	path := writePresetFile(t, `
presets:
  default:
    lot_size_usd: 10000
    max_positions: 10
    mode: LONG
    entry_activation_pct: 0.05
    entry_pullback_pct: 0.02
    exit_activation_pct: 0.10
    exit_pullback_pct: 0.03
  short_dca:
    lot_size_usd: 5000
    max_positions: 4
    mode: SHORT_DCA
`)
	r, err := NewRegistry(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"default", "short_dca"}, r.Names())

	def, ok := r.Preset("default")
	require.True(t, ok)
	assert.InDelta(t, 10000, def.LotSizeUSD, 1e-9)
	assert.Equal(t, 10, def.MaxPositions)
	assert.Equal(t, ModeLong, def.Mode)
	assert.InDelta(t, 0.05, def.EntryActivationPct, 1e-9)

	short, ok := r.Preset("short_dca")
	require.True(t, ok)
	assert.True(t, short.Short())

	_, ok = r.Preset("nope")
	assert.False(t, ok)

	snap := r.Snapshot()
	assert.Equal(t, int64(1), snap.Version)
	assert.Len(t, snap.Presets, 2)
}

func TestNewRegistry_SchemaRejectsBadPreset(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"missing lot size", `
presets:
  broken:
    max_positions: 3
`},
		{"string lot size", `
presets:
  broken:
    lot_size_usd: "lots"
`},
		{"percent out of range", `
presets:
  broken:
    lot_size_usd: 10000
    entry_activation_pct: 1.5
`},
		{"no presets", `
presets: {}
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewRegistry(writePresetFile(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestNewRegistry_PathRequired(t *testing.T) {
	_, err := NewRegistry("  ")
	assert.Error(t, err)
	_, err = NewRegistry(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

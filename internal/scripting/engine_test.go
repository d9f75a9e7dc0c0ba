package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	e, err := NewEngine(dir, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func TestEngine_MissingDirFallsBack(t *testing.T) {
	e := newTestEngine(t, filepath.Join(t.TempDir(), "absent"))

	assert.False(t, e.HasFunc("calc_rift_capabilities"))
	assert.Equal(t, DefaultRiftCapabilities(4), e.CalcRiftCapabilities(4))
	assert.Equal(t, DefaultStyleCapabilities(2), e.CalcStyleCapabilities(2))
}

func TestEngine_ShippedScriptMatchesBuiltins(t *testing.T) {
	e := newTestEngine(t, filepath.Join("..", "..", "scripts"))
	require.True(t, e.HasFunc("calc_rift_capabilities"))
	require.True(t, e.HasFunc("calc_style_capabilities"))

	for level := 1; level <= 6; level++ {
		want := DefaultRiftCapabilities(level)
		got := e.CalcRiftCapabilities(level)
		assert.Equal(t, want.MaxChainCount, got.MaxChainCount, "level %d", level)
		assert.InDelta(t, want.MaxRiftDistance, got.MaxRiftDistance, 1e-9, "level %d", level)
		assert.InDelta(t, want.PhantomDodgeDuration, got.PhantomDodgeDuration, 1e-9, "level %d", level)
		assert.InDelta(t, want.PhantomDodgeDistance, got.PhantomDodgeDistance, 1e-9, "level %d", level)
		assert.Equal(t, want.CanAerialReset, got.CanAerialReset, "level %d", level)
		assert.Equal(t, want.CanCounterRift, got.CanCounterRift, "level %d", level)

		ws := DefaultStyleCapabilities(level)
		gs := e.CalcStyleCapabilities(level)
		assert.InDelta(t, ws.StyleMultiplier, gs.StyleMultiplier, 1e-9, "level %d", level)
		assert.InDelta(t, ws.StylePointCap, gs.StylePointCap, 1e-9, "level %d", level)
		assert.InDelta(t, ws.DecayRate, gs.DecayRate, 1e-9, "level %d", level)
	}
}

func TestEngine_CustomScript(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "progression"), 0o755))
	script := `
function calc_rift_capabilities(level)
  return { max_distance = level * 100, max_chain = level, aerial_reset = true }
end
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "progression", "rift.lua"), []byte(script), 0o644))

	e := newTestEngine(t, dir)
	caps := e.CalcRiftCapabilities(3)
	assert.Equal(t, 3, caps.Level)
	assert.InDelta(t, 300, caps.MaxRiftDistance, 1e-9)
	assert.Equal(t, 3, caps.MaxChainCount)
	assert.True(t, caps.CanAerialReset)
	assert.False(t, caps.CanCounterRift)

	// style has no script in this dir
	assert.Equal(t, DefaultStyleCapabilities(3), e.CalcStyleCapabilities(3))
}

func TestEngine_ScriptErrorsFallBack(t *testing.T) {
	e := newTestEngine(t, "")
	require.NoError(t, e.DoString(`
function calc_rift_capabilities(level) error("boom") end
function calc_style_capabilities(level) return 42 end
`))

	assert.Equal(t, DefaultRiftCapabilities(2), e.CalcRiftCapabilities(2))
	assert.Equal(t, DefaultStyleCapabilities(2), e.CalcStyleCapabilities(2))
}

func TestEngine_BrokenScriptFailsLoad(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "progression"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "progression", "bad.lua"), []byte("function ("), 0o644))

	_, err := NewEngine(dir, zap.NewNop())
	assert.Error(t, err)
}

func TestDefaultRiftCapabilities(t *testing.T) {
	base := DefaultRiftCapabilities(1)
	assert.InDelta(t, 500, base.MaxRiftDistance, 1e-9)
	assert.Equal(t, 1, base.MaxChainCount)
	assert.False(t, base.CanAerialReset)

	top := DefaultRiftCapabilities(6)
	assert.Equal(t, 3, top.MaxChainCount)
	assert.True(t, top.CanAerialReset)
	assert.True(t, top.CanCounterRift)
}

func TestDefaultStyleCapabilities_DecayFloor(t *testing.T) {
	assert.InDelta(t, 2, DefaultStyleCapabilities(20).DecayRate, 1e-9)
}

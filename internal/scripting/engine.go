package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rmcgame/progression/internal/component"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM holding the capability formulas.
// Single-goroutine access only (game loop).
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads every script under
// scriptsDir/progression. A missing directory is not an error: every call then
// uses the built-in formula.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState()
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if scriptsDir != "" {
		if err := e.loadDir(filepath.Join(scriptsDir, "progression")); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load progression scripts: %w", err)
		}
	}
	return e, nil
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".lua" {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if err := e.vm.DoFile(path); err != nil {
			return fmt.Errorf("load %s: %w", path, err)
		}
		e.log.Debug("loaded lua script", zap.String("file", path))
	}
	return nil
}

// DoString runs a chunk of Lua in the engine VM (used by tools and tests).
func (e *Engine) DoString(src string) error {
	return e.vm.DoString(src)
}

// HasFunc reports whether a global Lua function is defined.
func (e *Engine) HasFunc(name string) bool {
	_, ok := e.vm.GetGlobal(name).(*lua.LFunction)
	return ok
}

// CalcRiftCapabilities calls calc_rift_capabilities(level). The script
// returns a table with max_distance, max_chain, dodge_duration,
// dodge_distance, aerial_reset and counter_rift.
func (e *Engine) CalcRiftCapabilities(level int) component.RiftCapabilities {
	rt, ok := e.callTableFunc("calc_rift_capabilities", level)
	if !ok {
		return DefaultRiftCapabilities(level)
	}
	return component.RiftCapabilities{
		Level:                level,
		MaxRiftDistance:      lNum(rt, "max_distance"),
		MaxChainCount:        lInt(rt, "max_chain"),
		PhantomDodgeDuration: lNum(rt, "dodge_duration"),
		PhantomDodgeDistance: lNum(rt, "dodge_distance"),
		CanAerialReset:       lBool(rt, "aerial_reset"),
		CanCounterRift:       lBool(rt, "counter_rift"),
	}
}

// CalcStyleCapabilities calls calc_style_capabilities(level). The script
// returns a table with multiplier, point_cap and decay_rate.
func (e *Engine) CalcStyleCapabilities(level int) component.StyleCapabilities {
	rt, ok := e.callTableFunc("calc_style_capabilities", level)
	if !ok {
		return DefaultStyleCapabilities(level)
	}
	return component.StyleCapabilities{
		Level:           level,
		StyleMultiplier: lNum(rt, "multiplier"),
		StylePointCap:   lNum(rt, "point_cap"),
		DecayRate:       lNum(rt, "decay_rate"),
	}
}

// DefaultRiftCapabilities is the built-in formula: base rift values grow 10%
// per attunement level past 1, an extra chain every two levels, aerial reset
// from level 3 and counter rift from level 5.
func DefaultRiftCapabilities(level int) component.RiftCapabilities {
	steps := float64(level - 1)
	return component.RiftCapabilities{
		Level:                level,
		MaxRiftDistance:      500 * (1 + 0.1*steps),
		MaxChainCount:        1 + (level-1)/2,
		PhantomDodgeDuration: 0.3 * (1 + 0.05*steps),
		PhantomDodgeDistance: 300 * (1 + 0.05*steps),
		CanAerialReset:       level >= 3,
		CanCounterRift:       level >= 5,
	}
}

// DefaultStyleCapabilities is the built-in style mastery formula.
func DefaultStyleCapabilities(level int) component.StyleCapabilities {
	steps := float64(level - 1)
	decay := 10 * (1 - 0.1*steps)
	if decay < 2 {
		decay = 2
	}
	return component.StyleCapabilities{
		Level:           level,
		StyleMultiplier: 1 + 0.1*steps,
		StylePointCap:   1000 + 250*steps,
		DecayRate:       decay,
	}
}

// callTableFunc calls a global Lua function with int args and expects a
// table back. Missing functions fall back silently; runtime errors are logged.
func (e *Engine) callTableFunc(name string, args ...int) (*lua.LTable, bool) {
	fn := e.vm.GetGlobal(name)
	if fn == lua.LNil {
		return nil, false
	}

	lArgs := make([]lua.LValue, len(args))
	for i, a := range args {
		lArgs[i] = lua.LNumber(a)
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lArgs...); err != nil {
		e.log.Error("lua call error", zap.String("func", name), zap.Error(err))
		return nil, false
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)
	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua function returned non-table", zap.String("func", name))
		return nil, false
	}
	return rt, true
}

// --- Lua helpers ---

func lNum(t *lua.LTable, key string) float64 {
	return float64(lua.LVAsNumber(t.RawGetString(key)))
}

func lInt(t *lua.LTable, key string) int {
	return int(lua.LVAsNumber(t.RawGetString(key)))
}

func lBool(t *lua.LTable, key string) bool {
	return lua.LVAsBool(t.RawGetString(key))
}

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

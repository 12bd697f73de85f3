package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/bugduel/server/internal/arena"
)

// Engine wraps a single gopher-lua VM hosting tuning hooks. Single
// goroutine access only: rules produced by this engine run under the
// lobby service lock.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given
// directory. A missing directory is not an error: the engine simply has
// no hooks and every rule falls back to its built-in.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})

	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}
	if err := e.loadDir(scriptsDir); err != nil {
		vm.Close()
		return nil, fmt.Errorf("load scripts: %w", err)
	}
	return e, nil
}

// Close releases the VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// loadDir loads all .lua files in a directory.
func (e *Engine) loadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil // skip missing dirs
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

// ImpactRule returns a combat rule backed by the Lua calc_impact
// function. When the function is absent or errors, the fallback rule
// decides instead, so a broken script degrades to built-in combat
// rather than breaking matches.
func (e *Engine) ImpactRule(fallback arena.ImpactRule) arena.ImpactRule {
	return func(ctx arena.ImpactContext) arena.ImpactResult {
		fn := e.vm.GetGlobal("calc_impact")
		if fn == lua.LNil {
			return fallback(ctx)
		}

		t := e.vm.NewTable()

		a := e.vm.NewTable()
		a.RawSetString("sort", lua.LString(ctx.SortA.String()))
		a.RawSetString("team", lua.LString(ctx.TeamA.String()))
		a.RawSetString("speed", lua.LNumber(ctx.SpeedA))
		t.RawSetString("a", a)

		b := e.vm.NewTable()
		b.RawSetString("sort", lua.LString(ctx.SortB.String()))
		b.RawSetString("team", lua.LString(ctx.TeamB.String()))
		b.RawSetString("speed", lua.LNumber(ctx.SpeedB))
		t.RawSetString("b", b)

		if err := e.vm.CallByParam(lua.P{
			Fn:      fn,
			NRet:    1,
			Protect: true,
		}, t); err != nil {
			e.log.Error("lua calc_impact error", zap.Error(err))
			return fallback(ctx)
		}

		result := e.vm.Get(-1)
		e.vm.Pop(1)

		rt, ok := result.(*lua.LTable)
		if !ok {
			e.log.Error("lua calc_impact returned non-table")
			return fallback(ctx)
		}

		return arena.ImpactResult{
			Impact:  rt.RawGetString("impact") == lua.LTrue,
			DamageA: int(lua.LVAsNumber(rt.RawGetString("damage_a"))),
			DamageB: int(lua.LVAsNumber(rt.RawGetString("damage_b"))),
		}
	}
}

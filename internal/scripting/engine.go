package scripting

import (
	"fmt"
	"os"
	"path/filepath"

	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"
)

// Engine wraps a single gopher-lua VM for loot tuning hooks.
// Single-goroutine access only (game loop).
//
// Scripts may define any of:
//
//	drop_chance_multiplier(npc_type, item_id, chance) -> number
//	coin_amount_multiplier(npc_type, amount)          -> number
//	on_loot_dropped(npc_type, killer_id)
//
// Undefined hooks degrade to identity behavior.
type Engine struct {
	vm  *lua.LState
	log *zap.Logger
}

// NewEngine creates a Lua engine and loads all scripts from the given directory.
func NewEngine(scriptsDir string, log *zap.Logger) (*Engine, error) {
	vm := lua.NewState(lua.Options{
		SkipOpenLibs: false,
	})
	vm.SetGlobal("API_VERSION", lua.LNumber(1))

	e := &Engine{vm: vm, log: log}

	for _, sub := range []string{"core", "loot"} {
		if err := e.loadDir(filepath.Join(scriptsDir, sub)); err != nil {
			vm.Close()
			return nil, fmt.Errorf("load %s scripts: %w", sub, err)
		}
	}
	return e, nil
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

// Close shuts down the Lua VM.
func (e *Engine) Close() {
	e.vm.Close()
}

// DropChanceMultiplier calls Lua drop_chance_multiplier(npc_type, item_id,
// chance) and returns the adjusted chance. Missing hook or script error
// returns the chance unmodified.
func (e *Engine) DropChanceMultiplier(npcType, itemID int32, chance float64) float64 {
	fn := e.vm.GetGlobal("drop_chance_multiplier")
	if fn == lua.LNil {
		return chance
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(npcType), lua.LNumber(itemID), lua.LNumber(chance)); err != nil {
		e.log.Error("lua drop_chance_multiplier error", zap.Error(err))
		return chance
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	if n, ok := result.(lua.LNumber); ok {
		return float64(n)
	}
	return chance
}

// CoinAmountMultiplier calls Lua coin_amount_multiplier(npc_type, amount) and
// returns the adjusted amount, floored at 1. Missing hook or script error
// returns the amount unmodified.
func (e *Engine) CoinAmountMultiplier(npcType int32, amount int32) int32 {
	fn := e.vm.GetGlobal("coin_amount_multiplier")
	if fn == lua.LNil {
		return amount
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LNumber(npcType), lua.LNumber(amount)); err != nil {
		e.log.Error("lua coin_amount_multiplier error", zap.Error(err))
		return amount
	}
	result := e.vm.Get(-1)
	e.vm.Pop(1)
	if n, ok := result.(lua.LNumber); ok {
		adjusted := int32(n)
		if adjusted < 1 {
			adjusted = 1
		}
		return adjusted
	}
	return amount
}

// OnLootDropped calls the Lua on_loot_dropped(npc_type, killer_id) hook, if
// present. Fire-and-forget: errors are logged, never propagated.
func (e *Engine) OnLootDropped(npcType, killerID int32) {
	fn := e.vm.GetGlobal("on_loot_dropped")
	if fn == lua.LNil {
		return
	}
	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    0,
		Protect: true,
	}, lua.LNumber(npcType), lua.LNumber(killerID)); err != nil {
		e.log.Error("lua on_loot_dropped error", zap.Error(err))
	}
}

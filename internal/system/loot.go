package system

import (
	"time"

	"github.com/runevale/server/internal/core/event"
	"github.com/runevale/server/internal/loot"
	"github.com/runevale/server/internal/world"
	"go.uber.org/zap"
)

// loot.go — 戰利品結算系統：NPC 死亡 → 擲骰 → 地面物品擺放。
// 手動掉落（玩家從背包丟棄）走獨立路徑，不參與堆疊與保護。

// TickSource returns the current simulation tick. The game loop owns the
// counter; systems only read it.
type TickSource func() int64

// LootSystem 將死亡事件接到掉落解算與地面物品管理器。
type LootSystem struct {
	deps *Deps
	rng  loot.Rand
	tick TickSource
}

// NewLootSystem 建立 LootSystem 並訂閱事件。rng 為 nil 時使用全域隨機源。
func NewLootSystem(deps *Deps, rng loot.Rand, tick TickSource) *LootSystem {
	if rng == nil {
		rng = loot.SystemRand()
	}
	s := &LootSystem{deps: deps, rng: rng, tick: tick}

	event.Subscribe(deps.Bus, s.onNpcDied)
	event.Subscribe(deps.Bus, s.onManualDrop)

	// 地面物品移除 → 發出事件（排程器下一 tick 派送）
	deps.Ground.SetRemovalListener(func(stack *world.GroundStack, tick int64) {
		items := make([]event.ItemQty, len(stack.Entries))
		for i, e := range stack.Entries {
			items[i] = event.ItemQty{ItemID: e.ItemID, Quantity: e.Quantity}
		}
		event.Emit(deps.Bus, event.GroundItemRemoved{
			TileX: stack.Tile.X,
			TileZ: stack.Tile.Z,
			Items: items,
			Tick:  tick,
		})
	})
	return s
}

// onNpcDied 處理 NPC 死亡：查表、擲骰、落地、擺放、發出 LootDropped。
func (s *LootSystem) onNpcDied(ev event.NpcDied) {
	table := s.deps.Loot.Get(ev.NpcType)
	if table == nil {
		s.deps.Log.Warn("NPC 無掉落表", zap.Int32("npc_type", ev.NpcType))
		return
	}

	drops := loot.ResolveMods(table, s.rng, s.mods(ev.NpcType))
	if len(drops) == 0 {
		return // 本次沒掉東西，合法結果
	}

	// 轉成管理器的項目形狀；目錄查不到的物品略過
	placed := make([]world.Drop, 0, len(drops))
	items := make([]event.ItemQty, 0, len(drops))
	for _, d := range drops {
		def := s.deps.Items.Get(d.ItemID)
		if def == nil {
			s.deps.Log.Warn("掉落物品不在目錄中，略過",
				zap.Int32("npc_type", ev.NpcType),
				zap.Int32("item_id", d.ItemID),
			)
			continue
		}
		placed = append(placed, world.Drop{ItemID: d.ItemID, Quantity: d.Quantity, Stackable: def.Stackable})
		items = append(items, event.ItemQty{ItemID: d.ItemID, Quantity: d.Quantity})
	}
	if len(placed) == 0 {
		return
	}

	pos := s.grounded(ev.Pos)
	tick := s.tick()

	// 怪物掉落固定堆疊在死亡格（scatter=false）
	s.deps.Ground.PlaceDrops(
		world.TileOf(pos.X, pos.Z),
		placed,
		ev.KilledBy,
		tick,
		s.deps.Config.Loot.ProtectionTicks,
		s.deps.Config.Loot.DespawnTicks,
		false,
	)

	event.Emit(s.deps.Bus, event.LootDropped{
		NpcID:   ev.NpcID,
		NpcType: ev.NpcType,
		Killer:  ev.KilledBy,
		Items:   items,
		Pos:     pos,
		Tick:    tick,
	})

	if s.deps.Scripting != nil {
		s.deps.Scripting.OnLootDropped(ev.NpcType, ev.KilledBy)
	}

	s.deps.Log.Debug("戰利品已掉落",
		zap.Int32("npc_type", ev.NpcType),
		zap.Int32("killer", ev.KilledBy),
		zap.Int("items", len(items)),
	)
}

// onManualDrop 處理玩家手動丟棄：單件、單一到期時間、不堆疊。
func (s *LootSystem) onManualDrop(ev event.ManualDropRequested) {
	if s.deps.Items.Get(ev.ItemID) == nil {
		s.deps.Log.Warn("手動丟棄未知物品，略過",
			zap.Int32("char_id", ev.CharID),
			zap.Int32("item_id", ev.ItemID),
		)
		return
	}
	pos := s.grounded(ev.Pos)
	item := s.deps.Manual.Drop(ev.CharID, ev.ItemID, ev.Quantity, pos.X, pos.Y, pos.Z, time.Now())

	s.deps.Log.Debug("物品丟棄至地面",
		zap.Int32("char_id", ev.CharID),
		zap.Int32("item_id", ev.ItemID),
		zap.Int32("count", item.Quantity),
		zap.Int32("drop_id", item.ID),
	)
}

// mods 組合設定倍率與 Lua 調整鉤子。
func (s *LootSystem) mods(npcType int32) loot.Mods {
	rates := s.deps.Config.Rates
	return loot.Mods{
		Chance: func(itemID int32, chance float64) float64 {
			if rates.DropRate > 0 {
				chance *= rates.DropRate
			}
			if s.deps.Scripting != nil {
				chance = s.deps.Scripting.DropChanceMultiplier(npcType, itemID, chance)
			}
			if chance > 1 {
				chance = 1
			}
			return chance
		},
		CoinAmount: func(amount int32) int32 {
			if rates.CoinRate > 0 {
				amount = int32(float64(amount) * rates.CoinRate)
				if amount < 1 {
					amount = 1
				}
			}
			if s.deps.Scripting != nil {
				amount = s.deps.Scripting.CoinAmountMultiplier(npcType, amount)
			}
			return amount
		},
	}
}

// grounded 將原始座標貼到可行走表面。無地形資料時原樣使用。
func (s *LootSystem) grounded(pos event.Position) event.Position {
	if s.deps.Terrain == nil {
		s.deps.Log.Error("無地形資料，掉落位置未貼地")
		return pos
	}
	pos.Y = s.deps.Terrain.SurfaceHeight(pos.X, pos.Z)
	return pos
}

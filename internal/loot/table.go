package loot

import (
	"github.com/runevale/server/internal/data"
	"go.uber.org/zap"
)

// DropEntry is one possible drop in one tier of one table.
type DropEntry struct {
	ItemID   int32
	Quantity int32
	Chance   float64 // [0,1]; ignored for the guaranteed tier
}

// LootTable holds the four ordered tiers for one NPC template.
// Built once at boot by BuildRegistry and never mutated afterwards.
type LootTable struct {
	OwnerID    int32 // NPC template ID
	Guaranteed []DropEntry
	Common     []DropEntry
	Uncommon   []DropEntry
	Rare       []DropEntry
}

// Empty reports whether the table has no entries in any tier.
func (t *LootTable) Empty() bool {
	return len(t.Guaranteed) == 0 && len(t.Common) == 0 &&
		len(t.Uncommon) == 0 && len(t.Rare) == 0
}

// Registry maps NPC template ID → loot table. Write-once: built at boot,
// read-only from the game loop. Rebuilding at runtime is not supported.
type Registry struct {
	tables map[int32]*LootTable
}

// Get returns the table for an NPC template, or nil if none exists
// (non-combatant categories have no table at all).
func (r *Registry) Get(npcType int32) *LootTable {
	return r.tables[npcType]
}

// Count returns the number of NPC templates with a table.
func (r *Registry) Count() int {
	return len(r.tables)
}

// BuildRegistry converts unified drop specs from NPC templates into four-tier
// loot tables. Only combat-relevant categories get a table; a combatant with
// no drops gets an empty table, not an error. Entries naming items absent from
// the catalog are skipped with a warning. Tier mapping:
//
//	default:true        → guaranteed, chance forced to 1.0
//	always              → guaranteed
//	common / uncommon   → same tier
//	rare / very_rare    → merged into rare
func BuildRegistry(npcs *data.NpcTable, items *data.ItemTable, log *zap.Logger) *Registry {
	r := &Registry{tables: make(map[int32]*LootTable, npcs.Count())}
	npcs.All(func(def *data.NpcDef) {
		if !def.Category.Combatant() {
			return
		}
		t := &LootTable{OwnerID: def.NpcID}
		for _, spec := range def.Drops {
			if items.Get(spec.ItemID) == nil {
				log.Warn("掉落表引用未知物品，略過",
					zap.Int32("npc_id", def.NpcID),
					zap.Int32("item_id", spec.ItemID),
				)
				continue
			}
			qty := spec.Quantity
			if qty <= 0 {
				qty = 1
			}
			entry := DropEntry{ItemID: spec.ItemID, Quantity: qty, Chance: spec.Chance}
			if spec.Default {
				entry.Chance = 1.0
				t.Guaranteed = append(t.Guaranteed, entry)
				continue
			}
			switch spec.Tier {
			case "always":
				t.Guaranteed = append(t.Guaranteed, entry)
			case "common":
				t.Common = append(t.Common, entry)
			case "uncommon":
				t.Uncommon = append(t.Uncommon, entry)
			case "rare", "very_rare":
				t.Rare = append(t.Rare, entry)
			default:
				log.Warn("掉落表分級未知，略過",
					zap.Int32("npc_id", def.NpcID),
					zap.Int32("item_id", spec.ItemID),
					zap.String("tier", spec.Tier),
				)
			}
		}
		r.tables[def.NpcID] = t
	})
	return r
}

package event

// Position is a raw world position as reported by the death/drop source.
// Y is vertical; the loot system grounds it to the walkable surface before
// placing anything.
type Position struct {
	X, Y, Z float64
}

// ItemQty is one (item, quantity) pair carried by loot events.
type ItemQty struct {
	ItemID   int32
	Quantity int32
}

// NpcDied is emitted by combat when an NPC's HP reaches zero.
// KilledBy is the char ID of the killer (0 = environment/unknown).
type NpcDied struct {
	NpcID    int32 // world object ID of the dead instance
	NpcType  int32 // template ID, keys the loot table
	Level    int16
	KilledBy int32
	Pos      Position
}

// ManualDropRequested is emitted when a player drops an item from inventory.
type ManualDropRequested struct {
	CharID   int32
	ItemID   int32
	Quantity int32
	Pos      Position
}

// LootDropped is emitted after resolved drops have been placed on the ground.
type LootDropped struct {
	NpcID   int32
	NpcType int32
	Killer  int32
	Items   []ItemQty
	Pos     Position
	Tick    int64
}

// GroundItemRemoved is emitted when a stack despawns or is fully picked up.
// Items holds the stack contents at the moment of removal.
type GroundItemRemoved struct {
	TileX, TileZ int32
	Items        []ItemQty
	Tick         int64
}

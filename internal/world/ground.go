package world

import (
	"math/rand"

	"go.uber.org/zap"
)

// StackState is a ground stack's position in its lifecycle.
type StackState int

const (
	// StateProtected: only the stack's owner may remove items.
	StateProtected StackState = iota
	// StatePublic: anyone may remove items.
	StatePublic
	// StateDespawned: terminal; the stack has been purged from the index.
	StateDespawned
)

// StackEntry is one line of a ground stack. Stackable entries merge by item
// ID when more drops land on the tile; non-stackables are appended as
// separate lines even when the item ID matches.
type StackEntry struct {
	ItemID    int32
	Quantity  int32
	Stackable bool
}

// Drop is the item-entry shape callers hand to PlaceDrops.
type Drop struct {
	ItemID    int32
	Quantity  int32
	Stackable bool
}

// GroundStack is the set of items piled on one tile, sharing lifecycle
// timers. Invariant: SpawnTick <= ProtectedUntilTick <= DespawnTick.
// Merges never reset OwnerID or the timers — later arrivals pile onto the
// original clock.
type GroundStack struct {
	Tile               TileKey
	Entries            []StackEntry
	OwnerID            int32 // killer or dropper; loot protection subject
	SpawnTick          int64
	ProtectedUntilTick int64
	DespawnTick        int64
	VisualEntityID     int32 // 0 = no visual (spawner missing or failed)
}

// StateAt returns the stack's lifecycle state at the given tick.
func (s *GroundStack) StateAt(tick int64) StackState {
	switch {
	case tick >= s.DespawnTick:
		return StateDespawned
	case tick >= s.ProtectedUntilTick:
		return StatePublic
	default:
		return StateProtected
	}
}

// MayLoot reports whether charID may remove items from the stack at tick.
// The pickup handler is external to this core; it enforces its decision
// through this predicate.
func (s *GroundStack) MayLoot(charID int32, tick int64) bool {
	switch s.StateAt(tick) {
	case StateProtected:
		return charID == s.OwnerID
	case StatePublic:
		return true
	case StateDespawned:
		return false
	}
	return false
}

// EntitySpawner is the entity-management collaborator. It owns visual
// representations of ground stacks; this core only holds the IDs.
type EntitySpawner interface {
	SpawnGroundItem(stack *GroundStack) (int32, error)
	DestroyEntity(id int32)
}

// RemovalListener observes stacks leaving the world (despawn or full pickup).
type RemovalListener func(stack *GroundStack, tick int64)

// GroundItemManager owns every placed stack, indexed by tile.
// Single-goroutine access only (game loop): no locking, and ProcessTick is
// never re-entered by the scheduler.
type GroundItemManager struct {
	stacks    map[TileKey]*GroundStack
	spawner   EntitySpawner
	onRemoved RemovalListener
	log       *zap.Logger
}

func NewGroundItemManager(spawner EntitySpawner, log *zap.Logger) *GroundItemManager {
	return &GroundItemManager{
		stacks:  make(map[TileKey]*GroundStack),
		spawner: spawner,
		log:     log,
	}
}

// SetRemovalListener registers the single removal observer. Call before the
// first tick.
func (m *GroundItemManager) SetRemovalListener(fn RemovalListener) {
	m.onRemoved = fn
}

// StackAt returns the live stack on a tile, or nil.
func (m *GroundItemManager) StackAt(tile TileKey) *GroundStack {
	return m.stacks[tile]
}

// Len returns the number of live stacks.
func (m *GroundItemManager) Len() int {
	return len(m.stacks)
}

// PlaceDrops lands a batch of drops on the world surface.
//
// scatter=false (mob kills): everything piles on tile. scatter=true (the
// legacy manual-drop scatter option): each drop may shift to a random
// adjacent tile before placement.
//
// Per target tile: if a live stack exists, stackable drops merge into the
// matching entry (or open a new one) and non-stackables append; the stack's
// owner and checkpoints stay untouched. Otherwise a new stack is created with
// ProtectedUntilTick = spawnTick + protectionTicks and DespawnTick =
// spawnTick + despawnTicks, and a visual entity is requested.
func (m *GroundItemManager) PlaceDrops(tile TileKey, drops []Drop, ownerID int32, spawnTick int64, protectionTicks, despawnTicks int, scatter bool) {
	for _, d := range drops {
		if d.Quantity <= 0 {
			continue
		}
		target := tile
		if scatter {
			target = tile.Offset(int32(rand.Intn(3)-1), int32(rand.Intn(3)-1))
		}
		m.placeOne(target, d, ownerID, spawnTick, protectionTicks, despawnTicks)
	}
}

func (m *GroundItemManager) placeOne(tile TileKey, d Drop, ownerID int32, spawnTick int64, protectionTicks, despawnTicks int) {
	if stack := m.stacks[tile]; stack != nil {
		stack.merge(d)
		return
	}
	stack := &GroundStack{
		Tile:               tile,
		Entries:            []StackEntry{{ItemID: d.ItemID, Quantity: d.Quantity, Stackable: d.Stackable}},
		OwnerID:            ownerID,
		SpawnTick:          spawnTick,
		ProtectedUntilTick: spawnTick + int64(protectionTicks),
		DespawnTick:        spawnTick + int64(despawnTicks),
	}
	m.stacks[tile] = stack

	if m.spawner == nil {
		m.log.Error("無實體管理器，地面物品不可見",
			zap.Int32("tile_x", tile.X), zap.Int32("tile_z", tile.Z))
		return
	}
	id, err := m.spawner.SpawnGroundItem(stack)
	if err != nil {
		m.log.Error("生成地面物品實體失敗", zap.Error(err),
			zap.Int32("tile_x", tile.X), zap.Int32("tile_z", tile.Z))
		return
	}
	stack.VisualEntityID = id
}

func (s *GroundStack) merge(d Drop) {
	if d.Stackable {
		for i := range s.Entries {
			if s.Entries[i].Stackable && s.Entries[i].ItemID == d.ItemID {
				s.Entries[i].Quantity += d.Quantity
				return
			}
		}
	}
	s.Entries = append(s.Entries, StackEntry{ItemID: d.ItemID, Quantity: d.Quantity, Stackable: d.Stackable})
}

// TakeEntry removes up to qty of itemID from the stack on tile, on behalf of
// charID. Returns the quantity actually taken (0 when denied or absent).
// Taking the stack's last item removes the stack and destroys its visual —
// the explicit-full-pickup removal path.
func (m *GroundItemManager) TakeEntry(tile TileKey, itemID, qty, charID int32, tick int64) int32 {
	stack := m.stacks[tile]
	if stack == nil || qty <= 0 {
		return 0
	}
	if !stack.MayLoot(charID, tick) {
		return 0
	}
	taken := int32(0)
	for i := range stack.Entries {
		e := &stack.Entries[i]
		if e.ItemID != itemID || e.Quantity == 0 {
			continue
		}
		taken = qty
		if taken > e.Quantity {
			taken = e.Quantity
		}
		e.Quantity -= taken
		break
	}
	if taken == 0 {
		return 0
	}
	stack.compact()
	if len(stack.Entries) == 0 {
		m.remove(stack, tick)
	}
	return taken
}

// RemoveStack removes a whole stack on behalf of charID (pick up everything).
// Returns the removed stack, or nil when absent or denied by loot protection.
func (m *GroundItemManager) RemoveStack(tile TileKey, charID int32, tick int64) *GroundStack {
	stack := m.stacks[tile]
	if stack == nil || !stack.MayLoot(charID, tick) {
		return nil
	}
	m.remove(stack, tick)
	return stack
}

func (s *GroundStack) compact() {
	kept := s.Entries[:0]
	for _, e := range s.Entries {
		if e.Quantity > 0 {
			kept = append(kept, e)
		}
	}
	s.Entries = kept
}

// ProcessTick advances the lifecycle: every stack whose despawn checkpoint
// has passed is purged, its visual destroyed, and the removal listener
// notified. Called exactly once per tick by the scheduler. Safe with no live
// stacks, and a stack already removed this tick cannot be removed again —
// removal deletes it from the index first.
func (m *GroundItemManager) ProcessTick(tick int64) {
	for _, stack := range m.stacks {
		if stack.DespawnTick <= tick {
			m.remove(stack, tick)
		}
	}
}

func (m *GroundItemManager) remove(stack *GroundStack, tick int64) {
	if m.stacks[stack.Tile] != stack {
		return // already removed, or the tile was re-occupied by a newer stack
	}
	delete(m.stacks, stack.Tile)
	if stack.VisualEntityID != 0 && m.spawner != nil {
		m.spawner.DestroyEntity(stack.VisualEntityID)
	}
	if m.onRemoved != nil {
		m.onRemoved(stack, tick)
	}
}

package world

import "sync/atomic"

// visualEntityIDCounter generates unique IDs for ground-item visuals.
// Starts at 700_000_000 to avoid collision with char/NPC object IDs.
var visualEntityIDCounter atomic.Int32

func init() {
	visualEntityIDCounter.Store(700_000_000)
}

// NextVisualEntityID returns a unique visual entity ID.
func NextVisualEntityID() int32 {
	return visualEntityIDCounter.Add(1)
}

// VisualEntity is one renderable ground-item entity tracked by the registry.
// Replication to clients happens elsewhere; this core only tracks existence.
type VisualEntity struct {
	ID    int32
	Tile  TileKey
	GfxID int32
}

// GfxLookup resolves an item ID to its ground sprite. Usually backed by the
// item catalog.
type GfxLookup func(itemID int32) int32

// EntityRegistry is the in-process entity-management collaborator: it tracks
// live ground-item visuals by ID. Not persisted — exists only in memory.
type EntityRegistry struct {
	entities map[int32]*VisualEntity
	gfx      GfxLookup
}

func NewEntityRegistry(gfx GfxLookup) *EntityRegistry {
	return &EntityRegistry{
		entities: make(map[int32]*VisualEntity),
		gfx:      gfx,
	}
}

// SpawnGroundItem implements EntitySpawner. The visual shows the stack's
// first entry; piled tiles keep one entity.
func (r *EntityRegistry) SpawnGroundItem(stack *GroundStack) (int32, error) {
	var gfxID int32
	if r.gfx != nil && len(stack.Entries) > 0 {
		gfxID = r.gfx(stack.Entries[0].ItemID)
	}
	e := &VisualEntity{
		ID:    NextVisualEntityID(),
		Tile:  stack.Tile,
		GfxID: gfxID,
	}
	r.entities[e.ID] = e
	return e.ID, nil
}

// DestroyEntity implements EntitySpawner. Unknown IDs are a no-op.
func (r *EntityRegistry) DestroyEntity(id int32) {
	delete(r.entities, id)
}

// Get returns a live entity by ID, or nil.
func (r *EntityRegistry) Get(id int32) *VisualEntity {
	return r.entities[id]
}

// Count returns the number of live entities.
func (r *EntityRegistry) Count() int {
	return len(r.entities)
}

package world

import (
	"time"

	"go.uber.org/zap"
)

// ManualDroppedItem is a player-dropped item. Unlike kill loot these do not
// pile per tile and carry a single wall-clock expiry instead of the
// protected/public checkpoints. This mirrors the behavior the server has
// always had for inventory drops; see DESIGN.md for the asymmetry decision.
type ManualDroppedItem struct {
	ID             int32
	ItemID         int32
	Quantity       int32
	OwnerID        int32 // dropper
	X, Y, Z        float64
	DroppedAt      time.Time
	ExpiresAt      time.Time
	VisualEntityID int32
}

// ManualDropManager owns player-dropped items. Single-goroutine access only
// (game loop). Its sweep is separate from GroundItemManager.ProcessTick.
type ManualDropManager struct {
	items   map[int32]*ManualDroppedItem
	order   []int32 // insertion order, oldest first, for eviction
	spawner EntitySpawner
	ttl     time.Duration
	max     int
	nextID  int32
	log     *zap.Logger
}

func NewManualDropManager(spawner EntitySpawner, ttl time.Duration, max int, log *zap.Logger) *ManualDropManager {
	return &ManualDropManager{
		items:   make(map[int32]*ManualDroppedItem),
		spawner: spawner,
		ttl:     ttl,
		max:     max,
		log:     log,
	}
}

// Drop places a single item at the given position. Under resource pressure
// the oldest live item is evicted first — new drops are never rejected.
func (m *ManualDropManager) Drop(ownerID, itemID, qty int32, x, y, z float64, now time.Time) *ManualDroppedItem {
	if qty <= 0 {
		qty = 1
	}
	if m.max > 0 && len(m.items) >= m.max {
		m.evictOldest()
	}
	m.nextID++
	item := &ManualDroppedItem{
		ID:        m.nextID,
		ItemID:    itemID,
		Quantity:  qty,
		OwnerID:   ownerID,
		X:         x,
		Y:         y,
		Z:         z,
		DroppedAt: now,
		ExpiresAt: now.Add(m.ttl),
	}
	m.items[item.ID] = item
	m.order = append(m.order, item.ID)

	if m.spawner != nil {
		// The spawner contract is stack-shaped; a manual drop is a one-entry stack.
		id, err := m.spawner.SpawnGroundItem(&GroundStack{
			Tile:    TileOf(x, z),
			Entries: []StackEntry{{ItemID: itemID, Quantity: qty}},
			OwnerID: ownerID,
		})
		if err != nil {
			m.log.Error("生成手動掉落實體失敗", zap.Error(err), zap.Int32("item_id", itemID))
		} else {
			item.VisualEntityID = id
		}
	}
	return item
}

// Sweep removes every item whose expiry has passed. Called periodically from
// the game loop; safe with no live items.
func (m *ManualDropManager) Sweep(now time.Time) int {
	removed := 0
	for id, item := range m.items {
		if !item.ExpiresAt.After(now) {
			m.removeByID(id)
			removed++
		}
	}
	// Drop stale IDs from the eviction queue once they dominate it.
	if len(m.order) > 2*len(m.items)+16 {
		kept := m.order[:0]
		for _, id := range m.order {
			if _, live := m.items[id]; live {
				kept = append(kept, id)
			}
		}
		m.order = kept
	}
	return removed
}

// Take removes a live item on behalf of a picker. Manual drops carry no loot
// protection: anyone may take them at any time.
func (m *ManualDropManager) Take(id int32) *ManualDroppedItem {
	item := m.items[id]
	if item == nil {
		return nil
	}
	m.removeByID(id)
	return item
}

// Get returns a live item by ID, or nil.
func (m *ManualDropManager) Get(id int32) *ManualDroppedItem {
	return m.items[id]
}

// Len returns the number of live items.
func (m *ManualDropManager) Len() int {
	return len(m.items)
}

func (m *ManualDropManager) evictOldest() {
	for len(m.order) > 0 {
		id := m.order[0]
		m.order = m.order[1:]
		if _, live := m.items[id]; live {
			m.removeByID(id)
			m.log.Warn("手動掉落物品過多，淘汰最舊", zap.Int32("id", id))
			return
		}
	}
}

func (m *ManualDropManager) removeByID(id int32) {
	item := m.items[id]
	if item == nil {
		return
	}
	delete(m.items, id)
	if item.VisualEntityID != 0 && m.spawner != nil {
		m.spawner.DestroyEntity(item.VisualEntityID)
	}
}

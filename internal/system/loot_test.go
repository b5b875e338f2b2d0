package system

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/runevale/server/internal/config"
	"github.com/runevale/server/internal/core/event"
	"github.com/runevale/server/internal/data"
	"github.com/runevale/server/internal/loot"
	"github.com/runevale/server/internal/world"
	"go.uber.org/zap"
)

type fixedRand struct{ roll float64 }

func (r fixedRand) Float64() float64 { return r.roll }
func (r fixedRand) IntN(n int) int   { return n / 2 }

type stubSpawner struct {
	nextID    int32
	destroyed []int32
}

func (s *stubSpawner) SpawnGroundItem(stack *world.GroundStack) (int32, error) {
	s.nextID++
	return s.nextID, nil
}

func (s *stubSpawner) DestroyEntity(id int32) {
	s.destroyed = append(s.destroyed, id)
}

type flatTerrain struct{ height float64 }

func (t flatTerrain) SurfaceHeight(x, z float64) float64 { return t.height }

const testItemYAML = `
items:
  - { item_id: 995, name: "Coins", category: "coin", stackable: true, value: 1 }
  - { item_id: 526, name: "Bones", category: "material", stackable: false, value: 1 }
  - { item_id: 882, name: "Bronze arrow", category: "equipment", stackable: true, value: 2 }
`

const testNpcYAML = `
npcs:
  - npc_id: 41
    name: "Chicken"
    category: "mob"
    level: 1
    drops:
      - { item_id: 526, quantity: 1, chance: 1.0, tier: "always" }
      - { item_id: 995, quantity: 20, chance: 0.5, tier: "common" }
`

type fixture struct {
	bus    *event.Bus
	ground *world.GroundItemManager
	manual *world.ManualDropManager
	sys    *LootSystem
	tick   *int64
}

func newFixture(t *testing.T, rng loot.Rand) *fixture {
	t.Helper()
	dir := t.TempDir()

	itemPath := filepath.Join(dir, "item_list.yaml")
	if err := os.WriteFile(itemPath, []byte(testItemYAML), 0644); err != nil {
		t.Fatalf("write item yaml: %v", err)
	}
	items, err := data.LoadItemTable(itemPath)
	if err != nil {
		t.Fatalf("load item table: %v", err)
	}

	npcPath := filepath.Join(dir, "npc_list.yaml")
	if err := os.WriteFile(npcPath, []byte(testNpcYAML), 0644); err != nil {
		t.Fatalf("write npc yaml: %v", err)
	}
	npcs, err := data.LoadNpcTable(npcPath)
	if err != nil {
		t.Fatalf("load npc table: %v", err)
	}

	log := zap.NewNop()
	spawner := &stubSpawner{}
	bus := event.NewBus()
	ground := world.NewGroundItemManager(spawner, log)
	manual := world.NewManualDropManager(spawner, 2*time.Minute, 10, log)

	cfg := &config.Config{
		Rates: config.RatesConfig{DropRate: 1.0, CoinRate: 1.0},
		Loot: config.LootConfig{
			ProtectionTicks: 100,
			DespawnTicks:    300,
			ManualDespawn:   config.Duration{Duration: 2 * time.Minute},
			MaxManualDrops:  10,
		},
	}

	deps := &Deps{
		Config:  cfg,
		Log:     log,
		Bus:     bus,
		Items:   items,
		Npcs:    npcs,
		Loot:    loot.BuildRegistry(npcs, items, log),
		Terrain: flatTerrain{height: 1.5},
		Ground:  ground,
		Manual:  manual,
	}

	tick := int64(0)
	f := &fixture{bus: bus, ground: ground, manual: manual, tick: &tick}
	f.sys = NewLootSystem(deps, rng, func() int64 { return tick })
	return f
}

// deliver advances one tick worth of event flow: swap then dispatch.
func (f *fixture) deliver() {
	*f.tick++
	f.bus.SwapBuffers()
	f.bus.DispatchAll()
}

func TestKillPlacesLootOnDeathTile(t *testing.T) {
	f := newFixture(t, fixedRand{roll: 0.1})

	var droppedEvents []event.LootDropped
	event.Subscribe(f.bus, func(ev event.LootDropped) {
		droppedEvents = append(droppedEvents, ev)
	})

	event.Emit(f.bus, event.NpcDied{
		NpcID:    1001,
		NpcType:  41,
		KilledBy: 7,
		Pos:      event.Position{X: 3204.4, Y: 99, Z: 3207.8},
	})
	f.deliver()

	stack := f.ground.StackAt(world.TileKey{X: 3204, Z: 3207})
	if stack == nil {
		t.Fatalf("no stack on the death tile")
	}
	if stack.OwnerID != 7 {
		t.Fatalf("killer does not own the drop: owner %d", stack.OwnerID)
	}
	if len(stack.Entries) != 2 {
		t.Fatalf("expected bones + coins, got %+v", stack.Entries)
	}
	if stack.Entries[0].ItemID != 526 {
		t.Fatalf("expected bones first, got %+v", stack.Entries[0])
	}
	if q := stack.Entries[1].Quantity; stack.Entries[1].ItemID != data.CoinItemID || q < 15 || q > 25 {
		t.Fatalf("coins out of range: %+v", stack.Entries[1])
	}

	// LootDropped rides the bus and lands the following tick, grounded.
	if len(droppedEvents) != 0 {
		t.Fatalf("LootDropped visible in its emit tick")
	}
	f.deliver()
	if len(droppedEvents) != 1 {
		t.Fatalf("expected 1 LootDropped, got %d", len(droppedEvents))
	}
	if droppedEvents[0].Pos.Y != 1.5 {
		t.Fatalf("position not snapped to the surface: %v", droppedEvents[0].Pos)
	}
}

func TestUnknownNpcTypeDropsNothing(t *testing.T) {
	f := newFixture(t, fixedRand{roll: 0.1})

	event.Emit(f.bus, event.NpcDied{NpcID: 1, NpcType: 9999, KilledBy: 7})
	f.deliver()

	if f.ground.Len() != 0 {
		t.Fatalf("unknown npc type produced loot")
	}
}

func TestMissedRollsSkipProbabilisticTiers(t *testing.T) {
	f := newFixture(t, fixedRand{roll: 0.99})

	event.Emit(f.bus, event.NpcDied{
		NpcID: 1, NpcType: 41, KilledBy: 7,
		Pos: event.Position{X: 10, Z: 10},
	})
	f.deliver()

	// The coin roll misses; the guaranteed bones still land.
	stack := f.ground.StackAt(world.TileKey{X: 10, Z: 10})
	if stack == nil || len(stack.Entries) != 1 || stack.Entries[0].ItemID != 526 {
		t.Fatalf("expected only guaranteed bones, got %+v", stack)
	}
}

func TestManualDropGroundedAndTracked(t *testing.T) {
	f := newFixture(t, fixedRand{roll: 0.1})

	event.Emit(f.bus, event.ManualDropRequested{
		CharID:   7,
		ItemID:   882,
		Quantity: 15,
		Pos:      event.Position{X: 3205.2, Y: 42, Z: 3206.9},
	})
	f.deliver()

	if f.manual.Len() != 1 {
		t.Fatalf("manual drop not tracked")
	}
	item := f.manual.Get(1)
	if item == nil || item.Quantity != 15 {
		t.Fatalf("unexpected manual item %+v", item)
	}
	if item.Y != 1.5 {
		t.Fatalf("manual drop not snapped to the surface: Y=%v", item.Y)
	}
	if f.ground.Len() != 0 {
		t.Fatalf("manual drop leaked into the kill-loot stacks")
	}
}

func TestManualDropUnknownItemSkipped(t *testing.T) {
	f := newFixture(t, fixedRand{roll: 0.1})

	event.Emit(f.bus, event.ManualDropRequested{CharID: 7, ItemID: 9999, Quantity: 1})
	f.deliver()

	if f.manual.Len() != 0 {
		t.Fatalf("unknown item was dropped")
	}
}

func TestDespawnEmitsGroundItemRemoved(t *testing.T) {
	f := newFixture(t, fixedRand{roll: 0.99})

	var removed []event.GroundItemRemoved
	event.Subscribe(f.bus, func(ev event.GroundItemRemoved) {
		removed = append(removed, ev)
	})

	event.Emit(f.bus, event.NpcDied{
		NpcID: 1, NpcType: 41, KilledBy: 7,
		Pos: event.Position{X: 20, Z: 30},
	})
	f.deliver() // tick 1: loot placed with DespawnTicks=300

	f.ground.ProcessTick(*f.tick + 300)
	f.deliver()

	if len(removed) != 1 {
		t.Fatalf("expected 1 removal event, got %d", len(removed))
	}
	if removed[0].TileX != 20 || removed[0].TileZ != 30 {
		t.Fatalf("removal on wrong tile: %+v", removed[0])
	}
	if len(removed[0].Items) != 1 || removed[0].Items[0].ItemID != 526 {
		t.Fatalf("removal missing contents: %+v", removed[0].Items)
	}
}

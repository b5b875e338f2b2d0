package world

import (
	"errors"
	"testing"

	"go.uber.org/zap"
)

// stubSpawner records spawn/destroy calls.
type stubSpawner struct {
	nextID    int32
	spawned   []int32
	destroyed []int32
	fail      bool
}

func (s *stubSpawner) SpawnGroundItem(stack *GroundStack) (int32, error) {
	if s.fail {
		return 0, errors.New("entity service unavailable")
	}
	s.nextID++
	s.spawned = append(s.spawned, s.nextID)
	return s.nextID, nil
}

func (s *stubSpawner) DestroyEntity(id int32) {
	s.destroyed = append(s.destroyed, id)
}

func newTestManager() (*GroundItemManager, *stubSpawner) {
	spawner := &stubSpawner{}
	return NewGroundItemManager(spawner, zap.NewNop()), spawner
}

func TestTwoPhaseTiming(t *testing.T) {
	m, _ := newTestManager()
	tile := TileKey{X: 10, Z: 20}

	const spawnTick, protection, despawn = 100, 5, 20
	m.PlaceDrops(tile, []Drop{{ItemID: 526, Quantity: 1}}, 7, spawnTick, protection, despawn, false)

	stack := m.StackAt(tile)
	if stack == nil {
		t.Fatalf("expected stack at %v", tile)
	}
	if stack.SpawnTick > stack.ProtectedUntilTick || stack.ProtectedUntilTick > stack.DespawnTick {
		t.Fatalf("checkpoint invariant violated: %d %d %d",
			stack.SpawnTick, stack.ProtectedUntilTick, stack.DespawnTick)
	}

	cases := []struct {
		tick int64
		want StackState
	}{
		{100, StateProtected},
		{104, StateProtected},
		{105, StatePublic},
		{119, StatePublic},
		{120, StateDespawned},
	}
	for _, c := range cases {
		if got := stack.StateAt(c.tick); got != c.want {
			t.Errorf("tick %d: state %v, want %v", c.tick, got, c.want)
		}
	}

	m.ProcessTick(119)
	if m.StackAt(tile) == nil {
		t.Fatalf("stack removed before despawn tick")
	}
	m.ProcessTick(120)
	if m.StackAt(tile) != nil {
		t.Fatalf("stack still live at despawn tick")
	}
}

func TestStackableDropsMerge(t *testing.T) {
	m, _ := newTestManager()
	tile := TileKey{X: 1, Z: 1}

	// Two kills on the same tile inside the protection window: arrow 5 + 3.
	m.PlaceDrops(tile, []Drop{{ItemID: 882, Quantity: 5, Stackable: true}}, 7, 10, 100, 300, false)
	m.PlaceDrops(tile, []Drop{{ItemID: 882, Quantity: 3, Stackable: true}}, 9, 15, 100, 300, false)

	stack := m.StackAt(tile)
	if len(stack.Entries) != 1 {
		t.Fatalf("expected 1 merged entry, got %d", len(stack.Entries))
	}
	if stack.Entries[0].Quantity != 8 {
		t.Fatalf("expected quantity 8, got %d", stack.Entries[0].Quantity)
	}
}

func TestMergeKeepsOwnerAndTimers(t *testing.T) {
	m, _ := newTestManager()
	tile := TileKey{X: 2, Z: 2}

	m.PlaceDrops(tile, []Drop{{ItemID: 882, Quantity: 5, Stackable: true}}, 7, 10, 100, 300, false)
	m.PlaceDrops(tile, []Drop{{ItemID: 882, Quantity: 3, Stackable: true}}, 99, 50, 100, 300, false)

	stack := m.StackAt(tile)
	if stack.OwnerID != 7 {
		t.Fatalf("merge must not steal ownership: owner %d", stack.OwnerID)
	}
	if stack.SpawnTick != 10 || stack.ProtectedUntilTick != 110 || stack.DespawnTick != 310 {
		t.Fatalf("merge reset timers: %d %d %d",
			stack.SpawnTick, stack.ProtectedUntilTick, stack.DespawnTick)
	}
}

func TestNonStackablesAppendSeparately(t *testing.T) {
	m, _ := newTestManager()
	tile := TileKey{X: 3, Z: 3}

	m.PlaceDrops(tile, []Drop{{ItemID: 1203, Quantity: 1}}, 7, 10, 100, 300, false)
	m.PlaceDrops(tile, []Drop{{ItemID: 1203, Quantity: 1}}, 7, 11, 100, 300, false)

	stack := m.StackAt(tile)
	if len(stack.Entries) != 2 {
		t.Fatalf("non-stackables must stay separate, got %d entries", len(stack.Entries))
	}
}

func TestProcessTickIdempotent(t *testing.T) {
	m, spawner := newTestManager()
	tile := TileKey{X: 4, Z: 4}

	removals := 0
	m.SetRemovalListener(func(stack *GroundStack, tick int64) { removals++ })

	m.PlaceDrops(tile, []Drop{{ItemID: 526, Quantity: 1}}, 7, 0, 10, 20, false)
	m.ProcessTick(20)
	m.ProcessTick(20)

	if removals != 1 {
		t.Fatalf("expected exactly 1 removal notification, got %d", removals)
	}
	if len(spawner.destroyed) != 1 {
		t.Fatalf("expected exactly 1 entity destroy, got %d", len(spawner.destroyed))
	}
}

func TestProcessTickWithNoStacks(t *testing.T) {
	m, _ := newTestManager()
	m.ProcessTick(1000) // must not panic
	if m.Len() != 0 {
		t.Fatalf("expected no stacks")
	}
}

func TestRemovalReportsContents(t *testing.T) {
	m, _ := newTestManager()
	tile := TileKey{X: 5, Z: 5}

	var got []StackEntry
	m.SetRemovalListener(func(stack *GroundStack, tick int64) {
		got = append([]StackEntry(nil), stack.Entries...)
	})

	m.PlaceDrops(tile, []Drop{
		{ItemID: 526, Quantity: 1},
		{ItemID: 882, Quantity: 12, Stackable: true},
	}, 7, 0, 10, 20, false)
	m.ProcessTick(20)

	if len(got) != 2 {
		t.Fatalf("removal must carry remaining contents, got %v", got)
	}
}

func TestScatterStaysAdjacent(t *testing.T) {
	m, _ := newTestManager()
	origin := TileKey{X: 50, Z: 50}

	drops := make([]Drop, 30)
	for i := range drops {
		drops[i] = Drop{ItemID: 1203, Quantity: 1}
	}
	m.PlaceDrops(origin, drops, 7, 0, 10, 20, true)

	total := 0
	for dx := int32(-1); dx <= 1; dx++ {
		for dz := int32(-1); dz <= 1; dz++ {
			if stack := m.StackAt(origin.Offset(dx, dz)); stack != nil {
				for _, e := range stack.Entries {
					total += int(e.Quantity)
				}
			}
		}
	}
	if total != 30 {
		t.Fatalf("scattered drops left the adjacent ring: placed %d of 30", total)
	}
}

func TestLootProtectionWindow(t *testing.T) {
	m, _ := newTestManager()
	tile := TileKey{X: 6, Z: 6}
	m.PlaceDrops(tile, []Drop{{ItemID: 882, Quantity: 10, Stackable: true}}, 7, 100, 50, 200, false)

	// Protected: stranger denied, owner allowed.
	if taken := m.TakeEntry(tile, 882, 5, 99, 120); taken != 0 {
		t.Fatalf("stranger looted %d during protection", taken)
	}
	if taken := m.TakeEntry(tile, 882, 4, 7, 120); taken != 4 {
		t.Fatalf("owner take = %d, want 4", taken)
	}

	// Public: anyone may loot.
	if taken := m.TakeEntry(tile, 882, 2, 99, 160); taken != 2 {
		t.Fatalf("public take = %d, want 2", taken)
	}
}

func TestFullPickupRemovesStack(t *testing.T) {
	m, spawner := newTestManager()
	tile := TileKey{X: 7, Z: 7}

	removals := 0
	m.SetRemovalListener(func(stack *GroundStack, tick int64) { removals++ })

	m.PlaceDrops(tile, []Drop{{ItemID: 882, Quantity: 5, Stackable: true}}, 7, 100, 50, 200, false)
	if taken := m.TakeEntry(tile, 882, 5, 7, 110); taken != 5 {
		t.Fatalf("take = %d, want 5", taken)
	}
	if m.StackAt(tile) != nil {
		t.Fatalf("empty stack must be removed")
	}
	if removals != 1 || len(spawner.destroyed) != 1 {
		t.Fatalf("full pickup: removals=%d destroys=%d, want 1/1", removals, len(spawner.destroyed))
	}

	// Destroyed exactly once even if the despawn tick passes afterwards.
	m.ProcessTick(300)
	if removals != 1 {
		t.Fatalf("stack removed twice")
	}
}

func TestRemoveStackHonorsProtection(t *testing.T) {
	m, _ := newTestManager()
	tile := TileKey{X: 11, Z: 11}
	m.PlaceDrops(tile, []Drop{{ItemID: 526, Quantity: 1}}, 7, 100, 50, 200, false)

	if m.RemoveStack(tile, 99, 120) != nil {
		t.Fatalf("stranger removed a protected stack")
	}
	if m.RemoveStack(tile, 7, 120) == nil {
		t.Fatalf("owner denied removal")
	}
	if m.StackAt(tile) != nil {
		t.Fatalf("stack still indexed after removal")
	}
}

func TestMissingSpawnerStillPlaces(t *testing.T) {
	m := NewGroundItemManager(nil, zap.NewNop())
	tile := TileKey{X: 8, Z: 8}

	m.PlaceDrops(tile, []Drop{{ItemID: 526, Quantity: 1}}, 7, 0, 10, 20, false)
	stack := m.StackAt(tile)
	if stack == nil {
		t.Fatalf("stack must exist without an entity manager")
	}
	if stack.VisualEntityID != 0 {
		t.Fatalf("expected no visual entity, got %d", stack.VisualEntityID)
	}
	m.ProcessTick(20) // must not panic destroying a missing visual
}

func TestSpawnFailureDegrades(t *testing.T) {
	spawner := &stubSpawner{fail: true}
	m := NewGroundItemManager(spawner, zap.NewNop())
	tile := TileKey{X: 9, Z: 9}

	m.PlaceDrops(tile, []Drop{{ItemID: 526, Quantity: 1}}, 7, 0, 10, 20, false)
	if m.StackAt(tile) == nil {
		t.Fatalf("spawn failure must not lose the drop")
	}
}

package system

import (
	"time"

	"github.com/runevale/server/internal/core/event"
	coresys "github.com/runevale/server/internal/core/system"
	"github.com/runevale/server/internal/world"
)

// tick.go — 遊戲迴圈各 Phase 的小系統。

// EventDispatchSystem rotates the event bus at tick start: events emitted in
// tick N are delivered here in tick N+1, before any simulation runs.
type EventDispatchSystem struct {
	bus *event.Bus
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(tick int64) {
	s.bus.SwapBuffers()
	s.bus.DispatchAll()
}

// GroundTickSystem advances the ground-item lifecycle once per tick.
type GroundTickSystem struct {
	ground *world.GroundItemManager
}

func NewGroundTickSystem(ground *world.GroundItemManager) *GroundTickSystem {
	return &GroundTickSystem{ground: ground}
}

func (s *GroundTickSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *GroundTickSystem) Update(tick int64) {
	s.ground.ProcessTick(tick)
}

// manualSweepInterval: 手動掉落到期掃描頻率（每 5 tick 一次）。
const manualSweepInterval = 5

// ManualSweepSystem expires player-dropped items. Manual drops keep the
// legacy single-timer wall-clock lifecycle, swept separately from the
// tick-based stack lifecycle.
type ManualSweepSystem struct {
	manual *world.ManualDropManager
	now    func() time.Time
}

func NewManualSweepSystem(manual *world.ManualDropManager) *ManualSweepSystem {
	return &ManualSweepSystem{manual: manual, now: time.Now}
}

func (s *ManualSweepSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *ManualSweepSystem) Update(tick int64) {
	if tick%manualSweepInterval != 0 {
		return
	}
	s.manual.Sweep(s.now())
}

package system

import (
	"context"
	"time"

	"github.com/runevale/server/internal/core/event"
	"github.com/runevale/server/internal/persist"
	"go.uber.org/zap"
)

// audit.go — 戰利品稽核：每筆 LootDropped 寫入資料庫，供公平性查核。

// AuditSystem persists loot-dropped events. Only constructed when a database
// is configured; insert failures are logged and dropped, never fatal — a lost
// audit row must not stall the simulation tick.
type AuditSystem struct {
	deps *Deps
	repo *persist.LootLogRepo
}

func NewAuditSystem(deps *Deps, repo *persist.LootLogRepo) *AuditSystem {
	s := &AuditSystem{deps: deps, repo: repo}
	event.Subscribe(deps.Bus, s.onLootDropped)
	return s
}

func (s *AuditSystem) onLootDropped(ev event.LootDropped) {
	items := make([]persist.LootLogItem, len(ev.Items))
	for i, it := range ev.Items {
		items[i] = persist.LootLogItem{ItemID: it.ItemID, Quantity: it.Quantity}
	}
	row := &persist.LootLogRow{
		NpcType:  ev.NpcType,
		NpcObjID: ev.NpcID,
		KillerID: ev.Killer,
		Items:    items,
		X:        ev.Pos.X,
		Y:        ev.Pos.Y,
		Z:        ev.Pos.Z,
		Tick:     ev.Tick,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.repo.Insert(ctx, row); err != nil {
		s.deps.Log.Error("寫入戰利品稽核失敗", zap.Error(err),
			zap.Int32("npc_type", ev.NpcType),
			zap.Int32("killer", ev.Killer),
		)
	}
}

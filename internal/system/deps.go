package system

import (
	"github.com/runevale/server/internal/config"
	"github.com/runevale/server/internal/core/event"
	"github.com/runevale/server/internal/data"
	"github.com/runevale/server/internal/loot"
	"github.com/runevale/server/internal/persist"
	"github.com/runevale/server/internal/scripting"
	"github.com/runevale/server/internal/world"
	"go.uber.org/zap"
)

// TerrainLocator snaps a raw position onto the walkable surface.
// Backed by data.HeightMap in production.
type TerrainLocator interface {
	SurfaceHeight(x, z float64) float64
}

// Deps bundles everything systems need. Built once in main and shared;
// optional collaborators are nil when unavailable and every system degrades
// to a log line instead of failing.
type Deps struct {
	Config    *config.Config
	Log       *zap.Logger
	Bus       *event.Bus
	Items     *data.ItemTable
	Npcs      *data.NpcTable
	Loot      *loot.Registry
	Terrain   TerrainLocator            // nil = positions used as-is
	Ground    *world.GroundItemManager
	Manual    *world.ManualDropManager
	Scripting *scripting.Engine   // nil = no loot tuning hooks
	LootLog   *persist.LootLogRepo // nil = auditing disabled
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/runevale/server/internal/config"
	"github.com/runevale/server/internal/core/event"
	coresys "github.com/runevale/server/internal/core/system"
	"github.com/runevale/server/internal/data"
	"github.com/runevale/server/internal/loot"
	"github.com/runevale/server/internal/persist"
	"github.com/runevale/server/internal/scripting"
	"github.com/runevale/server/internal/system"
	"github.com/runevale/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(serverName string, serverID int) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m            Runevale  v0.1.0               \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  │\033[0m       模擬伺服器 · 戰利品核心             \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1m伺服器:\033[0m %s \033[90m(編號: %d)\033[0m\n\n", serverName, serverID)
}

func printSection(title string) {
	// Use rune count for CJK width calculation (each CJK char = 2 columns)
	displayWidth := 0
	for _, r := range title {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	lineLen := 46 - displayWidth - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	displayWidth := 0
	for _, r := range label {
		if r > 0x7F {
			displayWidth += 2
		} else {
			displayWidth++
		}
	}
	dotsLen := 42 - displayWidth - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main server logic ─────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("RUNEVALE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.ID)

	// 3. Connect to PostgreSQL (optional — loot auditing only)
	var lootLogRepo *persist.LootLogRepo
	if cfg.Database.DSN != "" {
		printSection("資料庫")

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		db, err := persist.Open(ctx, cfg.Database, log)
		if err != nil {
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL 連線成功")

		if err := db.Migrate(ctx); err != nil {
			return fmt.Errorf("migrations: %w", err)
		}
		printOK("資料庫遷移完成")
		fmt.Println()

		lootLogRepo = persist.NewLootLogRepo(db)
	} else {
		log.Info("未設定資料庫，戰利品稽核停用")
	}

	// 4. Load static data
	printSection("資料載入")

	itemTable, err := data.LoadItemTable("data/yaml/item_list.yaml")
	if err != nil {
		return fmt.Errorf("load item table: %w", err)
	}
	printStat("道具模板", itemTable.Count())

	npcTable, err := data.LoadNpcTable("data/yaml/npc_list.yaml")
	if err != nil {
		return fmt.Errorf("load npc table: %w", err)
	}
	printStat("NPC 模板", npcTable.Count())

	heightMap, err := data.LoadHeightMap("data/yaml/heightmap.yaml")
	if err != nil {
		return fmt.Errorf("load heightmap: %w", err)
	}
	printStat("地形格", heightMap.Count())

	// 5. Build loot tables (write-once; no runtime rebuild)
	registry := loot.BuildRegistry(npcTable, itemTable, log)
	printStat("掉落表", registry.Count())

	// 6. Lua scripting engine (loot tuning hooks)
	luaEngine, err := scripting.NewEngine("scripts", log)
	if err != nil {
		return fmt.Errorf("lua engine: %w", err)
	}
	defer luaEngine.Close()
	printOK("Lua 腳本載入完成")
	fmt.Println()

	// 7. World state: entity registry + ground items + manual drops
	entities := world.NewEntityRegistry(func(itemID int32) int32 {
		if def := itemTable.Get(itemID); def != nil {
			return def.GrdGfx
		}
		return 0
	})
	groundMgr := world.NewGroundItemManager(entities, log)
	manualMgr := world.NewManualDropManager(
		entities,
		cfg.Loot.ManualDespawn.Duration,
		cfg.Loot.MaxManualDrops,
		log,
	)

	// 8. Event bus, deps, systems
	bus := event.NewBus()
	deps := &system.Deps{
		Config:    cfg,
		Log:       log,
		Bus:       bus,
		Items:     itemTable,
		Npcs:      npcTable,
		Loot:      registry,
		Terrain:   heightMap,
		Ground:    groundMgr,
		Manual:    manualMgr,
		Scripting: luaEngine,
		LootLog:   lootLogRepo,
	}

	var tick int64
	system.NewLootSystem(deps, nil, func() int64 { return tick })
	if lootLogRepo != nil {
		system.NewAuditSystem(deps, lootLogRepo)
	}

	runner := coresys.NewRunner()
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewGroundTickSystem(groundMgr))
	runner.Register(system.NewManualSweepSystem(manualMgr))

	// 9. Game loop
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Server.TickRate.Duration)
	defer ticker.Stop()

	printSection("伺服器就緒")
	printReady(fmt.Sprintf("遊戲迴圈啟動 (tick: %s)", cfg.Server.TickRate))
	fmt.Println()

	for {
		select {
		case <-ticker.C:
			tick++
			runner.Tick(tick)
		case sig := <-shutdownCh:
			log.Info("收到關閉信號", zap.String("signal", sig.String()))
			log.Info("伺服器已停止",
				zap.Int64("tick", tick),
				zap.Int("ground_stacks", groundMgr.Len()),
				zap.Int("manual_drops", manualMgr.Len()),
			)
			return nil
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}

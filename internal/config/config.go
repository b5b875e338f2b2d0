package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Duration decodes TOML duration strings ("600ms", "2m") via
// time.ParseDuration. Bare time.Duration fields would only accept
// nanosecond integers.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

type Config struct {
	Server   ServerConfig   `toml:"server"`
	Database DatabaseConfig `toml:"database"`
	Rates    RatesConfig    `toml:"rates"`
	Loot     LootConfig     `toml:"loot"`
	Logging  LoggingConfig  `toml:"logging"`
}

type ServerConfig struct {
	Name      string   `toml:"name"`
	ID        int      `toml:"id"`
	TickRate  Duration `toml:"tick_rate"`
	StartTime int64    // set at boot, not from config
}

type DatabaseConfig struct {
	DSN             string   `toml:"dsn"` // empty = run without loot auditing
	MaxOpenConns    int      `toml:"max_open_conns"`
	MaxIdleConns    int      `toml:"max_idle_conns"`
	ConnMaxLifetime Duration `toml:"conn_max_lifetime"`
}

type RatesConfig struct {
	DropRate float64 `toml:"drop_rate"`
	CoinRate float64 `toml:"coin_rate"`
}

// LootConfig tunes the ground-item lifecycle. All durations are tick counts
// except ManualDespawn, which is wall-clock and converted at drop time.
type LootConfig struct {
	ProtectionTicks int      `toml:"protection_ticks"` // owner-only pickup window
	DespawnTicks    int      `toml:"despawn_ticks"`    // total lifetime of a stack
	ManualDespawn   Duration `toml:"manual_despawn"`   // lifetime of a player-dropped item
	MaxManualDrops  int      `toml:"max_manual_drops"` // oldest evicted above this
}

type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"` // "json" or "console"
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "Runevale",
			ID:       1,
			TickRate: Duration{600 * time.Millisecond},
		},
		Database: DatabaseConfig{
			DSN:             "",
			MaxOpenConns:    10,
			MaxIdleConns:    2,
			ConnMaxLifetime: Duration{30 * time.Minute},
		},
		Rates: RatesConfig{
			DropRate: 1.0,
			CoinRate: 1.0,
		},
		Loot: LootConfig{
			ProtectionTicks: 100, // 1 minute at 600ms ticks
			DespawnTicks:    300, // 3 minutes at 600ms ticks
			ManualDespawn:   Duration{2 * time.Minute},
			MaxManualDrops:  500,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Package config loads server and match settings from YAML or TOML files
// layered over built-in defaults.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

var (
	ErrFogSizeTooLarge = errors.New("fog size is greater than the arena")
	ErrFogSizeTooSmall = errors.New("fog size is less than the base fog size")
)

const (
	BaseFogSize = 2000
	MaxFogSize  = 7000
	MaxPlayers  = 81
)

var modes = map[string]bool{"FFA": true, "TDM": true, "DOM": true, "CTF": true}

type Config struct {
	Server  ServerConfig  `yaml:"server" toml:"server"`
	Game    Game          `yaml:"game" toml:"game"`
	Store   StoreConfig   `yaml:"store" toml:"store"`
	Admin   AdminConfig   `yaml:"admin" toml:"admin"`
	Journal JournalConfig `yaml:"journal" toml:"journal"`
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

type ServerConfig struct {
	Addr            string        `yaml:"addr" toml:"addr"`
	PublicURL       string        `yaml:"public_url" toml:"public_url"` // advertised in the join QR code
	AllowedOrigins  []string      `yaml:"allowed_origins" toml:"allowed_origins"`
	MaxConnections  int           `yaml:"max_connections" toml:"max_connections"`
	MessagesPerSec  float64       `yaml:"messages_per_sec" toml:"messages_per_sec"`
	MessageBurst    int           `yaml:"message_burst" toml:"message_burst"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`
}

// Game holds the match options.
type Game struct {
	Mode                    string  `yaml:"mode" toml:"mode"`
	TickRate                int     `yaml:"tick_rate" toml:"tick_rate"`
	MaxPlayers              int     `yaml:"max_players" toml:"max_players"`
	MaxConnectionsPerIP     int     `yaml:"max_connections_per_ip" toml:"max_connections_per_ip"`
	StartingScore           int     `yaml:"starting_score" toml:"starting_score"`
	MaxHealth               float64 `yaml:"max_health" toml:"max_health"`
	MaxSpeed                float64 `yaml:"max_speed" toml:"max_speed"`
	FogEnabled              bool    `yaml:"fog_enabled" toml:"fog_enabled"`
	FogSize                 float64 `yaml:"fog_size" toml:"fog_size"`
	FogDamagePerTick        float64 `yaml:"fog_damage_per_tick" toml:"fog_damage_per_tick"`
	ScoreSquareEnabled      bool    `yaml:"score_square_enabled" toml:"score_square_enabled"`
	ScoreSquareGain         int     `yaml:"score_square_gain" toml:"score_square_gain"`
	NoMidPerkTimeout        bool    `yaml:"no_mid_perk_timeout" toml:"no_mid_perk_timeout"`
	BulletDamageEnabled     bool    `yaml:"bullet_damage_enabled" toml:"bullet_damage_enabled"`
	BulletCollisionsEnabled bool    `yaml:"bullet_collisions_enabled" toml:"bullet_collisions_enabled"`
	PlayerCollisionsEnabled bool    `yaml:"player_collisions_enabled" toml:"player_collisions_enabled"`
	PremiumCratesEnabled    bool    `yaml:"premium_crates_enabled" toml:"premium_crates_enabled"`
	BottomlessMags          bool    `yaml:"bottomless_mags" toml:"bottomless_mags"`
	BulletSpeedMultiplier   float64 `yaml:"bullet_speed_multiplier" toml:"bullet_speed_multiplier"`
	DamageMultiplier        float64 `yaml:"damage_multiplier" toml:"damage_multiplier"`
	RangeMultiplier         float64 `yaml:"range_multiplier" toml:"range_multiplier"`
	HealthRegenPerTick      float64 `yaml:"health_regen_per_tick" toml:"health_regen_per_tick"`
	ArmorRegenPerTick       float64 `yaml:"armor_regen_per_tick" toml:"armor_regen_per_tick"`
	AllowLevelOneUpgrades   bool    `yaml:"allow_level_one_upgrades" toml:"allow_level_one_upgrades"`
	AllowLevelTwoUpgrades   bool    `yaml:"allow_level_two_upgrades" toml:"allow_level_two_upgrades"`
	AllowLevelThreeUpgrades bool    `yaml:"allow_level_three_upgrades" toml:"allow_level_three_upgrades"`
	AllowLightArmor         bool    `yaml:"allow_light_armor" toml:"allow_light_armor"`
	AllowMediumArmor        bool    `yaml:"allow_medium_armor" toml:"allow_medium_armor"`
	AllowHeavyArmor         bool    `yaml:"allow_heavy_armor" toml:"allow_heavy_armor"`
	DoubleBulletStep        bool    `yaml:"double_bullet_step" toml:"double_bullet_step"`
	CrateLayout             string  `yaml:"crate_layout" toml:"crate_layout"`
	QueueSize               int     `yaml:"queue_size" toml:"queue_size"`
	Seed                    uint64  `yaml:"seed" toml:"seed"` // 0 picks a random seed
}

type StoreConfig struct {
	Path          string        `yaml:"path" toml:"path"` // "" disables the store
	BatchSize     int           `yaml:"batch_size" toml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval" toml:"flush_interval"`
}

type AdminConfig struct {
	Username     string        `yaml:"username" toml:"username"`
	PasswordHash string        `yaml:"password_hash" toml:"password_hash"` // bcrypt
	JWTSecret    string        `yaml:"jwt_secret" toml:"jwt_secret"`
	TokenTTL     time.Duration `yaml:"token_ttl" toml:"token_ttl"`
}

type JournalConfig struct {
	Dir          string `yaml:"dir" toml:"dir"` // "" disables the journal
	RotateFrames int    `yaml:"rotate_frames" toml:"rotate_frames"`
	Level        int    `yaml:"level" toml:"level"` // zstd encoder level 1-4
}

type LoggingConfig struct {
	Level       string `yaml:"level" toml:"level"`
	Development bool   `yaml:"development" toml:"development"`
}

// Default returns the built-in configuration
func Default() Config {
	return Config{
		Server: ServerConfig{
			Addr:            ":8080",
			MaxConnections:  200,
			MessagesPerSec:  60,
			MessageBurst:    120,
			ShutdownTimeout: 10 * time.Second,
		},
		Game: DefaultGame(),
		Store: StoreConfig{
			BatchSize:     64,
			FlushInterval: 2 * time.Second,
		},
		Admin: AdminConfig{
			Username: "admin",
			TokenTTL: 24 * time.Hour,
		},
		Journal: JournalConfig{
			RotateFrames: 25 * 60 * 5,
			Level:        1,
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultGame returns the default match options
func DefaultGame() Game {
	return Game{
		Mode:                    "FFA",
		TickRate:                25,
		MaxPlayers:              MaxPlayers,
		MaxConnectionsPerIP:     2,
		StartingScore:           300,
		MaxHealth:               100,
		FogSize:                 BaseFogSize,
		FogDamagePerTick:        1,
		ScoreSquareEnabled:      true,
		ScoreSquareGain:         15,
		BulletDamageEnabled:     true,
		BulletCollisionsEnabled: true,
		PlayerCollisionsEnabled: true,
		BulletSpeedMultiplier:   1,
		DamageMultiplier:        1,
		RangeMultiplier:         1,
		HealthRegenPerTick:      1,
		ArmorRegenPerTick:       1,
		AllowLevelOneUpgrades:   true,
		AllowLevelTwoUpgrades:   true,
		AllowLevelThreeUpgrades: true,
		AllowLightArmor:         true,
		AllowMediumArmor:        true,
		AllowHeavyArmor:         true,
		QueueSize:               1000,
	}
}

// Load reads path over the defaults. The decoder is picked by extension;
// an empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if strings.TrimSpace(path) == "" {
		return cfg, cfg.Validate()
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &cfg)
	case ".toml":
		err = toml.Unmarshal(b, &cfg)
	default:
		return cfg, fmt.Errorf("config %s: unsupported extension", path)
	}
	if err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays ARENA_* variables from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv("ARENA_ADDR"); v != "" {
		c.Server.Addr = v
	}
	if v := os.Getenv("ARENA_PUBLIC_URL"); v != "" {
		c.Server.PublicURL = v
	}
	if v := os.Getenv("ARENA_MODE"); v != "" {
		c.Game.Mode = v
	}
	if v := os.Getenv("ARENA_DB"); v != "" {
		c.Store.Path = v
	}
	if v := os.Getenv("ARENA_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("ARENA_JWT_SECRET"); v != "" {
		c.Admin.JWTSecret = v
	}
	if v := os.Getenv("ARENA_ADMIN_PASSWORD_HASH"); v != "" {
		c.Admin.PasswordHash = v
	}
	c.Normalize()
}

// Normalize canonicalizes case-insensitive values
func (c *Config) Normalize() {
	c.Game.Mode = strings.ToUpper(strings.TrimSpace(c.Game.Mode))
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
}

func (c Config) Validate() error {
	if c.Server.Addr == "" {
		return errors.New("server.addr is required")
	}
	if c.Journal.Level < 0 || c.Journal.Level > 4 {
		return fmt.Errorf("journal.level %d out of range [0, 4]", c.Journal.Level)
	}
	return c.Game.Validate()
}

// Validate checks the match options
func (g Game) Validate() error {
	switch {
	case g.FogSize > MaxFogSize:
		return fmt.Errorf("%w: %v > %d", ErrFogSizeTooLarge, g.FogSize, MaxFogSize)
	case g.FogSize < BaseFogSize:
		return fmt.Errorf("%w: %v < %d", ErrFogSizeTooSmall, g.FogSize, BaseFogSize)
	}
	if g.TickRate <= 0 {
		return fmt.Errorf("tick_rate must be positive, got %d", g.TickRate)
	}
	if g.MaxPlayers < 1 || g.MaxPlayers > MaxPlayers {
		return fmt.Errorf("max_players %d out of range [1, %d]", g.MaxPlayers, MaxPlayers)
	}
	if !modes[strings.ToUpper(g.Mode)] {
		return fmt.Errorf("unknown mode %q", g.Mode)
	}
	return nil
}

// TickInterval is the wall-clock duration of one tick
func (g Game) TickInterval() time.Duration {
	if g.TickRate <= 0 {
		return time.Second / 25
	}
	return time.Second / time.Duration(g.TickRate)
}

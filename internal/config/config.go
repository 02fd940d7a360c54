package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Tier describes one tournament buy-in bracket.
type Tier struct {
	ID            string `yaml:"id"`
	BuyIn         int64  `yaml:"buy_in"`
	MaxPlayers    int    `yaml:"max_players"`
	PrizePoolSeed int64  `yaml:"prize_pool_seed"`
	StartDelayMin int    `yaml:"start_delay_minutes"`
}

// StartDelay converts the tier's configured minutes to a duration.
func (t Tier) StartDelay() time.Duration {
	return time.Duration(t.StartDelayMin) * time.Minute
}

// Config holds everything the server consumes from the outside.
type Config struct {
	ListenAddr  string
	RedisAddr   string
	PostgresURL string

	TurnSeconds          int
	AutoStartSeconds     int
	GraceSeconds         int
	EliminationThreshold int
	PlatformFeePercent   int

	Tiers []Tier
}

// Default returns the built-in configuration values.
func Default() Config {
	return Config{
		ListenAddr:           ":8080",
		RedisAddr:            "localhost:6379",
		TurnSeconds:          15,
		AutoStartSeconds:     10,
		GraceSeconds:         60,
		EliminationThreshold: 30,
		PlatformFeePercent:   5,
		Tiers: []Tier{
			{ID: "casual", BuyIn: 100, MaxPlayers: 16, StartDelayMin: 5},
			{ID: "standard", BuyIn: 500, MaxPlayers: 32, StartDelayMin: 10},
			{ID: "high", BuyIn: 2000, MaxPlayers: 32, StartDelayMin: 15},
			{ID: "elite", BuyIn: 10000, MaxPlayers: 64, StartDelayMin: 20},
		},
	}
}

// FromEnv builds a Config from environment variables, falling back to
// defaults for anything unset.
func FromEnv() Config {
	cfg := Default()
	if v := os.Getenv("THIRTEEN_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := os.Getenv("THIRTEEN_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if v := os.Getenv("THIRTEEN_POSTGRES_URL"); v != "" {
		cfg.PostgresURL = v
	}
	readInt(&cfg.TurnSeconds, "THIRTEEN_TURN_SECONDS")
	readInt(&cfg.AutoStartSeconds, "THIRTEEN_AUTO_START_SECONDS")
	readInt(&cfg.GraceSeconds, "THIRTEEN_GRACE_SECONDS")
	readInt(&cfg.EliminationThreshold, "THIRTEEN_ELIMINATION_THRESHOLD")
	readInt(&cfg.PlatformFeePercent, "THIRTEEN_PLATFORM_FEE_PERCENT")
	return cfg
}

func readInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			*dst = i
		}
	}
}

// LoadTiers replaces the tier table with the contents of a YAML file.
func (c *Config) LoadTiers(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read tier table: %w", err)
	}
	var doc struct {
		Tiers []Tier `yaml:"tiers"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("parse tier table: %w", err)
	}
	if len(doc.Tiers) > 0 {
		c.Tiers = doc.Tiers
	}
	return nil
}

// TierByID returns the tier with the given id, or false when unknown.
func (c Config) TierByID(id string) (Tier, bool) {
	for _, t := range c.Tiers {
		if t.ID == id {
			return t, true
		}
	}
	return Tier{}, false
}

// TurnDuration is the per-turn countdown length.
func (c Config) TurnDuration() time.Duration {
	return time.Duration(c.TurnSeconds) * time.Second
}

// AutoStartDuration is the pre-game countdown length.
func (c Config) AutoStartDuration() time.Duration {
	return time.Duration(c.AutoStartSeconds) * time.Second
}

// GraceDuration is the disconnect grace window.
func (c Config) GraceDuration() time.Duration {
	return time.Duration(c.GraceSeconds) * time.Second
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

const envPrefix = "PLATFORMER_"

// Config is the server configuration. Defaults come from the environment
// (optionally loaded from a .env file) and flags override them.
type Config struct {
	Addr       string
	ClientDir  string
	PublicURL  string // used for the QR join link; derived from the request when empty
	DBPath     string // empty means in-memory
	LogLevel   string
	LogFormat  string
	TickRate   int
	Mice       int
	Birds      int
	Seed       uint64
	PvP        bool
	JumpPolicy string
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() Config {
	return Config{
		Addr:       ":8080",
		ClientDir:  "./public",
		LogLevel:   "info",
		LogFormat:  "console",
		TickRate:   DefaultTickRate,
		Mice:       6,
		Birds:      4,
		PvP:        true,
		JumpPolicy: JumpEdge.String(),
	}
}

// LoadDotEnv loads path into the environment. A missing file is not an error.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadConfig applies environment variables then command-line flags on top
// of the defaults. args excludes the program name.
func LoadConfig(args []string, getenv func(string) string) (Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := DefaultConfig()
	if err := cfg.applyEnv(getenv); err != nil {
		return cfg, err
	}

	fset := flag.NewFlagSet("platformer-server", flag.ContinueOnError)
	fset.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address")
	fset.StringVar(&cfg.ClientDir, "client", cfg.ClientDir, "Path to static client files")
	fset.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "Public base URL for the QR join link")
	fset.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite path for analytics (empty: in-memory)")
	fset.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	fset.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "console or json")
	fset.IntVar(&cfg.TickRate, "tick-rate", cfg.TickRate, "Simulation ticks per second")
	fset.IntVar(&cfg.Mice, "mice", cfg.Mice, "Ground enemy pool size")
	fset.IntVar(&cfg.Birds, "birds", cfg.Birds, "Flying enemy pool size")
	fset.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "RNG seed (0: time based)")
	fset.BoolVar(&cfg.PvP, "pvp", cfg.PvP, "Projectiles damage other players")
	fset.StringVar(&cfg.JumpPolicy, "jump", cfg.JumpPolicy, "Jump input policy: edge or level")
	if err := fset.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv(getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v := getenv(envPrefix + key); v != "" {
			*dst = v
		}
	}
	integer := func(key string, dst *int) error {
		v := getenv(envPrefix + key)
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, key, err)
		}
		*dst = n
		return nil
	}

	str("ADDR", &c.Addr)
	str("CLIENT_DIR", &c.ClientDir)
	str("PUBLIC_URL", &c.PublicURL)
	str("DB_PATH", &c.DBPath)
	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)
	str("JUMP_POLICY", &c.JumpPolicy)
	if err := integer("TICK_RATE", &c.TickRate); err != nil {
		return err
	}
	if err := integer("MICE", &c.Mice); err != nil {
		return err
	}
	if err := integer("BIRDS", &c.Birds); err != nil {
		return err
	}
	if v := getenv(envPrefix + "SEED"); v != "" {
		n, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%sSEED: %w", envPrefix, err)
		}
		c.Seed = n
	}
	if v := getenv(envPrefix + "PVP"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sPVP: %w", envPrefix, err)
		}
		c.PvP = b
	}
	return nil
}

// Validate rejects values the server cannot run with
func (c Config) Validate() error {
	if c.TickRate <= 0 || c.TickRate > 1000 {
		return fmt.Errorf("tick rate %d out of range", c.TickRate)
	}
	if c.Mice < 0 || c.Birds < 0 {
		return errors.New("enemy pool sizes must not be negative")
	}
	if c.JumpPolicy != "edge" && c.JumpPolicy != "level" {
		return fmt.Errorf("unknown jump policy %q", c.JumpPolicy)
	}
	return nil
}

// SimConfig converts to the simulation settings
func (c Config) SimConfig() SimConfig {
	sim := DefaultSimConfig()
	sim.Mice = c.Mice
	sim.Birds = c.Birds
	sim.Seed = c.Seed
	sim.PvP = c.PvP
	sim.JumpPolicy = ParseJumpPolicy(c.JumpPolicy)
	return sim
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Log     LogConfig
	Seed    SeedConfig
	Sync    SyncConfig
}

type ServerConfig struct {
	Port int
}

type StorageConfig struct {
	DataDir string
}

type LogConfig struct {
	Level string
}

type SeedConfig struct {
	// Enabled loads sample data on first start (empty projects collection).
	Enabled bool
}

type SyncConfig struct {
	// Delay before a simulated sync reports completion, as a duration string.
	Delay string
}

func defaults() Config {
	return Config{
		Server: ServerConfig{
			Port: 4810,
		},
		Storage: StorageConfig{
			DataDir: defaultDataDir(),
		},
		Log: LogConfig{
			Level: "info",
		},
		Seed: SeedConfig{
			Enabled: true,
		},
		Sync: SyncConfig{
			Delay: "2s",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".siteledger"
	}
	return filepath.Join(home, ".siteledger")
}

type keyType int

const (
	kString keyType = iota
	kInt
	kBool
)

type keySpec struct {
	env   string
	typ   keyType
	apply func(cfg *Config, v any)
}

var specs = []keySpec{
	{
		env: "SITELEDGER_SERVER_PORT", typ: kInt,
		apply: func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
	},
	{
		env: "SITELEDGER_DATA_DIR", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
	},
	{
		env: "SITELEDGER_LOG_LEVEL", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
	},
	{
		env: "SITELEDGER_SEED", typ: kBool,
		apply: func(cfg *Config, v any) { cfg.Seed.Enabled = v.(bool) },
	},
	{
		env: "SITELEDGER_SYNC_DELAY", typ: kString,
		apply: func(cfg *Config, v any) { cfg.Sync.Delay = v.(string) },
	},
}

// Load reads configuration from defaults, an optional .env file in the
// working directory, and SITELEDGER_* environment variables. Environment
// variables win over the .env file; a missing .env file is not an error.
func Load() (Config, error) {
	_ = godotenv.Load()

	cfg := defaults()
	applyEnvOverrides(&cfg)

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		return Config{}, fmt.Errorf("invalid server port %d", cfg.Server.Port)
	}
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse integer from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		case kBool:
			if b, err := strconv.ParseBool(raw); err == nil {
				s.apply(cfg, b)
			} else {
				fmt.Fprintf(os.Stderr, "[WARN] could not parse bool from env var %s=%q: %v. Using default value.\n", s.env, raw, err)
			}
		}
	}
}

package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"fairplay/internal/game"
)

type Config struct {
	Port      int
	Env       string
	LogLevel  string
	RateLimit int // requests per minute per client, 0 disables

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	DB DatabaseConfig

	MaxStake       decimal.Decimal
	TiersFile      string
	SnakesRoundTTL time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Database string
	Username string
	Password string
	Schema   string
}

// DSN is the postgres connection string for pgx and golang-migrate.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable&search_path=%s",
		d.Username, d.Password, d.Host, d.Port, d.Database, d.Schema)
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:      getEnvAsInt("PORT", 8080),
		Env:       getEnv("APP_ENV", "local"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		RateLimit: getEnvAsInt("RATE_LIMIT", 0),

		RedisAddr:     getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		DB: DatabaseConfig{
			Host:     getEnv("BLUEPRINT_DB_HOST", "localhost"),
			Port:     getEnv("BLUEPRINT_DB_PORT", "5432"),
			Database: getEnv("BLUEPRINT_DB_DATABASE", "fairplay"),
			Username: getEnv("BLUEPRINT_DB_USERNAME", "postgres"),
			Password: getEnv("BLUEPRINT_DB_PASSWORD", "postgres"),
			Schema:   getEnv("BLUEPRINT_DB_SCHEMA", "public"),
		},

		TiersFile:      getEnv("TIERS_FILE", ""),
		SnakesRoundTTL: getEnvAsDuration("SNAKES_ROUND_TTL", 30*time.Minute),
	}

	maxStake, err := decimal.NewFromString(getEnv("MAX_STAKE", "10000"))
	if err != nil {
		return nil, fmt.Errorf("parse MAX_STAKE: %w", err)
	}
	if !maxStake.IsPositive() {
		return nil, fmt.Errorf("MAX_STAKE must be positive, got %s", maxStake)
	}
	cfg.MaxStake = maxStake

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TierPolicy loads TiersFile when set, otherwise the built-in table.
func (c *Config) TierPolicy() (*game.TierPolicy, error) {
	if c.TiersFile == "" {
		return game.DefaultTierPolicy(), nil
	}
	return LoadTiers(c.TiersFile)
}

type tierFile struct {
	Tiers []struct {
		Threshold  string  `yaml:"threshold"`
		WinCeiling float64 `yaml:"win_ceiling"`
	} `yaml:"tiers"`
}

// LoadTiers reads a YAML tier table:
//
//	tiers:
//	  - threshold: "0"
//	    win_ceiling: 0.5
func LoadTiers(path string) (*game.TierPolicy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tiers file: %w", err)
	}
	return ParseTiers(data)
}

func ParseTiers(data []byte) (*game.TierPolicy, error) {
	var f tierFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse tiers: %w", err)
	}

	tiers := make([]game.BettingTier, 0, len(f.Tiers))
	for i, t := range f.Tiers {
		threshold, err := decimal.NewFromString(t.Threshold)
		if err != nil {
			return nil, fmt.Errorf("tier %d threshold %q: %w", i, t.Threshold, err)
		}
		tiers = append(tiers, game.BettingTier{Threshold: threshold, WinCeiling: t.WinCeiling})
	}
	return game.NewTierPolicy(tiers)
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if d, err := time.ParseDuration(val); err == nil {
			return d
		}
	}
	return defaultVal
}

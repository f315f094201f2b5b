package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot.
type Config struct {
	App      AppConfig
	Discord  DiscordConfig
	Tickets  TicketsConfig
	Store    StoreConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Admin    AdminConfig
	Guilds   []GuildConfig
}

// AppConfig controls the ops HTTP server.
type AppConfig struct {
	Name    string
	Env     string
	Host    string
	Port    string
	Version string
}

// DiscordConfig holds gateway credentials.
type DiscordConfig struct {
	Token      string
	GuildsFile string
}

// TicketsConfig tunes the ticket lifecycle.
type TicketsConfig struct {
	CooldownSeconds            int
	CloseConfirmTimeoutSeconds int
}

// StoreConfig selects the storage backends.
type StoreConfig struct {
	Anchor     string
	AnchorFile string
	Cooldown   string
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AdminConfig defines the ops API bearer token parameters.
type AdminConfig struct {
	JWTSecret       string
	TokenTTLMinutes int
}

// DefaultAdminSecret signs admin tokens when ADMIN_JWT_SECRET is unset.
// It is only acceptable with APP_ENV=development.
const DefaultAdminSecret = "dev-secret"

// Storage backend identifiers.
const (
	StoreFile     = "file"
	StoreRedis    = "redis"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Load reads configuration from environment variables, applying defaults where possible.
// The per-guild file named by GUILDS_FILE is loaded when it exists.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:    getEnv("APP_NAME", "ticketbot"),
			Env:     getEnv("APP_ENV", "development"),
			Host:    getEnv("HTTP_HOST", "0.0.0.0"),
			Port:    getEnv("HTTP_PORT", "8080"),
			Version: getEnv("APP_VERSION", "dev"),
		},
		Discord: DiscordConfig{
			Token:      os.Getenv("DISCORD_TOKEN"),
			GuildsFile: getEnv("GUILDS_FILE", "guilds.yaml"),
		},
		Tickets: TicketsConfig{
			CooldownSeconds:            getEnvAsInt("TICKET_COOLDOWN_SECONDS", 7200),
			CloseConfirmTimeoutSeconds: getEnvAsInt("CLOSE_CONFIRM_TIMEOUT_SECONDS", 120),
		},
		Store: StoreConfig{
			Anchor:     strings.ToLower(getEnv("ANCHOR_STORE", StoreFile)),
			AnchorFile: getEnv("ANCHOR_FILE", "anchor.json"),
			Cooldown:   strings.ToLower(getEnv("COOLDOWN_STORE", StoreMemory)),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 4)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 1)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
			Prefix:   getEnv("REDIS_PREFIX", "ticketbot"),
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Admin: AdminConfig{
			JWTSecret:       getEnv("ADMIN_JWT_SECRET", DefaultAdminSecret),
			TokenTTLMinutes: getEnvAsInt("ADMIN_TOKEN_TTL_MINUTES", 60),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(cfg.Discord.GuildsFile); err == nil {
		guilds, err := LoadGuilds(cfg.Discord.GuildsFile)
		if err != nil {
			return nil, err
		}
		cfg.Guilds = guilds
	}

	return cfg, nil
}

func (c *Config) validate() error {
	switch c.Store.Anchor {
	case StoreFile, StoreRedis, StorePostgres:
	default:
		return fmt.Errorf("invalid ANCHOR_STORE %q", c.Store.Anchor)
	}
	switch c.Store.Cooldown {
	case StoreMemory, StoreRedis:
	default:
		return fmt.Errorf("invalid COOLDOWN_STORE %q", c.Store.Cooldown)
	}
	if c.Store.Anchor == StorePostgres && c.Postgres.DSN == "" {
		return fmt.Errorf("ANCHOR_STORE=postgres requires POSTGRES_DSN")
	}
	return nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// Cooldown returns the minimum interval between ticket openings.
func (t TicketsConfig) Cooldown() time.Duration {
	if t.CooldownSeconds <= 0 {
		return 0
	}
	return time.Duration(t.CooldownSeconds) * time.Second
}

// CloseConfirmTimeout returns how long a close prompt stays answerable.
func (t TicketsConfig) CloseConfirmTimeout() time.Duration {
	if t.CloseConfirmTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(t.CloseConfirmTimeoutSeconds) * time.Second
}

// InsecureAdminSecret reports whether admin tokens would be signed with the
// well-known default secret outside development.
func (c *Config) InsecureAdminSecret() bool {
	return c.Admin.JWTSecret == DefaultAdminSecret && c.App.Env != "development"
}

// Guild returns the configuration for guildID.
func (c *Config) Guild(guildID string) (GuildConfig, bool) {
	for _, g := range c.Guilds {
		if g.GuildID == guildID {
			return g, true
		}
	}
	return GuildConfig{}, false
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

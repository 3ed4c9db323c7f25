package core

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/insightpilot/insightpilot/app/core/srv"
	"github.com/insightpilot/insightpilot/pkg/budget"
	"github.com/insightpilot/insightpilot/pkg/intent"
)

func MustLoadBaseConfig(path string) CoreConfig {
	if path == "" {
		return LoadBaseConfigFromENV()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	conf := &CoreConfig{}
	if err = toml.Unmarshal(raw, conf); err != nil {
		panic(err)
	}

	return *conf
}

func LoadBaseConfigFromENV() CoreConfig {
	var c CoreConfig
	c.FromENV()
	return c
}

type CoreConfig struct {
	Addr     string      `toml:"addr"`
	Log      Log         `toml:"log"`
	Postgres PGConfig    `toml:"postgres"`
	Redis    RedisConfig `toml:"redis"`

	AI srv.AIConfig `toml:"ai"`

	Budget  budget.Policy `toml:"budget"`
	Intent  intent.Config `toml:"intent"`
	Context ContextConfig `toml:"context"`
	Cleanup CleanupConfig `toml:"cleanup"`

	RateLimit RateLimitConfig `toml:"rate_limit"`
}

// ContextConfig bounds the per-session selection and its snapshot cache.
type ContextConfig struct {
	MaxTotalItems   int `toml:"max_total_items"`    // default 100
	MaxItemsPerType int `toml:"max_items_per_type"` // default 50
	CacheTTLSecond  int `toml:"cache_ttl_second"`   // default 300
}

type CleanupConfig struct {
	Cron          string `toml:"cron"`           // default "0 3 * * *"
	RetentionDays int    `toml:"retention_days"` // archived sessions older than this are purged, default 90
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
}

func (c *CoreConfig) FromENV() {
	c.Addr = os.Getenv("INSIGHTPILOT_API_SERVICE_ADDRESS")
	c.Log.FromENV()
	c.Postgres.FromENV()
	c.Redis.FromENV()
	c.AI.Token = os.Getenv("INSIGHTPILOT_AI_TOKEN")
	c.AI.Endpoint = os.Getenv("INSIGHTPILOT_AI_ENDPOINT")
	c.AI.Model = os.Getenv("INSIGHTPILOT_AI_MODEL")
}

type PGConfig struct {
	DSN string `toml:"dsn"`
}

func (m *PGConfig) FromENV() {
	m.DSN = os.Getenv("INSIGHTPILOT_POSTGRESQL_DSN")
}

func (c PGConfig) FormatDSN() string {
	return c.DSN
}

type RedisConfig struct {
	Addr     string `toml:"addr"`
	Password string `toml:"password"`
	DB       int    `toml:"db"`

	PoolSize     int `toml:"pool_size"`
	MinIdleConns int `toml:"min_idle_conns"`
	MaxRetries   int `toml:"max_retries"`
	DialTimeout  int `toml:"dial_timeout"`
	ReadTimeout  int `toml:"read_timeout"`
	WriteTimeout int `toml:"write_timeout"`
}

func (r *RedisConfig) FromENV() {
	r.Addr = os.Getenv("INSIGHTPILOT_REDIS_ADDR")
	r.Password = os.Getenv("INSIGHTPILOT_REDIS_PASSWORD")
	if dbStr := os.Getenv("INSIGHTPILOT_REDIS_DB"); dbStr != "" {
		if db, err := strconv.Atoi(dbStr); err == nil {
			r.DB = db
		}
	}
}

type Log struct {
	Level string `toml:"level"`
	Path  string `toml:"path"`
}

func (l *Log) FromENV() {
	l.Level = os.Getenv("INSIGHTPILOT_API_LOG_LEVEL")
	l.Path = os.Getenv("INSIGHTPILOT_API_LOG_PATH")
}

func (l *Log) SlogLevel() slog.Level {
	switch strings.ToLower(l.Level) {
	case "info":
		return slog.LevelInfo
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelDebug
	}
}

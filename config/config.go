package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all runtime configuration.
type Config struct {
	Server      ServerConfig      `mapstructure:"server"`
	Pool        PoolConfig        `mapstructure:"pool"`
	Coordinator CoordinatorConfig `mapstructure:"coordinator"`
	Database    DatabaseConfig    `mapstructure:"database"`
	Journal     JournalConfig     `mapstructure:"journal"`
	Admin       AdminConfig       `mapstructure:"admin"`
	Log         LogConfig         `mapstructure:"log"`
}

type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug, release, test
}

// PoolConfig is the read-only options bundle consumed by the connection pool.
type PoolConfig struct {
	MinSize             int           `mapstructure:"min_size"`
	MaxSize             int           `mapstructure:"max_size"`
	BorrowTimeout       time.Duration `mapstructure:"borrow_timeout"`
	IdleTimeout         time.Duration `mapstructure:"idle_timeout"`
	MaxLifetime         time.Duration `mapstructure:"max_lifetime"` // 0 = no age-based eviction
	MaintenanceInterval time.Duration `mapstructure:"maintenance_interval"`
	TestOnBorrow        bool          `mapstructure:"test_on_borrow"`
	BorrowRetryLimit    int           `mapstructure:"borrow_retry_limit"` // validation retry budget
	DisablePooling      bool          `mapstructure:"disable_pooling"`
}

// Propagation modes for phase-message dispatch to participants.
const (
	PropagationSync       = "sync"
	PropagationConcurrent = "concurrent"
)

type CoordinatorConfig struct {
	PropagationMode string        `mapstructure:"propagation_mode"` // sync or concurrent
	MaxTimeout      time.Duration `mapstructure:"max_timeout"`      // per-phase budget
	WorkerLimit     int           `mapstructure:"worker_limit"`     // concurrent mode fan-out cap
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	SSLMode  string `mapstructure:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

type JournalConfig struct {
	Enabled   bool          `mapstructure:"enabled"`
	Host      string        `mapstructure:"host"`
	Port      int           `mapstructure:"port"`
	Password  string        `mapstructure:"password"`
	DB        int           `mapstructure:"db"`
	Retention time.Duration `mapstructure:"retention"` // TTL on journal entries
}

// Addr returns the Redis address string.
func (j JournalConfig) Addr() string {
	return fmt.Sprintf("%s:%d", j.Host, j.Port)
}

type AdminConfig struct {
	APIKey    string        `mapstructure:"api_key"` // empty disables the token endpoint
	JWTSecret string        `mapstructure:"jwt_secret"`
	JWTExpiry time.Duration `mapstructure:"jwt_expiry"`
	JWTIssuer string        `mapstructure:"jwt_issuer"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Pretty bool   `mapstructure:"pretty"` // human-readable output (dev only)
}

// Load reads configuration from file and environment variables.
// Environment variables override file values. Prefix: TXM_ (Transaction Manager).
// Nested keys use underscore: TXM_POOL_MAX_SIZE, TXM_DATABASE_HOST, etc.
func Load(path string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("pool.min_size", 1)
	v.SetDefault("pool.max_size", 10)
	v.SetDefault("pool.borrow_timeout", "30s")
	v.SetDefault("pool.idle_timeout", "60s")
	v.SetDefault("pool.max_lifetime", "0s")
	v.SetDefault("pool.maintenance_interval", "60s")
	v.SetDefault("pool.test_on_borrow", true)
	v.SetDefault("pool.borrow_retry_limit", 3)
	v.SetDefault("pool.disable_pooling", false)
	v.SetDefault("coordinator.propagation_mode", PropagationSync)
	v.SetDefault("coordinator.max_timeout", "10s")
	v.SetDefault("coordinator.worker_limit", 8)
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.password", "postgres")
	v.SetDefault("database.dbname", "txmanager")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("journal.enabled", false)
	v.SetDefault("journal.host", "localhost")
	v.SetDefault("journal.port", 6379)
	v.SetDefault("journal.password", "")
	v.SetDefault("journal.db", 0)
	v.SetDefault("journal.retention", "168h")
	v.SetDefault("admin.api_key", "")
	v.SetDefault("admin.jwt_secret", "")
	v.SetDefault("admin.jwt_expiry", "24h")
	v.SetDefault("admin.jwt_issuer", "tx-resource-manager")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)

	// File config
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	// Environment variables: TXM_POOL_MAX_SIZE -> pool.max_size
	v.SetEnvPrefix("TXM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (not required — env vars can suffice)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects configurations the runtime cannot honor. The propagation
// mode in particular must be an explicit, checked value: the coordinator
// threading model is selected from here and nowhere else.
func (c *Config) Validate() error {
	switch c.Coordinator.PropagationMode {
	case PropagationSync, PropagationConcurrent:
	default:
		return fmt.Errorf("coordinator.propagation_mode must be %q or %q, got %q",
			PropagationSync, PropagationConcurrent, c.Coordinator.PropagationMode)
	}
	if c.Pool.MaxSize < 1 {
		return fmt.Errorf("pool.max_size must be at least 1, got %d", c.Pool.MaxSize)
	}
	if c.Pool.MinSize < 0 || c.Pool.MinSize > c.Pool.MaxSize {
		return fmt.Errorf("pool.min_size must be between 0 and pool.max_size, got %d", c.Pool.MinSize)
	}
	if c.Pool.BorrowTimeout < 0 {
		return fmt.Errorf("pool.borrow_timeout must not be negative")
	}
	if c.Pool.BorrowRetryLimit < 1 {
		return fmt.Errorf("pool.borrow_retry_limit must be at least 1, got %d", c.Pool.BorrowRetryLimit)
	}
	if c.Coordinator.MaxTimeout <= 0 {
		return fmt.Errorf("coordinator.max_timeout must be positive")
	}
	if c.Coordinator.WorkerLimit < 1 {
		return fmt.Errorf("coordinator.worker_limit must be at least 1, got %d", c.Coordinator.WorkerLimit)
	}
	return nil
}

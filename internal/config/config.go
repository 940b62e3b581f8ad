package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	_ "github.com/joho/godotenv/autoload"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// PathEnvVar overrides the location of the optional YAML config file.
const PathEnvVar = "CONFIG_PATH"

// DefaultPaths are searched in order when PathEnvVar is unset.
var DefaultPaths = []string{"config.yaml", "config.yml"}

var (
	ErrMissingJWTSecret = errors.New("jwt.secret (JWT_SECRET) is required")
	ErrInvalidLimit     = errors.New("ranking limits must be positive")
	ErrInvalidPort      = errors.New("server.port must be between 1 and 65535")
)

// Config is the full service configuration.
type Config struct {
	Server  ServerConfig  `koanf:"server"`
	DB      DBConfig      `koanf:"db"`
	JWT     JWTConfig     `koanf:"jwt"`
	Ranking RankingConfig `koanf:"ranking"`
	Log     LogConfig     `koanf:"log"`
}

type ServerConfig struct {
	Host         string        `koanf:"host"`
	Port         int           `koanf:"port"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`
	CORSOrigins  []string      `koanf:"cors_origins"`
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type DBConfig struct {
	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`
	Name     string `koanf:"name"`
	SSLMode  string `koanf:"sslmode"`

	MaxOpenConns    int           `koanf:"max_open_conns"`
	MaxIdleConns    int           `koanf:"max_idle_conns"`
	ConnMaxLifetime time.Duration `koanf:"conn_max_lifetime"`

	// Start-up connect retry.
	ConnectRetries uint64        `koanf:"connect_retries"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`

	SlowThreshold time.Duration `koanf:"slow_threshold"`
}

// DSN builds the libpq-style connection string used by the postgres driver.
func (d DBConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret     string `koanf:"secret"`
	CookieName string `koanf:"cookie_name"`
}

type RankingConfig struct {
	// MaxResults bounds every leaderboard response.
	MaxResults int `koanf:"max_results"`
	// TopItemsLimit is the default size of the top recipes list.
	TopItemsLimit int `koanf:"top_items_limit"`
	// CountSelfVotes controls whether an author's votes on their own recipes
	// count toward leaderboard totals.
	CountSelfVotes bool `koanf:"count_self_votes"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json or console
}

// Default returns the built-in defaults. File and environment layers override them.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  time.Minute,
			CORSOrigins:  []string{"*"},
		},
		DB: DBConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "postgres",
			Name:            "recipes",
			SSLMode:         "disable",
			MaxOpenConns:    100,
			MaxIdleConns:    10,
			ConnMaxLifetime: time.Hour,
			ConnectRetries:  5,
			ConnectTimeout:  30 * time.Second,
			SlowThreshold:   time.Second,
		},
		JWT: JWTConfig{
			CookieName: "auth-token",
		},
		Ranking: RankingConfig{
			MaxResults:     50,
			TopItemsLimit:  4,
			CountSelfVotes: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Load layers defaults, an optional YAML file and the environment, in that
// order of increasing precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(Default(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment: %w", err)
	}

	// CORS origins arrive from the environment as a comma separated string.
	if raw, ok := k.Get("server.cors_origins").(string); ok {
		parts := strings.Split(raw, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if err := k.Set("server.cors_origins", parts); err != nil {
			return nil, fmt.Errorf("failed to set cors origins: %w", err)
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks values that have no safe default.
func (c *Config) Validate() error {
	if c.JWT.Secret == "" {
		return ErrMissingJWTSecret
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return ErrInvalidPort
	}
	if c.Ranking.MaxResults <= 0 || c.Ranking.TopItemsLimit <= 0 {
		return ErrInvalidLimit
	}
	return nil
}

func findFile() string {
	if p := os.Getenv(PathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// envKeys maps the flat variable names the service has always used onto
// koanf paths. Anything else of the form SECTION_KEY maps to section.key.
var envKeys = map[string]string{
	"PORT":        "server.port",
	"DB_NAME":     "db.name",
	"DB_SSLMODE":  "db.sslmode",
	"JWT_SECRET":  "jwt.secret",
	"LOG_LEVEL":   "log.level",
	"LOG_FORMAT":  "log.format",
	"CORS_ORIGIN": "server.cors_origins",
}

var envSections = []string{"server", "db", "jwt", "ranking", "log"}

func envKey(s string) string {
	if key, ok := envKeys[s]; ok {
		return key
	}
	lower := strings.ToLower(s)
	for _, section := range envSections {
		if rest, ok := strings.CutPrefix(lower, section+"_"); ok {
			return section + "." + rest
		}
	}
	// Unrelated variables are dropped.
	return ""
}

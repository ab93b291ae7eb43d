package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/anreonyr/simphy/internal/engine"
	"github.com/anreonyr/simphy/internal/geom"
)

type Config struct {
	Port           int     `envconfig:"PORT" default:"8080"`
	LogLevel       string  `envconfig:"LOG_LEVEL" default:"info"`
	DatabaseURL    string  `envconfig:"DATABASE_URL" default:""`
	SQLitePath     string  `envconfig:"SQLITE_PATH" default:"./data/simphy.db"`
	JWTSecret      string  `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	SceneDir       string  `envconfig:"SCENE_DIR" default:"./data/scenes"`
	AllowedOrigins string  `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	TickRateHz     int     `envconfig:"TICK_RATE_HZ" default:"60"`
	HitRadius      float64 `envconfig:"HIT_RADIUS" default:"25"`
	GravityY       float64 `envconfig:"GRAVITY_Y" default:"-100"`
	EntitySize     float64 `envconfig:"DEFAULT_ENTITY_SIZE" default:"50"`
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.TickRateHz <= 0 || c.TickRateHz > 1000 {
		return fmt.Errorf("TICK_RATE_HZ must be in 1..1000, got %d", c.TickRateHz)
	}
	if c.HitRadius <= 0 {
		return fmt.Errorf("HIT_RADIUS must be positive, got %v", c.HitRadius)
	}
	if c.EntitySize <= 0 {
		return fmt.Errorf("DEFAULT_ENTITY_SIZE must be positive, got %v", c.EntitySize)
	}
	if _, err := c.SlogLevel(); err != nil {
		return err
	}
	return nil
}

// SlogLevel parses LOG_LEVEL.
func (c *Config) SlogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo, fmt.Errorf("LOG_LEVEL: %w", err)
	}
	return level, nil
}

// TickInterval is the duration of one simulation tick.
func (c *Config) TickInterval() time.Duration {
	return time.Second / time.Duration(c.TickRateHz)
}

// Origins splits ALLOWED_ORIGINS.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Engine returns the editor options derived from the config.
func (c *Config) Engine(logger *slog.Logger) engine.Options {
	return engine.Options{
		HitRadius:   c.HitRadius,
		Gravity:     geom.V2(0, c.GravityY),
		DefaultSize: geom.V2(c.EntitySize, c.EntitySize),
		Logger:      logger,
	}
}

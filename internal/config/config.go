package config

import (
	"fmt"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds all configuration for the maze server
type Config struct {
	Server    ServerConfig
	Maze      MazeConfig
	RateLimit RateLimitConfig
	Profiling ProfilingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string        `env:"MAZE_APP_PORT" envDefault:"8080"`
	ReadTimeout     time.Duration `env:"MAZE_READ_TIMEOUT" envDefault:"15s"`
	ShutdownTimeout time.Duration `env:"MAZE_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	MetricsInterval time.Duration `env:"MAZE_METRICS_INTERVAL" envDefault:"0s"`
}

// MazeConfig bounds what a single generation request may ask for
type MazeConfig struct {
	MaxWidth      int           `env:"MAZE_MAX_WIDTH" envDefault:"201"`
	MaxHeight     int           `env:"MAZE_MAX_HEIGHT" envDefault:"201"`
	MaxBudget     int           `env:"MAZE_MAX_BUDGET" envDefault:"10000"`
	DefaultBudget int           `env:"MAZE_DEFAULT_BUDGET" envDefault:"1000"`
	MaxStepDelay  time.Duration `env:"MAZE_MAX_STEP_DELAY" envDefault:"250ms"`
}

// RateLimitConfig holds per-client request limits for generation endpoints
type RateLimitConfig struct {
	Limit  int           `env:"MAZE_RATE_LIMIT" envDefault:"60"`
	Window time.Duration `env:"MAZE_RATE_WINDOW" envDefault:"1m"`
}

// ProfilingConfig holds configuration for the pprof side server
type ProfilingConfig struct {
	Enabled bool   `env:"ENABLE_PROFILING" envDefault:"false"`
	Port    string `env:"PPROF_PORT" envDefault:"42069"`
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory if one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found (this is OK if using environment variables): %v", err)
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that limits are usable
func (c *Config) Validate() error {
	if c.Server.Port == "" {
		return fmt.Errorf("MAZE_APP_PORT is required")
	}
	if c.Maze.MaxWidth < 3 || c.Maze.MaxHeight < 3 {
		return fmt.Errorf("MAZE_MAX_WIDTH and MAZE_MAX_HEIGHT must be at least 3")
	}
	if c.Maze.MaxBudget < 0 {
		return fmt.Errorf("MAZE_MAX_BUDGET must not be negative")
	}
	if c.Maze.DefaultBudget < 0 || c.Maze.DefaultBudget > c.Maze.MaxBudget {
		return fmt.Errorf("MAZE_DEFAULT_BUDGET must be between 0 and MAZE_MAX_BUDGET")
	}
	if c.Maze.MaxStepDelay < 0 {
		return fmt.Errorf("MAZE_MAX_STEP_DELAY must not be negative")
	}
	if c.RateLimit.Limit <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("MAZE_RATE_LIMIT and MAZE_RATE_WINDOW must be positive")
	}
	if c.Profiling.Enabled && c.Profiling.Port == "" {
		return fmt.Errorf("PPROF_PORT is required when profiling is enabled")
	}
	return nil
}

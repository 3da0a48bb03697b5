package config

import (
	"time"

	"kwcluster/pkg/keyword"
	"kwcluster/pkg/logger"
)

type Config struct {
	Server ServerConfig  `mapstructure:"server"`
	Source SourceConfig  `mapstructure:"source"`
	API    APIConfig     `mapstructure:"api"`
	Filter FilterConfig  `mapstructure:"filter"`
	Cache  CacheConfig   `mapstructure:"cache"`
	Logger logger.Config `mapstructure:"logger"`
}

type ServerConfig struct {
	Host          string        `mapstructure:"host"`
	Port          int           `mapstructure:"port"`
	MaxUploadMB   int           `mapstructure:"max_upload_mb"`
	ReadTimeout   time.Duration `mapstructure:"read_timeout"`
	WriteTimeout  time.Duration `mapstructure:"write_timeout"`
	ShutdownGrace time.Duration `mapstructure:"shutdown_grace"`
}

// SourceConfig controls how uploaded spreadsheets are read and mapped.
type SourceConfig struct {
	Sheet        string `mapstructure:"sheet"`
	Profile      string `mapstructure:"profile"`
	ProfilesFile string `mapstructure:"profiles_file"`
}

type APIConfig struct {
	Endpoint      string        `mapstructure:"endpoint"`
	Token         string        `mapstructure:"token"`
	Country       string        `mapstructure:"country"`
	Mode          string        `mapstructure:"mode"`
	Limit         int           `mapstructure:"limit"`
	Timeout       time.Duration `mapstructure:"timeout"`
	MaxRetries    int           `mapstructure:"max_retries"`
	RetryDelay    time.Duration `mapstructure:"retry_delay"`
	MaxConcurrent int           `mapstructure:"max_concurrent"`
}

// FilterConfig holds the initial thresholds shown by the dashboard and used by the CLI.
type FilterConfig struct {
	MinVolume     float64 `mapstructure:"min_volume"`
	MaxDifficulty float64 `mapstructure:"max_difficulty"`
	MinCPC        float64 `mapstructure:"min_cpc"`
	ApplyPosition bool    `mapstructure:"apply_position"`
	PositionLower float64 `mapstructure:"position_lower"`
	PositionUpper float64 `mapstructure:"position_upper"`
}

// Criteria converts the configured thresholds into filter criteria.
func (f FilterConfig) Criteria() keyword.Criteria {
	c := keyword.Criteria{
		MinVolume:     f.MinVolume,
		MaxDifficulty: f.MaxDifficulty,
		MinCPC:        f.MinCPC,
	}
	if f.ApplyPosition {
		c.Position = &keyword.PositionRange{Lower: f.PositionLower, Upper: f.PositionUpper}
	}
	return c
}

type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	MaxSize int           `mapstructure:"max_size"`
	TTL     time.Duration `mapstructure:"ttl"`
}

type Manager interface {
	Load(configPath string) (*Config, error)
	Reload() error
	GetConfig() *Config
}

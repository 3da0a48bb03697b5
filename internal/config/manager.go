package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"

	"kwcluster/pkg/api"
	"kwcluster/pkg/keyword"
	"kwcluster/pkg/parser"
)

// EnvPrefix prefixes environment overrides, e.g. KWCLUSTER_API_TOKEN.
const EnvPrefix = "KWCLUSTER"

type manager struct {
	mu         sync.RWMutex
	config     *Config
	viper      *viper.Viper
	configPath string
}

func NewManager() Manager {
	return &manager{
		viper: viper.New(),
	}
}

// Load reads configPath when set; defaults and environment apply either way.
func (m *manager) Load(configPath string) (*Config, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.configPath = configPath
	m.setupViper()

	return m.read()
}

func (m *manager) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config == nil {
		return fmt.Errorf("config not loaded")
	}

	_, err := m.read()
	return err
}

func (m *manager) GetConfig() *Config {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.config
}

func (m *manager) read() (*Config, error) {
	if m.configPath != "" {
		if err := m.viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var config Config
	if err := m.viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	m.config = &config
	return &config, nil
}

func (m *manager) setupViper() {
	if m.configPath != "" {
		m.viper.SetConfigFile(m.configPath)
	}

	m.viper.SetEnvPrefix(EnvPrefix)
	m.viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	m.viper.AutomaticEnv()

	setDefaults(m.viper)
}

func setDefaults(v *viper.Viper) {
	criteria := keyword.DefaultCriteria()
	apiDefaults := api.DefaultClientConfig()

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.max_upload_mb", 32)
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.write_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_grace", 10*time.Second)

	v.SetDefault("source.sheet", parser.DefaultSheet)
	v.SetDefault("source.profile", keyword.ProfileSpreadsheet)
	v.SetDefault("source.profiles_file", "")

	v.SetDefault("api.endpoint", apiDefaults.Endpoint)
	v.SetDefault("api.token", "")
	v.SetDefault("api.country", "de")
	v.SetDefault("api.mode", "subdomains")
	v.SetDefault("api.limit", 1000)
	v.SetDefault("api.timeout", apiDefaults.Timeout)
	v.SetDefault("api.max_retries", apiDefaults.MaxRetries)
	v.SetDefault("api.retry_delay", apiDefaults.RetryDelay)
	v.SetDefault("api.max_concurrent", apiDefaults.MaxConcurrent)

	v.SetDefault("filter.min_volume", criteria.MinVolume)
	v.SetDefault("filter.max_difficulty", criteria.MaxDifficulty)
	v.SetDefault("filter.min_cpc", criteria.MinCPC)
	v.SetDefault("filter.apply_position", true)
	v.SetDefault("filter.position_lower", criteria.Position.Lower)
	v.SetDefault("filter.position_upper", criteria.Position.Upper)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.max_size", 32)
	v.SetDefault("cache.ttl", 30*time.Minute)

	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "json")
	v.SetDefault("logger.output", "stderr")
	v.SetDefault("logger.time_format", "rfc3339")
}

func validateConfig(config *Config) error {
	var errs []error

	if config.Server.Port <= 0 || config.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid server port: %d", config.Server.Port))
	}
	if config.Server.MaxUploadMB <= 0 {
		errs = append(errs, fmt.Errorf("max_upload_mb must be positive"))
	}
	if config.Source.Profile == "" {
		errs = append(errs, fmt.Errorf("source.profile cannot be empty"))
	}
	if config.API.Limit <= 0 {
		errs = append(errs, fmt.Errorf("api.limit must be positive"))
	}
	if config.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api.timeout must be positive"))
	}
	if config.API.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("api.max_retries cannot be negative"))
	}
	if config.API.MaxConcurrent <= 0 {
		errs = append(errs, fmt.Errorf("api.max_concurrent must be positive"))
	}
	if config.Cache.Enabled && config.Cache.MaxSize <= 0 {
		errs = append(errs, fmt.Errorf("cache.max_size must be positive when the cache is enabled"))
	}
	if err := config.Filter.Criteria().Validate(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

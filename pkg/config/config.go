package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the collection service
type Config struct {
	// Account pool policy
	Pool PoolConfig `yaml:"pool" json:"pool"`

	// Request pacing configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Collection worker settings
	Collector CollectorConfig `yaml:"collector" json:"collector"`

	// On-disk state locations
	Storage StorageConfig `yaml:"storage" json:"storage"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// PoolConfig holds account pool policy. Health thresholds and penalties are
// deliberately configuration rather than constants; operators tune them per
// deployment.
type PoolConfig struct {
	MaxAccounts             int           `yaml:"max_accounts" json:"max_accounts"`
	CooldownDuration        time.Duration `yaml:"cooldown_duration" json:"cooldown_duration"`
	DailyOperationLimit     int           `yaml:"daily_operation_limit" json:"daily_operation_limit"`
	QuarantineThreshold     float64       `yaml:"quarantine_threshold" json:"quarantine_threshold"`
	ConsecutiveFailureLimit int           `yaml:"consecutive_failure_limit" json:"consecutive_failure_limit"`

	// Health score movement per outcome
	RecoveryStep       float64 `yaml:"recovery_step" json:"recovery_step"`
	PenaltyRateLimited float64 `yaml:"penalty_rate_limited" json:"penalty_rate_limited"`
	PenaltyNetwork     float64 `yaml:"penalty_network" json:"penalty_network"`
	PenaltyChallenge   float64 `yaml:"penalty_challenge" json:"penalty_challenge"`
	PenaltyAuth        float64 `yaml:"penalty_auth" json:"penalty_auth"`

	// Optional slow path out of quarantine: accounts whose health climbs back
	// above RecoveryThreshold are returned to rotation by maintenance sweeps.
	HealthRecoveryEnabled bool    `yaml:"health_recovery_enabled" json:"health_recovery_enabled"`
	RecoveryThreshold     float64 `yaml:"recovery_threshold" json:"recovery_threshold"`
}

// RateLimitConfig holds request pacing configuration
type RateLimitConfig struct {
	// Randomized gap between consecutive uses of the same account
	DelayMin time.Duration `yaml:"delay_min" json:"delay_min"`
	DelayMax time.Duration `yaml:"delay_max" json:"delay_max"`

	// Pool-wide ceilings
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	MaxConcurrent     int `yaml:"max_concurrent" json:"max_concurrent"`
}

// CollectorConfig holds collection worker settings
type CollectorConfig struct {
	Workers        int           `yaml:"workers" json:"workers"`
	MaxFeedPosts   int           `yaml:"max_feed_posts" json:"max_feed_posts"`
	IncludeStories bool          `yaml:"include_stories" json:"include_stories"`
	CollectTimeout time.Duration `yaml:"collect_timeout" json:"collect_timeout"`
	MaxRetries     int           `yaml:"max_retries" json:"max_retries"`
	RetryDelay     time.Duration `yaml:"retry_delay" json:"retry_delay"`
}

// StorageConfig holds on-disk state locations
type StorageConfig struct {
	PoolFile     string `yaml:"pool_file" json:"pool_file"`
	SessionDir   string `yaml:"session_dir" json:"session_dir"`
	DownloadsDir string `yaml:"downloads_dir" json:"downloads_dir"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Pool: PoolConfig{
			MaxAccounts:             30,
			CooldownDuration:        120 * time.Minute,
			DailyOperationLimit:     100,
			QuarantineThreshold:     20.0,
			ConsecutiveFailureLimit: 3,
			RecoveryStep:            1.0,
			PenaltyRateLimited:      5.0,
			PenaltyNetwork:          10.0,
			PenaltyChallenge:        15.0,
			PenaltyAuth:             25.0,
			HealthRecoveryEnabled:   false,
			RecoveryThreshold:       50.0,
		},
		RateLimit: RateLimitConfig{
			DelayMin:          1 * time.Second,
			DelayMax:          3 * time.Second,
			RequestsPerMinute: 60,
			MaxConcurrent:     0, // 0 means no ceiling
		},
		Collector: CollectorConfig{
			Workers:        3,
			MaxFeedPosts:   10,
			IncludeStories: true,
			CollectTimeout: 30 * time.Second,
			MaxRetries:     3,
			RetryDelay:     5 * time.Second,
		},
		Storage: StorageConfig{
			PoolFile:     "data/account_pool.json",
			SessionDir:   "data/sessions",
			DownloadsDir: "data/temp_downloads",
		},
		Logging: LoggingConfig{
			Level: "info",
			File:  "",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if v := os.Getenv("IGCOLLECTOR_MAX_ACCOUNTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pool.MaxAccounts = n
		}
	}
	if v := os.Getenv("IGCOLLECTOR_COOLDOWN_MINUTES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pool.CooldownDuration = time.Duration(n) * time.Minute
		}
	}
	if v := os.Getenv("IGCOLLECTOR_DAILY_OPERATION_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pool.DailyOperationLimit = n
		}
	}
	if v := os.Getenv("IGCOLLECTOR_QUARANTINE_THRESHOLD"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil && f >= 0 {
			c.Pool.QuarantineThreshold = f
		}
	}
	if v := os.Getenv("IGCOLLECTOR_CONSECUTIVE_FAILURE_LIMIT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Pool.ConsecutiveFailureLimit = n
		}
	}
	if v := os.Getenv("IGCOLLECTOR_DELAY_MIN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.RateLimit.DelayMin = d
		}
	}
	if v := os.Getenv("IGCOLLECTOR_DELAY_MAX"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d >= 0 {
			c.RateLimit.DelayMax = d
		}
	}
	if v := os.Getenv("IGCOLLECTOR_REQUESTS_PER_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.RateLimit.RequestsPerMinute = n
		}
	}
	if v := os.Getenv("IGCOLLECTOR_MAX_CONCURRENT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.RateLimit.MaxConcurrent = n
		}
	}
	if v := os.Getenv("IGCOLLECTOR_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.Collector.Workers = n
		}
	}
	if v := os.Getenv("IGCOLLECTOR_POOL_FILE"); v != "" {
		c.Storage.PoolFile = v
	}
	if v := os.Getenv("IGCOLLECTOR_SESSION_DIR"); v != "" {
		c.Storage.SessionDir = v
	}
	if v := os.Getenv("IGCOLLECTOR_LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("IGCOLLECTOR_LOG_FILE"); v != "" {
		c.Logging.File = v
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".igcollector.yaml",
		".igcollector.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "igcollector", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "igcollector", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".igcollector.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Pool.MaxAccounts <= 0 {
		errs = append(errs, errors.New("max accounts must be positive"))
	}
	if c.Pool.CooldownDuration <= 0 {
		errs = append(errs, errors.New("cooldown duration must be positive"))
	}
	if c.Pool.DailyOperationLimit <= 0 {
		errs = append(errs, errors.New("daily operation limit must be positive"))
	}
	if c.Pool.QuarantineThreshold < 0 || c.Pool.QuarantineThreshold > 100 {
		errs = append(errs, errors.New("quarantine threshold must be between 0 and 100"))
	}
	if c.Pool.ConsecutiveFailureLimit <= 0 {
		errs = append(errs, errors.New("consecutive failure limit must be positive"))
	}
	if c.Pool.HealthRecoveryEnabled && c.Pool.RecoveryThreshold <= c.Pool.QuarantineThreshold {
		errs = append(errs, errors.New("recovery threshold must exceed quarantine threshold"))
	}

	if c.RateLimit.DelayMin < 0 {
		errs = append(errs, errors.New("delay min cannot be negative"))
	}
	if c.RateLimit.DelayMax < c.RateLimit.DelayMin {
		errs = append(errs, errors.New("delay max must not be below delay min"))
	}
	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}
	if c.RateLimit.MaxConcurrent < 0 {
		errs = append(errs, errors.New("max concurrent cannot be negative"))
	}

	if c.Collector.Workers <= 0 {
		errs = append(errs, errors.New("workers must be positive"))
	}
	if c.Collector.CollectTimeout <= 0 {
		errs = append(errs, errors.New("collect timeout must be positive"))
	}
	if c.Collector.MaxRetries < 0 {
		errs = append(errs, errors.New("max retries cannot be negative"))
	}

	if c.Storage.PoolFile == "" {
		errs = append(errs, errors.New("pool file path is required"))
	}
	if c.Storage.SessionDir == "" {
		errs = append(errs, errors.New("session directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if poolFile, ok := flags["pool-file"].(string); ok && poolFile != "" {
		c.Storage.PoolFile = poolFile
	}
	if workers, ok := flags["workers"].(int); ok && workers > 0 {
		c.Collector.Workers = workers
	}
	if rpm, ok := flags["rate-limit"].(int); ok && rpm > 0 {
		c.RateLimit.RequestsPerMinute = rpm
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".igcollector.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	// Override with environment variables (includes values from .env)
	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

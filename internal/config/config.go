package config

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultPort           = "8080"
	defaultContainers     = 5
	defaultOutlierPenalty = 1.0
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
)

var defaultPercentiles = []int{86, 88, 90, 92, 94}

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string        `yaml:"port"`
	Containers           int           `yaml:"containers"`
	Percentiles          []int         `yaml:"percentiles"`
	OutlierPenalty       float64       `yaml:"outlier_penalty"`
	SafetyContainer      bool          `yaml:"safety_container"`
	ShutdownGracePeriod  time.Duration `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    time.Duration `yaml:"read_header_timeout"`
	WriteTimeout         time.Duration `yaml:"write_timeout"`
	IdleTimeout          time.Duration `yaml:"idle_timeout"`
	EnableRequestLogging bool          `yaml:"enable_request_logging"`
	RateLimitRPS         float64       `yaml:"-"`
	RateLimitBurst       int           `yaml:"-"`
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string         `yaml:"port"`
	Containers           int            `yaml:"containers"`
	Percentiles          []int          `yaml:"percentiles"`
	OutlierPenalty       *float64       `yaml:"outlier_penalty"`
	SafetyContainer      *bool          `yaml:"safety_container"`
	ShutdownGracePeriod  string         `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string         `yaml:"read_header_timeout"`
	WriteTimeout         string         `yaml:"write_timeout"`
	IdleTimeout          string         `yaml:"idle_timeout"`
	EnableRequestLogging *bool          `yaml:"enable_request_logging"`
	RateLimit            *yamlRateLimit `yaml:"rate_limit"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	PercentilesStr *string
	Containers     *int
	OutlierPenalty *float64
	RateLimitRPS   *float64
	RateLimitBurst *int
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	// Load from YAML file if specified
	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		applyYAMLConfig(&cfg, yamlCfg)
	}

	// Apply environment variables (override YAML)
	applyEnvConfig(&cfg)

	// Apply CLI overrides (highest precedence)
	if overrides != nil {
		if err := applyCLIOverrides(&cfg, overrides); err != nil {
			return Config{}, err
		}
	}

	// Validate final configuration
	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		Containers:           defaultContainers,
		Percentiles:          DefaultPercentiles(),
		OutlierPenalty:       defaultOutlierPenalty,
		SafetyContainer:      true,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
	}
}

// DefaultPercentiles returns a copy of the default percentile grid.
func DefaultPercentiles() []int {
	out := make([]int, len(defaultPercentiles))
	copy(out, defaultPercentiles)
	return out
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}

	if yamlCfg.Containers > 0 {
		cfg.Containers = yamlCfg.Containers
	}

	if len(yamlCfg.Percentiles) > 0 {
		cfg.Percentiles = normalizePercentiles(yamlCfg.Percentiles)
	}

	if yamlCfg.OutlierPenalty != nil && *yamlCfg.OutlierPenalty >= 0 {
		cfg.OutlierPenalty = *yamlCfg.OutlierPenalty
	}

	if yamlCfg.SafetyContainer != nil {
		cfg.SafetyContainer = *yamlCfg.SafetyContainer
	}

	if yamlCfg.ShutdownGracePeriod != "" {
		if d, err := time.ParseDuration(yamlCfg.ShutdownGracePeriod); err == nil {
			cfg.ShutdownGracePeriod = d
		}
	}

	if yamlCfg.ReadHeaderTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.ReadHeaderTimeout); err == nil {
			cfg.ReadHeaderTimeout = d
		}
	}

	if yamlCfg.WriteTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.WriteTimeout); err == nil {
			cfg.WriteTimeout = d
		}
	}

	if yamlCfg.IdleTimeout != "" {
		if d, err := time.ParseDuration(yamlCfg.IdleTimeout); err == nil {
			cfg.IdleTimeout = d
		}
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}

	if yamlCfg.RateLimit != nil {
		if yamlCfg.RateLimit.RPS >= 0 {
			cfg.RateLimitRPS = yamlCfg.RateLimit.RPS
		}
		if yamlCfg.RateLimit.Burst >= 0 {
			cfg.RateLimitBurst = yamlCfg.RateLimit.Burst
		}
	}
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		cfg.Port = port
	}

	if raw := strings.TrimSpace(os.Getenv("CONTAINERS")); raw != "" {
		if value, err := strconv.Atoi(raw); err == nil && value > 0 {
			cfg.Containers = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("PERCENTILES")); raw != "" {
		grid, err := parsePercentiles(raw)
		if err == nil && len(grid) > 0 {
			cfg.Percentiles = grid
		}
	}

	if raw := strings.TrimSpace(os.Getenv("OUTLIER_PENALTY")); raw != "" {
		if value, err := strconv.ParseFloat(raw, 64); err == nil && value >= 0 {
			cfg.OutlierPenalty = value
		}
	}

	if raw := strings.TrimSpace(os.Getenv("SAFETY_CONTAINER")); raw != "" {
		if value, err := strconv.ParseBool(raw); err == nil {
			cfg.SafetyContainer = value
		}
	}

	if rps := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS")); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST")); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) error {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.PercentilesStr != nil && *overrides.PercentilesStr != "" {
		grid, err := parsePercentiles(*overrides.PercentilesStr)
		if err != nil {
			return fmt.Errorf("parse percentiles: %w", err)
		}
		cfg.Percentiles = grid
	}

	if overrides.Containers != nil && *overrides.Containers > 0 {
		cfg.Containers = *overrides.Containers
	}

	if overrides.OutlierPenalty != nil && *overrides.OutlierPenalty >= 0 {
		cfg.OutlierPenalty = *overrides.OutlierPenalty
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	return nil
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.Containers <= 0 {
		return fmt.Errorf("containers must be a positive integer")
	}
	if len(cfg.Percentiles) == 0 {
		return fmt.Errorf("percentile grid cannot be empty")
	}
	for _, p := range cfg.Percentiles {
		if p <= 0 || p > 100 {
			return fmt.Errorf("percentile %d out of range (0, 100]", p)
		}
	}
	if cfg.OutlierPenalty < 0 {
		return fmt.Errorf("OUTLIER_PENALTY must be >= 0")
	}
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	return nil
}

// parsePercentiles parses a comma-separated percentile grid into a sorted,
// deduplicated slice of integers. It validates that all values fall in (0, 100].
func parsePercentiles(raw string) ([]int, error) {
	parts := strings.Split(raw, ",")
	grid := make([]int, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		value, err := strconv.Atoi(part)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q", part)
		}
		if value <= 0 || value > 100 {
			return nil, fmt.Errorf("percentile must be in (0, 100], got %d", value)
		}
		grid = append(grid, value)
	}
	if len(grid) == 0 {
		return nil, fmt.Errorf("no percentiles provided")
	}
	return normalizePercentiles(grid), nil
}

// normalizePercentiles deduplicates and sorts the grid ascending, which is
// the order the grid search sweeps it in.
func normalizePercentiles(grid []int) []int {
	unique := make(map[int]struct{}, len(grid))
	for _, p := range grid {
		unique[p] = struct{}{}
	}
	out := make([]int, 0, len(unique))
	for p := range unique {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}

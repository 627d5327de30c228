package config

import (
	"fmt"
	"os"
	"time"

	"pool_monitor/internal/entity"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

const (
	DefaultEndpoint           = "https://wax.greymass.com/v1/chain/get_table_rows"
	DefaultPageLimit          = 100
	DefaultPageDelayMillis    = 200
	DefaultBackoffUnitMillis  = 1000
	DefaultMaxAttempts        = 5
	DefaultRequestTimeoutMs   = 10000
	DefaultRateLimit          = 10
	DefaultBurstLimit         = 2
	DefaultRefreshIntervalSec = 300
	DefaultPort               = ":8080"
	DefaultExportDir          = "./exports"
	DefaultFilenamePrefix     = "wax-pools"
)

// Config holds the overall configuration for the application.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Logging   LoggingConfig   `yaml:"logging"`
	Chain     ChainConfig     `yaml:"chain"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Monitor   MonitorConfig   `yaml:"monitor"`
	Export    ExportConfig    `yaml:"export"`
	Sources   []entity.Source `yaml:"sources"`
}

// ServerConfig holds the server-specific configuration.
type ServerConfig struct {
	Port         string `yaml:"port"`
	ReadTimeout  int    `yaml:"readTimeout"`
	WriteTimeout int    `yaml:"writeTimeout"`
	IdleTimeout  int    `yaml:"idleTimeout"`
	Pprof        bool   `yaml:"pprof"`
}

// LoggingConfig holds the configuration for logging.
type LoggingConfig struct {
	Level string `yaml:"level"` // e.g., "debug", "info", "warn", "error"
	File  string `yaml:"file"`
}

// ChainConfig describes the WAX node serving get_table_rows.
type ChainConfig struct {
	Endpoint             string `yaml:"endpoint"`
	RequestTimeoutMillis int64  `yaml:"requestTimeoutMillis"`
	RateLimit            int    `yaml:"rateLimit"`
	BurstLimit           int    `yaml:"burstLimit"`
}

// RetrievalConfig controls paging and retry behaviour per source.
type RetrievalConfig struct {
	PageLimit         int   `yaml:"pageLimit"`
	PageDelayMillis   int64 `yaml:"pageDelayMillis"`
	BackoffUnitMillis int64 `yaml:"backoffUnitMillis"`
	MaxAttempts       int   `yaml:"maxAttempts"`
}

// MonitorConfig controls the periodic refresh loop.
type MonitorConfig struct {
	RefreshIntervalSeconds int     `yaml:"refreshIntervalSeconds"`
	RefreshOnStart         *bool   `yaml:"refreshOnStart"` // defaults to true
	MinReserve             float64 `yaml:"minReserve"`     // seeds the held filter; 0 keeps every pool
}

// ExportConfig controls where saved exports land.
type ExportConfig struct {
	Dir            string `yaml:"dir"`
	FilenamePrefix string `yaml:"filenamePrefix"`
}

func (c ChainConfig) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutMillis) * time.Millisecond
}

func (r RetrievalConfig) PageDelay() time.Duration {
	return time.Duration(r.PageDelayMillis) * time.Millisecond
}

func (r RetrievalConfig) BackoffUnit() time.Duration {
	return time.Duration(r.BackoffUnitMillis) * time.Millisecond
}

func (m MonitorConfig) RefreshInterval() time.Duration {
	return time.Duration(m.RefreshIntervalSeconds) * time.Second
}

func (m MonitorConfig) ShouldRefreshOnStart() bool {
	return m.RefreshOnStart == nil || *m.RefreshOnStart
}

// InitialFilters is the filter the monitor holds before any client changes it.
func (m MonitorConfig) InitialFilters() entity.FilterSpec {
	spec := entity.DefaultFilterSpec()
	spec.MinReserve = m.MinReserve
	return spec
}

// DefaultSources are the WAX swap contracts monitored when none are configured.
func DefaultSources() []entity.Source {
	return []entity.Source{
		{ID: "swap.taco", DisplayName: "TacoSwap", Contract: "swap.taco", Table: "pairs", Schema: entity.SchemaCommaPrecision},
		{ID: "swap.alcor", DisplayName: "Alcor", Contract: "swap.alcor", Table: "pools", Schema: entity.SchemaNestedQuantity},
		{ID: "swap.box", DisplayName: "DefiBox", Contract: "swap.box", Table: "pairs", Schema: entity.SchemaBareAmount},
	}
}

// LoadConfig loads configuration from a YAML file.
func LoadConfig(path string) (*Config, error) {
	logrus.Infof("Loading configuration from path: %s", path)
	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Errorf("Failed to read config file %s: %v", path, err)
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		logrus.Errorf("Failed to unmarshal config data from %s: %v", path, err)
		return nil, fmt.Errorf("failed to unmarshal config data from %s: %w", path, err)
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		logrus.Errorf("Invalid configuration in %s: %v", path, err)
		return nil, err
	}

	logrus.Info("Configuration loaded successfully.")
	return &cfg, nil
}

// Default returns a configuration built purely from defaults, used when no file exists.
func Default() *Config {
	var cfg Config
	cfg.ApplyDefaults()
	return &cfg
}

// ApplyDefaults fills every unset field with its default value.
func (cfg *Config) ApplyDefaults() {
	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.ReadTimeout == 0 {
		cfg.Server.ReadTimeout = 10
	}
	if cfg.Server.WriteTimeout == 0 {
		cfg.Server.WriteTimeout = 30
	}
	if cfg.Server.IdleTimeout == 0 {
		cfg.Server.IdleTimeout = 60
	}
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}

	if cfg.Chain.Endpoint == "" {
		cfg.Chain.Endpoint = DefaultEndpoint
		logrus.Infof("Chain.Endpoint not set, defaulting to %s", cfg.Chain.Endpoint)
	}
	if cfg.Chain.RequestTimeoutMillis == 0 {
		cfg.Chain.RequestTimeoutMillis = DefaultRequestTimeoutMs
		logrus.Infof("Chain.RequestTimeoutMillis not set, defaulting to %d ms", cfg.Chain.RequestTimeoutMillis)
	}
	if cfg.Chain.RateLimit == 0 {
		cfg.Chain.RateLimit = DefaultRateLimit
	}
	if cfg.Chain.BurstLimit == 0 {
		cfg.Chain.BurstLimit = DefaultBurstLimit
	}

	if cfg.Retrieval.PageLimit == 0 {
		cfg.Retrieval.PageLimit = DefaultPageLimit
	}
	if cfg.Retrieval.PageDelayMillis == 0 {
		cfg.Retrieval.PageDelayMillis = DefaultPageDelayMillis
	}
	if cfg.Retrieval.BackoffUnitMillis == 0 {
		cfg.Retrieval.BackoffUnitMillis = DefaultBackoffUnitMillis
	}
	if cfg.Retrieval.MaxAttempts == 0 {
		cfg.Retrieval.MaxAttempts = DefaultMaxAttempts
	}

	if cfg.Monitor.RefreshIntervalSeconds == 0 {
		cfg.Monitor.RefreshIntervalSeconds = DefaultRefreshIntervalSec
	}
	if cfg.Monitor.RefreshOnStart == nil {
		refresh := true
		cfg.Monitor.RefreshOnStart = &refresh
	}

	if cfg.Export.Dir == "" {
		cfg.Export.Dir = DefaultExportDir
	}
	if cfg.Export.FilenamePrefix == "" {
		cfg.Export.FilenamePrefix = DefaultFilenamePrefix
	}

	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
		logrus.Infof("No sources configured, using %d built-in WAX sources", len(cfg.Sources))
	}
	for i := range cfg.Sources {
		src := &cfg.Sources[i]
		if src.ID == "" {
			src.ID = src.Contract
		}
		if src.DisplayName == "" {
			src.DisplayName = src.ID
		}
		if src.Scope == "" {
			// scope == code holds for the known swap contracts only
			src.Scope = src.Contract
			logrus.Debugf("Source '%s' has no scope, using contract '%s'", src.ID, src.Contract)
		}
	}
}

// Validate rejects configurations the monitor cannot run with.
func (cfg *Config) Validate() error {
	if cfg.Retrieval.PageLimit < 0 || cfg.Retrieval.MaxAttempts < 1 {
		return fmt.Errorf("retrieval.pageLimit must be positive and retrieval.maxAttempts at least 1")
	}
	if cfg.Monitor.MinReserve < 0 {
		return fmt.Errorf("monitor.minReserve must not be negative")
	}
	seen := make(map[string]struct{}, len(cfg.Sources))
	for _, src := range cfg.Sources {
		if src.Contract == "" || src.Table == "" {
			return fmt.Errorf("source '%s' needs both contract and table", src.ID)
		}
		if _, dup := seen[src.ID]; dup {
			return fmt.Errorf("duplicate source id '%s'", src.ID)
		}
		seen[src.ID] = struct{}{}
	}
	return nil
}

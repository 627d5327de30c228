package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. POOLMON_LOG_LEVEL.
const EnvPrefix = "POOLMON"

// ApplyOverrides layers environment variables and explicitly set CLI flags over a loaded
// file config. Only keys that are actually set take effect.
func ApplyOverrides(cfg *Config, flags *pflag.FlagSet) error {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := v.BindPFlags(flags); err != nil {
			return fmt.Errorf("bind flags: %w", err)
		}
	}

	if v.IsSet("log-level") {
		cfg.Logging.Level = v.GetString("log-level")
	}
	if v.IsSet("listen") {
		cfg.Server.Port = v.GetString("listen")
	}
	if v.IsSet("endpoint") {
		cfg.Chain.Endpoint = v.GetString("endpoint")
	}
	if v.IsSet("interval") {
		interval := v.GetDuration("interval")
		if interval <= 0 {
			return fmt.Errorf("interval must be positive, got %q", v.GetString("interval"))
		}
		cfg.Monitor.RefreshIntervalSeconds = int(interval.Seconds())
		if cfg.Monitor.RefreshIntervalSeconds == 0 {
			cfg.Monitor.RefreshIntervalSeconds = 1
		}
	}
	if v.IsSet("export-dir") {
		cfg.Export.Dir = v.GetString("export-dir")
	}
	if v.IsSet("refresh-on-start") {
		refresh := v.GetBool("refresh-on-start")
		cfg.Monitor.RefreshOnStart = &refresh
	}

	logrus.Debugf("Applied overrides: level=%s listen=%s endpoint=%s interval=%ds",
		cfg.Logging.Level, cfg.Server.Port, cfg.Chain.Endpoint, cfg.Monitor.RefreshIntervalSeconds)
	return nil
}

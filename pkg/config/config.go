// Package config loads the settings of the cache driver, rewarm queue,
// logger and metrics from a YAML or JSON file and the environment.
//
// Example usage:
//
//	cfg, err := config.Load("repository.yaml", "REPO")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// With the REPO prefix, REPO_CACHE_DRIVER=redis overrides cache.driver.
package config

import (
	"errors"

	"github.com/goliatone/go-entity-repository/cache"
	"github.com/goliatone/go-entity-repository/pkg/logging"
	"github.com/goliatone/go-entity-repository/pkg/metrics"
	"github.com/goliatone/go-entity-repository/queue"
)

// Config is the complete configuration consumed by di.NewContainer.
type Config struct {
	Cache   cache.Config   `mapstructure:"cache" json:"cache"`
	Queue   queue.Config   `mapstructure:"queue" json:"queue"`
	Log     logging.Config `mapstructure:"log" json:"log"`
	Metrics MetricsConfig  `mapstructure:"metrics" json:"metrics"`
}

// MetricsConfig toggles the Prometheus collector.
type MetricsConfig struct {
	Enabled   bool   `mapstructure:"enabled" json:"enabled"`
	Namespace string `mapstructure:"namespace" json:"namespace"`
}

// Default returns the configuration used when nothing is loaded.
func Default() Config {
	return Config{
		Cache: cache.DefaultConfig(),
		Queue: queue.DefaultConfig(),
		Log:   logging.DefaultConfig(),
		Metrics: MetricsConfig{
			Namespace: metrics.DefaultNamespace,
		},
	}
}

// Validate checks every section and joins their errors.
func (c Config) Validate() error {
	return errors.Join(
		c.Cache.Validate(),
		c.Queue.Validate(),
		c.Log.Validate(),
	)
}

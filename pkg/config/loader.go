package config

import (
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	goerrors "github.com/goliatone/go-errors"
	"github.com/spf13/viper"
)

// Load loads configuration from a file and environment variables. The prefix
// is used for environment variable names (REPO -> REPO_CACHE_TTL). If
// configPath is empty only defaults and the environment are used.
func Load(configPath, envPrefix string) (*Config, error) {
	v := viper.New()
	setDefaults(v, Default())

	if envPrefix != "" {
		v.SetEnvPrefix(envPrefix)
	}
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to read config file").
				WithMetadata(map[string]any{"path": configPath})
		}
	}

	var cfg Config
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&cfg, hook); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryBadInput, "failed to unmarshal config")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration and panics on error.
func MustLoad(configPath, envPrefix string) *Config {
	cfg, err := Load(configPath, envPrefix)
	if err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	return cfg
}

// LoadFromEnv loads configuration from defaults and environment variables.
func LoadFromEnv(envPrefix string) (*Config, error) {
	return Load("", envPrefix)
}

// viper only binds environment variables for keys it already knows.
func setDefaults(v *viper.Viper, d Config) {
	v.SetDefault("cache.driver", d.Cache.Driver)
	v.SetDefault("cache.ttl", d.Cache.TTL)
	v.SetDefault("cache.prefix", d.Cache.Prefix)
	v.SetDefault("cache.memory.capacity", d.Cache.Memory.Capacity)
	v.SetDefault("cache.memory.num_shards", d.Cache.Memory.NumShards)
	v.SetDefault("cache.memory.eviction_percentage", d.Cache.Memory.EvictionPercentage)
	v.SetDefault("cache.memory.eviction_interval", d.Cache.Memory.EvictionInterval)
	v.SetDefault("cache.redis.addr", d.Cache.Redis.Addr)
	v.SetDefault("cache.redis.password", d.Cache.Redis.Password)
	v.SetDefault("cache.redis.db", d.Cache.Redis.DB)
	v.SetDefault("cache.redis.pool_size", d.Cache.Redis.PoolSize)
	v.SetDefault("cache.redis.dial_timeout", d.Cache.Redis.DialTimeout)
	v.SetDefault("cache.redis.read_timeout", d.Cache.Redis.ReadTimeout)
	v.SetDefault("cache.redis.write_timeout", d.Cache.Redis.WriteTimeout)
	v.SetDefault("cache.file.dir", d.Cache.File.Dir)

	v.SetDefault("queue.workers", d.Queue.Workers)
	v.SetDefault("queue.buffer", d.Queue.Buffer)
	v.SetDefault("queue.max_attempts", d.Queue.MaxAttempts)
	v.SetDefault("queue.initial_delay", d.Queue.InitialDelay)
	v.SetDefault("queue.max_delay", d.Queue.MaxDelay)

	v.SetDefault("log.level", d.Log.Level)
	v.SetDefault("log.format", d.Log.Format)
	v.SetDefault("log.output", d.Log.Output)

	v.SetDefault("metrics.enabled", d.Metrics.Enabled)
	v.SetDefault("metrics.namespace", d.Metrics.Namespace)
}

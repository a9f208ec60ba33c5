package cache

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// DefaultTTL is how long an entry lives when Config.TTL is not set.
const DefaultTTL = 24 * time.Hour

// Config selects and tunes the cache driver.
type Config struct {
	Driver string        `mapstructure:"driver" json:"driver"`
	TTL    time.Duration `mapstructure:"ttl" json:"ttl"`
	// Prefix namespaces every key written by the store.
	Prefix string `mapstructure:"prefix" json:"prefix"`

	Memory MemoryConfig `mapstructure:"memory" json:"memory"`
	Redis  RedisConfig  `mapstructure:"redis" json:"redis"`
	File   FileConfig   `mapstructure:"file" json:"file"`
}

// MemoryConfig tunes the sharded in-memory driver.
type MemoryConfig struct {
	Capacity           int           `mapstructure:"capacity" json:"capacity"`
	NumShards          int           `mapstructure:"num_shards" json:"num_shards"`
	EvictionPercentage int           `mapstructure:"eviction_percentage" json:"eviction_percentage"`
	EvictionInterval   time.Duration `mapstructure:"eviction_interval" json:"eviction_interval"`
}

// RedisConfig holds the connection settings of the redis driver.
type RedisConfig struct {
	Addr         string        `mapstructure:"addr" json:"addr"`
	Password     string        `mapstructure:"password" json:"-"`
	DB           int           `mapstructure:"db" json:"db"`
	PoolSize     int           `mapstructure:"pool_size" json:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout" json:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" json:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" json:"write_timeout"`
}

// FileConfig holds the settings of the file driver.
type FileConfig struct {
	Dir string `mapstructure:"dir" json:"dir"`
}

// DefaultConfig returns a Config populated with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Driver: DriverMemory,
		TTL:    DefaultTTL,
		Memory: MemoryConfig{
			Capacity:           10_000,
			NumShards:          10,
			EvictionPercentage: 10,
			EvictionInterval:   time.Minute,
		},
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			PoolSize:     10,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		File: FileConfig{
			Dir: "storage/cache",
		},
	}
}

// EffectiveTTL returns TTL, or DefaultTTL when TTL is zero.
func (c Config) EffectiveTTL() time.Duration {
	if c.TTL <= 0 {
		return DefaultTTL
	}
	return c.TTL
}

// Validate checks whether the configuration values are valid. Only the
// section of the selected driver is validated.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Driver,
			validation.Required,
			validation.In(DriverMemory, DriverRedis, DriverFile).Error("must be one of memory, redis, file"),
		),
		validation.Field(&c.TTL, validation.Min(time.Duration(0))),
		validation.Field(&c.Memory, validation.When(c.Driver == DriverMemory, validation.By(func(any) error {
			return c.Memory.validate()
		}))),
		validation.Field(&c.Redis, validation.When(c.Driver == DriverRedis, validation.By(func(any) error {
			return c.Redis.validate()
		}))),
		validation.Field(&c.File, validation.When(c.Driver == DriverFile, validation.By(func(any) error {
			return c.File.validate()
		}))),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid cache configuration")
	}
	return nil
}

func (m MemoryConfig) validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Capacity, validation.Required, validation.Min(1)),
		validation.Field(&m.NumShards, validation.Required, validation.Min(1)),
		validation.Field(&m.EvictionPercentage, validation.Required, validation.Min(1), validation.Max(100)),
		validation.Field(&m.EvictionInterval, validation.Min(time.Duration(0))),
	)
}

func (r RedisConfig) validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Addr, validation.Required),
		validation.Field(&r.DB, validation.Min(0)),
		validation.Field(&r.PoolSize, validation.Min(0)),
	)
}

func (f FileConfig) validate() error {
	return validation.ValidateStruct(&f,
		validation.Field(&f.Dir, validation.Required),
	)
}

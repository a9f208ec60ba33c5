package queue

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	goerrors "github.com/goliatone/go-errors"
)

// Config tunes a WorkerPool.
type Config struct {
	// Workers is the number of goroutines running jobs.
	Workers int `mapstructure:"workers" json:"workers"`
	// Buffer is the number of jobs that can wait for a worker.
	Buffer int `mapstructure:"buffer" json:"buffer"`
	// MaxAttempts bounds the runs of a failing job, first run included.
	MaxAttempts  int           `mapstructure:"max_attempts" json:"max_attempts"`
	InitialDelay time.Duration `mapstructure:"initial_delay" json:"initial_delay"`
	MaxDelay     time.Duration `mapstructure:"max_delay" json:"max_delay"`
}

// DefaultConfig returns the defaults used for zero fields.
func DefaultConfig() Config {
	return Config{
		Workers:      4,
		Buffer:       256,
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	def := DefaultConfig()
	if c.Workers == 0 {
		c.Workers = def.Workers
	}
	if c.Buffer == 0 {
		c.Buffer = def.Buffer
	}
	if c.MaxAttempts == 0 {
		c.MaxAttempts = def.MaxAttempts
	}
	if c.InitialDelay == 0 {
		c.InitialDelay = def.InitialDelay
	}
	if c.MaxDelay == 0 {
		c.MaxDelay = def.MaxDelay
	}
	return c
}

// Validate checks the configuration. Zero values are valid and replaced by
// defaults.
func (c Config) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.Workers, validation.Min(0)),
		validation.Field(&c.Buffer, validation.Min(0)),
		validation.Field(&c.MaxAttempts, validation.Min(0)),
		validation.Field(&c.InitialDelay, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxDelay,
			validation.Min(time.Duration(0)),
			validation.When(c.MaxDelay > 0 && c.InitialDelay > c.MaxDelay,
				validation.Min(c.InitialDelay).Error("must not be lower than initial_delay")),
		),
	)
	if err != nil {
		return goerrors.FromOzzoValidation(err, "invalid queue configuration")
	}
	return nil
}

// Package config loads jobqueue settings from defaults, a YAML file,
// environment variables and command-line flags, in that order of precedence.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/azargarov/jobqueue"
)

// EnvPrefix is the prefix of environment variables read by Load.
// JOBQUEUE_AGING_INTERVAL maps to the aging-interval key.
const EnvPrefix = "JOBQUEUE_"

var validate = validator.New()

// Config is the flat set of recognised options.
type Config struct {
	Capacity      int           `koanf:"capacity" validate:"min=1"`
	AgingInterval time.Duration `koanf:"aging-interval" validate:"gt=0"`
	ExpiryTime    time.Duration `koanf:"expiry-time" validate:"gt=0"`
	MinPriority   int           `koanf:"min-priority" validate:"min=1"`
	MaxPriority   int           `koanf:"max-priority" validate:"gtefield=MinPriority"`
	IDPrefix      string        `koanf:"id-prefix" validate:"required"`

	Ticks        int           `koanf:"ticks" validate:"min=0"`
	TickDuration time.Duration `koanf:"tick-duration" validate:"min=0"`
	Submissions  int           `koanf:"submissions" validate:"min=0"`
	Color        bool          `koanf:"color"`
	Drain        bool          `koanf:"drain"`
}

// DefaultConfig returns the baseline configuration.
func DefaultConfig() Config {
	return Config{
		Capacity:      jobqueue.DefaultCapacity,
		AgingInterval: jobqueue.DefaultAgingInterval,
		ExpiryTime:    jobqueue.DefaultExpiryTime,
		MinPriority:   jobqueue.DefaultMinPriority,
		MaxPriority:   jobqueue.DefaultMaxPriority,
		IDPrefix:      jobqueue.DefaultIDPrefix,
		Ticks:         5,
		TickDuration:  time.Second,
		Submissions:   6,
		Color:         true,
	}
}

func defaultConfigAsMap() map[string]interface{} {
	def := DefaultConfig()
	return map[string]interface{}{
		"capacity":       def.Capacity,
		"aging-interval": def.AgingInterval,
		"expiry-time":    def.ExpiryTime,
		"min-priority":   def.MinPriority,
		"max-priority":   def.MaxPriority,
		"id-prefix":      def.IDPrefix,
		"ticks":          def.Ticks,
		"tick-duration":  def.TickDuration,
		"submissions":    def.Submissions,
		"color":          def.Color,
		"drain":          def.Drain,
	}
}

// BindFlags defines one flag per configuration key.
func BindFlags(flags *pflag.FlagSet) {
	def := DefaultConfig()
	flags.Int("capacity", def.Capacity, "Maximum number of queued jobs")
	flags.Duration("aging-interval", def.AgingInterval, "Waiting time before a job gains one priority step")
	flags.Duration("expiry-time", def.ExpiryTime, "Waiting time before a job is discarded")
	flags.Int("min-priority", def.MinPriority, "Lowest accepted priority")
	flags.Int("max-priority", def.MaxPriority, "Highest priority reachable through aging")
	flags.String("id-prefix", def.IDPrefix, "Prefix of generated job ids")
	flags.Int("ticks", def.Ticks, "Number of simulation ticks")
	flags.Duration("tick-duration", def.TickDuration, "Pause between ticks")
	flags.Int("submissions", def.Submissions, "Number of concurrent demo submissions")
	flags.Bool("color", def.Color, "Colour tick output")
	flags.Bool("drain", def.Drain, "Withdraw every remaining job after the last tick")
}

// Load merges defaults, the optional YAML file at path, JOBQUEUE_*
// environment variables and flags, then validates the result.
//
// A missing file is skipped silently. Only flags changed on the command
// line override earlier sources.
func Load(flags *pflag.FlagSet, path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaultConfigAsMap(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("error loading defaults: %w", err)
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
				return Config{}, fmt.Errorf("error loading config file %s: %w", path, err)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, fmt.Errorf("error checking config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", func(key string) string {
		return strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(key, EnvPrefix)), "_", "-")
	}), nil); err != nil {
		return Config{}, fmt.Errorf("error loading environment variables: %w", err)
	}

	if flags != nil {
		if err := k.Load(posflag.Provider(flags, ".", k), nil); err != nil {
			return Config{}, fmt.Errorf("error loading command-line flags: %w", err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Options converts the queue settings into jobqueue.Options.
func (c Config) Options() jobqueue.Options {
	return jobqueue.Options{
		Capacity:      c.Capacity,
		AgingInterval: c.AgingInterval,
		ExpiryTime:    c.ExpiryTime,
		MinPriority:   c.MinPriority,
		MaxPriority:   c.MaxPriority,
		IDPrefix:      c.IDPrefix,
	}
}

// Package config loads the queue's file configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/jdziat/ensemble-queue/pkg/driver"
)

// Config holds everything the queue subsystem reads from file.
type Config struct {
	Queue   QueueConfig   `yaml:"queue"`
	Driver  DriverConfig  `yaml:"driver"`
	Journal JournalConfig `yaml:"journal"`
}

// QueueConfig configures the queue's budgets and cadence.
type QueueConfig struct {
	MaxSubmit           int           `yaml:"max_submit"`
	MaxRunning          int           `yaml:"max_running"`
	CallbackConcurrency int           `yaml:"callback_concurrency"`
	PollInterval        time.Duration `yaml:"poll_interval"`
	DispatchPeriod      time.Duration `yaml:"dispatch_period"`
}

// DriverConfig selects the backend and its command tables.
type DriverConfig struct {
	System         string                     `yaml:"system"`
	CommandTimeout time.Duration              `yaml:"command_timeout"`
	Commands       map[string]driver.Commands `yaml:"commands"`
}

// JournalConfig configures the run journal and its retention.
type JournalConfig struct {
	Enabled       bool          `yaml:"enabled"`
	Path          string        `yaml:"path"`
	Retention     time.Duration `yaml:"retention"`
	PurgeSchedule string        `yaml:"purge_schedule"`
}

// Default returns the configuration used when no file overrides it.
func Default() *Config {
	return &Config{
		Queue: QueueConfig{
			MaxSubmit:           2,
			MaxRunning:          0,
			CallbackConcurrency: 10,
			PollInterval:        time.Second,
			DispatchPeriod:      time.Second,
		},
		Driver: DriverConfig{
			System:         string(driver.Local),
			CommandTimeout: driver.DefaultCommandTimeout,
		},
		Journal: JournalConfig{
			Enabled:       false,
			Path:          "./data/runs.db",
			Retention:     30 * 24 * time.Hour,
			PurgeSchedule: "0 3 * * *",
		},
	}
}

// Load reads a yaml file on top of the defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("jobqueue: read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("jobqueue: parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch driver.Kind(c.Driver.System) {
	case driver.Local, driver.LSF, driver.Slurm, driver.Torque:
	default:
		return fmt.Errorf("jobqueue: unknown queue system %q", c.Driver.System)
	}
	if c.Queue.MaxSubmit < 1 {
		c.Queue.MaxSubmit = 1
	}
	if c.Queue.PollInterval <= 0 {
		c.Queue.PollInterval = time.Second
	}
	if c.Queue.DispatchPeriod <= 0 {
		c.Queue.DispatchPeriod = time.Second
	}
	return nil
}

// DriverOptions translates the config into driver options for its system.
func (c *Config) DriverOptions() []driver.Option {
	opts := []driver.Option{
		driver.WithCommandTimeout(c.Driver.CommandTimeout),
	}
	if cmds, ok := c.Driver.Commands[c.Driver.System]; ok {
		opts = append(opts, driver.WithCommands(cmds))
	}
	return opts
}

// System returns the configured backend kind.
func (c *Config) System() driver.Kind {
	return driver.Kind(c.Driver.System)
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

const FileName = "cloverville.yml"

// Config models cloverville.yml.
type Config struct {
	Storage struct {
		Driver string `yaml:"driver"`
		Dir    string `yaml:"dir"`
		S3     struct {
			Bucket string `yaml:"bucket"`
			Prefix string `yaml:"prefix"`
			Region string `yaml:"region"`
		} `yaml:"s3"`
	} `yaml:"storage"`
	History struct {
		Sink string `yaml:"sink"`
		Path string `yaml:"path"`
	} `yaml:"history"`
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Economy Economy `yaml:"economy"`
}

type Economy struct {
	BaselinePoints   int   `yaml:"baseline_points"`
	GreenWindowDays  int   `yaml:"green_window_days"`
	WeeklyPeriodDays int   `yaml:"weekly_period_days"`
	PointResetMonths int   `yaml:"point_reset_months"`
	Bonus            Bonus `yaml:"bonus"`
}

type Bonus struct {
	Cap   int         `yaml:"cap"`
	Tiers []BonusTier `yaml:"tiers"`
}

// BonusTier grants Percent to members who completed at most MaxTasks tasks.
type BonusTier struct {
	MaxTasks int `yaml:"max_tasks"`
	Percent  int `yaml:"percent"`
}

// Validate ensures the config meets required structure.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case "sqlite", "json":
	case "s3":
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("config.storage.s3.bucket is required for driver s3")
		}
	default:
		return fmt.Errorf("config.storage.driver must be one of sqlite, json, s3")
	}
	switch c.History.Sink {
	case "file":
		if c.History.Path == "" {
			return fmt.Errorf("config.history.path is required for sink file")
		}
	case "db":
		if c.Storage.Driver != "sqlite" {
			return fmt.Errorf("config.history.sink db requires storage driver sqlite")
		}
	default:
		return fmt.Errorf("config.history.sink must be file or db")
	}
	switch c.Logging.Format {
	case "", "text", "json":
	default:
		return fmt.Errorf("config.logging.format must be text or json")
	}
	e := c.Economy
	if e.BaselinePoints < 0 {
		return fmt.Errorf("config.economy.baseline_points cannot be negative")
	}
	if e.GreenWindowDays <= 0 || e.WeeklyPeriodDays <= 0 || e.PointResetMonths <= 0 {
		return fmt.Errorf("config.economy periods must be positive")
	}
	if e.Bonus.Cap < 0 {
		return fmt.Errorf("config.economy.bonus.cap cannot be negative")
	}
	prev := -1
	for i, tier := range e.Bonus.Tiers {
		if tier.MaxTasks <= prev {
			return fmt.Errorf("bonus tier %d: max_tasks must increase", i)
		}
		if tier.Percent < 0 || tier.Percent > 100 {
			return fmt.Errorf("bonus tier %d: percent must be within 0..100", i)
		}
		prev = tier.MaxTasks
	}
	return nil
}

// Path returns the config file path for a workspace.
func Path(workspace string) string {
	if workspace == "" {
		workspace = "."
	}
	return filepath.Join(workspace, FileName)
}

// Load reads the workspace config, falling back to defaults when the file
// does not exist.
func Load(workspace string) (*Config, error) {
	data, err := os.ReadFile(Path(workspace))
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return FromYAML(data)
}

// Default returns the default Config.
func Default() *Config {
	var cfg Config
	_ = yaml.NewDecoder(bytes.NewBufferString(defaultTemplate)).Decode(&cfg)
	return &cfg
}

// GenerateDefault returns default config YAML.
func GenerateDefault() string {
	return defaultTemplate
}

// FromYAML parses and validates config from raw YAML bytes. Keys missing
// from data keep their default values.
func FromYAML(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("invalid config yaml: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

const defaultTemplate = `storage:
  driver: sqlite
  dir: json

history:
  sink: file
  path: history.txt

logging:
  level: info
  format: text

economy:
  baseline_points: 10
  green_window_days: 7
  weekly_period_days: 7
  point_reset_months: 6
  bonus:
    cap: 50
    tiers:
      - {max_tasks: 1, percent: 30}
      - {max_tasks: 3, percent: 20}
      - {max_tasks: 5, percent: 10}
`

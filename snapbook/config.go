package snapbook

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the full fiskal configuration: service knobs plus the
// transport settings main reads.
type Config struct {
	Listen string `yaml:"listen"`
	DBPath string `yaml:"db_path"`

	// ScheduleCron is the cron expression driving periodic schedule
	// execution (robfig/cron syntax, @every accepted).
	ScheduleCron string `yaml:"schedule_cron"`

	// DefaultRetentionCount applies when a schedule carries no retention
	// count of its own.
	DefaultRetentionCount int `yaml:"default_retention_count"`

	// MaxTags caps the tag set on a snapshot.
	MaxTags int `yaml:"max_tags"`

	// MaxNameLen caps snapshot and book name lengths.
	MaxNameLen int `yaml:"max_name_len"`

	// MaxAnnotationLen caps annotation content length.
	MaxAnnotationLen int `yaml:"max_annotation_len"`
}

// DefaultConfig returns sane defaults.
func DefaultConfig() *Config {
	return &Config{
		Listen:                ":8086",
		DBPath:                "db/fiskal.db",
		ScheduleCron:          "@every 5m",
		DefaultRetentionCount: 12,
		MaxTags:               32,
		MaxNameLen:            512,
		MaxAnnotationLen:      4096,
	}
}

// LoadConfig reads and parses a YAML config file, merged over DefaultConfig.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.defaults()
	return cfg, nil
}

func (c *Config) defaults() {
	if c.Listen == "" {
		c.Listen = ":8086"
	}
	if c.DBPath == "" {
		c.DBPath = "db/fiskal.db"
	}
	if c.ScheduleCron == "" {
		c.ScheduleCron = "@every 5m"
	}
	if c.DefaultRetentionCount <= 0 {
		c.DefaultRetentionCount = 12
	}
	if c.MaxTags <= 0 {
		c.MaxTags = 32
	}
	if c.MaxNameLen <= 0 {
		c.MaxNameLen = 512
	}
	if c.MaxAnnotationLen <= 0 {
		c.MaxAnnotationLen = 4096
	}
}

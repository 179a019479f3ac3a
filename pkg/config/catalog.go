package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// WindowConfig is one schedule type's working window.
type WindowConfig struct {
	Start string `yaml:"start"` // "10:00"
	End   string `yaml:"end"`   // "20:00"
}

// ScheduleCatalogConfig is the root of the schedule catalogue file:
//
//	windows:
//	  standard: {start: "10:00", end: "20:00"}
//	  morning:  {start: "08:00", end: "16:00"}
//	  evening:  {start: "14:00", end: "22:00"}
type ScheduleCatalogConfig struct {
	Windows map[string]WindowConfig `yaml:"windows"`
}

// LoadScheduleCatalog reads and validates a schedule catalogue file.
func LoadScheduleCatalog(path string) (*ScheduleCatalogConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule catalog: %w", err)
	}

	var cfg ScheduleCatalogConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse schedule catalog: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate schedule catalog: %w", err)
	}
	return &cfg, nil
}

// Validate checks every window for HH:MM bounds with start before end.
func (c *ScheduleCatalogConfig) Validate() error {
	if len(c.Windows) == 0 {
		return fmt.Errorf("no windows defined")
	}
	for name, w := range c.Windows {
		if name == "custom" {
			return fmt.Errorf("windows.custom: custom windows are set per professional")
		}
		start, err := time.Parse("15:04", w.Start)
		if err != nil {
			return fmt.Errorf("windows.%s.start: invalid format '%s', expected HH:MM", name, w.Start)
		}
		end, err := time.Parse("15:04", w.End)
		if err != nil {
			return fmt.Errorf("windows.%s.end: invalid format '%s', expected HH:MM", name, w.End)
		}
		if !end.After(start) {
			return fmt.Errorf("windows.%s: end must be after start", name)
		}
	}
	return nil
}

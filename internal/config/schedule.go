package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ScheduleEntry binds one source to its posting slot. Loaded once at
// process start, read-only thereafter.
type ScheduleEntry struct {
	Name     string   `mapstructure:"name" yaml:"name"`
	URL      string   `mapstructure:"url" yaml:"url"`
	PostTime string   `mapstructure:"post_time" yaml:"post_time"` // "HH:MM" in the app timezone
	Category string   `mapstructure:"category" yaml:"category"`
	Hashtags []string `mapstructure:"hashtags" yaml:"hashtags"`
}

// Slot parses the entry's posting time.
func (e ScheduleEntry) Slot() (hour, minute int, err error) {
	parts := strings.Split(strings.TrimSpace(e.PostTime), ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("schedule %s: bad post_time %q", e.Name, e.PostTime)
	}
	if _, err := fmt.Sscanf(e.PostTime, "%d:%d", &hour, &minute); err != nil {
		return 0, 0, fmt.Errorf("schedule %s: bad post_time %q", e.Name, e.PostTime)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("schedule %s: post_time %q out of range", e.Name, e.PostTime)
	}
	return hour, minute, nil
}

// IsDue reports whether the entry's slot matches now in loc, at minute
// granularity: due exactly when hour and minute are equal, not a range.
func (e ScheduleEntry) IsDue(now time.Time, loc *time.Location) bool {
	hour, minute, err := e.Slot()
	if err != nil {
		return false
	}
	local := now.In(loc)
	return local.Hour() == hour && local.Minute() == minute
}

// Validate checks the entry is usable.
func (e ScheduleEntry) Validate() error {
	if e.Name == "" {
		return fmt.Errorf("schedule entry missing name")
	}
	if e.URL == "" {
		return fmt.Errorf("schedule %s: missing url", e.Name)
	}
	_, _, err := e.Slot()
	return err
}

type scheduleFile struct {
	Sources []ScheduleEntry `yaml:"sources"`
}

// LoadScheduleFile reads a standalone schedule table. The file holds a
// top-level "sources" list with the same fields as inline config sources.
func LoadScheduleFile(path string) ([]ScheduleEntry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schedule: %w", err)
	}
	var f scheduleFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse schedule %s: %w", path, err)
	}
	for _, e := range f.Sources {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	return f.Sources, nil
}

// Schedule returns the source table: the standalone file when configured,
// otherwise the inline sources. Entries are validated either way.
func (c *Config) Schedule() ([]ScheduleEntry, error) {
	if c.ScheduleFile != "" {
		return LoadScheduleFile(c.ScheduleFile)
	}
	for _, e := range c.Sources {
		if err := e.Validate(); err != nil {
			return nil, err
		}
	}
	return c.Sources, nil
}

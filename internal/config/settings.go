// Package config holds the brain's immutable settings and the per-zone
// override table. Settings are loaded once and passed explicitly to every
// planner call; overrides are resolved through the pure ForZone lookup.
package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig marks settings that fail validation.
var ErrInvalidConfig = errors.New("invalid config")

// Settings are shared across all zones.
type Settings struct {
	FortifyLevel                       int `yaml:"fortify_level"`
	WorkerPatternRepetitionLimit       int `yaml:"worker_pattern_repetition_limit"`
	MaxWorkersPerZone                  int `yaml:"max_workers_per_zone"`
	SupplierPatternRepetitionLimit     int `yaml:"supplier_pattern_repetition_limit"`
	RemoteHaulerPatternRepetitionLimit int `yaml:"remote_hauler_pattern_repetition_limit"`
	MinersPerSource                    int `yaml:"miners_per_source"`

	UpgradeBuffer    int `yaml:"upgrade_buffer"`    // Upgraders start scaling above this level
	UpgradeIncrement int `yaml:"upgrade_increment"` // Stored energy per extra upgrader repetition
	ReserveBuffer    int `yaml:"reserve_buffer"`    // Reserve controllers to this many ticks

	SafeModeFloor    int `yaml:"safe_mode_floor"`
	PickupThreshold  int `yaml:"pickup_threshold"`
	CollectThreshold int `yaml:"collect_threshold"`

	Overrides map[string]ZoneOverride `yaml:"overrides"`
}

// ZoneOverride replaces computed values for a single zone. Nil fields are unset.
type ZoneOverride struct {
	WorkersPerZone   *int `yaml:"workers_per_zone,omitempty" json:"workers_per_zone,omitempty"`
	UpgradersPerZone *int `yaml:"upgraders_per_zone,omitempty" json:"upgraders_per_zone,omitempty"`
	FortifyLevel     *int `yaml:"fortify_level,omitempty" json:"fortify_level,omitempty"`
}

// Override is a resolved optional value.
type Override struct {
	Value int  `json:"value"`
	Set   bool `json:"set"`
}

// Zone is the settings view for one zone with overrides applied.
type Zone struct {
	Name         string   `json:"name"`
	FortifyLevel int      `json:"fortify_level"`
	Workers      Override `json:"workers"`
	Upgraders    Override `json:"upgraders"`
}

// Defaults returns the stock settings.
func Defaults() Settings {
	return Settings{
		FortifyLevel:                       1_000_000,
		WorkerPatternRepetitionLimit:       7,
		MaxWorkersPerZone:                  2,
		SupplierPatternRepetitionLimit:     4,
		RemoteHaulerPatternRepetitionLimit: 8,
		MinersPerSource:                    1,
		UpgradeBuffer:    75_000,
		UpgradeIncrement: 20_000,
		ReserveBuffer:    3_000,
		SafeModeFloor:    5_000,
		PickupThreshold:  100,
		CollectThreshold: 1_000,
	}
}

// Load reads settings from a YAML file. Keys missing from the file keep
// their default values.
func Load(path string) (Settings, error) {
	s := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return s, err
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return s, fmt.Errorf("settings.yaml: %w", err)
	}
	if err := s.Validate(); err != nil {
		return s, err
	}
	return s, nil
}

// Validate checks that every limit is usable.
func (s Settings) Validate() error {
	positive := []struct {
		name string
		v    int
	}{
		{"fortify_level", s.FortifyLevel},
		{"worker_pattern_repetition_limit", s.WorkerPatternRepetitionLimit},
		{"supplier_pattern_repetition_limit", s.SupplierPatternRepetitionLimit},
		{"remote_hauler_pattern_repetition_limit", s.RemoteHaulerPatternRepetitionLimit},
		{"upgrade_increment", s.UpgradeIncrement},
	}
	for _, p := range positive {
		if p.v <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, p.name, p.v)
		}
	}
	nonNegative := []struct {
		name string
		v    int
	}{
		{"max_workers_per_zone", s.MaxWorkersPerZone},
		{"miners_per_source", s.MinersPerSource},
		{"upgrade_buffer", s.UpgradeBuffer},
		{"reserve_buffer", s.ReserveBuffer},
		{"safe_mode_floor", s.SafeModeFloor},
		{"pickup_threshold", s.PickupThreshold},
		{"collect_threshold", s.CollectThreshold},
	}
	for _, p := range nonNegative {
		if p.v < 0 {
			return fmt.Errorf("%w: %s must not be negative, got %d", ErrInvalidConfig, p.name, p.v)
		}
	}
	for zone, o := range s.Overrides {
		for name, v := range map[string]*int{
			"workers_per_zone":   o.WorkersPerZone,
			"upgraders_per_zone": o.UpgradersPerZone,
			"fortify_level":      o.FortifyLevel,
		} {
			if v != nil && *v < 0 {
				return fmt.Errorf("%w: override %s.%s must not be negative", ErrInvalidConfig, zone, name)
			}
		}
	}
	return nil
}

// ForZone resolves the settings for one zone. The override table always
// wins over the shared value when an entry is present.
func (s Settings) ForZone(zone string) Zone {
	z := Zone{Name: zone, FortifyLevel: s.FortifyLevel}
	o, ok := s.Overrides[zone]
	if !ok {
		return z
	}
	if o.FortifyLevel != nil {
		z.FortifyLevel = *o.FortifyLevel
	}
	if o.WorkersPerZone != nil {
		z.Workers = Override{Value: *o.WorkersPerZone, Set: true}
	}
	if o.UpgradersPerZone != nil {
		z.Upgraders = Override{Value: *o.UpgradersPerZone, Set: true}
	}
	return z
}

// WithOverride returns a copy of the settings with o layered over the
// zone's existing override entry. The receiver is not modified.
func (s Settings) WithOverride(zone string, o ZoneOverride) Settings {
	merged := make(map[string]ZoneOverride, len(s.Overrides)+1)
	for k, v := range s.Overrides {
		merged[k] = v
	}
	cur := merged[zone]
	if o.WorkersPerZone != nil {
		cur.WorkersPerZone = o.WorkersPerZone
	}
	if o.UpgradersPerZone != nil {
		cur.UpgradersPerZone = o.UpgradersPerZone
	}
	if o.FortifyLevel != nil {
		cur.FortifyLevel = o.FortifyLevel
	}
	merged[zone] = cur
	s.Overrides = merged
	return s
}

// Int returns a pointer to v, for building overrides.
func Int(v int) *int {
	return &v
}

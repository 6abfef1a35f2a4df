package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func writeSettings(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "settings.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}
	return path
}

func TestDefaultsValidate(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}

func TestLoadKeepsDefaultsForMissingKeys(t *testing.T) {
	path := writeSettings(t, `
max_workers_per_zone: 4
overrides:
  W1N1:
    fortify_level: 250000
    workers_per_zone: 3
`)
	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.MaxWorkersPerZone != 4 {
		t.Fatalf("MaxWorkersPerZone = %d, want 4", s.MaxWorkersPerZone)
	}
	if s.FortifyLevel != Defaults().FortifyLevel {
		t.Fatalf("FortifyLevel = %d, want default", s.FortifyLevel)
	}
	z := s.ForZone("W1N1")
	if z.FortifyLevel != 250000 {
		t.Fatalf("zone fortify level = %d, want 250000", z.FortifyLevel)
	}
	if !z.Workers.Set || z.Workers.Value != 3 {
		t.Fatalf("workers override = %+v", z.Workers)
	}
	if z.Upgraders.Set {
		t.Fatalf("upgraders override should be unset")
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"zero limit":        "worker_pattern_repetition_limit: 0\n",
		"negative floor":    "safe_mode_floor: -1\n",
		"negative override": "overrides:\n  W1:\n    upgraders_per_zone: -2\n",
	}
	for name, body := range cases {
		if _, err := Load(writeSettings(t, body)); !errors.Is(err, ErrInvalidConfig) {
			t.Fatalf("%s: err = %v, want ErrInvalidConfig", name, err)
		}
	}
	if _, err := Load(writeSettings(t, "fortify_level: [1, 2]\n")); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestForZoneWithoutEntryUsesShared(t *testing.T) {
	s := Defaults()
	z := s.ForZone("nowhere")
	if z.FortifyLevel != s.FortifyLevel || z.Workers.Set || z.Upgraders.Set {
		t.Fatalf("unexpected zone settings %+v", z)
	}
}

func TestWithOverrideDoesNotMutate(t *testing.T) {
	base := Defaults()
	base.Overrides = map[string]ZoneOverride{"W1": {FortifyLevel: Int(10)}}

	merged := base.WithOverride("W1", ZoneOverride{WorkersPerZone: Int(0)})

	if base.ForZone("W1").Workers.Set {
		t.Fatalf("receiver was modified")
	}
	z := merged.ForZone("W1")
	if !z.Workers.Set || z.Workers.Value != 0 {
		t.Fatalf("workers override lost: %+v", z.Workers)
	}
	if z.FortifyLevel != 10 {
		t.Fatalf("existing fortify override lost: %d", z.FortifyLevel)
	}
}

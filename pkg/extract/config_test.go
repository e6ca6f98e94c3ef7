package extract

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/AmirShafiqueWR/rice-mill-fsms/pkg/document"
)

func TestLoadConfigMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("missing file should not error: %v", err)
	}
	if cfg.DefaultDepartment != document.Quality || cfg.DefaultRole != "Staff" {
		t.Errorf("unexpected defaults: %s/%s", cfg.DefaultDepartment, cfg.DefaultRole)
	}
	if len(cfg.ActorMap) == 0 || len(cfg.ClauseRules) == 0 {
		t.Error("default rule tables are empty")
	}
}

func TestLoadConfigMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractor.yaml")
	raw := `
default_department: Milling
actor_department_map:
  fumigation contractor:
    department: Storage
    role: Fumigation Contractor
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.DefaultDepartment != document.Milling {
		t.Errorf("default department = %s, want Milling", cfg.DefaultDepartment)
	}
	if a := cfg.ActorMap["fumigation contractor"]; a.Department != document.Storage {
		t.Errorf("loaded mapping = %+v", a)
	}
	// Untouched tables keep their defaults.
	if len(cfg.ClauseRules) == 0 || cfg.DefaultClause != ClauseHazardControl {
		t.Error("defaults lost during merge")
	}
}

func TestLoadConfigRejectsUnknownDepartment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractor.yaml")
	raw := `
actor_department_map:
  ghost:
    department: Shipping
    role: Ghost
`
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("unknown department should fail validation")
	}
}

func TestWithActorMappingsDoesNotMutateReceiver(t *testing.T) {
	base := DefaultConfig()
	before := len(base.ActorMap)

	merged := base.WithActorMappings(map[string]Assignment{
		"fumigation contractor": {Department: document.Storage, Role: "Contractor"},
	})

	if len(base.ActorMap) != before {
		t.Error("merge mutated the receiver")
	}
	if _, ok := merged.ActorMap["fumigation contractor"]; !ok {
		t.Error("merged config missing the new mapping")
	}
	if _, ok := merged.ActorMap["operator"]; !ok {
		t.Error("merged config lost a base mapping")
	}
}

func TestConfigSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "extractor.yaml")
	cfg := DefaultConfig()
	cfg.DefaultRole = "Duty Officer"
	if err := cfg.AddActorMapping("Silo Attendant", Assignment{Department: document.Storage, Role: "Attendant"}); err != nil {
		t.Fatal(err)
	}

	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}
	loaded, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if loaded.DefaultRole != "Duty Officer" {
		t.Errorf("default role = %q", loaded.DefaultRole)
	}
	if a := loaded.ActorMap["silo attendant"]; a.Department != document.Storage || a.Role != "Attendant" {
		t.Errorf("round-tripped mapping = %+v", a)
	}
}

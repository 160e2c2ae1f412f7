package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chat2obs.yaml")
	content := `
database:
  dsn: "./chat2obs.db"
logging:
  level: "debug"
extraction:
  assume_immutable: true
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Database.DSN != "./chat2obs.db" {
		t.Errorf("dsn = %q, want ./chat2obs.db", cfg.Database.DSN)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}
	if !cfg.Extraction.AssumeImmutable {
		t.Errorf("assume_immutable = false, want true")
	}
	if !cfg.Extraction.Incremental {
		t.Errorf("incremental default should remain true when unset in file")
	}
	if cfg.Annotation.BatchSize != 500 {
		t.Errorf("batch_size = %d, want default 500", cfg.Annotation.BatchSize)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

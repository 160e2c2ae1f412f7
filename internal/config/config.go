// Package config loads chat2obs's runtime configuration from YAML.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level runtime configuration.
type Config struct {
	Database   DatabaseConfig   `yaml:"database"`
	Logging    LoggingConfig    `yaml:"logging"`
	Extraction ExtractionConfig `yaml:"extraction"`
	Annotation AnnotationConfig `yaml:"annotation"`
}

// DatabaseConfig controls the Store Gateway's connection.
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

// LoggingConfig controls the ambient zerolog logger.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Pretty bool   `yaml:"pretty"`
}

// ExtractionConfig holds extractor defaults loaded from the config file
// (§4.3, §6.3). The import commands do not read it; their --assume-immutable
// and --incremental flags alone set the extractor options.
type ExtractionConfig struct {
	AssumeImmutable bool `yaml:"assume_immutable"`
	Incremental     bool `yaml:"incremental"`
}

// AnnotationConfig holds annotator-runtime settings loaded from the config
// file (§4.7). The runtime does not read BatchSize; it fetches candidates in
// fixed batches of 200.
type AnnotationConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// Default returns the configuration used when no file is supplied.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{DSN: ":memory:"},
		Logging:  LoggingConfig{Level: "info", Pretty: true},
		Extraction: ExtractionConfig{
			AssumeImmutable: false,
			Incremental:     true,
		},
		Annotation: AnnotationConfig{BatchSize: 500},
	}
}

// Load reads and parses a YAML configuration file, filling in defaults for
// anything the file leaves unset.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if cfg.Annotation.BatchSize <= 0 {
		cfg.Annotation.BatchSize = 500
	}
	return cfg, nil
}

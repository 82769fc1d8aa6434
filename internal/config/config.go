// Copyright 2025 go-extsort Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the extsort YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/ajroetker/go-extsort/filesort"
	"github.com/ajroetker/go-extsort/sysinfo"
)

// Environment variables that override the file.
const (
	EnvThreads    = "EXTSORT_THREADS"
	EnvMaxSize    = "EXTSORT_MAX_SIZE"
	EnvPolicy     = "EXTSORT_POLICY"
	EnvStagingDir = "EXTSORT_STAGING_DIR"
	EnvLogLevel   = "EXTSORT_LOG_LEVEL"
)

// Log formats accepted in LoggingConfig.Format.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Config holds all extsort configuration.
type Config struct {
	Sorter    SorterConfig    `yaml:"sorter"`
	Generator GeneratorConfig `yaml:"generator"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// SorterConfig configures the sorter command.
type SorterConfig struct {
	Threads    int             `yaml:"threads"`     // 0 = all CPUs
	MaxSize    string          `yaml:"max_size"`    // "512MiB", "2GB", "1048576"; empty = 1/8 of RAM
	Policy     filesort.Policy `yaml:"exec_policy"` // Sequential, FullPar, FilePar, RamPar
	StagingDir string          `yaml:"staging_dir"` // empty = next to the output
}

// GeneratorConfig configures the generator command.
type GeneratorConfig struct {
	ChunkSize int    `yaml:"chunk_size"` // values held in memory at once
	Seed      uint64 `yaml:"seed"`       // 0 = random
	Threads   int    `yaml:"threads"`    // 0 = all CPUs
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, console
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Sorter: SorterConfig{
			Policy: filesort.FullPar,
		},
		Generator: GeneratorConfig{
			ChunkSize: 1 << 22,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: FormatJSON,
		},
	}
}

// Load reads configuration from a YAML file and applies environment
// overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnvOverrides(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration to a YAML file.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}

func (c *Config) applyEnvOverrides() error {
	if v := os.Getenv(EnvThreads); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", EnvThreads, v, err)
		}
		c.Sorter.Threads = n
	}
	if v := os.Getenv(EnvMaxSize); v != "" {
		c.Sorter.MaxSize = v
	}
	if v := os.Getenv(EnvPolicy); v != "" {
		if err := c.Sorter.Policy.Set(v); err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPolicy, err)
		}
	}
	if v := os.Getenv(EnvStagingDir); v != "" {
		c.Sorter.StagingDir = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	return nil
}

// Validate checks the configuration for values no command can use.
func (c *Config) Validate() error {
	if c.Sorter.Threads < 0 {
		return fmt.Errorf("sorter.threads must not be negative, got %d", c.Sorter.Threads)
	}
	if _, err := c.Sorter.MaxSizeBytes(); err != nil {
		return err
	}
	if !c.Sorter.Policy.Valid() {
		return fmt.Errorf("invalid sorter.exec_policy: %v", c.Sorter.Policy)
	}
	if c.Generator.ChunkSize < 0 {
		return fmt.Errorf("generator.chunk_size must not be negative, got %d", c.Generator.ChunkSize)
	}
	if c.Generator.Threads < 0 {
		return fmt.Errorf("generator.threads must not be negative, got %d", c.Generator.Threads)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid logging.level: %w", err)
	}
	switch strings.ToLower(c.Logging.Format) {
	case FormatJSON, FormatConsole:
	default:
		return fmt.Errorf("invalid logging.format %q (valid: %s, %s)", c.Logging.Format, FormatJSON, FormatConsole)
	}
	return nil
}

// ThreadCount returns Threads, or the host parallelism when Threads is 0.
func (s SorterConfig) ThreadCount() int {
	if s.Threads > 0 {
		return s.Threads
	}
	return sysinfo.Parallelism()
}

// MaxSizeBytes parses MaxSize. An empty MaxSize means sysinfo.DefaultMaxRAM.
func (s SorterConfig) MaxSizeBytes() (int64, error) {
	if strings.TrimSpace(s.MaxSize) == "" {
		return int64(sysinfo.DefaultMaxRAM()), nil
	}
	return ParseSize(s.MaxSize)
}

// ThreadCount returns Threads, or the host parallelism when Threads is 0.
func (g GeneratorConfig) ThreadCount() int {
	if g.Threads > 0 {
		return g.Threads
	}
	return sysinfo.Parallelism()
}

// ParseSize parses a positive byte count such as "1048576", "512MiB" or
// "2GB".
func ParseSize(s string) (int64, error) {
	n, err := humanize.ParseBytes(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("invalid size %q: %w", s, err)
	}
	if n == 0 || n > 1<<62 {
		return 0, fmt.Errorf("invalid size %q: must be between 1 byte and 4EiB", s)
	}
	return int64(n), nil
}

// BuildLogger builds the process logger. verbose forces debug level.
func (c *Config) BuildLogger(verbose bool) (*zap.Logger, error) {
	var zc zap.Config
	if strings.EqualFold(c.Logging.Format, FormatConsole) {
		zc = zap.NewDevelopmentConfig()
	} else {
		zc = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(c.Logging.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid logging.level: %w", err)
	}
	if verbose {
		level = zapcore.DebugLevel
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	logger, err := zc.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

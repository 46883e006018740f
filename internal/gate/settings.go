// Package gate implements the offline network gate and the layered
// configuration resolver. Both are modeled as explicit capability handles
// with an init/teardown lifecycle, never ambient package-level globals.
package gate

import (
	"os"
	"strconv"

	"github.com/rexlit/rexlit/internal/rexerr"
)

// Settings is the fully resolved configuration for a RexLit process,
// produced by Resolve from CLI flags -> environment -> config file ->
// defaults.
type Settings struct {
	RootDir          string `yaml:"root_dir"`
	Workers          int    `yaml:"workers"`
	BatchSize        int    `yaml:"batch_size"`
	CommitEvery      int    `yaml:"commit_every"`
	Online           bool   `yaml:"online"`
	DenseDim         int    `yaml:"dense_dim"`
	EmbeddingAPIKey  string `yaml:"embedding_api_key"`
	EmbeddingAPIBase string `yaml:"embedding_api_base"`
	AuditPath        string `yaml:"audit_path"`
	LogLevel         string `yaml:"log_level"`
}

// Defaults returns the baseline settings before any override layer is
// applied.
func Defaults() Settings {
	return Settings{
		Workers:     0, // 0 => resolved to max(1, NumCPU-1) at use
		BatchSize:   100,
		CommitEvery: 1000,
		Online:      false,
		DenseDim:    768,
		AuditPath:   "audit/log.jsonl",
		LogLevel:    "info",
	}
}

// CLIOverrides carries the subset of Settings a CLI flag set may supply;
// zero values mean "not set on the command line" and are not applied.
type CLIOverrides struct {
	RootDir     *string
	Workers     *int
	BatchSize   *int
	CommitEvery *int
	Online      *bool
	DenseDim    *int
	LogLevel    *string
}

// Resolve applies, in increasing precedence, file config, environment
// variables, then CLI overrides, on top of Defaults().
func Resolve(fileConfig *Settings, cli CLIOverrides) (Settings, error) {
	s := Defaults()
	if fileConfig != nil {
		mergeNonZero(&s, *fileConfig)
	}
	applyEnv(&s)
	applyCLI(&s, cli)

	if s.RootDir == "" {
		return s, rexerr.New(rexerr.KindConfigError, "root_dir is required", nil)
	}
	if s.Workers <= 0 {
		s.Workers = defaultWorkers()
	}
	return s, nil
}

func mergeNonZero(dst *Settings, src Settings) {
	if src.RootDir != "" {
		dst.RootDir = src.RootDir
	}
	if src.Workers != 0 {
		dst.Workers = src.Workers
	}
	if src.BatchSize != 0 {
		dst.BatchSize = src.BatchSize
	}
	if src.CommitEvery != 0 {
		dst.CommitEvery = src.CommitEvery
	}
	dst.Online = dst.Online || src.Online
	if src.DenseDim != 0 {
		dst.DenseDim = src.DenseDim
	}
	if src.EmbeddingAPIKey != "" {
		dst.EmbeddingAPIKey = src.EmbeddingAPIKey
	}
	if src.EmbeddingAPIBase != "" {
		dst.EmbeddingAPIBase = src.EmbeddingAPIBase
	}
	if src.AuditPath != "" {
		dst.AuditPath = src.AuditPath
	}
	if src.LogLevel != "" {
		dst.LogLevel = src.LogLevel
	}
}

func applyEnv(s *Settings) {
	if v := os.Getenv("REXLIT_HOME"); v != "" {
		s.RootDir = v
	}
	if v := os.Getenv("REXLIT_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.Workers = n
		}
	}
	if v := os.Getenv("REXLIT_BATCH_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.BatchSize = n
		}
	}
	if v := os.Getenv("REXLIT_AUDIT_LOG"); v != "" {
		s.AuditPath = v
	}
	if v := os.Getenv("REXLIT_ONLINE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.Online = b
		}
	}
	if v := os.Getenv("REXLIT_LOG_LEVEL"); v != "" {
		s.LogLevel = v
	}
	if v := os.Getenv("REXLIT_EMBEDDING_API_KEY"); v != "" {
		s.EmbeddingAPIKey = v
	}
	if v := os.Getenv("REXLIT_EMBEDDING_API_BASE"); v != "" {
		s.EmbeddingAPIBase = v
	}
}

func applyCLI(s *Settings, cli CLIOverrides) {
	if cli.RootDir != nil {
		s.RootDir = *cli.RootDir
	}
	if cli.Workers != nil {
		s.Workers = *cli.Workers
	}
	if cli.BatchSize != nil {
		s.BatchSize = *cli.BatchSize
	}
	if cli.CommitEvery != nil {
		s.CommitEvery = *cli.CommitEvery
	}
	if cli.Online != nil {
		s.Online = *cli.Online
	}
	if cli.DenseDim != nil {
		s.DenseDim = *cli.DenseDim
	}
	if cli.LogLevel != nil {
		s.LogLevel = *cli.LogLevel
	}
}

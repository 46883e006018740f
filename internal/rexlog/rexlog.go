// Package rexlog builds the zap loggers every RexLit component takes as a
// constructor argument. There is no package-level global logger: each
// component is handed a *zap.Logger capability at construction, the way
// codeNERD's cmd/nerd wires a single *zap.Logger into its command tree.
package rexlog

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a production zap logger, with debug-level output when verbose
// is set. It mirrors the config codeNERD's CLI root command builds in
// PersistentPreRunE.
func New(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// NewLevel builds a production logger at an explicit level name
// ("debug", "info", "warn", "error"), used when resolving log_level from
// configuration rather than a boolean verbose flag.
func NewLevel(level string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return cfg.Build()
}

// Nop returns a no-op logger for tests and library defaults.
func Nop() *zap.Logger { return zap.NewNop() }

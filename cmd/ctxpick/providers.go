package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"ctxpick/internal/history"
	"ctxpick/internal/merge"
	"ctxpick/internal/metrics"
	"ctxpick/internal/session"
	"ctxpick/internal/source"
)

// ProvideLogger builds a slog logger writing to the rotating log file.
// Nothing goes to stderr: the TUI owns the terminal while the picker runs.
func ProvideLogger(cfg *Config) (*slog.Logger, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.LogFile), 0o755); err != nil {
		return nil, err
	}
	handler := slog.NewTextHandler(&lumberjack.Logger{
		Filename:   cfg.LogFile,
		MaxSize:    10, // megabytes
		MaxBackups: 3,
	}, nil)
	return slog.New(handler), nil
}

func ProvideFactory() *source.Factory {
	return source.NewFactory(nil)
}

// ProvideFilterConfig builds the extension filter with the configured
// overrides applied.
func ProvideFilterConfig(cfg *Config) *source.FilterConfig {
	filter := source.NewFilterConfig()
	for _, ext := range cfg.TextExtensions {
		filter.AddTextExtension(ext)
	}
	for _, ext := range cfg.BinaryExtensions {
		filter.AddBinaryExtension(ext)
	}
	return filter
}

// ProvideCounter selects the token counter: tiktoken when a model is
// configured and its encoding resolves, the size/4 estimator otherwise.
func ProvideCounter(cfg *Config) metrics.Counter {
	if cfg.TokenModel != "" {
		if c, err := metrics.NewTiktokenCounter(cfg.TokenModel); err == nil {
			return c
		}
	}
	return &metrics.SimpleCounter{}
}

func ProvideMetrics(counter metrics.Counter) *metrics.MergeMetrics {
	return metrics.NewMergeMetrics(counter)
}

func ProvideEngine(logger *slog.Logger, m *metrics.MergeMetrics) *merge.Engine {
	return merge.NewEngine(logger, m)
}

func ProvideController(factory *source.Factory, filter *source.FilterConfig, engine *merge.Engine, logger *slog.Logger) *session.Controller {
	return session.NewController(factory, filter, engine, logger)
}

func ProvideHistory(cfg *Config, logger *slog.Logger) (*history.Store, error) {
	if err := os.MkdirAll(filepath.Dir(cfg.HistoryDB), 0o755); err != nil {
		return nil, err
	}
	return history.Open(cfg.HistoryDB, logger)
}

package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/hayeah/goo"

	"ctxpick/internal/history"
	"ctxpick/internal/merge"
	"ctxpick/internal/metrics"
	"ctxpick/internal/session"
	"ctxpick/internal/ui"
)

// Config is loaded from the environment / config file via goo. Zero values
// fall back to per-user defaults under ~/.ctxpick.
type Config struct {
	DefaultSource    string   // source opened when the picker starts without an argument
	OutputPath       string   // default merge output file
	HistoryDB        string   // sqlite file for merge history
	LogFile          string   // rotating log file
	TokenModel       string   // tiktoken model name; empty selects the simple estimator
	TextExtensions   []string // extensions forced to text
	BinaryExtensions []string // extensions forced to binary
}

// stateDir returns the per-user directory for logs and the history db.
func stateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".ctxpick"
	}
	return filepath.Join(home, ".ctxpick")
}

func ProvideConfig() (*Config, error) {
	cfg, err := goo.ParseConfig[Config]("")
	if err != nil {
		return nil, err
	}

	if cfg.OutputPath == "" {
		cfg.OutputPath = "merged.txt"
	}
	if cfg.HistoryDB == "" {
		cfg.HistoryDB = filepath.Join(stateDir(), "history.db")
	}
	if cfg.LogFile == "" {
		cfg.LogFile = filepath.Join(stateDir(), "ctxpick.log")
	}
	return cfg, nil
}

// App holds the wired-up application. Run dispatches on the parsed
// subcommand.
type App struct {
	Args       *Args
	Config     *Config
	Logger     *slog.Logger
	Controller *session.Controller
	Engine     *merge.Engine
	Metrics    *metrics.MergeMetrics
	History    *history.Store
}

func (app *App) Run() error {
	switch {
	case app.Args.Out != nil:
		return app.runOut(app.Args.Out)
	case app.Args.History != nil:
		return app.runHistory(app.Args.History)
	case app.Args.Pick != nil:
		return app.runPick(app.Args.Pick.Source)
	default:
		return app.runPick("")
	}
}

// Close releases resources held by the app.
func (app *App) Close() error {
	return app.History.Close()
}

// runPick opens the interactive picker. The TUI owns the terminal from
// here; logs go to the rotating file, never to stderr.
func (app *App) runPick(target string) error {
	if target == "" {
		target = app.Config.DefaultSource
	}
	if target == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		target = wd
	}

	return ui.Run(ui.Options{
		Controller: app.Controller,
		Metrics:    app.Metrics,
		History:    app.History,
		Logger:     app.Logger,
		Target:     target,
		OutputPath: app.Config.OutputPath,
	})
}

package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/atotto/clipboard"

	"ctxpick/internal/history"
	"ctxpick/internal/merge"
	"ctxpick/internal/metrics"
	"ctxpick/internal/session"
	"ctxpick/internal/source"
)

// OutCmd contains the arguments for the 'out' subcommand.
type OutCmd struct {
	Source         string   `arg:"positional" help:"Directory path or https://github.com/... URL (defaults to config)"`
	Output         string   `arg:"-o,--output" help:"Output destination: '-' for stdout; file path to write; if not set, copy to clipboard"`
	Ext            []string `arg:"-e,--ext,separate" help:"Restrict output to files with this extension (repeatable; default all)"`
	BinaryExt      []string `arg:"--binary-ext,separate" help:"Treat extension as binary (repeatable)"`
	TokenEstimator string   `arg:"--token-estimator" help:"Token count estimator to use: 'simple' (size/4) or 'tiktoken'" default:"simple"`
}

// runOut merges every indexed file of the source in one shot, without the
// picker. The filter starts from the configured overrides and layers the
// command-line ones on top.
func (app *App) runOut(cmd *OutCmd) error {
	target := cmd.Source
	if target == "" {
		target = app.Config.DefaultSource
	}
	if target == "" {
		return fmt.Errorf("no source given and no DefaultSource configured")
	}

	var counter metrics.Counter
	switch cmd.TokenEstimator {
	case "tiktoken":
		c, err := metrics.NewTiktokenCounter(app.Config.TokenModel)
		if err != nil {
			counter = &metrics.SimpleCounter{}
		} else {
			counter = c
		}
	case "simple":
		counter = &metrics.SimpleCounter{}
	default:
		return fmt.Errorf("unknown token estimator: %s", cmd.TokenEstimator)
	}

	filter := ProvideFilterConfig(app.Config)
	for _, ext := range cmd.Ext {
		// A named extension must also survive indexing, even when the
		// built-in table classifies it as binary.
		filter.AddTextExtension(ext)
	}
	for _, ext := range cmd.BinaryExt {
		filter.AddBinaryExtension(ext)
	}

	ctx := context.Background()
	src, err := source.NewFactory(nil).Create(target)
	if err != nil {
		return err
	}
	files, err := src.Index(ctx, filter)
	if err != nil {
		return err
	}
	files = selectByExtension(files, cmd.Ext)
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	m := metrics.NewMergeMetrics(counter)
	engine := merge.NewEngine(app.Logger, m)
	content, merged, err := engine.Merge(ctx, src, files)
	if err != nil {
		return err
	}

	destLabel := ""
	switch {
	case cmd.Output == "-":
		if _, err := os.Stdout.WriteString(content); err != nil {
			return err
		}
		destLabel = "stdout"
	case cmd.Output != "":
		if err := os.WriteFile(cmd.Output, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
		destLabel = cmd.Output
	default:
		if err := clipboard.WriteAll(content); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
		fmt.Fprintln(os.Stderr, "Output copied to clipboard")
		destLabel = "Clipboard"
	}

	total := m.Total()
	if err := app.History.Record(history.Merge{
		Source:      target,
		FileCount:   merged,
		ByteCount:   total.Bytes,
		TokenCount:  total.Tokens,
		Destination: destLabel,
	}); err != nil {
		app.Logger.Error("record merge history", "error", err)
	}

	fmt.Fprintf(os.Stderr, "Merged %d files (%d bytes, ~%d tokens)\n", merged, total.Bytes, total.Tokens)
	return nil
}

// selectByExtension restricts files to the named display extensions,
// matched case-insensitively with or without a leading dot. An empty list
// selects everything.
func selectByExtension(files []source.SourceFile, exts []string) []source.SourceFile {
	if len(exts) == 0 {
		return files
	}
	want := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		want[strings.ToLower(strings.TrimPrefix(e, "."))] = struct{}{}
	}
	var out []source.SourceFile
	for _, f := range files {
		if _, ok := want[strings.ToLower(session.DisplayExtension(f.Path))]; ok {
			out = append(out, f)
		}
	}
	return out
}

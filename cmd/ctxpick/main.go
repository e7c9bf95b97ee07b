package main

import (
	"log"

	"github.com/alexflint/go-arg"
)

// Args defines the command-line arguments with subcommands. Running with
// no subcommand opens the interactive picker on the configured default
// source.
type Args struct {
	Pick    *PickCmd    `arg:"subcommand:pick" help:"Open the interactive picker on a directory or GitHub URL"`
	Out     *OutCmd     `arg:"subcommand:out" help:"Merge files non-interactively and write the result"`
	History *HistoryCmd `arg:"subcommand:history" help:"List recent merges"`
}

// PickCmd contains the arguments for the 'pick' subcommand.
type PickCmd struct {
	Source string `arg:"positional" help:"Directory path or https://github.com/... URL"`
}

func main() {
	var args Args
	arg.MustParse(&args)

	app, err := BuildApp(&args)
	if err != nil {
		log.Fatal(err)
	}
	defer app.Close()

	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}

package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// HistoryCmd contains the arguments for the 'history' subcommand.
type HistoryCmd struct {
	Limit int `arg:"-n,--limit" help:"Number of entries to show" default:"20"`
}

func (app *App) runHistory(cmd *HistoryCmd) error {
	merges, err := app.History.Recent(cmd.Limit)
	if err != nil {
		return err
	}
	if len(merges) == 0 {
		fmt.Println("No merges recorded yet.")
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"ID", "When", "Source", "Files", "Bytes", "Tokens", "Destination"})
	for _, m := range merges {
		table.Append([]string{
			strconv.FormatInt(m.ID, 10),
			m.CreatedAt.Format("2006-01-02 15:04"),
			m.Source,
			strconv.Itoa(m.FileCount),
			strconv.Itoa(m.ByteCount),
			strconv.Itoa(m.TokenCount),
			m.Destination,
		})
	}
	table.Render()
	return nil
}

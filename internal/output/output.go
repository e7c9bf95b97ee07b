// Package output delivers a merged blob to its destinations. Both sinks
// are plain byte writes; the merge engine never calls this package.
package output

import (
	"errors"
	"fmt"
	"os"

	"github.com/atotto/clipboard"
)

// Destination selects where a merge result goes.
type Destination int

const (
	FileAndClipboard Destination = iota
	File
	Clipboard
)

// Destinations lists the selectable values in display order.
var Destinations = []Destination{FileAndClipboard, File, Clipboard}

func (d Destination) String() string {
	switch d {
	case FileAndClipboard:
		return "File + Clipboard"
	case File:
		return "File"
	case Clipboard:
		return "Clipboard"
	default:
		return fmt.Sprintf("Destination(%d)", int(d))
	}
}

// NeedsFile reports whether the destination writes to a file path.
func (d Destination) NeedsFile() bool {
	return d == File || d == FileAndClipboard
}

// NeedsClipboard reports whether the destination pushes to the clipboard.
func (d Destination) NeedsClipboard() bool {
	return d == Clipboard || d == FileAndClipboard
}

// Write delivers content to the chosen destination. path is required when
// the destination includes a file.
func Write(dest Destination, path, content string) error {
	if dest.NeedsFile() {
		if path == "" {
			return errors.New("output file path is empty")
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return fmt.Errorf("write output file: %w", err)
		}
	}
	if dest.NeedsClipboard() {
		if err := clipboard.WriteAll(content); err != nil {
			return fmt.Errorf("copy to clipboard: %w", err)
		}
	}
	return nil
}

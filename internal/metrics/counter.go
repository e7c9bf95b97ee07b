// Package metrics provides token/byte/line counting for merged output.
// Token counting is a pass-through to the tiktoken library; the simple
// counter is a bytes/4 estimate for when an exact count is not worth the
// encoder startup cost.
package metrics

import (
	"bytes"
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Counter counts bytes, tokens, and lines in text.
type Counter interface {
	Count(text string) (bytes, tokens, lines int)
}

// SimpleCounter estimates tokens as bytes/4 (~4 bytes per English token).
type SimpleCounter struct{}

func (c *SimpleCounter) Count(text string) (int, int, int) {
	return len(text), len(text) / 4, countLines(text)
}

// TiktokenCounter counts tokens with a tiktoken encoding. The encoding is
// resolved once at construction: by model name first, falling back to
// o200k_base for unknown models.
type TiktokenCounter struct {
	encoding *tiktoken.Tiktoken
}

// NewTiktokenCounter builds a counter for the given model name.
func NewTiktokenCounter(model string) (*TiktokenCounter, error) {
	encoding, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoding, err = tiktoken.GetEncoding("o200k_base")
		if err != nil {
			return nil, fmt.Errorf("resolve tiktoken encoding for %q: %w", model, err)
		}
	}
	return &TiktokenCounter{encoding: encoding}, nil
}

func (c *TiktokenCounter) Count(text string) (int, int, int) {
	tokens := c.encoding.Encode(text, nil, nil)
	return len(text), len(tokens), countLines(text)
}

func countLines(text string) int {
	return bytes.Count([]byte(text), []byte{'\n'}) + 1
}

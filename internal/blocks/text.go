package blocks

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
)

// TextSource reads plain text, one block per non-empty line.
type TextSource struct{}

func (s *TextSource) SupportedFormats() []string { return []string{"txt", "text", "md"} }

func (s *TextSource) Read(_ context.Context, r io.Reader) ([]Block, error) {
	var out []Block
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimRight(sc.Text(), " \t\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, Block{Text: line})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading text: %w", err)
	}
	return out, nil
}

// FromLines builds a block stream from already-split lines. Conversion from
// pasted text and tests go through here.
func FromLines(lines []string) []Block {
	out := make([]Block, 0, len(lines))
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, Block{Text: l})
	}
	return out
}

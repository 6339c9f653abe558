package blocks

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/ledongthuc/pdf"
)

// PDFSource extracts page text and emits one block per line. PDF image
// extraction is not supported; blocks from this source are text-only.
type PDFSource struct{}

func (s *PDFSource) SupportedFormats() []string { return []string{"pdf"} }

func (s *PDFSource) Read(_ context.Context, r io.Reader) ([]Block, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading pdf: %w", err)
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("opening pdf: %w", err)
	}

	var out []Block
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// skip pages that fail to extract
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			if strings.TrimSpace(line) == "" {
				continue
			}
			out = append(out, Block{Text: strings.TrimRight(line, " \t\r")})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no text extracted from pdf")
	}
	return out, nil
}

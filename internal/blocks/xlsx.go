package blocks

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
)

// XLSXSource reads questions authored in a spreadsheet: each non-empty row
// becomes one block, cells joined left to right with a single space.
type XLSXSource struct{}

func (s *XLSXSource) SupportedFormats() []string { return []string{"xlsx"} }

func (s *XLSXSource) Read(_ context.Context, r io.Reader) ([]Block, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening xlsx: %w", err)
	}
	defer f.Close()

	var out []Block
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			cells := make([]string, 0, len(row))
			for _, c := range row {
				if t := strings.TrimSpace(c); t != "" {
					cells = append(cells, t)
				}
			}
			if len(cells) == 0 {
				continue
			}
			out = append(out, Block{Text: strings.Join(cells, " ")})
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no data found in xlsx")
	}
	return out, nil
}

package processor

import (
	"fmt"
	"log"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	// cellGap is the horizontal gap in points that separates two cells
	// within a positioned text row.
	cellGap = 18.0
	// minTableRows is the minimum run of multi-cell rows that counts as a
	// table rather than incidental column-like layout.
	minTableRows = 2
)

// PageTable is one detected table: rows of cell strings on one page.
type PageTable struct {
	Page int
	Rows [][]string
}

// Serialize renders the table as one string, one row per line with cells
// joined by " | ". This is the representation stored for embedding.
func (t PageTable) Serialize() string {
	lines := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		lines[i] = strings.Join(row, " | ")
	}
	return strings.Join(lines, "\n")
}

// ExtractTables detects tabular content per page from positioned text rows.
// A row splits into cells at large horizontal gaps; a run of at least
// minTableRows consecutive multi-cell rows is reported as a table. Best
// effort: pages that fail to decode are logged and skipped.
func ExtractTables(filePath string) ([]PageTable, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open PDF: %w", err)
	}
	defer f.Close()

	var tables []PageTable
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}

		rows, err := page.GetTextByRow()
		if err != nil {
			log.Printf("Warning: failed to read rows on page %d: %v", i, err)
			continue
		}

		tables = append(tables, detectTables(i, rows)...)
	}

	return tables, nil
}

// detectTables groups consecutive multi-cell rows into tables.
func detectTables(pageNum int, rows pdf.Rows) []PageTable {
	var tables []PageTable
	var current [][]string

	flush := func() {
		if len(current) >= minTableRows {
			tables = append(tables, PageTable{Page: pageNum, Rows: current})
		}
		current = nil
	}

	for _, row := range rows {
		cells := splitCells(row)
		if len(cells) >= 2 {
			current = append(current, cells)
			continue
		}
		flush()
	}
	flush()

	return tables
}

// splitCells merges the positioned text fragments of one row into cell
// strings, starting a new cell wherever the horizontal gap exceeds cellGap.
func splitCells(row *pdf.Row) []string {
	var cells []string
	var cell strings.Builder
	prevEnd := -1.0

	for _, word := range row.Content {
		if prevEnd >= 0 && word.X-prevEnd > cellGap && cell.Len() > 0 {
			cells = append(cells, strings.TrimSpace(cell.String()))
			cell.Reset()
		}
		cell.WriteString(word.S)
		prevEnd = word.X + word.W
	}
	if strings.TrimSpace(cell.String()) != "" {
		cells = append(cells, strings.TrimSpace(cell.String()))
	}

	return cells
}

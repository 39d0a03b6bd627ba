// Package csvpreview renders CSV files as sortable HTML tables for the
// generated site. The delimiter is sniffed from the content and the first
// row is promoted to a header only when it looks like one.
package csvpreview

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"html"
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// Render converts raw CSV bytes into the preview fragment. maxRows bounds
// the rendered data rows; zero or negative means unlimited. A leading UTF-8
// byte order mark is stripped so the first header cell stays clean.
func Render(data []byte, maxRows int) (string, error) {
	decoded, err := io.ReadAll(transform.NewReader(bytes.NewReader(data), unicode.UTF8BOM.NewDecoder()))
	if err != nil {
		return "", fmt.Errorf("decode csv: %w", err)
	}

	r := csv.NewReader(bytes.NewReader(decoded))
	r.Comma = detectDelimiter(decoded)
	r.FieldsPerRecord = -1
	// Hand-edited files carry stray quotes; keep them literal instead of
	// failing the preview.
	r.LazyQuotes = true

	// Read a couple rows past the cap so the truncation notice can tell
	// capped output from an exact fit.
	readCap := -1
	if maxRows > 0 {
		readCap = maxRows + 2
	}

	var rows [][]string
	truncated := false
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("parse csv record: %w", err)
		}
		if readCap >= 0 && len(rows) >= readCap {
			truncated = true
			break
		}
		rows = append(rows, rec)
	}

	if len(rows) == 0 {
		return `<div class="csv-preview"><div class="csv-empty">Empty CSV.</div></div>`, nil
	}

	var header []string
	if len(rows) >= 2 && isHeaderRow(rows[0], rows[1]) {
		header = rows[0]
	}
	dataRows := rows
	if header != nil {
		dataRows = rows[1:]
	}

	dataTruncated := truncated
	if maxRows > 0 && len(dataRows) > maxRows {
		dataRows = dataRows[:maxRows]
		dataTruncated = true
	}

	maxCols := len(header)
	for _, row := range dataRows {
		if len(row) > maxCols {
			maxCols = len(row)
		}
	}
	if maxCols == 0 {
		maxCols = 1
	}

	if header == nil {
		header = make([]string, maxCols)
		for i := range header {
			header[i] = fmt.Sprintf("Column %d", i+1)
		}
	}

	var b strings.Builder
	b.WriteString(`<div class="csv-preview">`)
	if dataTruncated {
		fmt.Fprintf(&b, `<div class="csv-notice">Showing first %d rows.</div>`, len(dataRows))
	}
	b.WriteString(`<div class="csv-table-wrap">`)
	b.WriteString(`<table class="csv-table">`)
	b.WriteString("<thead><tr>")
	for i := 0; i < maxCols; i++ {
		label := ""
		if i < len(header) {
			label = header[i]
		}
		fmt.Fprintf(&b, `<th scope="col">%s</th>`, html.EscapeString(label))
	}
	b.WriteString("</tr></thead><tbody>")
	for _, row := range dataRows {
		b.WriteString("<tr>")
		for i := 0; i < maxCols; i++ {
			v := ""
			if i < len(row) {
				v = row[i]
			}
			fmt.Fprintf(&b, "<td>%s</td>", html.EscapeString(v))
		}
		b.WriteString("</tr>")
	}
	b.WriteString("</tbody></table></div>")
	b.WriteString("</div>")
	b.WriteString(sortScript)
	return b.String(), nil
}

var delimiterCandidates = []byte{',', ';', '\t', '|'}

// detectDelimiter picks the candidate whose per-line counts are high and
// even. Ties keep the earlier candidate, so comma wins by default.
func detectDelimiter(data []byte) rune {
	best := byte(',')
	bestScore := math.MinInt
	for _, cand := range delimiterCandidates {
		if score := delimiterScore(data, cand); score > bestScore {
			bestScore, best = score, cand
		}
	}
	return rune(best)
}

func delimiterScore(data []byte, delimiter byte) int {
	var counts []int
	current := 0
	inQuotes := false
	for i := 0; i < len(data); i++ {
		b := data[i]
		if b == '"' {
			if inQuotes && i+1 < len(data) && data[i+1] == '"' {
				i++
			} else {
				inQuotes = !inQuotes
			}
		} else if !inQuotes && b == delimiter {
			current++
		} else if b == '\n' {
			counts = append(counts, current)
			current = 0
		}
	}
	if current > 0 || len(counts) > 0 {
		counts = append(counts, current)
	}
	if len(counts) == 0 {
		return 0
	}

	sum, maxCount, minCount, zeroLines := 0, counts[0], counts[0], 0
	for _, c := range counts {
		sum += c
		if c > maxCount {
			maxCount = c
		}
		if c < minCount {
			minCount = c
		}
		if c == 0 {
			zeroLines++
		}
	}
	if zeroLines == len(counts) {
		return 0
	}

	mean := float32(sum) / float32(len(counts))
	return int(mean*100) - (maxCount-minCount)*10 - zeroLines*25
}

// isHeaderRow decides whether first is a header by comparing its text and
// number makeup against the row below it.
func isHeaderRow(first, second []string) bool {
	if len(first) == 0 || len(second) == 0 {
		return false
	}
	cols := max(len(first), len(second))
	firstNumeric, firstText := classifyCells(first)
	secondNumeric, secondText := classifyCells(second)

	strongHeader := firstText >= (cols+1)/2 && firstNumeric < secondNumeric
	textHeavier := firstText > secondText && firstNumeric <= secondNumeric
	return strongHeader || textHeavier
}

func classifyCells(row []string) (numeric, text int) {
	for _, cell := range row {
		switch {
		case isNumericCell(cell):
			numeric++
		case strings.TrimSpace(cell) != "":
			text++
		}
	}
	return numeric, text
}

func isNumericCell(v string) bool {
	t := strings.TrimSpace(v)
	if t == "" {
		return false
	}
	_, err := strconv.ParseFloat(t, 64)
	return err == nil
}

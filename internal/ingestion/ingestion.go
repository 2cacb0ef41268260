// Package ingestion reads the four CSV extracts that feed a pipeline run:
// opportunities, accounts, FX rates, and the stage mapping.
//
// Row-level policy: a structurally broken row (unreadable CSV, missing
// primary key) is skipped and reported as a RowError; a row with a merely
// unparseable optional value keeps the row and nils the field. Data-quality
// judgments beyond that belong to the quality checker, not the reader.
package ingestion

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// ErrMissingColumn indicates the CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// RowError describes one skipped input row.
type RowError struct {
	Line   int    // 1-based line number in the source file, header included
	Reason string
}

func (e RowError) String() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

// header maps lower-cased column names to field indexes.
type header map[string]int

func readHeader(r *csv.Reader, required ...string) (header, error) {
	row, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	h := make(header, len(row))
	for i, name := range row {
		h[strings.ToLower(strings.TrimSpace(name))] = i
	}

	for _, name := range required {
		if _, ok := h[strings.ToLower(name)]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}
	return h, nil
}

// field returns the trimmed cell under the named column, or "" when the
// column is absent or the row is short.
func (h header) field(row []string, name string) string {
	i, ok := h[strings.ToLower(name)]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func newCSVReader(r io.Reader) *csv.Reader {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // ragged rows handled per-field
	return cr
}

// parseFloat returns nil for empty or unparseable input.
func parseFloat(s string) *float64 {
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	return &v
}

// timeLayouts covers the formats the CRM extracts actually produce:
// RFC3339 timestamps, naive timestamps, and bare dates.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05.000",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseTime returns nil for empty or unparseable input. Naive values are
// taken as UTC.
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	return nil
}

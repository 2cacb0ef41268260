package ingestion

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"crm-fact-pipeline/internal/domain"
)

// ReadFxRates parses the FX reference table (currency, rate_to_usd,
// rate_date). A rate row is only useful complete, so any missing or
// unparseable cell skips the row. Currency codes are upper-cased.
// Re-stated (currency, date) pairs keep the last occurrence; the
// superseded one is reported as skipped, never fatal.
func ReadFxRates(r io.Reader) ([]domain.FxRate, []RowError, error) {
	cr := newCSVReader(r)

	h, err := readHeader(cr, "currency", "rate_to_usd", "rate_date")
	if err != nil {
		return nil, nil, fmt.Errorf("fx rates: %w", err)
	}

	var (
		rates   []domain.FxRate
		skipped []RowError
	)
	index := make(map[string]int) // (currency, date) -> position in rates
	line := 1
	for {
		line++
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Reason: fmt.Sprintf("unreadable row: %v", err)})
			continue
		}

		currency := strings.ToUpper(h.field(row, "currency"))
		if currency == "" {
			skipped = append(skipped, RowError{Line: line, Reason: "missing currency"})
			continue
		}

		rate, err := strconv.ParseFloat(h.field(row, "rate_to_usd"), 64)
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Reason: "invalid rate_to_usd"})
			continue
		}

		date := parseTime(h.field(row, "rate_date"))
		if date == nil {
			skipped = append(skipped, RowError{Line: line, Reason: "invalid rate_date"})
			continue
		}

		parsed := domain.FxRate{
			CurrencyCode: currency,
			AsOfDate:     *date,
			RateToUSD:    rate,
		}
		key := currency + "|" + date.Format("2006-01-02")
		if i, dup := index[key]; dup {
			rates[i] = parsed
			skipped = append(skipped, RowError{Line: line, Reason: fmt.Sprintf("duplicate rate for %s on %s, replaces earlier row", currency, date.Format("2006-01-02"))})
			continue
		}
		index[key] = len(rates)
		rates = append(rates, parsed)
	}

	return rates, skipped, nil
}

// ReadStageMappings parses the stage mapping table (source_stage, std_stage).
// A re-stated source stage keeps the last occurrence.
func ReadStageMappings(r io.Reader) ([]domain.StageMapping, []RowError, error) {
	cr := newCSVReader(r)

	h, err := readHeader(cr, "source_stage", "std_stage")
	if err != nil {
		return nil, nil, fmt.Errorf("stage mappings: %w", err)
	}

	var (
		mappings []domain.StageMapping
		skipped  []RowError
	)
	index := make(map[string]int) // source stage -> position in mappings
	line := 1
	for {
		line++
		row, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			skipped = append(skipped, RowError{Line: line, Reason: fmt.Sprintf("unreadable row: %v", err)})
			continue
		}

		raw := h.field(row, "source_stage")
		std := h.field(row, "std_stage")
		if raw == "" || std == "" {
			skipped = append(skipped, RowError{Line: line, Reason: "incomplete stage mapping"})
			continue
		}

		parsed := domain.StageMapping{
			RawStage:      raw,
			StandardStage: std,
		}
		if i, dup := index[raw]; dup {
			mappings[i] = parsed
			skipped = append(skipped, RowError{Line: line, Reason: fmt.Sprintf("duplicate mapping for stage %q, replaces earlier row", raw)})
			continue
		}
		index[raw] = len(mappings)
		mappings = append(mappings, parsed)
	}

	return mappings, skipped, nil
}

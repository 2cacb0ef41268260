package ingestion

import (
	"errors"
	"fmt"
	"io"

	"crm-fact-pipeline/internal/domain"
)

// Header names of the opportunity extract. Extracts may carry extra
// columns (IsWon, IsClosed, ...); they are ignored.
const (
	colID           = "Id"
	colAccountID    = "AccountId"
	colName         = "Name"
	colStageName    = "StageName"
	colAmount       = "Amount"
	colCurrency     = "CurrencyIsoCode"
	colProbability  = "Probability"
	colCloseDate    = "CloseDate"
	colCreatedDate  = "CreatedDate"
	colLastModified = "LastModifiedDate"
	colOwnerEmail   = "OwnerEmail"
	colPhone        = "Phone"
)

// ReadOpportunities parses the opportunity extract. Rows without an Id and
// rows the CSV reader cannot parse are skipped and reported; unparseable
// optional values (amounts, probabilities, dates) nil the field and keep
// the row.
func ReadOpportunities(r io.Reader) ([]*domain.OpportunityRecord, []RowError, error) {
	cr := newCSVReader(r)

	h, err := readHeader(cr, colID)
	if err != nil {
		return nil, nil, fmt.Errorf("opportunities: %w", err)
	}

	var (
		records []*domain.OpportunityRecord
		skipped []RowError
	)
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

		id := h.field(row, colID)
		if id == "" {
			skipped = append(skipped, RowError{Line: line, Reason: "missing opportunity id"})
			continue
		}

		records = append(records, &domain.OpportunityRecord{
			ID:               id,
			AccountID:        h.field(row, colAccountID),
			Name:             h.field(row, colName),
			StageName:        h.field(row, colStageName),
			Amount:           parseFloat(h.field(row, colAmount)),
			CurrencyCode:     h.field(row, colCurrency),
			Probability:      parseFloat(h.field(row, colProbability)),
			CloseDate:        parseTime(h.field(row, colCloseDate)),
			CreatedDate:      parseTime(h.field(row, colCreatedDate)),
			LastModifiedDate: parseTime(h.field(row, colLastModified)),
			OwnerEmail:       h.field(row, colOwnerEmail),
			Phone:            h.field(row, colPhone),
		})
	}

	return records, skipped, nil
}

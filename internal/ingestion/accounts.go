package ingestion

import (
	"errors"
	"fmt"
	"io"

	"crm-fact-pipeline/internal/domain"
)

// ReadAccounts parses the account extract (Id, Name, Industry).
// A re-stated account id keeps the last occurrence; the superseded
// row is reported as skipped.
func ReadAccounts(r io.Reader) ([]domain.Account, []RowError, error) {
	cr := newCSVReader(r)

	h, err := readHeader(cr, "Id")
	if err != nil {
		return nil, nil, fmt.Errorf("accounts: %w", err)
	}

	var (
		accounts []domain.Account
		skipped  []RowError
	)
	index := make(map[string]int) // account id -> position in accounts
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

		id := h.field(row, "Id")
		if id == "" {
			skipped = append(skipped, RowError{Line: line, Reason: "missing account id"})
			continue
		}

		parsed := domain.Account{
			ID:       id,
			Name:     h.field(row, "Name"),
			Industry: h.field(row, "Industry"),
		}
		if i, dup := index[id]; dup {
			accounts[i] = parsed
			skipped = append(skipped, RowError{Line: line, Reason: fmt.Sprintf("duplicate account id %s, replaces earlier row", id)})
			continue
		}
		index[id] = len(accounts)
		accounts = append(accounts, parsed)
	}

	return accounts, skipped, nil
}

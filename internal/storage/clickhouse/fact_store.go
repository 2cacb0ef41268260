package clickhouse

import (
	"context"
	"fmt"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/storage"
)

// FactStore implements storage.FactStore using ClickHouse.
// MergeTree does not enforce uniqueness, so the full-refresh contract is
// implemented as TRUNCATE followed by a single batch insert.
type FactStore struct {
	conn *Conn
}

// NewFactStore creates a new FactStore.
func NewFactStore(conn *Conn) *FactStore {
	return &FactStore{conn: conn}
}

// Compile-time interface check.
var _ storage.FactStore = (*FactStore)(nil)

// ReplaceAll swaps the stored facts for the given set.
// Returns ErrDuplicateKey if the batch repeats an opportunity id.
func (s *FactStore) ReplaceAll(ctx context.Context, facts []*domain.OpportunityFact) error {
	seen := make(map[string]struct{}, len(facts))
	for _, f := range facts {
		if f == nil || f.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[f.ID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[f.ID] = struct{}{}
	}

	if err := s.conn.Exec(ctx, `TRUNCATE TABLE opportunity_facts`); err != nil {
		return fmt.Errorf("truncate facts: %w", err)
	}

	if len(facts) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO opportunity_facts (
			id, account_id, account_name, account_industry, name,
			stage_name, stage_std, amount, currency_code, fx_rate_used,
			amount_usd, expected_revenue_usd, probability,
			close_date, created_date, last_modified_date,
			sales_cycle_days, owner_email_hash, phone_normalized, is_won, is_lost
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, f := range facts {
		err = batch.Append(
			f.ID, f.AccountID, f.AccountName, f.AccountIndustry, f.Name,
			f.StageName, f.StageStd, f.Amount, f.CurrencyCode, f.FxRateUsed,
			f.AmountUSD, f.ExpectedRevenueUSD, f.Probability,
			f.CloseDate, f.CreatedDate, f.LastModifiedDate,
			f.SalesCycleDays, f.OwnerEmailHash, f.PhoneNormalized,
			boolToUInt8(f.IsWon), boolToUInt8(f.IsLost),
		)
		if err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetAll retrieves all facts in canonical order.
func (s *FactStore) GetAll(ctx context.Context) ([]*domain.OpportunityFact, error) {
	query := `
		SELECT id, account_id, account_name, account_industry, name,
		       stage_name, stage_std, amount, currency_code, fx_rate_used,
		       amount_usd, expected_revenue_usd, probability,
		       close_date, created_date, last_modified_date,
		       sales_cycle_days, owner_email_hash, phone_normalized, is_won, is_lost
		FROM opportunity_facts
		ORDER BY close_date ASC NULLS LAST, id ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query facts: %w", err)
	}
	defer rows.Close()

	return scanFactRows(rows)
}

// chRows abstracts driver.Rows for scan helpers.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanFactRows(rows chRows) ([]*domain.OpportunityFact, error) {
	var facts []*domain.OpportunityFact

	for rows.Next() {
		var f domain.OpportunityFact
		var isWon, isLost uint8

		err := rows.Scan(
			&f.ID, &f.AccountID, &f.AccountName, &f.AccountIndustry, &f.Name,
			&f.StageName, &f.StageStd, &f.Amount, &f.CurrencyCode, &f.FxRateUsed,
			&f.AmountUSD, &f.ExpectedRevenueUSD, &f.Probability,
			&f.CloseDate, &f.CreatedDate, &f.LastModifiedDate,
			&f.SalesCycleDays, &f.OwnerEmailHash, &f.PhoneNormalized,
			&isWon, &isLost,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fact row: %w", err)
		}

		f.IsWon = isWon != 0
		f.IsLost = isLost != 0
		facts = append(facts, &f)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fact rows: %w", err)
	}

	return facts, nil
}

func boolToUInt8(b bool) uint8 {
	if b {
		return 1
	}
	return 0
}

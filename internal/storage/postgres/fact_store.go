package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/storage"
)

// FactStore implements storage.FactStore using PostgreSQL.
// Writes the opportunities_transformed table the way the loader always
// has: full refresh, delete-then-insert in one transaction.
type FactStore struct {
	pool *Pool
}

// NewFactStore creates a new FactStore.
func NewFactStore(pool *Pool) *FactStore {
	return &FactStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FactStore = (*FactStore)(nil)

// ReplaceAll swaps the stored facts for the given set atomically.
// Returns ErrDuplicateKey if the batch repeats an opportunity id.
func (s *FactStore) ReplaceAll(ctx context.Context, facts []*domain.OpportunityFact) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM opportunities_transformed`); err != nil {
		return fmt.Errorf("clear facts: %w", err)
	}

	query := `
		INSERT INTO opportunities_transformed (
			id, account_id, account_name, account_industry, name,
			stage_name, stage_std, amount, currency_code, fx_rate_used,
			amount_usd, expected_revenue_usd, probability,
			close_date, created_date, last_modified_date,
			sales_cycle_days, owner_email_hash, phone_normalized, is_won, is_lost
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
		          $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
	`

	for _, f := range facts {
		if f == nil || f.ID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			f.ID,
			f.AccountID,
			f.AccountName,
			f.AccountIndustry,
			f.Name,
			f.StageName,
			f.StageStd,
			f.Amount,
			f.CurrencyCode,
			f.FxRateUsed,
			f.AmountUSD,
			f.ExpectedRevenueUSD,
			f.Probability,
			f.CloseDate,
			f.CreatedDate,
			f.LastModifiedDate,
			f.SalesCycleDays,
			f.OwnerEmailHash,
			f.PhoneNormalized,
			f.IsWon,
			f.IsLost,
		)
		if err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert fact: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
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
		FROM opportunities_transformed
		ORDER BY close_date ASC NULLS LAST, id ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get facts: %w", err)
	}
	defer rows.Close()

	return scanFacts(rows)
}

func scanFacts(rows pgx.Rows) ([]*domain.OpportunityFact, error) {
	var result []*domain.OpportunityFact
	for rows.Next() {
		var f domain.OpportunityFact
		err := rows.Scan(
			&f.ID,
			&f.AccountID,
			&f.AccountName,
			&f.AccountIndustry,
			&f.Name,
			&f.StageName,
			&f.StageStd,
			&f.Amount,
			&f.CurrencyCode,
			&f.FxRateUsed,
			&f.AmountUSD,
			&f.ExpectedRevenueUSD,
			&f.Probability,
			&f.CloseDate,
			&f.CreatedDate,
			&f.LastModifiedDate,
			&f.SalesCycleDays,
			&f.OwnerEmailHash,
			&f.PhoneNormalized,
			&f.IsWon,
			&f.IsLost,
		)
		if err != nil {
			return nil, fmt.Errorf("scan fact: %w", err)
		}
		result = append(result, &f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate facts: %w", err)
	}
	return result, nil
}

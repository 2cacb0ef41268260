package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/storage"
)

// OpportunityStore implements storage.OpportunityStore using PostgreSQL.
// The opportunities_raw staging table keeps every extracted version; the
// row_seq serial preserves extract order for the dedup tie-break.
type OpportunityStore struct {
	pool *Pool
}

// NewOpportunityStore creates a new OpportunityStore.
func NewOpportunityStore(pool *Pool) *OpportunityStore {
	return &OpportunityStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OpportunityStore = (*OpportunityStore)(nil)

// InsertBulk appends raw rows atomically, preserving input order.
func (s *OpportunityStore) InsertBulk(ctx context.Context, records []*domain.OpportunityRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO opportunities_raw (
			id, account_id, name, stage_name, amount, currency_code, probability,
			close_date, created_date, last_modified_date, owner_email, phone
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	for _, r := range records {
		if r == nil || r.ID == "" {
			return storage.ErrInvalidInput
		}
		_, err := tx.Exec(ctx, query,
			r.ID,
			r.AccountID,
			r.Name,
			r.StageName,
			r.Amount,
			r.CurrencyCode,
			r.Probability,
			r.CloseDate,
			r.CreatedDate,
			r.LastModifiedDate,
			r.OwnerEmail,
			r.Phone,
		)
		if err != nil {
			return fmt.Errorf("insert opportunity in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all rows in insertion order.
func (s *OpportunityStore) GetAll(ctx context.Context) ([]*domain.OpportunityRecord, error) {
	query := `
		SELECT id, account_id, name, stage_name, amount, currency_code, probability,
		       close_date, created_date, last_modified_date, owner_email, phone
		FROM opportunities_raw
		ORDER BY row_seq ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get opportunities: %w", err)
	}
	defer rows.Close()

	return scanOpportunities(rows)
}

func scanOpportunities(rows pgx.Rows) ([]*domain.OpportunityRecord, error) {
	var result []*domain.OpportunityRecord
	for rows.Next() {
		var r domain.OpportunityRecord
		err := rows.Scan(
			&r.ID,
			&r.AccountID,
			&r.Name,
			&r.StageName,
			&r.Amount,
			&r.CurrencyCode,
			&r.Probability,
			&r.CloseDate,
			&r.CreatedDate,
			&r.LastModifiedDate,
			&r.OwnerEmail,
			&r.Phone,
		)
		if err != nil {
			return nil, fmt.Errorf("scan opportunity: %w", err)
		}
		result = append(result, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate opportunities: %w", err)
	}
	return result, nil
}

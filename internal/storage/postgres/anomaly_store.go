package postgres

import (
	"context"
	"fmt"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/storage"
)

// AnomalyStore implements storage.AnomalyStore using PostgreSQL.
// Full refresh per run, like FactStore.
type AnomalyStore struct {
	pool *Pool
}

// NewAnomalyStore creates a new AnomalyStore.
func NewAnomalyStore(pool *Pool) *AnomalyStore {
	return &AnomalyStore{pool: pool}
}

// Compile-time interface check.
var _ storage.AnomalyStore = (*AnomalyStore)(nil)

// ReplaceAll swaps the stored anomalies for the given set atomically.
func (s *AnomalyStore) ReplaceAll(ctx context.Context, anomalies []domain.Anomaly) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM opportunities_anomalies`); err != nil {
		return fmt.Errorf("clear anomalies: %w", err)
	}

	query := `INSERT INTO opportunities_anomalies (opportunity_id, code, detail) VALUES ($1, $2, $3)`

	for _, a := range anomalies {
		if a.OpportunityID == "" || a.Code == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, query, a.OpportunityID, a.Code, a.Detail); err != nil {
			return fmt.Errorf("insert anomaly: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all anomalies in canonical order.
func (s *AnomalyStore) GetAll(ctx context.Context) ([]domain.Anomaly, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT opportunity_id, code, detail
		FROM opportunities_anomalies
		ORDER BY opportunity_id ASC, code ASC, seq ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get anomalies: %w", err)
	}
	defer rows.Close()

	var result []domain.Anomaly
	for rows.Next() {
		var a domain.Anomaly
		if err := rows.Scan(&a.OpportunityID, &a.Code, &a.Detail); err != nil {
			return nil, fmt.Errorf("scan anomaly: %w", err)
		}
		result = append(result, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anomalies: %w", err)
	}
	return result, nil
}

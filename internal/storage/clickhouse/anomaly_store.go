package clickhouse

import (
	"context"
	"fmt"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/storage"
)

// AnomalyStore implements storage.AnomalyStore using ClickHouse.
type AnomalyStore struct {
	conn *Conn
}

// NewAnomalyStore creates a new AnomalyStore.
func NewAnomalyStore(conn *Conn) *AnomalyStore {
	return &AnomalyStore{conn: conn}
}

// Compile-time interface check.
var _ storage.AnomalyStore = (*AnomalyStore)(nil)

// ReplaceAll swaps the stored anomalies for the given set.
func (s *AnomalyStore) ReplaceAll(ctx context.Context, anomalies []domain.Anomaly) error {
	for _, a := range anomalies {
		if a.OpportunityID == "" || a.Code == "" {
			return storage.ErrInvalidInput
		}
	}

	if err := s.conn.Exec(ctx, `TRUNCATE TABLE opportunity_anomalies`); err != nil {
		return fmt.Errorf("truncate anomalies: %w", err)
	}

	if len(anomalies) == 0 {
		return nil
	}

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO opportunity_anomalies (opportunity_id, code, detail)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, a := range anomalies {
		if err := batch.Append(a.OpportunityID, a.Code, a.Detail); err != nil {
			return fmt.Errorf("append to batch: %w", err)
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}

	return nil
}

// GetAll retrieves all anomalies ordered by (opportunity_id, code).
func (s *AnomalyStore) GetAll(ctx context.Context) ([]domain.Anomaly, error) {
	query := `
		SELECT opportunity_id, code, detail
		FROM opportunity_anomalies
		ORDER BY opportunity_id ASC, code ASC
	`

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query anomalies: %w", err)
	}
	defer rows.Close()

	var result []domain.Anomaly
	for rows.Next() {
		var a domain.Anomaly
		if err := rows.Scan(&a.OpportunityID, &a.Code, &a.Detail); err != nil {
			return nil, fmt.Errorf("scan anomaly row: %w", err)
		}
		result = append(result, a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate anomaly rows: %w", err)
	}

	return result, nil
}

package postgres

import (
	"context"
	"fmt"
	"strings"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/storage"
)

// FxRateStore implements storage.FxRateStore using PostgreSQL.
type FxRateStore struct {
	pool *Pool
}

// NewFxRateStore creates a new FxRateStore.
func NewFxRateStore(pool *Pool) *FxRateStore {
	return &FxRateStore{pool: pool}
}

// Compile-time interface check.
var _ storage.FxRateStore = (*FxRateStore)(nil)

// InsertBulk adds rates atomically. Fails entire batch on a duplicate
// (currency, date) pair.
func (s *FxRateStore) InsertBulk(ctx context.Context, rates []domain.FxRate) error {
	if len(rates) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO fx_rates (currency_code, as_of_date, rate_to_usd) VALUES ($1, $2, $3)`

	for _, r := range rates {
		cur := strings.ToUpper(strings.TrimSpace(r.CurrencyCode))
		if cur == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, query, cur, r.AsOfDate, r.RateToUSD); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert fx rate in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all rates, ordered by (currency ASC, date ASC).
func (s *FxRateStore) GetAll(ctx context.Context) ([]domain.FxRate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT currency_code, as_of_date, rate_to_usd
		FROM fx_rates
		ORDER BY currency_code ASC, as_of_date ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get fx rates: %w", err)
	}
	defer rows.Close()

	var result []domain.FxRate
	for rows.Next() {
		var r domain.FxRate
		if err := rows.Scan(&r.CurrencyCode, &r.AsOfDate, &r.RateToUSD); err != nil {
			return nil, fmt.Errorf("scan fx rate: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate fx rates: %w", err)
	}
	return result, nil
}

// StageMappingStore implements storage.StageMappingStore using PostgreSQL.
type StageMappingStore struct {
	pool *Pool
}

// NewStageMappingStore creates a new StageMappingStore.
func NewStageMappingStore(pool *Pool) *StageMappingStore {
	return &StageMappingStore{pool: pool}
}

// Compile-time interface check.
var _ storage.StageMappingStore = (*StageMappingStore)(nil)

// InsertBulk adds mappings atomically. Fails entire batch on a duplicate raw stage.
func (s *StageMappingStore) InsertBulk(ctx context.Context, mappings []domain.StageMapping) error {
	if len(mappings) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `INSERT INTO stage_mapping (raw_stage, standard_stage) VALUES ($1, $2)`

	for _, m := range mappings {
		if m.RawStage == "" {
			return storage.ErrInvalidInput
		}
		if _, err := tx.Exec(ctx, query, m.RawStage, m.StandardStage); err != nil {
			if isDuplicateKeyError(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert stage mapping in bulk: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// GetAll retrieves all mappings, ordered by raw stage ASC.
func (s *StageMappingStore) GetAll(ctx context.Context) ([]domain.StageMapping, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT raw_stage, standard_stage
		FROM stage_mapping
		ORDER BY raw_stage ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("get stage mappings: %w", err)
	}
	defer rows.Close()

	var result []domain.StageMapping
	for rows.Next() {
		var m domain.StageMapping
		if err := rows.Scan(&m.RawStage, &m.StandardStage); err != nil {
			return nil, fmt.Errorf("scan stage mapping: %w", err)
		}
		result = append(result, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stage mappings: %w", err)
	}
	return result, nil
}

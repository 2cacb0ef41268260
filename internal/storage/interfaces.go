package storage

import (
	"context"

	"crm-fact-pipeline/internal/domain"
)

// OpportunityStore provides access to raw opportunity staging rows.
// The staging table legitimately holds several versions per opportunity
// id; collapsing them is the dedup engine's job, not the store's.
type OpportunityStore interface {
	// InsertBulk appends raw rows, preserving input order.
	InsertBulk(ctx context.Context, records []*domain.OpportunityRecord) error

	// GetAll retrieves all rows in insertion order. The dedup tie-break
	// (last occurrence wins) depends on this ordering.
	GetAll(ctx context.Context) ([]*domain.OpportunityRecord, error)
}

// AccountStore provides access to raw account rows.
type AccountStore interface {
	// InsertBulk adds accounts. Returns ErrDuplicateKey on a repeated id.
	InsertBulk(ctx context.Context, accounts []domain.Account) error

	// GetAll retrieves all accounts, ordered by id ASC.
	GetAll(ctx context.Context) ([]domain.Account, error)
}

// FxRateStore provides access to the FX reference table.
type FxRateStore interface {
	// InsertBulk adds rates. Returns ErrDuplicateKey on a repeated
	// (currency, date) pair.
	InsertBulk(ctx context.Context, rates []domain.FxRate) error

	// GetAll retrieves all rates, ordered by (currency ASC, date ASC).
	GetAll(ctx context.Context) ([]domain.FxRate, error)
}

// StageMappingStore provides access to the stage-mapping reference table.
type StageMappingStore interface {
	// InsertBulk adds mappings. Returns ErrDuplicateKey on a repeated raw stage.
	InsertBulk(ctx context.Context, mappings []domain.StageMapping) error

	// GetAll retrieves all mappings, ordered by raw stage ASC.
	GetAll(ctx context.Context) ([]domain.StageMapping, error)
}

// FactStore provides access to the canonical fact output.
// Each run is a full refresh: latest snapshot state only, no history.
type FactStore interface {
	// ReplaceAll atomically swaps the stored facts for the given set,
	// preserving the given (already canonical) order. Returns
	// ErrDuplicateKey if the batch repeats an opportunity id.
	ReplaceAll(ctx context.Context, facts []*domain.OpportunityFact) error

	// GetAll retrieves all facts in canonical order.
	GetAll(ctx context.Context) ([]*domain.OpportunityFact, error)
}

// AnomalyStore provides access to the anomaly output.
type AnomalyStore interface {
	// ReplaceAll atomically swaps the stored anomalies for the given set,
	// preserving the given (already canonical) order.
	ReplaceAll(ctx context.Context, anomalies []domain.Anomaly) error

	// GetAll retrieves all anomalies in canonical order.
	GetAll(ctx context.Context) ([]domain.Anomaly, error)
}

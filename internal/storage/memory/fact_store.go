package memory

import (
	"context"
	"sync"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/storage"
)

// FactStore is an in-memory implementation of storage.FactStore.
// Each run fully refreshes the stored snapshot.
type FactStore struct {
	mu   sync.RWMutex
	rows []*domain.OpportunityFact
}

// NewFactStore creates a new in-memory fact store.
func NewFactStore() *FactStore {
	return &FactStore{}
}

// ReplaceAll swaps the stored facts for the given set, preserving order.
// Returns ErrDuplicateKey if the batch repeats an opportunity id.
func (s *FactStore) ReplaceAll(_ context.Context, facts []*domain.OpportunityFact) error {
	seen := make(map[string]struct{}, len(facts))
	rows := make([]*domain.OpportunityFact, 0, len(facts))
	for _, f := range facts {
		if f == nil || f.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := seen[f.ID]; exists {
			return storage.ErrDuplicateKey
		}
		seen[f.ID] = struct{}{}
		clone := *f
		rows = append(rows, &clone)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	return nil
}

// GetAll retrieves all facts in stored (canonical) order.
func (s *FactStore) GetAll(_ context.Context) ([]*domain.OpportunityFact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.OpportunityFact, 0, len(s.rows))
	for _, f := range s.rows {
		clone := *f
		result = append(result, &clone)
	}
	return result, nil
}

var _ storage.FactStore = (*FactStore)(nil)

// AnomalyStore is an in-memory implementation of storage.AnomalyStore.
type AnomalyStore struct {
	mu   sync.RWMutex
	rows []domain.Anomaly
}

// NewAnomalyStore creates a new in-memory anomaly store.
func NewAnomalyStore() *AnomalyStore {
	return &AnomalyStore{}
}

// ReplaceAll swaps the stored anomalies for the given set, preserving order.
func (s *AnomalyStore) ReplaceAll(_ context.Context, anomalies []domain.Anomaly) error {
	for _, a := range anomalies {
		if a.OpportunityID == "" || a.Code == "" {
			return storage.ErrInvalidInput
		}
	}

	rows := make([]domain.Anomaly, len(anomalies))
	copy(rows, anomalies)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = rows
	return nil
}

// GetAll retrieves all anomalies in stored (canonical) order.
func (s *AnomalyStore) GetAll(_ context.Context) ([]domain.Anomaly, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Anomaly, len(s.rows))
	copy(result, s.rows)
	return result, nil
}

var _ storage.AnomalyStore = (*AnomalyStore)(nil)

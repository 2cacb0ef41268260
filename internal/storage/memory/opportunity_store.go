package memory

import (
	"context"
	"sync"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/storage"
)

// OpportunityStore is an in-memory implementation of storage.OpportunityStore.
// Rows are kept in insertion order; several versions per id are expected.
type OpportunityStore struct {
	mu   sync.RWMutex
	rows []*domain.OpportunityRecord
}

// NewOpportunityStore creates a new in-memory opportunity staging store.
func NewOpportunityStore() *OpportunityStore {
	return &OpportunityStore{}
}

// InsertBulk appends raw rows, preserving input order.
func (s *OpportunityStore) InsertBulk(_ context.Context, records []*domain.OpportunityRecord) error {
	if len(records) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, r := range records {
		if r == nil || r.ID == "" {
			return storage.ErrInvalidInput
		}
		clone := *r
		s.rows = append(s.rows, &clone)
	}
	return nil
}

// GetAll retrieves all rows in insertion order.
func (s *OpportunityStore) GetAll(_ context.Context) ([]*domain.OpportunityRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.OpportunityRecord, 0, len(s.rows))
	for _, r := range s.rows {
		clone := *r
		result = append(result, &clone)
	}
	return result, nil
}

var _ storage.OpportunityStore = (*OpportunityStore)(nil)

package memory

import (
	"context"
	"sort"
	"sync"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/storage"
)

// AccountStore is an in-memory implementation of storage.AccountStore.
type AccountStore struct {
	mu   sync.RWMutex
	data map[string]domain.Account // keyed by account id
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{data: make(map[string]domain.Account)}
}

// InsertBulk adds accounts. Returns ErrDuplicateKey on a repeated id,
// failing the entire batch.
func (s *AccountStore) InsertBulk(_ context.Context, accounts []domain.Account) error {
	if len(accounts) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(accounts))
	for _, a := range accounts {
		if a.ID == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[a.ID]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[a.ID]; exists {
			return storage.ErrDuplicateKey
		}
		batch[a.ID] = struct{}{}
	}

	for _, a := range accounts {
		s.data[a.ID] = a
	}
	return nil
}

// GetAll retrieves all accounts, ordered by id ASC.
func (s *AccountStore) GetAll(_ context.Context) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.Account, 0, len(s.data))
	for _, a := range s.data {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

var _ storage.AccountStore = (*AccountStore)(nil)

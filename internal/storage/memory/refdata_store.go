package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/storage"
)

// FxRateStore is an in-memory implementation of storage.FxRateStore.
type FxRateStore struct {
	mu   sync.RWMutex
	data map[string]domain.FxRate // keyed by currency|date
}

// NewFxRateStore creates a new in-memory FX rate store.
func NewFxRateStore() *FxRateStore {
	return &FxRateStore{data: make(map[string]domain.FxRate)}
}

func fxKey(currency string, r domain.FxRate) string {
	return fmt.Sprintf("%s|%s", currency, r.AsOfDate.Format("2006-01-02"))
}

// InsertBulk adds rates. At most one rate may exist per (currency, date);
// a repeat fails the entire batch with ErrDuplicateKey.
func (s *FxRateStore) InsertBulk(_ context.Context, rates []domain.FxRate) error {
	if len(rates) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(rates))
	for _, r := range rates {
		cur := strings.ToUpper(strings.TrimSpace(r.CurrencyCode))
		if cur == "" {
			return storage.ErrInvalidInput
		}
		key := fxKey(cur, r)
		if _, exists := s.data[key]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[key]; exists {
			return storage.ErrDuplicateKey
		}
		batch[key] = struct{}{}
	}

	for _, r := range rates {
		cur := strings.ToUpper(strings.TrimSpace(r.CurrencyCode))
		r.CurrencyCode = cur
		s.data[fxKey(cur, r)] = r
	}
	return nil
}

// GetAll retrieves all rates, ordered by (currency ASC, date ASC).
func (s *FxRateStore) GetAll(_ context.Context) ([]domain.FxRate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.FxRate, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, r)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CurrencyCode != result[j].CurrencyCode {
			return result[i].CurrencyCode < result[j].CurrencyCode
		}
		return result[i].AsOfDate.Before(result[j].AsOfDate)
	})
	return result, nil
}

var _ storage.FxRateStore = (*FxRateStore)(nil)

// StageMappingStore is an in-memory implementation of storage.StageMappingStore.
type StageMappingStore struct {
	mu   sync.RWMutex
	data map[string]string // raw stage -> standard stage
}

// NewStageMappingStore creates a new in-memory stage-mapping store.
func NewStageMappingStore() *StageMappingStore {
	return &StageMappingStore{data: make(map[string]string)}
}

// InsertBulk adds mappings. A repeated raw stage fails the entire batch
// with ErrDuplicateKey.
func (s *StageMappingStore) InsertBulk(_ context.Context, mappings []domain.StageMapping) error {
	if len(mappings) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	batch := make(map[string]struct{}, len(mappings))
	for _, m := range mappings {
		if m.RawStage == "" {
			return storage.ErrInvalidInput
		}
		if _, exists := s.data[m.RawStage]; exists {
			return storage.ErrDuplicateKey
		}
		if _, exists := batch[m.RawStage]; exists {
			return storage.ErrDuplicateKey
		}
		batch[m.RawStage] = struct{}{}
	}

	for _, m := range mappings {
		s.data[m.RawStage] = m.StandardStage
	}
	return nil
}

// GetAll retrieves all mappings, ordered by raw stage ASC.
func (s *StageMappingStore) GetAll(_ context.Context) ([]domain.StageMapping, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]domain.StageMapping, 0, len(s.data))
	for raw, std := range s.data {
		result = append(result, domain.StageMapping{RawStage: raw, StandardStage: std})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].RawStage < result[j].RawStage })
	return result, nil
}

var _ storage.StageMappingStore = (*StageMappingStore)(nil)

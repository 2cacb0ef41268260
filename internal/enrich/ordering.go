package enrich

import (
	"sort"

	"crm-fact-pipeline/internal/domain"
)

// SortFacts orders facts by (CloseDate ASC with nils last, ID ASC).
// This is the canonical emission order: repeated runs on identical input
// produce byte-identical output regardless of input row order.
func SortFacts(facts []*domain.OpportunityFact) {
	sort.SliceStable(facts, func(i, j int) bool {
		return compareFacts(facts[i], facts[j]) < 0
	})
}

// compareFacts returns:
//   - negative if a < b
//   - zero if a == b
//   - positive if a > b
func compareFacts(a, b *domain.OpportunityFact) int {
	switch {
	case a.CloseDate == nil && b.CloseDate != nil:
		return 1
	case a.CloseDate != nil && b.CloseDate == nil:
		return -1
	case a.CloseDate != nil && b.CloseDate != nil:
		if a.CloseDate.Before(*b.CloseDate) {
			return -1
		}
		if a.CloseDate.After(*b.CloseDate) {
			return 1
		}
	}
	if a.ID != b.ID {
		if a.ID < b.ID {
			return -1
		}
		return 1
	}
	return 0
}

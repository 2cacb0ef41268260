// Package dedup collapses multiple versions of the same opportunity
// to the single most recently modified one.
package dedup

import "crm-fact-pipeline/internal/domain"

// Deduplicate returns one record per distinct ID: the version with the
// maximum LastModifiedDate. A nil LastModifiedDate is treated as the
// minimum possible value and always loses. Equal timestamps are broken
// by input position, last occurrence wins, so the result is reproducible
// for identical input. Output preserves first-seen ID order.
func Deduplicate(records []*domain.OpportunityRecord) []*domain.OpportunityRecord {
	if len(records) == 0 {
		return nil
	}

	latest := make(map[string]*domain.OpportunityRecord, len(records))
	var order []string

	for _, r := range records {
		if r == nil {
			continue
		}
		current, seen := latest[r.ID]
		if !seen {
			latest[r.ID] = r
			order = append(order, r.ID)
			continue
		}
		if !isOlder(r, current) {
			latest[r.ID] = r
		}
	}

	result := make([]*domain.OpportunityRecord, 0, len(order))
	for _, id := range order {
		result = append(result, latest[id])
	}
	return result
}

// isOlder reports whether a was modified strictly before b.
// Equal timestamps (including both nil) are not older, so the
// later-positioned record replaces the earlier one.
func isOlder(a, b *domain.OpportunityRecord) bool {
	switch {
	case a.LastModifiedDate == nil && b.LastModifiedDate == nil:
		return false
	case a.LastModifiedDate == nil:
		return true
	case b.LastModifiedDate == nil:
		return false
	default:
		return a.LastModifiedDate.Before(*b.LastModifiedDate)
	}
}

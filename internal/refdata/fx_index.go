// Package refdata provides read-only indexed views over the reference
// tables (FX rates, stage mappings) consumed by the enricher.
package refdata

import (
	"sort"
	"strings"
	"time"

	"crm-fact-pipeline/internal/domain"
)

// FX match tiers. Prior-or-same is the normal case; latest-any and none
// are degraded lookups that the quality checker reports as MISSING_FX.
const (
	FxMatchPrior  = "PRIOR_OR_SAME"
	FxMatchLatest = "LATEST_ANY"
	FxMatchNone   = "NONE"
)

// FxIndex is a per-currency sorted view of the FX rate table.
// It is built once per run and never mutated afterwards.
type FxIndex struct {
	series map[string][]domain.FxRate // keyed by upper-cased currency, sorted by date ASC
}

// NewFxIndex builds an index from raw rate rows. Currency codes are
// upper-cased; input order does not matter. An empty table is valid:
// every lookup then degrades to FxMatchNone.
func NewFxIndex(rates []domain.FxRate) *FxIndex {
	series := make(map[string][]domain.FxRate)
	for _, r := range rates {
		cur := strings.ToUpper(strings.TrimSpace(r.CurrencyCode))
		if cur == "" {
			continue
		}
		r.CurrencyCode = cur
		series[cur] = append(series[cur], r)
	}
	for cur := range series {
		s := series[cur]
		sort.Slice(s, func(i, j int) bool {
			return s[i].AsOfDate.Before(s[j].AsOfDate)
		})
		series[cur] = s
	}
	return &FxIndex{series: series}
}

// RateOn returns the conversion rate for a currency as of a target date
// and the tier of the match:
//   - FxMatchPrior: latest rate dated at or before asOf
//   - FxMatchLatest: no rate at or before asOf, latest rate of any date
//   - FxMatchNone: the currency has no rates, or asOf is nil
func (idx *FxIndex) RateOn(currency string, asOf *time.Time) (*float64, string) {
	cur := strings.ToUpper(strings.TrimSpace(currency))
	s := idx.series[cur]
	if len(s) == 0 {
		return nil, FxMatchNone
	}
	if asOf == nil {
		// No date to address the series with.
		return nil, FxMatchNone
	}

	for i := len(s) - 1; i >= 0; i-- {
		if !s[i].AsOfDate.After(*asOf) {
			rate := s[i].RateToUSD
			return &rate, FxMatchPrior
		}
	}

	// All rates postdate asOf: fall back to the latest available.
	rate := s[len(s)-1].RateToUSD
	return &rate, FxMatchLatest
}

// Currencies returns the indexed currency codes, sorted.
func (idx *FxIndex) Currencies() []string {
	out := make([]string, 0, len(idx.series))
	for cur := range idx.series {
		out = append(out, cur)
	}
	sort.Strings(out)
	return out
}

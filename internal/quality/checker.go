// Package quality evaluates enriched facts against the fixed anomaly
// rule set. Rules are pure predicates over a single record plus the
// enricher's lookup signals: no cross-record state, so evaluation order
// does not matter. Detection is a side channel; a flagged record stays
// in the canonical output.
package quality

import (
	"sort"
	"time"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/enrich"
	"crm-fact-pipeline/internal/refdata"
)

// Check evaluates every rule against every fact and returns the
// accumulated anomalies sorted by (opportunity_id, code). A record can
// collect multiple codes; a record with none contributes nothing.
// asOf is the run's reference time for the future-close rule.
func Check(facts []*domain.OpportunityFact, signals []enrich.Signal, asOf time.Time) []domain.Anomaly {
	signalsByID := make(map[string]enrich.Signal, len(signals))
	for _, s := range signals {
		signalsByID[s.OpportunityID] = s
	}

	var anomalies []domain.Anomaly
	for _, f := range facts {
		anomalies = append(anomalies, checkOne(f, signalsByID[f.ID], asOf)...)
	}

	sort.SliceStable(anomalies, func(i, j int) bool {
		if anomalies[i].OpportunityID != anomalies[j].OpportunityID {
			return anomalies[i].OpportunityID < anomalies[j].OpportunityID
		}
		return anomalies[i].Code < anomalies[j].Code
	})
	return anomalies
}

func checkOne(f *domain.OpportunityFact, sig enrich.Signal, asOf time.Time) []domain.Anomaly {
	var out []domain.Anomaly
	add := func(code, detail string) {
		out = append(out, domain.Anomaly{OpportunityID: f.ID, Code: code, Detail: detail})
	}

	if f.Amount != nil && *f.Amount < 0 {
		add(domain.AnomalyNegAmount, "Amount is negative")
	}
	if f.Probability != nil && (*f.Probability < 0 || *f.Probability > 100) {
		add(domain.AnomalyProbOOB, "Probability outside 0-100")
	}
	if f.CloseDate != nil && f.CloseDate.After(asOf) {
		add(domain.AnomalyFutureClose, "CloseDate in the future")
	}
	if sig.StageMapMiss {
		add(domain.AnomalyMissingStageMap, "Stage could not be mapped to standard taxonomy")
	}
	switch sig.FxTier {
	case refdata.FxMatchLatest:
		add(domain.AnomalyMissingFx, "no FX rate at or before close date; latest available rate used")
	case refdata.FxMatchNone:
		add(domain.AnomalyMissingFx, "FX rate missing for currency/date")
	}

	return out
}

// CountByCode tallies anomalies per code for the run summary.
func CountByCode(anomalies []domain.Anomaly) map[string]int {
	counts := make(map[string]int, len(domain.AnomalyCodes))
	for _, a := range anomalies {
		counts[a.Code]++
	}
	return counts
}

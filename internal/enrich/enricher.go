// Package enrich produces canonical opportunity facts from deduplicated
// raw records: account join, stage normalization, FX conversion, derived
// metrics, and PII minimization.
package enrich

import (
	"math"
	"strings"
	"time"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/pii"
	"crm-fact-pipeline/internal/refdata"
)

// Signal carries per-record lookup outcomes from the enricher to the
// quality checker. The enricher never emits anomalies itself; it only
// makes raw/derived values and lookup misses inspectable.
type Signal struct {
	OpportunityID string
	StageMapMiss  bool   // raw stage had no mapping entry
	FxTier        string // refdata.FxMatch* tier used for conversion
}

// Options controls enrichment conventions.
type Options struct {
	// DefaultCurrency is assumed when a record carries no currency code.
	// Amounts in the default currency convert at rate 1, deterministically,
	// with no FX lookup. Defaults to USD.
	DefaultCurrency string

	// WonStages and LostStages are the standardized-stage conventions for
	// the is_won / is_lost flags. Defaults: {"Closed Won"} / {"Closed Lost"}.
	// A stage present in both sets counts as won only, so the flags stay
	// mutually exclusive.
	WonStages  []string
	LostStages []string
}

func (o Options) withDefaults() Options {
	o.DefaultCurrency = normalizeCurrency(o.DefaultCurrency)
	if o.DefaultCurrency == "" {
		o.DefaultCurrency = "USD"
	}
	if o.WonStages == nil {
		o.WonStages = []string{"Closed Won"}
	}
	if o.LostStages == nil {
		o.LostStages = []string{"Closed Lost"}
	}
	return o
}

// Transform produces one OpportunityFact per deduplicated record, plus one
// Signal per record for the quality checker. Records are processed
// independently; output order matches input order (callers sort via
// SortFacts before emission).
func Transform(
	records []*domain.OpportunityRecord,
	accounts []domain.Account,
	fx *refdata.FxIndex,
	stages *refdata.StageIndex,
	asOf time.Time,
	opts Options,
) ([]*domain.OpportunityFact, []Signal) {
	opts = opts.withDefaults()

	accountsByID := make(map[string]domain.Account, len(accounts))
	for _, a := range accounts {
		accountsByID[a.ID] = a
	}

	won := make(map[string]bool, len(opts.WonStages))
	for _, s := range opts.WonStages {
		won[s] = true
	}
	lost := make(map[string]bool, len(opts.LostStages))
	for _, s := range opts.LostStages {
		lost[s] = true
	}

	facts := make([]*domain.OpportunityFact, 0, len(records))
	signals := make([]Signal, 0, len(records))

	for _, r := range records {
		fact, sig := enrichOne(r, accountsByID, fx, stages, won, lost, opts)
		facts = append(facts, fact)
		signals = append(signals, sig)
	}

	return facts, signals
}

func enrichOne(
	r *domain.OpportunityRecord,
	accountsByID map[string]domain.Account,
	fx *refdata.FxIndex,
	stages *refdata.StageIndex,
	won, lost map[string]bool,
	opts Options,
) (*domain.OpportunityFact, Signal) {
	fact := &domain.OpportunityFact{
		ID:               r.ID,
		AccountID:        r.AccountID,
		Name:             r.Name,
		StageName:        r.StageName,
		Amount:           r.Amount,
		CurrencyCode:     r.CurrencyCode,
		Probability:      r.Probability,
		CloseDate:        r.CloseDate,
		CreatedDate:      r.CreatedDate,
		LastModifiedDate: r.LastModifiedDate,
	}
	sig := Signal{OpportunityID: r.ID, FxTier: refdata.FxMatchPrior}

	// Account left join: a miss leaves the fields nil.
	if acct, ok := accountsByID[r.AccountID]; ok {
		name, industry := acct.Name, acct.Industry
		fact.AccountName = &name
		fact.AccountIndustry = &industry
	}

	// Stage normalization: raw label passes through on a miss.
	if std, ok := stages.Lookup(r.StageName); ok {
		fact.StageStd = std
	} else {
		fact.StageStd = r.StageName
		sig.StageMapMiss = true
	}

	// Currency conversion.
	fact.FxRateUsed, sig.FxTier = resolveRate(r, fx, opts.DefaultCurrency)
	if fact.Amount != nil && fact.FxRateUsed != nil {
		usd := *fact.Amount * *fact.FxRateUsed
		fact.AmountUSD = &usd
	}

	// Derived metrics. Out-of-range probabilities are not clamped: the
	// metric is nil and the quality checker reports PROB_OOB.
	if fact.AmountUSD != nil && fact.Probability != nil &&
		*fact.Probability >= 0 && *fact.Probability <= 100 {
		rev := *fact.AmountUSD * (*fact.Probability / 100)
		fact.ExpectedRevenueUSD = &rev
	}
	fact.SalesCycleDays = salesCycleDays(r.CloseDate, r.CreatedDate)
	fact.IsWon = won[fact.StageStd]
	fact.IsLost = !fact.IsWon && lost[fact.StageStd]

	// PII minimization.
	fact.OwnerEmailHash = pii.HashEmail(r.OwnerEmail)
	fact.PhoneNormalized = pii.NormalizePhone(r.Phone)

	return fact, sig
}

// resolveRate finds the conversion rate for a record. An absent currency
// code is assumed to be the default currency already, rate 1, with no
// lookup and no flag.
func resolveRate(r *domain.OpportunityRecord, fx *refdata.FxIndex, defaultCurrency string) (*float64, string) {
	cur := normalizeCurrency(r.CurrencyCode)
	if cur == "" || cur == defaultCurrency {
		one := 1.0
		return &one, refdata.FxMatchPrior
	}
	return fx.RateOn(cur, r.CloseDate)
}

// normalizeCurrency upper-cases a trimmed ISO-4217 code.
func normalizeCurrency(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// salesCycleDays returns whole days between created and close, floored,
// so a negative span rounds away from zero the way calendar arithmetic
// reads. Inconsistent (negative) spans are preserved, not corrected.
func salesCycleDays(close, created *time.Time) *int64 {
	if close == nil || created == nil {
		return nil
	}
	days := int64(math.Floor(close.Sub(*created).Hours() / 24))
	return &days
}

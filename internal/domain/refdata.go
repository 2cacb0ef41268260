package domain

import "time"

// FxRate is one point of a sparse per-currency rate time series.
// At most one rate exists per (currency, date).
type FxRate struct {
	CurrencyCode string    // ISO-4217 code, upper-cased
	AsOfDate     time.Time // calendar date the rate applies to (UTC midnight)
	RateToUSD    float64   // multiplier converting the currency to USD
}

// StageMapping maps a raw CRM stage label to the standard taxonomy.
// Matching is case-sensitive and exact; unmapped stages pass through.
type StageMapping struct {
	RawStage      string
	StandardStage string
}

package domain

import "time"

// OpportunityFact is the canonical output row.
// Corresponds to the opportunities_transformed warehouse table.
// It is a superset of OpportunityRecord: raw fields are preserved,
// derived fields are nil where a calculation is undefined.
type OpportunityFact struct {
	ID                 string
	AccountID          string
	AccountName        *string // from account join, nil when unmatched
	AccountIndustry    *string // from account join, nil when unmatched
	Name               string
	StageName          string // raw stage, preserved
	StageStd           string // mapped stage, raw pass-through on miss
	Amount             *float64
	CurrencyCode       string
	FxRateUsed         *float64 // rate applied for conversion, nil when none found
	AmountUSD          *float64 // Amount * FxRateUsed
	ExpectedRevenueUSD *float64 // AmountUSD * Probability/100, nil if either invalid
	Probability        *float64
	CloseDate          *time.Time
	CreatedDate        *time.Time
	LastModifiedDate   *time.Time
	SalesCycleDays     *int64  // CloseDate - CreatedDate in days, may be negative
	OwnerEmailHash     *string // SHA-256 hex of trimmed lower-cased email
	PhoneNormalized    *string // digits with leading country-code heuristic
	IsWon              bool    // StageStd in the closed-won set
	IsLost             bool    // StageStd in the closed-lost set, never with IsWon
}

package domain

import "time"

// OpportunityRecord represents a raw CRM opportunity row from a batch extract.
// Corresponds to the Opportunity object in the source CRM.
type OpportunityRecord struct {
	ID               string     // opportunity identifier, dedup key
	AccountID        string     // FK to accounts, may be empty
	Name             string     // opportunity name
	StageName        string     // raw CRM pipeline stage label
	Amount           *float64   // deal amount in original currency (nullable)
	CurrencyCode     string     // ISO-4217 code, empty means the configured default
	Probability      *float64   // expected 0-100, may be out of range (nullable)
	CloseDate        *time.Time // expected close date, past or future (nullable)
	CreatedDate      *time.Time // record creation date (nullable)
	LastModifiedDate *time.Time // recency tiebreaker for dedup (nullable)
	OwnerEmail       string     // PII, minimized before output
	Phone            string     // PII, minimized before output
}

package domain

// Account represents a raw CRM account row.
// Joined into opportunities one-to-one by AccountID; an unmatched
// AccountID leaves the enrichment fields nil, it is not an error.
type Account struct {
	ID       string // account identifier
	Name     string // account name
	Industry string // industry classification
}

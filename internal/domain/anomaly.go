package domain

// Anomaly is one data-quality finding attributed to a specific opportunity.
// Anomalies are a side channel: a flagged record still appears in the
// canonical output.
type Anomaly struct {
	OpportunityID string
	Code          string // one of the Anomaly* constants
	Detail        string // human-readable explanation
}

// Anomaly codes. The rule set is fixed and explicit.
const (
	AnomalyNegAmount       = "NEG_AMOUNT"
	AnomalyProbOOB         = "PROB_OOB"
	AnomalyFutureClose     = "FUTURE_CLOSE"
	AnomalyMissingStageMap = "MISSING_STAGE_MAP"
	AnomalyMissingFx       = "MISSING_FX"
)

// AnomalyCodes lists all codes in report order.
var AnomalyCodes = []string{
	AnomalyNegAmount,
	AnomalyProbOOB,
	AnomalyFutureClose,
	AnomalyMissingStageMap,
	AnomalyMissingFx,
}

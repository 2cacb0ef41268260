package domain

// RunSummary aggregates counts for one batch run.
// Consumed by operational tooling, not by downstream data consumers.
type RunSummary struct {
	RowsIn            int            `json:"rows_in"`            // raw opportunity rows read
	RowsSkipped       int            `json:"rows_skipped"`       // structurally defective rows excluded
	DuplicatesRemoved int            `json:"duplicates_removed"` // superseded versions dropped at dedup
	RowsOut           int            `json:"rows_out"`           // canonical fact rows emitted
	AnomalyRows       int            `json:"anomaly_rows"`       // distinct opportunities with anomalies
	AnomalyCount      int            `json:"anomaly_count"`      // total anomaly entries
	AnomaliesByCode   map[string]int `json:"anomalies_by_code"`
	DurationSeconds   float64        `json:"duration_seconds"`
}

package reporting

import (
	"encoding/json"
	"fmt"

	"crm-fact-pipeline/internal/domain"
)

// RenderRunSummary renders the run summary as indented JSON, matching the
// run_summary.json artifact shape.
func RenderRunSummary(s domain.RunSummary) ([]byte, error) {
	if s.AnomaliesByCode == nil {
		s.AnomaliesByCode = map[string]int{}
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal run summary: %w", err)
	}
	return append(data, '\n'), nil
}

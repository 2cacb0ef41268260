package reporting

import (
	"fmt"
	"os"
	"path/filepath"

	"crm-fact-pipeline/internal/domain"
)

// Artifact file names, fixed so downstream loaders can find them.
const (
	FactsFileName     = "opportunities_transformed.csv"
	AnomaliesFileName = "opportunities_anomalies.csv"
	SummaryFileName   = "run_summary.json"
)

// WriteArtifacts writes the three run artifacts into dir, creating it if
// needed. Existing files are overwritten: each run is a full refresh.
func WriteArtifacts(dir string, facts []*domain.OpportunityFact, anomalies []domain.Anomaly, summary domain.RunSummary) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, FactsFileName), []byte(RenderFactsCSV(facts)), 0o644); err != nil {
		return fmt.Errorf("write facts csv: %w", err)
	}

	if err := os.WriteFile(filepath.Join(dir, AnomaliesFileName), []byte(RenderAnomaliesCSV(anomalies)), 0o644); err != nil {
		return fmt.Errorf("write anomalies csv: %w", err)
	}

	data, err := RenderRunSummary(summary)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(dir, SummaryFileName), data, 0o644); err != nil {
		return fmt.Errorf("write run summary: %w", err)
	}

	return nil
}

// Package main runs the batch transformation over CSV extracts with
// in-memory stores and writes the run artifacts (transformed facts CSV,
// anomalies CSV, run summary JSON) to an output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"crm-fact-pipeline/internal/config"
	"crm-fact-pipeline/internal/enrich"
	"crm-fact-pipeline/internal/ingestion"
	"crm-fact-pipeline/internal/observability"
	"crm-fact-pipeline/internal/orchestrator"
	"crm-fact-pipeline/internal/reporting"
	"crm-fact-pipeline/internal/storage/memory"
)

func main() {
	// Inputs
	opportunitiesPath := flag.String("opportunities", "", "CSV of opportunity extract (required)")
	accountsPath := flag.String("accounts", "", "CSV of account extract (required)")
	fxPath := flag.String("fx", "", "CSV of FX rates: currency,rate_to_usd,rate_date (required)")
	stageMapPath := flag.String("stage-map", "", "CSV of stage mapping: source_stage,std_stage (required)")

	// Run options
	asOfFlag := flag.String("as-of", "", "Reference date for FUTURE_CLOSE (YYYY-MM-DD, default now)")
	configPath := flag.String("config", "", "Optional YAML run config")
	outDir := flag.String("outdir", "", "Output directory (overrides config)")
	verbose := flag.Bool("verbose", false, "Log pipeline phases")

	flag.Parse()

	logger := log.New(os.Stderr, "[pipeline] ", log.LstdFlags)

	if *opportunitiesPath == "" || *accountsPath == "" || *fxPath == "" || *stageMapPath == "" {
		logger.Fatal("--opportunities, --accounts, --fx and --stage-map are required")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			logger.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}

	asOf, err := parseAsOf(*asOfFlag)
	if err != nil {
		logger.Fatalf("parse --as-of: %v", err)
	}

	ctx := context.Background()

	extracts, err := ingestion.LoadExtracts(*opportunitiesPath, *accountsPath, *fxPath, *stageMapPath)
	if err != nil {
		logger.Fatalf("load inputs: %v", err)
	}
	for _, extract := range ingestion.ExtractNames {
		for _, s := range extracts.Skipped[extract] {
			logger.Printf("skipped %s row: %s", extract, s)
		}
	}
	observability.RecordRowsRead("opportunities", len(extracts.Opportunities), extracts.OpportunitiesSkipped())
	observability.RecordRefRowsLoaded("fx_rates", len(extracts.FxRates))
	observability.RecordRefRowsLoaded("stage_mapping", len(extracts.StageMappings))

	// Seed in-memory stores
	oppStore := memory.NewOpportunityStore()
	accountStore := memory.NewAccountStore()
	fxStore := memory.NewFxRateStore()
	stageStore := memory.NewStageMappingStore()

	if err := oppStore.InsertBulk(ctx, extracts.Opportunities); err != nil {
		logger.Fatalf("stage opportunities: %v", err)
	}
	if err := accountStore.InsertBulk(ctx, extracts.Accounts); err != nil {
		logger.Fatalf("stage accounts: %v", err)
	}
	if err := fxStore.InsertBulk(ctx, extracts.FxRates); err != nil {
		logger.Fatalf("stage fx rates: %v", err)
	}
	if err := stageStore.InsertBulk(ctx, extracts.StageMappings); err != nil {
		logger.Fatalf("stage mappings: %v", err)
	}

	orch := orchestrator.New(orchestrator.Options{
		OpportunityStore:  oppStore,
		AccountStore:      accountStore,
		FxRateStore:       fxStore,
		StageMappingStore: stageStore,
		FactStore:         memory.NewFactStore(),
		AnomalyStore:      memory.NewAnomalyStore(),
		EnrichOptions: enrich.Options{
			DefaultCurrency: cfg.Pipeline.DefaultCurrency,
			WonStages:       cfg.Pipeline.WonStages,
			LostStages:      cfg.Pipeline.LostStages,
		},
		AsOf:        asOf,
		RowsSkipped: extracts.OpportunitiesSkipped(),
		Verbose:     *verbose,
	})

	result, err := orch.Run(ctx)
	if err != nil {
		logger.Fatalf("run failed: %v", err)
	}

	if err := reporting.WriteArtifacts(cfg.Output.Dir, result.Facts, result.Anomalies, result.Summary); err != nil {
		logger.Fatalf("write artifacts: %v", err)
	}

	summaryJSON, err := reporting.RenderRunSummary(result.Summary)
	if err != nil {
		logger.Fatalf("render summary: %v", err)
	}
	fmt.Print(string(summaryJSON))

	logger.Printf("Wrote %s, %s, %s to %s",
		reporting.FactsFileName, reporting.AnomaliesFileName, reporting.SummaryFileName, cfg.Output.Dir)
}

// parseAsOf accepts a bare date or an RFC3339 timestamp.
func parseAsOf(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil // orchestrator falls back to now
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("want YYYY-MM-DD or RFC3339, got %q", value)
	}
	return t.UTC(), nil
}

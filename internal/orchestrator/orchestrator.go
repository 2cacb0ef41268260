// Package orchestrator provides E2E pipeline orchestration.
// It coordinates: reference load → dedup → enrich → quality → persist → summary
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"time"

	"crm-fact-pipeline/internal/dedup"
	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/enrich"
	"crm-fact-pipeline/internal/observability"
	"crm-fact-pipeline/internal/quality"
	"crm-fact-pipeline/internal/refdata"
	"crm-fact-pipeline/internal/storage"
)

// Orchestrator coordinates one batch run over the stores.
type Orchestrator struct {
	// Stores
	opportunityStore  storage.OpportunityStore
	accountStore      storage.AccountStore
	fxRateStore       storage.FxRateStore
	stageMappingStore storage.StageMappingStore
	factStore         storage.FactStore
	anomalyStore      storage.AnomalyStore

	// Transform conventions
	enrichOpts enrich.Options

	// Options
	asOf        time.Time
	rowsSkipped int
	verbose     bool
	now         func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required stores
	OpportunityStore  storage.OpportunityStore
	AccountStore      storage.AccountStore
	FxRateStore       storage.FxRateStore
	StageMappingStore storage.StageMappingStore
	FactStore         storage.FactStore
	AnomalyStore      storage.AnomalyStore

	// Transform conventions (default currency, won/lost stage sets)
	EnrichOptions enrich.Options

	// AsOf is the run's reference instant for FUTURE_CLOSE. Zero means
	// the current time at Run.
	AsOf time.Time

	// RowsSkipped carries the structural-skip count from ingestion into
	// the run summary; the skipped rows never reach the stores.
	RowsSkipped int

	// Clock overrides the wall clock for deterministic summaries.
	Clock func() time.Time

	Verbose bool
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	now := opts.Clock
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	return &Orchestrator{
		opportunityStore:  opts.OpportunityStore,
		accountStore:      opts.AccountStore,
		fxRateStore:       opts.FxRateStore,
		stageMappingStore: opts.StageMappingStore,
		factStore:         opts.FactStore,
		anomalyStore:      opts.AnomalyStore,
		enrichOpts:        opts.EnrichOptions,
		asOf:              opts.AsOf,
		rowsSkipped:       opts.RowsSkipped,
		verbose:           opts.Verbose,
		now:               now,
	}
}

// RunResult contains results from orchestrator execution.
type RunResult struct {
	Facts     []*domain.OpportunityFact
	Anomalies []domain.Anomaly
	Summary   domain.RunSummary
}

// Run executes the full batch pipeline.
// Phases:
//  1. Load reference tables (FX rates, stage mapping)
//  2. Load raw opportunities and accounts
//  3. Deduplicate
//  4. Enrich and sort into canonical order
//  5. Quality check
//  6. Persist facts and anomalies (full refresh)
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	start := o.now()

	asOf := o.asOf
	if asOf.IsZero() {
		asOf = start
	}

	// Phase 1: Reference data
	o.log("Phase 1: Loading reference tables...")
	fxIndex, stageIndex, err := o.loadReferenceData(ctx)
	if err != nil {
		observability.RecordRun("error", o.now().Sub(start).Seconds())
		return nil, fmt.Errorf("phase 1 (load reference data) failed: %w", err)
	}
	o.log("  %d currencies, %d stage mappings", len(fxIndex.Currencies()), stageIndex.Len())

	// Phase 2: Raw rows
	o.log("Phase 2: Loading raw rows...")
	records, err := o.opportunityStore.GetAll(ctx)
	if err != nil {
		observability.RecordRun("error", o.now().Sub(start).Seconds())
		return nil, fmt.Errorf("phase 2 (load opportunities) failed: %w", err)
	}
	accounts, err := o.accountStore.GetAll(ctx)
	if err != nil {
		observability.RecordRun("error", o.now().Sub(start).Seconds())
		return nil, fmt.Errorf("phase 2 (load accounts) failed: %w", err)
	}
	o.log("  %d opportunity rows, %d accounts", len(records), len(accounts))

	// Phase 3: Dedup
	o.log("Phase 3: Deduplicating...")
	deduped := dedup.Deduplicate(records)
	duplicatesRemoved := len(records) - len(deduped)
	observability.RecordDuplicatesRemoved(duplicatesRemoved)
	o.log("  Removed %d superseded versions", duplicatesRemoved)

	// Phase 4: Enrich
	o.log("Phase 4: Enriching...")
	facts, signals := enrich.Transform(deduped, accounts, fxIndex, stageIndex, asOf, o.enrichOpts)
	enrich.SortFacts(facts)
	observability.RecordFactsEmitted(len(facts))
	o.log("  Emitted %d facts", len(facts))

	// Phase 5: Quality
	o.log("Phase 5: Checking quality...")
	anomalies := quality.Check(facts, signals, asOf)
	for _, a := range anomalies {
		observability.RecordAnomaly(a.Code)
	}
	o.log("  Detected %d anomalies", len(anomalies))

	// Phase 6: Persist
	o.log("Phase 6: Persisting outputs...")
	if err := o.factStore.ReplaceAll(ctx, facts); err != nil {
		observability.RecordRun("error", o.now().Sub(start).Seconds())
		return nil, fmt.Errorf("phase 6 (persist facts) failed: %w", err)
	}
	if err := o.anomalyStore.ReplaceAll(ctx, anomalies); err != nil {
		observability.RecordRun("error", o.now().Sub(start).Seconds())
		return nil, fmt.Errorf("phase 6 (persist anomalies) failed: %w", err)
	}

	duration := o.now().Sub(start).Seconds()
	summary := o.summarize(records, deduped, facts, anomalies, duration)
	observability.RecordRun("success", duration)
	observability.DefaultMetrics.LastSuccessfulRun.Set(float64(o.now().Unix()))

	o.log("Run completed: %d in, %d out, %d anomalies",
		summary.RowsIn, summary.RowsOut, summary.AnomalyCount)

	return &RunResult{
		Facts:     facts,
		Anomalies: anomalies,
		Summary:   summary,
	}, nil
}

// loadReferenceData builds the FX and stage indexes from the stores.
// Empty tables are legal; they degrade to per-row misses downstream.
func (o *Orchestrator) loadReferenceData(ctx context.Context) (*refdata.FxIndex, *refdata.StageIndex, error) {
	rates, err := o.fxRateStore.GetAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load fx rates: %w", err)
	}

	mappings, err := o.stageMappingStore.GetAll(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("load stage mappings: %w", err)
	}

	return refdata.NewFxIndex(rates), refdata.NewStageIndex(mappings), nil
}

func (o *Orchestrator) summarize(
	records []*domain.OpportunityRecord,
	deduped []*domain.OpportunityRecord,
	facts []*domain.OpportunityFact,
	anomalies []domain.Anomaly,
	duration float64,
) domain.RunSummary {
	flagged := make(map[string]struct{})
	for _, a := range anomalies {
		flagged[a.OpportunityID] = struct{}{}
	}

	return domain.RunSummary{
		RowsIn:            len(records),
		RowsSkipped:       o.rowsSkipped,
		DuplicatesRemoved: len(records) - len(deduped),
		RowsOut:           len(facts),
		AnomalyRows:       len(flagged),
		AnomalyCount:      len(anomalies),
		AnomaliesByCode:   quality.CountByCode(anomalies),
		DurationSeconds:   duration,
	}
}

func (o *Orchestrator) log(format string, args ...interface{}) {
	if o.verbose {
		log.Printf("[orchestrator] "+format, args...)
	}
}

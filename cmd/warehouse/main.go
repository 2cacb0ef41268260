// Package main runs the same batch transformation as cmd/pipeline but
// loads the results into warehouse databases: Postgres staging plus the
// opportunities_transformed / opportunities_anomalies output tables, and
// optionally ClickHouse fact/anomaly tables. Each run is a full refresh.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"crm-fact-pipeline/internal/config"
	"crm-fact-pipeline/internal/enrich"
	"crm-fact-pipeline/internal/ingestion"
	"crm-fact-pipeline/internal/observability"
	"crm-fact-pipeline/internal/orchestrator"
	"crm-fact-pipeline/internal/reporting"
	"crm-fact-pipeline/internal/storage"
	chstore "crm-fact-pipeline/internal/storage/clickhouse"
	"crm-fact-pipeline/internal/storage/memory"
	"crm-fact-pipeline/internal/storage/migrations"
	pgstore "crm-fact-pipeline/internal/storage/postgres"
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
	verbose := flag.Bool("verbose", false, "Log pipeline phases")

	// Storage
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")

	// Observability
	metricsAddr := flag.String("metrics-addr", "", "Address for /metrics and /health (e.g. :9090)")

	flag.Parse()

	logger := log.New(os.Stderr, "[warehouse] ", log.LstdFlags)

	if *opportunitiesPath == "" || *accountsPath == "" || *fxPath == "" || *stageMapPath == "" {
		logger.Fatal("--opportunities, --accounts, --fx and --stage-map are required")
	}
	if *postgresDSN == "" && *clickhouseDSN == "" {
		logger.Fatal("at least one of --postgres-dsn or --clickhouse-dsn is required")
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadConfig(*configPath)
		if err != nil {
			logger.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	asOf, err := parseAsOf(*asOfFlag)
	if err != nil {
		logger.Fatalf("parse --as-of: %v", err)
	}

	if *metricsAddr != "" {
		go serveMetrics(logger, *metricsAddr)
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

	// Staging and primary output stores: Postgres when configured,
	// in-memory otherwise (ClickHouse-only loads).
	var (
		oppStore     storage.OpportunityStore  = memory.NewOpportunityStore()
		accountStore storage.AccountStore      = memory.NewAccountStore()
		fxStore      storage.FxRateStore       = memory.NewFxRateStore()
		stageStore   storage.StageMappingStore = memory.NewStageMappingStore()
		factStore    storage.FactStore         = memory.NewFactStore()
		anomalyStore storage.AnomalyStore      = memory.NewAnomalyStore()
	)

	if *postgresDSN != "" {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			logger.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()

		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			logger.Fatalf("apply postgres migrations: %v", err)
		}

		// Staging is rebuilt from the extracts each run.
		if _, err := pool.Exec(ctx,
			`TRUNCATE opportunities_raw, accounts_raw, fx_rates, stage_mapping`); err != nil {
			logger.Fatalf("clear staging tables: %v", err)
		}

		oppStore = pgstore.NewOpportunityStore(pool)
		accountStore = pgstore.NewAccountStore(pool)
		fxStore = pgstore.NewFxRateStore(pool)
		stageStore = pgstore.NewStageMappingStore(pool)
		factStore = pgstore.NewFactStore(pool)
		anomalyStore = pgstore.NewAnomalyStore(pool)
	}

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
		FactStore:         factStore,
		AnomalyStore:      anomalyStore,
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
	if *postgresDSN != "" {
		observability.RecordRowsLoaded("postgres", "opportunities_transformed", len(result.Facts))
		observability.RecordRowsLoaded("postgres", "opportunities_anomalies", len(result.Anomalies))
	}

	if *clickhouseDSN != "" {
		conn, err := migrations.RunClickhouseMigrations(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("apply clickhouse migrations: %v", err)
		}
		defer conn.Close()

		if err := chstore.NewFactStore(conn).ReplaceAll(ctx, result.Facts); err != nil {
			logger.Fatalf("load clickhouse facts: %v", err)
		}
		if err := chstore.NewAnomalyStore(conn).ReplaceAll(ctx, result.Anomalies); err != nil {
			logger.Fatalf("load clickhouse anomalies: %v", err)
		}
		observability.RecordRowsLoaded("clickhouse", "opportunity_facts", len(result.Facts))
		observability.RecordRowsLoaded("clickhouse", "opportunity_anomalies", len(result.Anomalies))
		logger.Printf("Loaded %d facts, %d anomalies into ClickHouse", len(result.Facts), len(result.Anomalies))
	}

	summaryJSON, err := reporting.RenderRunSummary(result.Summary)
	if err != nil {
		logger.Fatalf("render summary: %v", err)
	}
	fmt.Print(string(summaryJSON))
}

// serveMetrics exposes /metrics and /health for scrapers.
func serveMetrics(logger *log.Logger, addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintln(w, "ok")
	})

	logger.Printf("metrics listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		logger.Printf("metrics server stopped: %v", err)
	}
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

package reporting

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"crm-fact-pipeline/internal/domain"
)

func fptr(f float64) *float64 { return &f }

func sptr(s string) *string { return &s }

func iptr(i int64) *int64 { return &i }

func tptr(t time.Time) *time.Time { return &t }

func sampleFact() *domain.OpportunityFact {
	return &domain.OpportunityFact{
		ID:                 "OPP1",
		AccountID:          "ACC1",
		AccountName:        sptr("Acme, Inc."),
		AccountIndustry:    sptr("Manufacturing"),
		Name:               "Big Deal",
		StageName:          "Closed Won",
		StageStd:           "Closed Won",
		Amount:             fptr(1000),
		CurrencyCode:       "EUR",
		FxRateUsed:         fptr(1.1),
		AmountUSD:          fptr(1100.0000000000002),
		ExpectedRevenueUSD: fptr(990),
		Probability:        fptr(90),
		CloseDate:          tptr(time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)),
		CreatedDate:        tptr(time.Date(2024, 1, 2, 10, 0, 0, 0, time.UTC)),
		SalesCycleDays:     iptr(30),
		OwnerEmailHash:     sptr("abc123"),
		IsWon:              true,
	}
}

func TestRenderFactsCSVHeader(t *testing.T) {
	out := RenderFactsCSV(nil)

	want := "id,account_id,account_name,account_industry,name," +
		"stage_name,stage_std,amount,currency_code,fx_rate_used," +
		"amount_usd,expected_revenue_usd,probability," +
		"close_date,created_date,last_modified_date," +
		"sales_cycle_days,owner_email_hash,phone_normalized,is_won,is_lost\n"
	if out != want {
		t.Errorf("unexpected header:\nexpected %q\ngot      %q", want, out)
	}
}

func TestRenderFactsCSVRow(t *testing.T) {
	out := RenderFactsCSV([]*domain.OpportunityFact{sampleFact()})

	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header + 1 row, got %d lines", len(lines))
	}
	row := lines[1]

	// Comma-bearing account name must be quoted
	if !strings.Contains(row, `"Acme, Inc."`) {
		t.Errorf("expected quoted account name, got %q", row)
	}
	// Monetary values render with two decimals
	if !strings.Contains(row, "1100.00") {
		t.Errorf("expected amount_usd 1100.00, got %q", row)
	}
	if !strings.Contains(row, "2024-02-01") {
		t.Errorf("expected close date 2024-02-01, got %q", row)
	}
	if !strings.Contains(row, "2024-01-02T10:00:00Z") {
		t.Errorf("expected RFC3339 created date, got %q", row)
	}
	if !strings.HasSuffix(row, "true,false") {
		t.Errorf("expected is_won=true is_lost=false at row end, got %q", row)
	}
	// Nil fields (last_modified_date, phone_normalized) are empty cells
	if !strings.Contains(row, ",,") {
		t.Errorf("expected empty cells for nil fields, got %q", row)
	}
}

func TestRenderAnomaliesCSV(t *testing.T) {
	anomalies := []domain.Anomaly{
		{OpportunityID: "OPP1", Code: domain.AnomalyNegAmount, Detail: "amount is negative"},
		{OpportunityID: "OPP2", Code: domain.AnomalyMissingFx, Detail: "FX rate missing for currency/date"},
	}

	out := RenderAnomaliesCSV(anomalies)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header + 2 rows, got %d lines", len(lines))
	}
	if lines[0] != "opportunity_id,code,detail" {
		t.Errorf("unexpected header: %q", lines[0])
	}
	if lines[1] != "OPP1,NEG_AMOUNT,amount is negative" {
		t.Errorf("unexpected row: %q", lines[1])
	}
}

func TestRenderRunSummary(t *testing.T) {
	summary := domain.RunSummary{
		RowsIn:            10,
		RowsSkipped:       1,
		DuplicatesRemoved: 2,
		RowsOut:           7,
		AnomalyRows:       3,
		AnomalyCount:      4,
		AnomaliesByCode:   map[string]int{"NEG_AMOUNT": 1, "MISSING_FX": 3},
		DurationSeconds:   0.25,
	}

	data, err := RenderRunSummary(summary)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if decoded["rows_in"] != float64(10) {
		t.Errorf("expected rows_in 10, got %v", decoded["rows_in"])
	}
	if decoded["anomaly_count"] != float64(4) {
		t.Errorf("expected anomaly_count 4, got %v", decoded["anomaly_count"])
	}
	byCode, ok := decoded["anomalies_by_code"].(map[string]interface{})
	if !ok || byCode["MISSING_FX"] != float64(3) {
		t.Errorf("expected anomalies_by_code.MISSING_FX 3, got %v", decoded["anomalies_by_code"])
	}
}

func TestRenderRunSummaryNilMap(t *testing.T) {
	data, err := RenderRunSummary(domain.RunSummary{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(string(data), `"anomalies_by_code": {}`) {
		t.Errorf("expected empty object for nil map, got %s", data)
	}
}

func TestWriteArtifacts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	err := WriteArtifacts(dir, []*domain.OpportunityFact{sampleFact()}, nil, domain.RunSummary{RowsIn: 1, RowsOut: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, name := range []string{FactsFileName, AnomaliesFileName, SummaryFileName} {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("read %s: %v", name, err)
		}
		if len(data) == 0 {
			t.Errorf("expected %s to be non-empty", name)
		}
	}
}

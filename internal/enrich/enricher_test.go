package enrich

import (
	"testing"
	"time"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/refdata"
)

func date(value string) time.Time {
	t, err := time.Parse("2006-01-02", value)
	if err != nil {
		panic(err)
	}
	return t
}

func datePtr(value string) *time.Time {
	d := date(value)
	return &d
}

func f64(v float64) *float64 { return &v }

var testAsOf = date("2024-03-01")

func testRefData() (*refdata.FxIndex, *refdata.StageIndex) {
	fx := refdata.NewFxIndex([]domain.FxRate{
		{CurrencyCode: "EUR", AsOfDate: date("2024-01-30"), RateToUSD: 1.10},
		{CurrencyCode: "EUR", AsOfDate: date("2024-02-15"), RateToUSD: 1.08},
		{CurrencyCode: "GBP", AsOfDate: date("2024-06-01"), RateToUSD: 1.27},
	})
	stages := refdata.NewStageIndex([]domain.StageMapping{
		{RawStage: "Negotiation/Review", StandardStage: "Commit"},
		{RawStage: "Closed Won", StandardStage: "Closed Won"},
		{RawStage: "Closed Lost", StandardStage: "Closed Lost"},
	})
	return fx, stages
}

func transformOne(t *testing.T, r *domain.OpportunityRecord, accounts []domain.Account) (*domain.OpportunityFact, Signal) {
	t.Helper()
	fx, stages := testRefData()
	facts, signals := Transform([]*domain.OpportunityRecord{r}, accounts, fx, stages, testAsOf, Options{})
	if len(facts) != 1 || len(signals) != 1 {
		t.Fatalf("expected 1 fact and 1 signal, got %d/%d", len(facts), len(signals))
	}
	return facts[0], signals[0]
}

func TestTransform_AccountJoin(t *testing.T) {
	accounts := []domain.Account{
		{ID: "ACC1", Name: "Globex", Industry: "Manufacturing"},
	}

	fact, _ := transformOne(t, &domain.OpportunityRecord{ID: "OPP1", AccountID: "ACC1", StageName: "Closed Won"}, accounts)
	if fact.AccountName == nil || *fact.AccountName != "Globex" {
		t.Errorf("expected joined account name Globex, got %v", fact.AccountName)
	}
	if fact.AccountIndustry == nil || *fact.AccountIndustry != "Manufacturing" {
		t.Errorf("expected joined industry, got %v", fact.AccountIndustry)
	}

	// Unmatched account is a nil join, not an error.
	fact, _ = transformOne(t, &domain.OpportunityRecord{ID: "OPP2", AccountID: "NOPE", StageName: "Closed Won"}, accounts)
	if fact.AccountName != nil || fact.AccountIndustry != nil {
		t.Error("expected nil enrichment fields for unmatched account")
	}
}

func TestTransform_StagePassThroughOnMiss(t *testing.T) {
	fact, sig := transformOne(t, &domain.OpportunityRecord{ID: "OPP1", StageName: "Weird Stage"}, nil)

	if fact.StageStd != "Weird Stage" {
		t.Errorf("expected raw pass-through, got %s", fact.StageStd)
	}
	if !sig.StageMapMiss {
		t.Error("expected stage-miss signal")
	}

	fact, sig = transformOne(t, &domain.OpportunityRecord{ID: "OPP2", StageName: "Negotiation/Review"}, nil)
	if fact.StageStd != "Commit" {
		t.Errorf("expected mapped stage Commit, got %s", fact.StageStd)
	}
	if sig.StageMapMiss {
		t.Error("unexpected stage-miss signal for mapped stage")
	}
}

func TestTransform_ClosestPriorFxRate(t *testing.T) {
	fact, sig := transformOne(t, &domain.OpportunityRecord{
		ID:           "OPP1",
		StageName:    "Closed Won",
		Amount:       f64(1000),
		CurrencyCode: "EUR",
		CloseDate:    datePtr("2024-02-01"),
	}, nil)

	// EUR 2024-02-01 uses the 2024-01-30 rate 1.10, not 2024-02-15.
	if fact.AmountUSD == nil || *fact.AmountUSD != 1100.00 {
		t.Fatalf("expected 1100.00 USD, got %v", fact.AmountUSD)
	}
	if fact.FxRateUsed == nil || *fact.FxRateUsed != 1.10 {
		t.Errorf("expected rate 1.10, got %v", fact.FxRateUsed)
	}
	if sig.FxTier != refdata.FxMatchPrior {
		t.Errorf("expected unflagged prior-tier match, got %s", sig.FxTier)
	}
}

func TestTransform_DefaultCurrencyRateOne(t *testing.T) {
	for _, code := range []string{"", "USD", "usd"} {
		fact, sig := transformOne(t, &domain.OpportunityRecord{
			ID:        "OPP1",
			StageName: "Closed Won",
			Amount:    f64(500),
			// No close date either: default currency must not need one.
			CurrencyCode: code,
		}, nil)

		if fact.AmountUSD == nil || *fact.AmountUSD != 500 {
			t.Errorf("currency %q: expected 500 USD, got %v", code, fact.AmountUSD)
		}
		if sig.FxTier != refdata.FxMatchPrior {
			t.Errorf("currency %q: default currency must never be flagged", code)
		}
	}
}

func TestTransform_FxLatestFallbackFlagged(t *testing.T) {
	// GBP only has a rate dated after the close date.
	fact, sig := transformOne(t, &domain.OpportunityRecord{
		ID:           "OPP1",
		StageName:    "Closed Won",
		Amount:       f64(100),
		CurrencyCode: "GBP",
		CloseDate:    datePtr("2024-01-01"),
	}, nil)

	if fact.AmountUSD == nil || *fact.AmountUSD != 127.0 {
		t.Fatalf("expected fallback conversion 127.0, got %v", fact.AmountUSD)
	}
	if sig.FxTier != refdata.FxMatchLatest {
		t.Errorf("expected flagged latest-any tier, got %s", sig.FxTier)
	}
}

func TestTransform_UnknownCurrencyNilAmount(t *testing.T) {
	fact, sig := transformOne(t, &domain.OpportunityRecord{
		ID:           "OPP1",
		StageName:    "Closed Won",
		Amount:       f64(100),
		CurrencyCode: "JPY",
		CloseDate:    datePtr("2024-01-01"),
	}, nil)

	if fact.AmountUSD != nil {
		t.Errorf("expected nil AmountUSD for unknown currency, got %v", *fact.AmountUSD)
	}
	if sig.FxTier != refdata.FxMatchNone {
		t.Errorf("expected none tier, got %s", sig.FxTier)
	}
}

func TestTransform_ExpectedRevenue(t *testing.T) {
	base := domain.OpportunityRecord{
		ID:        "OPP1",
		StageName: "Closed Won",
		Amount:    f64(1000),
	}

	r := base
	r.Probability = f64(72)
	fact, _ := transformOne(t, &r, nil)
	if fact.ExpectedRevenueUSD == nil || *fact.ExpectedRevenueUSD != 720 {
		t.Errorf("expected 720, got %v", fact.ExpectedRevenueUSD)
	}

	// Out-of-range probability: nil, not clamped.
	r = base
	r.Probability = f64(150)
	fact, _ = transformOne(t, &r, nil)
	if fact.ExpectedRevenueUSD != nil {
		t.Errorf("expected nil for probability 150, got %v", *fact.ExpectedRevenueUSD)
	}
	if fact.Probability == nil || *fact.Probability != 150 {
		t.Error("raw probability must be preserved uncorrected")
	}

	// Missing probability: nil.
	r = base
	fact, _ = transformOne(t, &r, nil)
	if fact.ExpectedRevenueUSD != nil {
		t.Error("expected nil for missing probability")
	}
}

func TestTransform_SalesCycleDays(t *testing.T) {
	fact, _ := transformOne(t, &domain.OpportunityRecord{
		ID:          "OPP1",
		StageName:   "Closed Won",
		CreatedDate: datePtr("2024-01-01"),
		CloseDate:   datePtr("2024-01-31"),
	}, nil)
	if fact.SalesCycleDays == nil || *fact.SalesCycleDays != 30 {
		t.Errorf("expected 30 days, got %v", fact.SalesCycleDays)
	}

	// Inconsistent dates yield a negative span, preserved.
	fact, _ = transformOne(t, &domain.OpportunityRecord{
		ID:          "OPP2",
		StageName:   "Closed Won",
		CreatedDate: datePtr("2024-02-10"),
		CloseDate:   datePtr("2024-02-01"),
	}, nil)
	if fact.SalesCycleDays == nil || *fact.SalesCycleDays != -9 {
		t.Errorf("expected -9 days, got %v", fact.SalesCycleDays)
	}

	fact, _ = transformOne(t, &domain.OpportunityRecord{ID: "OPP3", StageName: "Closed Won", CreatedDate: datePtr("2024-01-01")}, nil)
	if fact.SalesCycleDays != nil {
		t.Error("expected nil without a close date")
	}
}

func TestTransform_WonLostMutuallyExclusive(t *testing.T) {
	cases := []struct {
		stage string
		won   bool
		lost  bool
	}{
		{"Closed Won", true, false},
		{"Closed Lost", false, true},
		{"Negotiation/Review", false, false},
	}
	for _, tc := range cases {
		fact, _ := transformOne(t, &domain.OpportunityRecord{ID: "OPP1", StageName: tc.stage}, nil)
		if fact.IsWon != tc.won || fact.IsLost != tc.lost {
			t.Errorf("stage %s: expected won=%v lost=%v, got won=%v lost=%v",
				tc.stage, tc.won, tc.lost, fact.IsWon, fact.IsLost)
		}
		if fact.IsWon && fact.IsLost {
			t.Errorf("stage %s: is_won and is_lost both true", tc.stage)
		}
	}

	// Even with overlapping configured sets the flags stay exclusive.
	fx, stages := testRefData()
	facts, _ := Transform(
		[]*domain.OpportunityRecord{{ID: "OPP1", StageName: "Closed Won"}},
		nil, fx, stages, testAsOf,
		Options{WonStages: []string{"Closed Won"}, LostStages: []string{"Closed Won"}},
	)
	if facts[0].IsWon && facts[0].IsLost {
		t.Error("overlapping sets must not set both flags")
	}
}

func TestTransform_PIIMinimized(t *testing.T) {
	fact, _ := transformOne(t, &domain.OpportunityRecord{
		ID:         "OPP1",
		StageName:  "Closed Won",
		OwnerEmail: "Owner@Example.com",
		Phone:      "(415) 555-0100",
	}, nil)

	if fact.OwnerEmailHash == nil || len(*fact.OwnerEmailHash) != 64 {
		t.Fatalf("expected 64-char email hash, got %v", fact.OwnerEmailHash)
	}
	if fact.PhoneNormalized == nil || *fact.PhoneNormalized != "+14155550100" {
		t.Errorf("expected +14155550100, got %v", fact.PhoneNormalized)
	}

	fact, _ = transformOne(t, &domain.OpportunityRecord{ID: "OPP2", StageName: "Closed Won"}, nil)
	if fact.OwnerEmailHash != nil || fact.PhoneNormalized != nil {
		t.Error("expected nil PII fields when source fields absent")
	}
}

func TestSortFacts_Deterministic(t *testing.T) {
	facts := []*domain.OpportunityFact{
		{ID: "C"},
		{ID: "B", CloseDate: datePtr("2024-02-01")},
		{ID: "A", CloseDate: datePtr("2024-02-01")},
		{ID: "D", CloseDate: datePtr("2024-01-01")},
	}

	SortFacts(facts)

	want := []string{"D", "A", "B", "C"}
	for i, id := range want {
		if facts[i].ID != id {
			t.Errorf("position %d: expected %s, got %s", i, id, facts[i].ID)
		}
	}
}

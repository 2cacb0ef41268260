package reporting

import (
	"encoding/csv"
	"strconv"
	"strings"
	"time"

	"crm-fact-pipeline/internal/domain"
)

// factColumns is the canonical column order of the transformed output.
// It matches the opportunities_transformed table.
var factColumns = []string{
	"id", "account_id", "account_name", "account_industry", "name",
	"stage_name", "stage_std", "amount", "currency_code", "fx_rate_used",
	"amount_usd", "expected_revenue_usd", "probability",
	"close_date", "created_date", "last_modified_date",
	"sales_cycle_days", "owner_email_hash", "phone_normalized",
	"is_won", "is_lost",
}

// RenderFactsCSV renders canonical facts as a CSV string in the order
// given. Nil fields render as empty cells. CRM text fields can contain
// commas, so cells go through a real CSV writer rather than naive joins.
func RenderFactsCSV(facts []*domain.OpportunityFact) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write(factColumns)
	for _, f := range facts {
		w.Write([]string{
			f.ID,
			f.AccountID,
			strOrEmpty(f.AccountName),
			strOrEmpty(f.AccountIndustry),
			f.Name,
			f.StageName,
			f.StageStd,
			moneyOrEmpty(f.Amount),
			f.CurrencyCode,
			floatOrEmpty(f.FxRateUsed),
			moneyOrEmpty(f.AmountUSD),
			moneyOrEmpty(f.ExpectedRevenueUSD),
			floatOrEmpty(f.Probability),
			dateOrEmpty(f.CloseDate),
			timestampOrEmpty(f.CreatedDate),
			timestampOrEmpty(f.LastModifiedDate),
			intOrEmpty(f.SalesCycleDays),
			strOrEmpty(f.OwnerEmailHash),
			strOrEmpty(f.PhoneNormalized),
			strconv.FormatBool(f.IsWon),
			strconv.FormatBool(f.IsLost),
		})
	}
	w.Flush()

	return sb.String()
}

// RenderAnomaliesCSV renders anomalies as a CSV string in the order given.
func RenderAnomaliesCSV(anomalies []domain.Anomaly) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	w.Write([]string{"opportunity_id", "code", "detail"})
	for _, a := range anomalies {
		w.Write([]string{a.OpportunityID, a.Code, a.Detail})
	}
	w.Flush()

	return sb.String()
}

func strOrEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// moneyOrEmpty renders monetary values with two decimals.
func moneyOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', 2, 64)
}

func floatOrEmpty(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}

func intOrEmpty(i *int64) string {
	if i == nil {
		return ""
	}
	return strconv.FormatInt(*i, 10)
}

func dateOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02")
}

func timestampOrEmpty(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

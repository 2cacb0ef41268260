package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crm-fact-pipeline/internal/domain"
	"crm-fact-pipeline/internal/storage"
	"crm-fact-pipeline/internal/storage/postgres"
)

func TestOpportunityStore_InsertBulkPreservesOrder(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewOpportunityStore(pool)
	ctx := context.Background()

	// Staging legitimately holds several versions per id; the dedup
	// tie-break depends on insertion order surviving the round trip.
	records := []*domain.OpportunityRecord{
		{ID: "OPP1", Name: "v1", LastModifiedDate: ptr(date(2024, 1, 1))},
		{ID: "OPP2", Name: "other", LastModifiedDate: ptr(date(2024, 1, 2))},
		{ID: "OPP1", Name: "v2", LastModifiedDate: ptr(date(2024, 1, 1))},
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	stored, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	assert.Equal(t, "v1", stored[0].Name)
	assert.Equal(t, "other", stored[1].Name)
	assert.Equal(t, "v2", stored[2].Name)
}

func TestOpportunityStore_NullableFieldsRoundTrip(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewOpportunityStore(pool)
	ctx := context.Background()

	records := []*domain.OpportunityRecord{
		{
			ID: "OPP1", AccountID: "ACC1", Name: "Deal", StageName: "Prospecting",
			Amount: ptr(-50.0), CurrencyCode: "EUR", Probability: ptr(20.0),
			CloseDate: ptr(date(2024, 2, 1)), OwnerEmail: "a@b.com", Phone: "555",
		},
		{ID: "OPP2", Name: "Bare"},
	}
	require.NoError(t, store.InsertBulk(ctx, records))

	stored, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 2)

	full := stored[0]
	assert.Equal(t, -50.0, *full.Amount)
	assert.Equal(t, 20.0, *full.Probability)
	assert.True(t, full.CloseDate.Equal(date(2024, 2, 1)))
	assert.Nil(t, full.CreatedDate)
	assert.Nil(t, full.LastModifiedDate)

	bare := stored[1]
	assert.Nil(t, bare.Amount)
	assert.Nil(t, bare.Probability)
	assert.Nil(t, bare.CloseDate)
	assert.Empty(t, bare.CurrencyCode)
}

func TestAccountStore_InsertBulkRejectsDuplicate(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewAccountStore(pool)
	ctx := context.Background()

	require.NoError(t, store.InsertBulk(ctx, []domain.Account{
		{ID: "ACC1", Name: "Acme", Industry: "Manufacturing"},
	}))

	err := store.InsertBulk(ctx, []domain.Account{
		{ID: "ACC1", Name: "Acme again"},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

func TestFxRateStore_InsertBulkAndGetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	store := postgres.NewFxRateStore(pool)
	ctx := context.Background()

	rates := []domain.FxRate{
		{CurrencyCode: "GBP", AsOfDate: date(2024, 1, 10), RateToUSD: 1.27},
		{CurrencyCode: "EUR", AsOfDate: date(2024, 1, 30), RateToUSD: 1.10},
		{CurrencyCode: "EUR", AsOfDate: date(2024, 1, 1), RateToUSD: 1.08},
	}
	require.NoError(t, store.InsertBulk(ctx, rates))

	stored, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 3)

	// (currency asc, date asc)
	assert.Equal(t, "EUR", stored[0].CurrencyCode)
	assert.True(t, stored[0].AsOfDate.Equal(date(2024, 1, 1)))
	assert.Equal(t, "EUR", stored[1].CurrencyCode)
	assert.Equal(t, "GBP", stored[2].CurrencyCode)

	// Repeated (currency, date) is rejected
	err = store.InsertBulk(ctx, []domain.FxRate{
		{CurrencyCode: "EUR", AsOfDate: date(2024, 1, 30), RateToUSD: 1.11},
	})
	assert.ErrorIs(t, err, storage.ErrDuplicateKey)
}

package pricing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"salonbook/config"
	"salonbook/database/repository"
	"salonbook/models"
)

type fakeCatalog struct {
	services  map[string]models.Service
	overrides map[string]int
}

func (f *fakeCatalog) FindByIDs(_ context.Context, ids []string) ([]models.Service, error) {
	var out []models.Service
	for _, id := range ids {
		if s, ok := f.services[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeCatalog) DurationOverrides(_ context.Context, _ int64, _ []string) (map[string]int, error) {
	if f.overrides == nil {
		return map[string]int{}, nil
	}
	return f.overrides, nil
}

type fakeSettings map[string]string

func (f fakeSettings) GetInt(_ context.Context, key string, def int) int {
	switch key {
	case config.KeySlotDurationMinutes:
		return 60
	case config.KeyOnlinePaymentDiscountPercent:
		if v, ok := f["pct"]; ok {
			switch v {
			case "5":
				return 5
			case "0":
				return 0
			case "150":
				return 150
			}
		}
		return 5
	}
	return def
}

func (f fakeSettings) GetString(_ context.Context, _ string, def string) string {
	return "UAH"
}

func intp(v int) *int       { return &v }
func int64p(v int64) *int64 { return &v }

func newEngine(catalog *fakeCatalog, settings fakeSettings) *DefaultPricingService {
	return NewDefaultPricingService(catalog, settings)
}

func TestAggregateDurationPrecedence(t *testing.T) {
	catalog := &fakeCatalog{
		services: map[string]models.Service{
			"cut":   {ID: "cut", Name: "Haircut", DurationMinutes: intp(45), PriceCents: int64p(50000)},
			"color": {ID: "color", Name: "Coloring", DurationMinutes: intp(120), PriceCents: int64p(150000)},
			"brow":  {ID: "brow", Name: "Brows"}, // no duration, no price
		},
		overrides: map[string]int{"cut": 30},
	}
	engine := newEngine(catalog, fakeSettings{})
	masterID := int64(7)

	agg, err := engine.Aggregate(context.Background(), []string{"cut", "color", "brow"}, &masterID)
	require.NoError(t, err)

	// cut: master override 30; color: own 120; brow: slot fallback 60.
	assert.Equal(t, 30+120+60, agg.TotalMinutes)
	assert.Equal(t, int64(200000), agg.TotalPriceCents)
	assert.Equal(t, "UAH", agg.Currency)
	require.Len(t, agg.Items, 3)
	assert.Equal(t, "cut", agg.Items[0].ServiceID)
	assert.Equal(t, 30, agg.Items[0].Minutes)
	assert.Equal(t, int64(0), agg.Items[2].PriceCents)
}

func TestAggregateUnknownServiceFails(t *testing.T) {
	engine := newEngine(&fakeCatalog{services: map[string]models.Service{}}, fakeSettings{})
	_, err := engine.Aggregate(context.Background(), []string{"ghost"}, nil)
	assert.ErrorIs(t, err, repository.ErrServiceNotFound)
}

func TestAggregateEmptyListFails(t *testing.T) {
	engine := newEngine(&fakeCatalog{}, fakeSettings{})
	_, err := engine.Aggregate(context.Background(), nil, nil)
	assert.ErrorIs(t, err, repository.ErrServiceNotFound)
}

func TestDiscountedPriceRoundsHalfUp(t *testing.T) {
	cases := []struct {
		original int64
		pct      int
		want     int64
	}{
		{12345, 5, 11728}, // 11727.75 rounds up
		{10000, 5, 9500},
		{1, 5, 1},   // 0.95 rounds to 1
		{10, 5, 10}, // 9.5 rounds up to 10
		{0, 5, 0},
		{10000, 100, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, DiscountedPrice(tc.original, tc.pct),
			"original=%d pct=%d", tc.original, tc.pct)
	}
}

func TestQuoteForOnlineDiscount(t *testing.T) {
	engine := newEngine(&fakeCatalog{}, fakeSettings{"pct": "5"})

	q := engine.QuoteFor(context.Background(), 12345, true)
	assert.Equal(t, int64(11728), q.FinalCents)
	require.NotNil(t, q.DiscountApplied)
	assert.Equal(t, OnlineDiscountLabel, *q.DiscountApplied)
	assert.Equal(t, int64(617), q.DiscountAmountCents)
	assert.Equal(t, 5, q.DiscountPercentApplied)
	assert.Equal(t, q.OriginalCents-q.FinalCents, q.DiscountAmountCents)
}

func TestQuoteForCashKeepsOriginal(t *testing.T) {
	engine := newEngine(&fakeCatalog{}, fakeSettings{"pct": "5"})
	q := engine.QuoteFor(context.Background(), 12345, false)
	assert.Equal(t, int64(12345), q.FinalCents)
	assert.Nil(t, q.DiscountApplied)
	assert.Zero(t, q.DiscountAmountCents)
	assert.Zero(t, q.DiscountPercentApplied)
}

func TestQuoteForClampsPercent(t *testing.T) {
	engine := newEngine(&fakeCatalog{}, fakeSettings{"pct": "150"})
	q := engine.QuoteFor(context.Background(), 10000, true)
	assert.Equal(t, int64(0), q.FinalCents, "percent above 100 clamps to full discount")

	engine = newEngine(&fakeCatalog{}, fakeSettings{"pct": "0"})
	q = engine.QuoteFor(context.Background(), 10000, true)
	assert.Equal(t, int64(10000), q.FinalCents)
	assert.Nil(t, q.DiscountApplied)
}

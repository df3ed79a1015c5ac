package grammar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbot/internal/model"
)

func TestForVariant(t *testing.T) {
	for _, v := range []model.Variant{model.InsiderPurchase, model.CongressionalTrade, model.EarningsReport} {
		g, err := ForVariant(v)
		require.NoError(t, err)
		assert.Equal(t, v, g.Variant)
	}
	_, err := ForVariant(model.PriceAlert)
	assert.Error(t, err)
}

func TestSearchPromptSpellsDates(t *testing.T) {
	from := time.Date(2026, 2, 14, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 2, 21, 0, 0, 0, 0, time.UTC)
	p := Insider().Search(from, to)
	assert.Contains(t, p, "February 14, 2026")
	assert.Contains(t, p, "February 21, 2026")
	assert.Contains(t, p, "NO_TRADES")
}

func TestAnchorRequirements(t *testing.T) {
	assert.True(t, Insider().RequireAnchor)
	assert.True(t, Earnings().RequireAnchor)
	assert.False(t, Congress().RequireAnchor)
	assert.Equal(t, []string{"VALUE", "SHARES"}, Insider().NumericLabels)
	assert.Equal(t, []string{"EPS", "REVENUE"}, Earnings().NumericLabels)
}

func TestInsiderDecode(t *testing.T) {
	r, ok := Insider().Decode(map[string]any{
		"ticker": "NVDA", "executive": "Jensen Huang", "title": "CEO",
		"company": "NVIDIA Corp", "value": "$1,200,000", "shares": "10,000",
		"trade_date": "2026-02-25",
	})
	require.True(t, ok)
	assert.Equal(t, "Jensen Huang", r.Subject)
	assert.Equal(t, "NVDA", r.Ticker)
	assert.Equal(t, "$1,200,000", r.Value)

	_, ok = Insider().Decode(map[string]any{"ticker": "NVDA"})
	assert.False(t, ok)
}

func TestEarningsDecodeSubjectIsTicker(t *testing.T) {
	r, ok := Earnings().Decode(map[string]any{
		"ticker": "AAPL", "company": "Apple Inc.", "report_date": "2026-01-28",
		"fiscal_period": "Q4 2025",
	})
	require.True(t, ok)
	assert.Equal(t, "AAPL", r.Subject)
	assert.Equal(t, "Q4 2025", r.FiscalPeriod)
}

func TestDecodeToleratesNumericStrings(t *testing.T) {
	// models sometimes emit bare numbers where a string was asked for
	r, ok := Congress().Decode(map[string]any{
		"ticker": "AAPL", "politician": "Jane Doe", "amount": 250000.0,
		"trade_date": "2026-02-20",
	})
	require.True(t, ok)
	assert.Equal(t, "250000", r.Amount)
}

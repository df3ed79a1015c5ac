package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadBuyPricesMissingOrCorrupt(t *testing.T) {
	assert.Empty(t, LoadBuyPrices(filepath.Join(t.TempDir(), "absent.json")))

	path := filepath.Join(t.TempDir(), "buy_prices.json")
	require.NoError(t, os.WriteFile(path, []byte("[oops"), 0o644))
	assert.Empty(t, LoadBuyPrices(path))
}

func TestSaveBuyPricesMergesNotReplaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buy_prices.json")

	require.NoError(t, SaveBuyPrices(path, map[string]BuyPrice{
		"AAPL": {RecommendedValue: "$180.00", Date: "2026-01-28", FiscalPeriod: "Q4 2025"},
	}))
	require.NoError(t, SaveBuyPrices(path, map[string]BuyPrice{
		"NVDA": {RecommendedValue: "$220.00", Date: "2026-02-25", FiscalPeriod: "Q4 2025"},
	}))

	got := LoadBuyPrices(path)
	require.Len(t, got, 2)
	assert.Equal(t, "$180.00", got["AAPL"].RecommendedValue)
	assert.Equal(t, "$220.00", got["NVDA"].RecommendedValue)
}

func TestSaveBuyPricesUpdatesExistingTicker(t *testing.T) {
	path := filepath.Join(t.TempDir(), "buy_prices.json")

	require.NoError(t, SaveBuyPrices(path, map[string]BuyPrice{
		"AAPL": {RecommendedValue: "$180.00", Date: "2026-01-28", FiscalPeriod: "Q4 2025"},
	}))
	require.NoError(t, SaveBuyPrices(path, map[string]BuyPrice{
		"AAPL": {RecommendedValue: "$192.00", Date: "2026-04-30", FiscalPeriod: "Q1 2026"},
	}))

	got := LoadBuyPrices(path)
	require.Len(t, got, 1)
	assert.Equal(t, "$192.00", got["AAPL"].RecommendedValue)
	assert.Equal(t, "Q1 2026", got["AAPL"].FiscalPeriod)
}

package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketbot/internal/config"
	"marketbot/internal/model"
)

func insider(ticker, value string) model.Record {
	return model.Record{Variant: model.InsiderPurchase, Subject: "Someone", Ticker: ticker, Value: value}
}

func TestApplyNoRulesPassthrough(t *testing.T) {
	in := []model.Record{insider("NVDA", "$500,000"), insider("AMD", "$50,000")}
	assert.Equal(t, in, Apply(in, config.BotConfig{}))
}

func TestWatchlistFilter(t *testing.T) {
	in := []model.Record{insider("NVDA", ""), insider("AMD", ""), insider("aapl", "")}
	got := Apply(in, config.BotConfig{Watchlist: []string{"nvda", " AAPL "}})
	require.Len(t, got, 2)
	assert.Equal(t, "NVDA", got[0].Ticker)
	assert.Equal(t, "aapl", got[1].Ticker)
}

func TestMinValueFilter(t *testing.T) {
	in := []model.Record{
		insider("NVDA", "$500,000"),
		insider("AMD", "$50,000"),
		insider("MSFT", "around half a million"), // unparseable, kept
		insider("AAPL", ""),                      // no value, kept
	}
	got := Apply(in, config.BotConfig{MinValue: 100000})
	require.Len(t, got, 3)
	assert.Equal(t, "NVDA", got[0].Ticker)
	assert.Equal(t, "MSFT", got[1].Ticker)
	assert.Equal(t, "AAPL", got[2].Ticker)
}

func TestMinValueUsesCongressRangeLowerBound(t *testing.T) {
	in := []model.Record{
		{Variant: model.CongressionalTrade, Subject: "Jane Doe", Ticker: "AAPL", Amount: "$100,001 - $250,000"},
		{Variant: model.CongressionalTrade, Subject: "John Roe", Ticker: "TSLA", Amount: "$15,001 - $50,000"},
	}
	got := Apply(in, config.BotConfig{MinValue: 100000})
	require.Len(t, got, 1)
	assert.Equal(t, "AAPL", got[0].Ticker)
}

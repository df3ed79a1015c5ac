package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickStr(t *testing.T) {
	m := map[string]any{"symbol": "NVDA", "ticker": "  ", "count": 3.0}
	assert.Equal(t, "NVDA", pickStr(m, "ticker", "symbol"))
	assert.Equal(t, "", pickStr(m, "ticker", "missing"))
	assert.Equal(t, "", pickStr(m, "count"))
}

func TestPickFloatNilVsZero(t *testing.T) {
	m := map[string]any{"epsActual": 0.0, "epsEstimated": nil}
	got := pickFloat(m, "epsActual")
	require.NotNil(t, got)
	assert.Equal(t, 0.0, *got)
	assert.Nil(t, pickFloat(m, "epsEstimated"))
	assert.Nil(t, pickFloat(m, "missing"))
}

func TestRowsShapes(t *testing.T) {
	arr := rows([]byte(`[{"symbol":"NVDA"},{"symbol":"AAPL"}]`))
	require.Len(t, arr, 2)
	assert.Equal(t, "NVDA", pickStr(arr[0], "symbol"))

	wrapped := rows([]byte(`{"data":[{"symbol":"NVDA"}]}`))
	require.Len(t, wrapped, 1)
	assert.Equal(t, "NVDA", pickStr(wrapped[0], "symbol"))

	single := rows([]byte(`{"symbol":"NVDA"}`))
	require.Len(t, single, 1)

	assert.Empty(t, rows([]byte(`not json`)))
}

func TestMoneyString(t *testing.T) {
	assert.Equal(t, "$2,500,000", moneyString(2500000))
	assert.Equal(t, "$500", moneyString(500.75))
	assert.Equal(t, "$1,000", moneyString(1000))
	assert.Equal(t, "-$42,000", moneyString(-42000))
}

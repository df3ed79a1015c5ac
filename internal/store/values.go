package store

import (
	"encoding/json"
	"os"
	"path/filepath"
)

// BuyPrice is the derived recommended entry for one ticker, produced after
// an earnings report.
type BuyPrice struct {
	RecommendedValue string `json:"recommended_value"` // e.g. "$190.00"
	Date             string `json:"date"`              // announcement date
	FiscalPeriod     string `json:"fiscal_period"`     // e.g. "Q4 2025"
}

// LoadBuyPrices reads the ticker -> buy price map. Missing or corrupt
// files are an empty map.
func LoadBuyPrices(path string) map[string]BuyPrice {
	out := make(map[string]BuyPrice)
	b, err := os.ReadFile(path)
	if err != nil {
		return out
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return map[string]BuyPrice{}
	}
	return out
}

// SaveBuyPrices merges updates into the persisted map and writes it back.
// Tickers absent from the current batch are preserved, never dropped.
func SaveBuyPrices(path string, updates map[string]BuyPrice) error {
	merged := LoadBuyPrices(path)
	for ticker, bp := range updates {
		merged[ticker] = bp
	}
	b, err := json.MarshalIndent(merged, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

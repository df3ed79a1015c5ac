package engine

import (
	"context"
	"sort"

	"github.com/phuslu/log"

	"marketbot/internal/extract"
	"marketbot/internal/model"
	"marketbot/internal/source"
	"marketbot/internal/store"
)

// RunPriceAlerts checks every tracked ticker against its recommended buy
// price and returns alert records for those trading at or below it. It
// reads the derived-value file produced by the earnings bot and never
// touches the seen store: alerts repeat until the price recovers.
func RunPriceAlerts(ctx context.Context, quoter source.Quoter, buyPricesPath string) ([]model.Record, model.Outcome, error) {
	tracked := store.LoadBuyPrices(buyPricesPath)
	if len(tracked) == 0 {
		log.Info().Str("path", buyPricesPath).Msg("no buy prices tracked yet")
		return nil, model.DoneEmpty, nil
	}

	tickers := make([]string, 0, len(tracked))
	for t := range tracked {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	var alerts []model.Record
	for _, ticker := range tickers {
		bp := tracked[ticker]
		buyBelow, ok := extract.ParseMoney(bp.RecommendedValue)
		if !ok || buyBelow <= 0 {
			log.Warn().Str("ticker", ticker).Str("value", bp.RecommendedValue).Msg("unparseable buy price, skipped")
			continue
		}
		price, err := quoter.Quote(ctx, ticker)
		if err != nil {
			log.Warn().Str("ticker", ticker).Err(err).Msg("quote unavailable, skipped")
			continue
		}
		if price > buyBelow {
			continue
		}
		alerts = append(alerts, model.Record{
			Variant:      model.PriceAlert,
			Subject:      ticker,
			Ticker:       ticker,
			FiscalPeriod: bp.FiscalPeriod,
			OccurredOn:   bp.Date,
			CurrentPrice: model.Float(price),
			BuyBelow:     model.Float(buyBelow),
		})
	}
	if len(alerts) == 0 {
		return nil, model.DoneEmpty, nil
	}
	return alerts, model.Done, nil
}

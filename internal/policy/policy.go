// Package policy applies config-driven batch filters over records before
// reconciliation: the earnings watchlist and the minimum trade size.
package policy

import (
	"strings"

	"marketbot/internal/config"
	"marketbot/internal/extract"
	"marketbot/internal/model"
)

// Apply filters a batch against the bot's config. With no rules configured
// the batch passes through unchanged.
func Apply(records []model.Record, cfg config.BotConfig) []model.Record {
	records = byWatchlist(records, cfg.Watchlist)
	records = byMinValue(records, cfg.MinValue)
	return records
}

func byWatchlist(records []model.Record, watchlist []string) []model.Record {
	if len(watchlist) == 0 {
		return records
	}
	watched := make(map[string]struct{}, len(watchlist))
	for _, t := range watchlist {
		watched[strings.ToUpper(strings.TrimSpace(t))] = struct{}{}
	}
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		if _, ok := watched[strings.ToUpper(strings.TrimSpace(r.Ticker))]; ok {
			out = append(out, r)
		}
	}
	return out
}

// byMinValue drops trades below the threshold. A record whose value string
// cannot be parsed is kept: the text source was already instructed to
// filter, and dropping on a parse gap would silently lose real events.
func byMinValue(records []model.Record, min float64) []model.Record {
	if min <= 0 {
		return records
	}
	out := make([]model.Record, 0, len(records))
	for _, r := range records {
		s := r.AmountField()
		if s == "" {
			out = append(out, r)
			continue
		}
		if v, ok := extract.ParseMoney(s); ok && v < min {
			continue
		}
		out = append(out, r)
	}
	return out
}

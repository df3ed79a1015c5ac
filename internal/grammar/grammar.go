package grammar

import (
	"fmt"
	"strings"
	"time"

	"marketbot/internal/model"
)

// promptDate is how dates are spelled inside prompts.
const promptDate = "January 2, 2006"

// Grammar describes how one event variant talks to the text source and how
// its responses are decoded: which sentinel means "no results", which
// prompts to issue at each cascade step, and how a JSON line maps onto a
// Record. The engine is parameterized over this descriptor, so the three
// bots share one pipeline.
type Grammar struct {
	Variant  model.Variant
	Sentinel string // literal no-results token the prompt asks for

	// NumericLabels are the key-value grammar labels pulled by the anchor
	// extraction call. RequireAnchor marks variants where a candidate
	// without at least one concrete figure is dropped as a likely
	// hallucination even when date-confirmed.
	NumericLabels []string
	RequireAnchor bool

	Search  func(from, to time.Time) string
	Recency func(subject, ticker string) string
	Confirm func(subject, ticker, target, lastKnown string) string
	Numeric func(subject, ticker, target string) string

	// Decode maps one decoded JSON-object line onto a Record. It returns
	// false when the line lacks the required fields.
	Decode func(m map[string]any) (model.Record, bool)
}

// ForVariant returns the grammar for a bot variant.
func ForVariant(v model.Variant) (Grammar, error) {
	switch v {
	case model.InsiderPurchase:
		return Insider(), nil
	case model.CongressionalTrade:
		return Congress(), nil
	case model.EarningsReport:
		return Earnings(), nil
	default:
		return Grammar{}, fmt.Errorf("unknown variant: %s", v)
	}
}

func str(m map[string]any, key string) string {
	if v, ok := m[key]; ok {
		if s, ok := v.(string); ok {
			return strings.TrimSpace(s)
		}
		if f, ok := v.(float64); ok {
			return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", f), "0"), ".")
		}
	}
	return ""
}

func num(m map[string]any, key string) *float64 {
	if v, ok := m[key]; ok {
		if f, ok := v.(float64); ok {
			return model.Float(f)
		}
	}
	return nil
}

// Insider covers SEC Form 4 purchases by C-suite executives.
func Insider() Grammar {
	return Grammar{
		Variant:       model.InsiderPurchase,
		Sentinel:      "NO_TRADES",
		NumericLabels: []string{"VALUE", "SHARES"},
		RequireAnchor: true,
		Search: func(from, to time.Time) string {
			return fmt.Sprintf(`Find all significant stock PURCHASES (not sales) by company CEOs, CFOs, COOs, CTOs, or other C-suite executives disclosed between %s and %s that are worth $100,000 or more.

Look for insider buying activity reported in SEC Form 4 filings, financial news, and insider trading databases.

For each trade, provide in this EXACT JSON format (one trade per line):
{"ticker": "AAPL", "executive": "Tim Cook", "title": "CEO", "company": "Apple Inc.", "value": "$500,000", "shares": "5,000", "trade_date": "2026-01-25"}

Only include PURCHASES over $100,000 by C-suite executives. Return ONLY the JSON lines, no other text. If no trades found, return: NO_TRADES`,
				from.Format(promptDate), to.Format(promptDate))
		},
		Recency: func(subject, ticker string) string {
			return fmt.Sprintf(`On what date was the most recent SEC Form 4 stock PURCHASE by %s of %s filed or reported?

Return ONLY the date in YYYY-MM-DD format, nothing else. If you cannot find one, return: UNKNOWN`, subject, ticker)
		},
		Confirm: func(subject, ticker, target, lastKnown string) string {
			return fmt.Sprintf(`We have an unconfirmed report that %s purchased %s stock on %s. The most recent purchase we can independently verify is dated %s.

Can you positively confirm a purchase by %s on %s? Answer with exactly YES or NO. If you cannot positively confirm it, answer NO.`,
				subject, ticker, target, lastKnown, subject, target)
		},
		Numeric: func(subject, ticker, target string) string {
			return fmt.Sprintf(`For the stock purchase of %s by %s on %s, report the figures in this EXACT format (one per line):
VALUE: <total dollar value of the purchase>
SHARES: <number of shares purchased>

Omit any line you cannot source. Return ONLY those lines, no other text. If you cannot find any figure, return: NO_FIGURES`,
				ticker, subject, target)
		},
		Decode: func(m map[string]any) (model.Record, bool) {
			r := model.Record{
				Variant:    model.InsiderPurchase,
				Subject:    str(m, "executive"),
				Ticker:     str(m, "ticker"),
				Company:    str(m, "company"),
				Title:      str(m, "title"),
				Value:      str(m, "value"),
				Shares:     str(m, "shares"),
				OccurredOn: str(m, "trade_date"),
			}
			return r, r.Subject != "" && r.Ticker != ""
		},
	}
}

// Congress covers disclosed stock purchases by US Congress members.
// Disclosed amounts are ranges, so there is no concrete figure to anchor on.
func Congress() Grammar {
	return Grammar{
		Variant:       model.CongressionalTrade,
		Sentinel:      "NO_TRADES",
		RequireAnchor: false,
		Search: func(from, to time.Time) string {
			return fmt.Sprintf(`Find all stock PURCHASES (not sales) by US Congress members disclosed between %s and %s that are worth $100,000 or more.

For each trade, provide in this EXACT JSON format (one trade per line):
{"ticker": "AAPL", "politician": "Nancy Pelosi", "party": "D", "chamber": "House", "amount": "$100,001 - $250,000", "trade_date": "2026-01-25", "disclosure_date": "2026-01-28"}

Only include PURCHASES over $100,000. Return ONLY the JSON lines, no other text. If no trades found, return: NO_TRADES`,
				from.Format(promptDate), to.Format(promptDate))
		},
		Recency: func(subject, ticker string) string {
			return fmt.Sprintf(`On what date was the most recent disclosed stock PURCHASE of %s by %s?

Return ONLY the date in YYYY-MM-DD format, nothing else. If you cannot find one, return: UNKNOWN`, ticker, subject)
		},
		Confirm: func(subject, ticker, target, lastKnown string) string {
			return fmt.Sprintf(`We have an unconfirmed report that %s purchased %s stock on %s. The most recent purchase we can independently verify is dated %s.

Can you positively confirm a purchase by %s on %s? Answer with exactly YES or NO. If you cannot positively confirm it, answer NO.`,
				subject, ticker, target, lastKnown, subject, target)
		},
		Decode: func(m map[string]any) (model.Record, bool) {
			r := model.Record{
				Variant:     model.CongressionalTrade,
				Subject:     str(m, "politician"),
				Ticker:      str(m, "ticker"),
				Party:       str(m, "party"),
				Chamber:     str(m, "chamber"),
				Amount:      str(m, "amount"),
				OccurredOn:  str(m, "trade_date"),
				DisclosedOn: str(m, "disclosure_date"),
			}
			return r, r.Subject != "" && r.Ticker != ""
		},
	}
}

// Earnings covers quarterly earnings reports. The subject is the ticker
// itself; the anchor extraction pulls actual EPS/revenue figures.
func Earnings() Grammar {
	return Grammar{
		Variant:       model.EarningsReport,
		Sentinel:      "NO_EARNINGS",
		NumericLabels: []string{"EPS", "REVENUE"},
		RequireAnchor: true,
		Search: func(from, to time.Time) string {
			return fmt.Sprintf(`Find all publicly traded companies that reported quarterly earnings between %s and %s.

For each report, provide in this EXACT JSON format (one report per line):
{"ticker": "AAPL", "company": "Apple Inc.", "report_date": "2026-01-28", "fiscal_period": "Q4 2025"}

Return ONLY the JSON lines, no other text. If no reports found, return: NO_EARNINGS`,
				from.Format(promptDate), to.Format(promptDate))
		},
		Recency: func(subject, ticker string) string {
			return fmt.Sprintf(`On what date did %s most recently report quarterly earnings?

Return ONLY the date in YYYY-MM-DD format, nothing else. If you cannot find one, return: UNKNOWN`, ticker)
		},
		Confirm: func(subject, ticker, target, lastKnown string) string {
			return fmt.Sprintf(`We have an unconfirmed report that %s announced quarterly earnings on %s. The most recent report we can independently verify is dated %s.

Can you positively confirm an earnings announcement by %s on %s? Answer with exactly YES or NO. If you cannot positively confirm it, answer NO.`,
				ticker, target, lastKnown, ticker, target)
		},
		Numeric: func(subject, ticker, target string) string {
			return fmt.Sprintf(`For the quarterly earnings %s reported on %s, report the actual figures in this EXACT format (one per line):
EPS: <actual earnings per share>
REVENUE: <actual revenue in dollars>

Omit any line you cannot source. Return ONLY those lines, no other text. If you cannot find any figure, return: NO_FIGURES`,
				ticker, target)
		},
		Decode: func(m map[string]any) (model.Record, bool) {
			r := model.Record{
				Variant:      model.EarningsReport,
				Ticker:       str(m, "ticker"),
				Company:      str(m, "company"),
				OccurredOn:   str(m, "report_date"),
				FiscalPeriod: str(m, "fiscal_period"),
				EPSActual:    num(m, "eps_actual"),
			}
			r.Subject = r.Ticker
			return r, r.Ticker != ""
		},
	}
}

package source

import (
	"context"

	"marketbot/internal/model"
)

// Structured is the typed market-data side: request by variant and date
// range, get loosely-typed records with optional fields. Known coverage
// gaps, especially for same-day events, are expected.
type Structured interface {
	Events(ctx context.Context, v model.Variant, from, to string) ([]model.Record, error)
}

// Text is the natural-language completion/search side. Prompts must
// instruct the source to answer in one of the extraction grammars or with
// a literal no-results sentinel; the extractor degrades gracefully when
// the source does not honor that.
type Text interface {
	Complete(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Quoter supplies current prices for the price-alert run mode.
type Quoter interface {
	Quote(ctx context.Context, ticker string) (float64, error)
}

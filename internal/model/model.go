package model

// Variant selects which record grammar and bot behavior applies.
type Variant string

const (
	InsiderPurchase    Variant = "insider"
	CongressionalTrade Variant = "congress"
	EarningsReport     Variant = "earnings"
	PriceAlert         Variant = "pricealert"
)

// Provenance tags where a record came from.
type Provenance string

const (
	FromStructured Provenance = "structured"
	FromText       Provenance = "text-derived"
)

// Confidence is the verification state of a text-derived candidate.
// Only DateConfirmed or BackupConfirmed candidates may be merged.
type Confidence string

const (
	Unverified      Confidence = "unverified"
	DateConfirmed   Confidence = "date-confirmed"
	BackupConfirmed Confidence = "backup-confirmed"
	Rejected        Confidence = "rejected"
)

// Record is the normalized representation for all event variants.
// Everything except Subject/Ticker is optional: the text source may omit
// any field and the structured source only supplies a subset. Numeric
// fields are pointers so "unknown" stays distinguishable from zero.
type Record struct {
	Variant    Variant
	Subject    string // executive name, politician name, or ticker
	Ticker     string
	Company    string
	OccurredOn string // ISO 8601 date (trade date / announcement date)

	// insider
	Title  string // e.g. "CEO"
	Value  string // e.g. "$2,500,000"
	Shares string // e.g. "25,000"

	// congressional
	Amount      string // disclosed range, e.g. "$100,001 - $250,000"
	Party       string
	Chamber     string
	DisclosedOn string

	// earnings
	EPSActual       *float64
	EPSEstimate     *float64
	EPSPrevious     *float64 // same quarter last year
	RevenueActual   *float64
	RevenueEstimate *float64
	RevenuePrevious *float64
	FiscalPeriod    string // e.g. "Q4 2025"
	Guidance        string
	Takeaways       []string

	// price alerts (derived at run time, never persisted)
	CurrentPrice *float64
	BuyBelow     *float64
}

// AmountField returns the per-variant string that participates in the
// identity key: the dollar value for insider buys, the disclosed range for
// congressional trades, the fiscal period for earnings.
func (r Record) AmountField() string {
	switch r.Variant {
	case InsiderPurchase:
		return r.Value
	case CongressionalTrade:
		return r.Amount
	case EarningsReport:
		return r.FiscalPeriod
	default:
		return ""
	}
}

// Candidate is a record plus reconciliation state.
type Candidate struct {
	Record
	Provenance Provenance
	Confidence Confidence
}

// Outcome is the terminal state of one orchestrator run. DoneEmpty is
// distinct so the caller can skip notification entirely instead of sending
// an empty batch.
type Outcome int

const (
	Done Outcome = iota
	DoneEmpty
)

func (o Outcome) String() string {
	if o == DoneEmpty {
		return "done-empty"
	}
	return "done"
}

// Float returns a pointer to v. Convenience for optional numeric fields.
func Float(v float64) *float64 { return &v }

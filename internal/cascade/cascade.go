// Package cascade decides whether a text-derived candidate missing from
// the structured source should be trusted. The text source hallucinates
// plausible events; the structured source has coverage gaps for recent
// ones. The cascade splits the difference with a bounded sequence of
// confirmation queries, biased toward rejection.
package cascade

import (
	"context"
	"strings"
	"time"

	"github.com/phuslu/log"

	"marketbot/internal/config"
	"marketbot/internal/extract"
	"marketbot/internal/grammar"
	"marketbot/internal/metrics"
	"marketbot/internal/model"
	"marketbot/internal/source"
)

const (
	recencyMaxTokens = 60
	confirmMaxTokens = 20
	numericMaxTokens = 120
)

type Verifier struct {
	text   source.Text
	g      grammar.Grammar
	minGap int
	maxGap int
}

func New(text source.Text, g grammar.Grammar, cfg config.CascadeConfig) *Verifier {
	return &Verifier{
		text:   text,
		g:      g,
		minGap: cfg.MinGapDays,
		maxGap: cfg.MaxGapDays,
	}
}

// Verify runs the cascade for one candidate against the target date and
// sets its confidence state. Any source error degrades to rejection; the
// next scheduled run re-attempts because a rejected record never enters
// the seen store.
func (v *Verifier) Verify(ctx context.Context, cand *model.Candidate, target string) model.Confidence {
	cand.Confidence = v.verify(ctx, cand, target)
	metrics.CascadeResult(string(v.g.Variant), string(cand.Confidence))
	return cand.Confidence
}

func (v *Verifier) verify(ctx context.Context, cand *model.Candidate, target string) model.Confidence {
	// Step 1: ask for the most recent known occurrence date.
	resp, err := v.text.Complete(ctx, v.g.Recency(cand.Subject, cand.Ticker), recencyMaxTokens)
	if err != nil {
		log.Warn().Err(err).Str("ticker", cand.Ticker).Msg("recency probe failed, rejecting candidate")
		return model.Rejected
	}
	lastKnown, ok := extract.FirstDate(resp)
	if !ok {
		return model.Rejected
	}

	if lastKnown == target {
		// Best case: one call, no backup confirmation needed.
		if !v.anchored(ctx, cand, target) {
			return model.Rejected
		}
		return model.DateConfirmed
	}

	// Step 2: only a gap consistent with a quarterly-ish recurrence makes
	// a same-day coverage gap plausible.
	gap, ok := daysBetween(lastKnown, target)
	if !ok || gap < v.minGap || gap > v.maxGap {
		return model.Rejected
	}

	// Step 3: binary confirmation naming both dates. Only an explicit
	// affirmative counts; ambiguity is rejection.
	resp, err = v.text.Complete(ctx, v.g.Confirm(cand.Subject, cand.Ticker, target, lastKnown), confirmMaxTokens)
	if err != nil {
		log.Warn().Err(err).Str("ticker", cand.Ticker).Msg("confirm query failed, rejecting candidate")
		return model.Rejected
	}
	if !affirmative(resp) {
		return model.Rejected
	}

	if !v.anchored(ctx, cand, target) {
		return model.Rejected
	}
	return model.BackupConfirmed
}

// anchored runs the numeric anchor extraction for variants that require
// it. A confirmed date with no concrete figure behind it is treated as a
// likely hallucination.
func (v *Verifier) anchored(ctx context.Context, cand *model.Candidate, target string) bool {
	if !v.g.RequireAnchor {
		return true
	}
	resp, err := v.text.Complete(ctx, v.g.Numeric(cand.Subject, cand.Ticker, target), numericMaxTokens)
	if err != nil {
		log.Warn().Err(err).Str("ticker", cand.Ticker).Msg("anchor extraction failed, rejecting candidate")
		return false
	}
	nums := extract.NumericFields(resp, v.g.NumericLabels)
	if len(nums) == 0 {
		return false
	}
	// Fold anchors back into the record where the extraction left gaps.
	if v.g.Variant == model.EarningsReport {
		if eps, ok := nums["EPS"]; ok && cand.EPSActual == nil {
			cand.EPSActual = model.Float(eps)
		}
		if rev, ok := nums["REVENUE"]; ok && cand.RevenueActual == nil {
			cand.RevenueActual = model.Float(rev)
		}
	}
	return true
}

// affirmative accepts only a response that leads with an explicit YES.
func affirmative(resp string) bool {
	s := strings.ToUpper(extract.StripCitations(resp))
	s = strings.TrimLeft(s, " \t\"'")
	return s == "YES" || strings.HasPrefix(s, "YES.") || strings.HasPrefix(s, "YES,") ||
		strings.HasPrefix(s, "YES ") || strings.HasPrefix(s, "YES!")
}

func daysBetween(earlier, later string) (int, bool) {
	a, err := time.Parse("2006-01-02", earlier)
	if err != nil {
		return 0, false
	}
	b, err := time.Parse("2006-01-02", later)
	if err != nil {
		return 0, false
	}
	return int(b.Sub(a).Hours() / 24), true
}

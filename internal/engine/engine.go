// Package engine sequences one reconciliation run:
// fetch structured -> fetch text candidates -> cascade -> merge ->
// dedup filter -> persist. The caller only notifies on a Done outcome.
package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/phuslu/log"

	"marketbot/internal/cascade"
	"marketbot/internal/config"
	"marketbot/internal/enrich"
	"marketbot/internal/extract"
	"marketbot/internal/grammar"
	"marketbot/internal/merge"
	"marketbot/internal/metrics"
	"marketbot/internal/model"
	"marketbot/internal/policy"
	"marketbot/internal/source"
	"marketbot/internal/store"
)

// Profiler resolves company names and past earnings for earnings records.
type Profiler interface {
	Profile(ctx context.Context, ticker string) (string, error)
	EarningsHistory(ctx context.Context, ticker string, limit int) ([]source.PastReport, error)
}

type Engine struct {
	bot        model.Variant
	g          grammar.Grammar
	structured source.Structured
	text       source.Text
	verifier   *cascade.Verifier
	enricher   *enrich.Enricher // earnings only, may be nil
	profiler   Profiler         // earnings only, may be nil
	botCfg     config.BotConfig
	maxKeys    int
}

func New(bot model.Variant, cfg config.Config, structured source.Structured, text source.Text) (*Engine, error) {
	g, err := grammar.ForVariant(bot)
	if err != nil {
		return nil, err
	}
	return &Engine{
		bot:        bot,
		g:          g,
		structured: structured,
		text:       text,
		verifier:   cascade.New(text, g, cfg.Cascade),
		botCfg:     cfg.Bot(bot),
		maxKeys:    cfg.Dedup.MaxKeys,
	}, nil
}

// WithEnrichment attaches the earnings guidance/takeaways enricher and the
// profile lookup.
func (e *Engine) WithEnrichment(en *enrich.Enricher, p Profiler) *Engine {
	e.enricher = en
	e.profiler = p
	return e
}

// Run executes the state machine for the date window [from, to] (ISO
// dates, inclusive) and returns the fresh records to notify about. A
// DoneEmpty outcome means nothing new; the caller must not notify.
func (e *Engine) Run(ctx context.Context, from, to string) ([]model.Record, model.Outcome, error) {
	runID := uuid.NewString()[:8]
	log.Info().Str("run", runID).Str("bot", string(e.bot)).Str("from", from).Str("to", to).Msg("reconciliation run starting")

	// FETCH_STRUCTURED. Source failure degrades to an empty set; the text
	// side may still produce verifiable events.
	known, err := e.structured.Events(ctx, e.bot, from, to)
	if err != nil {
		log.Warn().Str("run", runID).Err(err).Msg("structured source unavailable, proceeding without it")
		known = nil
	}
	metrics.RecordsFetched("fmp", string(e.bot), len(known))
	known = policy.Apply(known, e.botCfg)

	// FETCH_TEXT_CANDIDATES.
	candidates := e.textCandidates(ctx, runID, from, to)
	metrics.Candidates(string(e.bot), len(candidates))

	// RUN_CASCADE for candidates the structured source does not cover.
	var accepted []model.Candidate
	for i := range candidates {
		c := &candidates[i]
		if merge.InStructured(known, *c) {
			continue
		}
		target := c.OccurredOn
		if target == "" {
			target = to
		}
		if conf := e.verifier.Verify(ctx, c, target); conf == model.DateConfirmed || conf == model.BackupConfirmed {
			accepted = append(accepted, *c)
		} else {
			log.Debug().Str("run", runID).Str("ticker", c.Ticker).Str("subject", c.Subject).Msg("candidate not confirmed, dropped")
		}
	}

	// MERGE and DEDUP_FILTER.
	merged := merge.Union(known, accepted)
	seen := store.Open(e.botCfg.SeenPath, e.maxKeys)
	fresh, dupes := seen.FilterNew(merged)
	log.Info().Str("run", runID).Int("merged", len(merged)).Int("new", len(fresh)).Int("already_seen", dupes).Msg("dedup filter applied")

	// PERSIST. Runs unconditionally so an over-cap store gets trimmed even
	// on an empty cycle. A failed save must not drop the classified batch;
	// only future-run dedup is at risk.
	if err := seen.Save(); err != nil {
		log.Error().Str("run", runID).Err(err).Msg("seen store save failed; batch still notified")
	}

	if len(fresh) == 0 {
		log.Info().Str("run", runID).Msg("nothing new")
		return nil, model.DoneEmpty, nil
	}

	if e.bot == model.EarningsReport {
		e.finishEarnings(ctx, runID, fresh)
	}

	metrics.RecordsPosted(string(e.bot), len(fresh))
	return fresh, model.Done, nil
}

func (e *Engine) textCandidates(ctx context.Context, runID, from, to string) []model.Candidate {
	fromT, err1 := time.Parse("2006-01-02", from)
	toT, err2 := time.Parse("2006-01-02", to)
	if err1 != nil || err2 != nil {
		log.Warn().Str("run", runID).Str("from", from).Str("to", to).Msg("bad date window, skipping text source")
		return nil
	}
	resp, err := e.text.Complete(ctx, e.g.Search(fromT, toT), 0)
	if err != nil {
		log.Warn().Str("run", runID).Err(err).Msg("text source unavailable, proceeding without candidates")
		return nil
	}
	records := policy.Apply(extract.Records(resp, e.g), e.botCfg)
	out := make([]model.Candidate, 0, len(records))
	for _, r := range records {
		out = append(out, model.Candidate{Record: r, Provenance: model.FromText, Confidence: model.Unverified})
	}
	return out
}

// finishEarnings resolves company names, fiscal periods, year-over-year
// comparisons, guidance, and takeaways for fresh earnings records, then
// derives and persists recommended buy prices.
func (e *Engine) finishEarnings(ctx context.Context, runID string, fresh []model.Record) {
	buyPrices := make(map[string]store.BuyPrice)
	for i := range fresh {
		r := &fresh[i]
		if e.profiler != nil {
			if r.Company == "" {
				if name, err := e.profiler.Profile(ctx, r.Ticker); err == nil && name != "" {
					r.Company = name
				}
			}
			if hist, err := e.profiler.EarningsHistory(ctx, r.Ticker, 8); err == nil {
				if prev, ok := previousYearReport(hist, r.OccurredOn); ok {
					r.EPSPrevious = prev.EPS
					r.RevenuePrevious = prev.Revenue
				}
			}
		}
		quarter, year, label := fiscalPeriod(r.OccurredOn)
		if r.FiscalPeriod == "" {
			r.FiscalPeriod = label
		}
		if e.enricher != nil && quarter > 0 {
			r.Guidance = e.enricher.Guidance(ctx, r.Ticker, year, quarter)
			r.Takeaways = e.enricher.Takeaways(ctx, r.Ticker, year, quarter)
		}
		if r.EPSActual != nil && *r.EPSActual > 0 {
			// Annualized EPS times the configured earnings multiple.
			buy := *r.EPSActual * 4 * e.botCfg.EarningsMultiple
			r.BuyBelow = model.Float(buy)
			buyPrices[r.Ticker] = store.BuyPrice{
				RecommendedValue: fmt.Sprintf("$%.2f", buy),
				Date:             r.OccurredOn,
				FiscalPeriod:     r.FiscalPeriod,
			}
		}
	}
	if len(buyPrices) > 0 && e.botCfg.BuyPricesPath != "" {
		if err := store.SaveBuyPrices(e.botCfg.BuyPricesPath, buyPrices); err != nil {
			log.Error().Str("run", runID).Err(err).Msg("buy price save failed")
		}
	}
}

// previousYearReport picks the history row closest to one year before the
// report date. Quarter boundaries drift, so anything within two months of
// the anniversary counts as the same quarter last year.
func previousYearReport(history []source.PastReport, date string) (source.PastReport, bool) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return source.PastReport{}, false
	}
	target := t.AddDate(-1, 0, 0)
	best, bestGap := -1, 0
	for i, h := range history {
		ht, err := time.Parse("2006-01-02", h.Date)
		if err != nil {
			continue
		}
		gap := int(ht.Sub(target).Hours() / 24)
		if gap < 0 {
			gap = -gap
		}
		if gap > 60 {
			continue
		}
		if best < 0 || gap < bestGap {
			best, bestGap = i, gap
		}
	}
	if best < 0 {
		return source.PastReport{}, false
	}
	return history[best], true
}

// fiscalPeriod derives the reported quarter from the announcement date:
// Jan-Feb announcements cover Q4 of the prior year, Mar-May Q1, Jun-Aug
// Q2, Sep-Nov Q3, Dec Q4.
func fiscalPeriod(date string) (quarter, year int, label string) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, 0, "Latest"
	}
	switch m := int(t.Month()); {
	case m <= 2:
		quarter, year = 4, t.Year()-1
	case m <= 5:
		quarter, year = 1, t.Year()
	case m <= 8:
		quarter, year = 2, t.Year()
	case m <= 11:
		quarter, year = 3, t.Year()
	default:
		quarter, year = 4, t.Year()
	}
	return quarter, year, fmt.Sprintf("Q%d %d", quarter, year)
}

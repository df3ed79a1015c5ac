package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/phuslu/log"

	"marketbot/internal/config"
	"marketbot/internal/engine"
	"marketbot/internal/enrich"
	"marketbot/internal/metrics"
	"marketbot/internal/model"
	"marketbot/internal/notify"
	"marketbot/internal/source"
)

// Version is set at build time via -ldflags "-X main.Version=..."
var Version = "dev"

func main() {
	var (
		cfgPath  = flag.String("config", "config.yml", "path to YAML config")
		botName  = flag.String("bot", "earnings", "which bot to run: insider, congress, earnings, pricealert")
		date     = flag.String("date", "", "fixed target date YYYY-MM-DD (default: computed from lookback)")
		days     = flag.Int("days", 0, "override lookback window in days")
		interval = flag.Duration("interval", 0, "run interval; 0 means run once")
		once     = flag.Bool("once", false, "run a single cycle then exit")
		dryRun   = flag.Bool("dry-run", false, "print records instead of posting to Discord")
		verbose  = flag.Bool("verbose", false, "enable debug logging")
	)
	flag.Parse()

	log.DefaultLogger = log.Logger{
		Level:      log.InfoLevel,
		TimeFormat: time.RFC3339,
		Writer:     &log.ConsoleWriter{ColorOutput: false},
	}
	if *verbose {
		log.DefaultLogger.Level = log.DebugLevel
	}

	bot := model.Variant(*botName)
	log.Info().Str("version", Version).Str("bot", string(bot)).Msg("marketbot starting")

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *cfgPath).Msg("load config")
	}
	secrets := config.LoadSecrets()
	if err := secrets.Validate(bot, *dryRun); err != nil {
		log.Fatal().Err(err).Msg("missing credentials")
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		log.Fatal().Err(err).Str("tz", cfg.Timezone).Msg("bad timezone")
	}

	fmp := source.NewFMP(cfg.FMP, secrets.FMPAPIKey)

	var eng *engine.Engine
	if bot != model.PriceAlert {
		pplx := source.NewPerplexity(cfg.Perplexity, secrets.PerplexityAPIKey)
		eng, err = engine.New(bot, cfg, fmp, pplx)
		if err != nil {
			log.Fatal().Err(err).Msg("build engine")
		}
		if bot == model.EarningsReport {
			eng = eng.WithEnrichment(enrich.New(pplx, fmp, secrets.AnthropicAPIKey, cfg.Anthropic), fmp)
		}
	}

	var sink notify.Sink
	if !*dryRun {
		sink = notify.NewDiscord(cfg.Discord, secrets.WebhookFor(bot))
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	lookback := cfg.Bot(bot).LookbackDays
	if *days > 0 {
		lookback = *days
	}

	runOnce := func() {
		start := time.Now()

		var (
			records []model.Record
			outcome model.Outcome
			err     error
		)
		if bot == model.PriceAlert {
			records, outcome, err = engine.RunPriceAlerts(ctx, fmp, cfg.Earnings.BuyPricesPath)
		} else {
			from, to := window(bot, lookback, *date, loc)
			records, outcome, err = eng.Run(ctx, from, to)
		}
		if err != nil {
			log.Error().Err(err).Msg("run failed")
			return
		}
		if outcome == model.DoneEmpty {
			log.Info().Str("outcome", outcome.String()).Msg("nothing to post")
		} else if *dryRun {
			for _, r := range records {
				log.Info().Str("ticker", r.Ticker).Str("subject", r.Subject).
					Str("date", r.OccurredOn).Str("amount", r.AmountField()).Msg("would post")
			}
		} else if err := sink.Push(ctx, records); err != nil {
			log.Error().Err(err).Int("records", len(records)).Msg("discord push failed")
		} else {
			log.Info().Int("records", len(records)).Msg("posted to discord")
		}

		if snap := metrics.Snapshot(); snap != "" && *verbose {
			log.Debug().Msg("metrics snapshot:\n" + snap)
		}
		log.Info().Dur("elapsed", time.Since(start).Truncate(time.Millisecond)).Msg("cycle finished")
	}

	runOnce()
	if *once || *interval <= 0 {
		os.Exit(0)
	}

	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Info().Err(ctx.Err()).Msg("stopping")
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

// window computes the inclusive [from, to] date range for a cycle. Earnings
// looks at completed days only (yesterday by default); trading bots scan
// from lookback days ago through today. A fixed -date pins both ends for
// earnings and the upper end for the others.
func window(bot model.Variant, lookback int, fixed string, loc *time.Location) (string, string) {
	now := time.Now().In(loc)
	if bot == model.EarningsReport {
		if fixed != "" {
			return fixed, fixed
		}
		d := now.AddDate(0, 0, -lookback).Format("2006-01-02")
		return d, d
	}
	to := now.Format("2006-01-02")
	if fixed != "" {
		to = fixed
	}
	toT, err := time.ParseInLocation("2006-01-02", to, loc)
	if err != nil {
		toT = now
		to = now.Format("2006-01-02")
	}
	return toT.AddDate(0, 0, -lookback).Format("2006-01-02"), to
}

// Package notify posts record batches to a Discord webhook. It is a thin
// collaborator behind the Sink interface: the engine hands it one finite
// batch per run, at most once.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"marketbot/internal/config"
	"marketbot/internal/model"
	"marketbot/internal/util"
)

// Sink receives the final record batch of a run.
type Sink interface {
	Name() string
	Push(ctx context.Context, records []model.Record) error
}

// Discord embed colors.
const (
	colorGreen   = 0x00AA00
	colorBright  = 0x00FF00
	colorRed     = 0xFF0000
	colorGray    = 0x808080
	colorBlurple = 0x5865F2
)

// maxEmbedsPerPost is Discord's per-message embed limit.
const maxEmbedsPerPost = 10

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedFooter struct {
	Text string `json:"text"`
}

type embed struct {
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
}

type DiscordSink struct {
	webhookURL string
	client     *http.Client
	userAgent  string
}

func NewDiscord(cfg config.DiscordConfig, webhookURL string) *DiscordSink {
	return &DiscordSink{
		webhookURL: webhookURL,
		client:     util.NewHTTPClient(util.DefaultDur(cfg.Timeout, 30*time.Second)),
		userAgent:  cfg.UserAgent,
	}
}

func (d *DiscordSink) Name() string { return "discord" }

// Push renders the batch into embeds and posts them, batched to Discord's
// per-message limit.
func (d *DiscordSink) Push(ctx context.Context, records []model.Record) error {
	embeds := buildEmbeds(records)
	for i := 0; i < len(embeds); i += maxEmbedsPerPost {
		end := i + maxEmbedsPerPost
		if end > len(embeds) {
			end = len(embeds)
		}
		body, err := json.Marshal(map[string]any{"embeds": embeds[i:end]})
		if err != nil {
			return err
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		if d.userAgent != "" {
			req.Header.Set("User-Agent", d.userAgent)
		}
		resp, err := d.client.Do(req)
		if err != nil {
			return err
		}
		if resp.StatusCode/100 != 2 {
			msg := util.ReadBodyLimit(resp.Body, 512)
			return fmt.Errorf("discord webhook %d: %s", resp.StatusCode, strings.TrimSpace(msg))
		}
		resp.Body.Close()
	}
	return nil
}

func buildEmbeds(records []model.Record) []embed {
	if len(records) == 0 {
		return nil
	}
	var out []embed
	if s, ok := summaryEmbed(records); ok {
		out = append(out, s)
	}
	for _, r := range records {
		switch r.Variant {
		case model.InsiderPurchase:
			out = append(out, insiderEmbed(r))
		case model.CongressionalTrade:
			out = append(out, congressEmbed(r))
		case model.EarningsReport:
			out = append(out, earningsEmbed(r))
		case model.PriceAlert:
			out = append(out, priceAlertEmbed(r))
		}
	}
	return out
}

func summaryEmbed(records []model.Record) (embed, bool) {
	if len(records) < 2 {
		return embed{}, false
	}
	subjects := make(map[string]struct{}, len(records))
	for _, r := range records {
		subjects[strings.ToLower(r.Subject)] = struct{}{}
	}
	switch records[0].Variant {
	case model.InsiderPurchase:
		return embed{
			Title:       "👔 Insider Trading Alert",
			Description: fmt.Sprintf("**%d** large purchases detected from **%d** executives", len(records), len(subjects)),
			Color:       colorGreen,
		}, true
	case model.CongressionalTrade:
		return embed{
			Title:       "🏛️ Congress Trading Alert",
			Description: fmt.Sprintf("**%d** large purchases detected from **%d** politicians", len(records), len(subjects)),
			Color:       colorBlurple,
		}, true
	case model.EarningsReport:
		beats, misses := 0, 0
		for _, r := range records {
			if r.EPSActual != nil && r.EPSEstimate != nil {
				if *r.EPSActual > *r.EPSEstimate {
					beats++
				} else if *r.EPSActual < *r.EPSEstimate {
					misses++
				}
			}
		}
		return embed{
			Title:       "📋 Daily Earnings Summary",
			Description: fmt.Sprintf("**%d** companies in your watchlist reported earnings", len(records)),
			Color:       colorBlurple,
			Fields: []embedField{
				{Name: "✅ Beats", Value: fmt.Sprintf("%d", beats), Inline: true},
				{Name: "❌ Misses", Value: fmt.Sprintf("%d", misses), Inline: true},
			},
		}, true
	case model.PriceAlert:
		return embed{
			Title:       "🚨 Price Alert Summary",
			Description: fmt.Sprintf("**%d** tracked stocks are below their Buy Below price", len(records)),
			Color:       colorBlurple,
		}, true
	}
	return embed{}, false
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func insiderEmbed(r model.Record) embed {
	desc := fmt.Sprintf("**%s** (%s)", r.Subject, orNA(r.Title))
	if r.Company != "" {
		desc += "\n" + r.Company
	}
	return embed{
		Title:       fmt.Sprintf("👔 Insider Buy Alert: %s", r.Ticker),
		Description: desc,
		Color:       colorGreen,
		Fields: []embedField{
			{Name: "💰 Value", Value: orNA(r.Value), Inline: true},
			{Name: "📊 Shares", Value: orNA(r.Shares), Inline: true},
			{Name: "📅 Trade Date", Value: orNA(r.OccurredOn), Inline: true},
		},
		Footer: &embedFooter{Text: "InsiderBot"},
	}
}

func congressEmbed(r model.Record) embed {
	partyDot := "⚪"
	switch r.Party {
	case "D":
		partyDot = "🔵"
	case "R":
		partyDot = "🔴"
	}
	label := ""
	switch r.Chamber {
	case "Senate":
		label = "Sen. "
	case "House":
		label = "Rep. "
	}
	return embed{
		Title:       fmt.Sprintf("🏛️ Congress Buy Alert: %s", r.Ticker),
		Description: fmt.Sprintf("%s **%s%s** (%s)", partyDot, label, r.Subject, orNA(r.Party)),
		Color:       colorBlurple,
		Fields: []embedField{
			{Name: "💰 Amount", Value: orNA(r.Amount), Inline: true},
			{Name: "📅 Trade Date", Value: orNA(r.OccurredOn), Inline: true},
			{Name: "📋 Disclosed", Value: orNA(r.DisclosedOn), Inline: true},
		},
		Footer: &embedFooter{Text: "CongressBot"},
	}
}

func earningsEmbed(r model.Record) embed {
	beats, misses := 0, 0
	tally := func(actual, estimate *float64) {
		if actual == nil || estimate == nil {
			return
		}
		if *actual > *estimate {
			beats++
		} else if *actual < *estimate {
			misses++
		}
	}
	tally(r.RevenueActual, r.RevenueEstimate)
	tally(r.EPSActual, r.EPSEstimate)

	color := colorGray
	if beats > misses {
		color = colorBright
	} else if misses > beats {
		color = colorRed
	}

	var fields []embedField
	if r.RevenueActual != nil {
		v := formatLarge(*r.RevenueActual)
		if r.RevenueEstimate != nil {
			v += fmt.Sprintf(" (Est: %s) %s", formatLarge(*r.RevenueEstimate), beatMiss(r.RevenueActual, r.RevenueEstimate))
		}
		v += yoyChange(r.RevenueActual, r.RevenuePrevious)
		fields = append(fields, embedField{Name: "💰 Revenue", Value: v, Inline: true})
	}
	if r.EPSActual != nil {
		v := fmt.Sprintf("$%.2f", *r.EPSActual)
		if r.EPSEstimate != nil {
			v += fmt.Sprintf(" (Est: $%.2f) %s", *r.EPSEstimate, beatMiss(r.EPSActual, r.EPSEstimate))
		}
		v += yoyChange(r.EPSActual, r.EPSPrevious)
		fields = append(fields, embedField{Name: "📊 EPS", Value: v, Inline: true})
	}
	if r.Guidance != "" {
		fields = append(fields, embedField{Name: "🔮 Guidance", Value: r.Guidance})
	}
	if len(r.Takeaways) > 0 {
		var b strings.Builder
		for i, t := range r.Takeaways {
			if i > 0 {
				b.WriteByte('\n')
			}
			b.WriteString("• " + t)
		}
		fields = append(fields, embedField{Name: "📌 Key Takeaways", Value: b.String()})
	}

	desc := "**" + orNA(r.Company) + "**"
	return embed{
		Title:       fmt.Sprintf("📈 %s %s Earnings", r.Ticker, orNA(r.FiscalPeriod)),
		Description: desc,
		Color:       color,
		Fields:      fields,
		Footer:      &embedFooter{Text: "EarningsBot"},
	}
}

func priceAlertEmbed(r model.Record) embed {
	var fields []embedField
	if r.CurrentPrice != nil {
		fields = append(fields, embedField{Name: "💲 Current Price", Value: fmt.Sprintf("$%.2f", *r.CurrentPrice), Inline: true})
	}
	if r.BuyBelow != nil {
		fields = append(fields, embedField{Name: "🎯 Buy Below", Value: fmt.Sprintf("$%.2f", *r.BuyBelow), Inline: true})
		if r.CurrentPrice != nil && *r.BuyBelow > 0 {
			pct := (*r.BuyBelow - *r.CurrentPrice) / *r.BuyBelow * 100
			fields = append(fields, embedField{Name: "📉 Discount", Value: fmt.Sprintf("%.1f%% below target", pct), Inline: true})
		}
	}
	if r.FiscalPeriod != "" {
		fields = append(fields, embedField{Name: "📊 Based On", Value: r.FiscalPeriod + " Earnings"})
	}
	return embed{
		Title:       fmt.Sprintf("🚨 %s Price Alert", r.Ticker),
		Description: fmt.Sprintf("**%s** is trading below the recommended buy price!", r.Ticker),
		Color:       colorBright,
		Fields:      fields,
		Footer:      &embedFooter{Text: "PriceAlertBot"},
	}
}

// yoyChange renders the delta against the same quarter last year, or ""
// when either side is unknown.
func yoyChange(current, previous *float64) string {
	if current == nil || previous == nil || *previous == 0 {
		return ""
	}
	base := *previous
	if base < 0 {
		base = -base
	}
	change := (*current - *previous) / base * 100
	arrow := "➡️"
	if change > 0 {
		arrow = "📈"
	} else if change < 0 {
		arrow = "📉"
	}
	return fmt.Sprintf(" %s %+.1f%% YoY", arrow, change)
}

func beatMiss(actual, estimate *float64) string {
	if actual == nil || estimate == nil {
		return "➖"
	}
	if *actual > *estimate {
		return "✅"
	}
	if *actual < *estimate {
		return "❌"
	}
	return "➖"
}

// formatLarge renders big dollar figures with B/M/K suffixes.
func formatLarge(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	switch {
	case v >= 1e9:
		return fmt.Sprintf("%s$%.2fB", sign, v/1e9)
	case v >= 1e6:
		return fmt.Sprintf("%s$%.2fM", sign, v/1e6)
	case v >= 1e3:
		return fmt.Sprintf("%s$%.2fK", sign, v/1e3)
	default:
		return fmt.Sprintf("%s$%.2f", sign, v)
	}
}

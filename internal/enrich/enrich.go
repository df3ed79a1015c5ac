// Package enrich adds guidance and key takeaways to fresh earnings
// records. The primary path summarizes the earnings call transcript with
// Claude; when no transcript or Anthropic key is available it falls back
// to asking the search-backed text source directly.
package enrich

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/phuslu/log"

	"marketbot/internal/config"
	"marketbot/internal/extract"
	"marketbot/internal/source"
)

// NoGuidance is what callers show when the sources explicitly found none.
const NoGuidance = "No guidance provided"

// transcriptTail bounds how much transcript is sent for summarization;
// guidance lives near the end of the call.
const transcriptTail = 30000

// TranscriptFetcher is the slice of the structured client we need.
type TranscriptFetcher interface {
	Transcript(ctx context.Context, ticker string, year, quarter int) (string, error)
}

type Enricher struct {
	text        source.Text
	transcripts TranscriptFetcher
	claude      anthropic.Client
	hasClaude   bool
	model       string
	maxTokens   int
}

func New(text source.Text, transcripts TranscriptFetcher, anthropicKey string, cfg config.AnthropicConfig) *Enricher {
	e := &Enricher{
		text:        text,
		transcripts: transcripts,
		model:       cfg.Model,
		maxTokens:   cfg.MaxTokens,
	}
	if anthropicKey != "" {
		e.claude = anthropic.NewClient(option.WithAPIKey(anthropicKey))
		e.hasClaude = true
	}
	return e
}

// Guidance returns a 1-2 sentence forward guidance summary, NoGuidance
// when the sources explicitly found none, or "" on failure.
func (e *Enricher) Guidance(ctx context.Context, ticker string, year, quarter int) string {
	if g := e.transcriptGuidance(ctx, ticker, year, quarter); g != "" {
		return g
	}
	prompt := fmt.Sprintf(`What is %s's forward guidance from their Q%d %d earnings report?

Focus on: revenue guidance, EPS guidance, growth expectations, or outlook for next quarter/year.
Return ONLY a concise 1-2 sentence summary of the guidance. No preamble or explanation.
If no specific guidance was provided, respond with exactly: NO_GUIDANCE`, ticker, quarter, year)
	resp, err := e.text.Complete(ctx, prompt, 150)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("guidance lookup failed")
		return ""
	}
	g := extract.StripCitations(resp)
	if g == "" || strings.Contains(strings.ToUpper(g), "NO_GUIDANCE") {
		return NoGuidance
	}
	return g
}

func (e *Enricher) transcriptGuidance(ctx context.Context, ticker string, year, quarter int) string {
	if !e.hasClaude || e.transcripts == nil {
		return ""
	}
	content, err := e.transcripts.Transcript(ctx, ticker, year, quarter)
	if err != nil || content == "" {
		return ""
	}
	if len(content) > transcriptTail {
		content = content[len(content)-transcriptTail:]
	}
	prompt := fmt.Sprintf(`Extract the forward guidance from this %s earnings call transcript.
Focus on: revenue guidance, EPS guidance, growth expectations, or outlook for next quarter/year.
Return a concise 1-2 sentence summary. If no clear guidance is given, return "No specific guidance provided."

Transcript:
%s`, ticker, content)

	msg, err := e.claude.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(e.model),
		MaxTokens: int64(e.maxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("transcript summarization failed")
		return ""
	}
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return strings.TrimSpace(b.String())
}

// Takeaways returns up to three one-sentence bullets from the report, or
// nil when unavailable.
func (e *Enricher) Takeaways(ctx context.Context, ticker string, year, quarter int) []string {
	prompt := fmt.Sprintf(`What are the 3 most important takeaways from %s's Q%d %d earnings report?

Focus on: significant business developments, growth metrics, challenges, strategic initiatives, or notable commentary.
Return ONLY 3 bullet points, each 1 sentence. No preamble, numbering, or explanation.
Format exactly like:
- First takeaway
- Second takeaway
- Third takeaway`, ticker, quarter, year)
	resp, err := e.text.Complete(ctx, prompt, 250)
	if err != nil {
		log.Warn().Err(err).Str("ticker", ticker).Msg("takeaways lookup failed")
		return nil
	}
	var out []string
	for _, line := range strings.Split(resp, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "-") && !strings.HasPrefix(line, "*") && !strings.HasPrefix(line, "•") {
			continue
		}
		t := extract.StripCitations(strings.TrimLeft(line, "-*• "))
		if t != "" {
			out = append(out, t)
		}
		if len(out) == 3 {
			break
		}
	}
	return out
}

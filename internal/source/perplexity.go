package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"marketbot/internal/config"
	"marketbot/internal/metrics"
	"marketbot/internal/util"
)

// PerplexityClient is the text completion/search source. Calls are
// rate-limited and carry a bounded timeout; the cascade treats any error
// here as "unconfirmed" rather than retrying within a run.
type PerplexityClient struct {
	cfg     config.PerplexityConfig
	apiKey  string
	client  *http.Client
	limiter *rate.Limiter
}

func NewPerplexity(cfg config.PerplexityConfig, apiKey string) *PerplexityClient {
	rps := cfg.RatePerSecond
	if rps <= 0 {
		rps = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &PerplexityClient{
		cfg:     cfg,
		apiKey:  apiKey,
		client:  util.NewHTTPClient(util.DefaultDur(cfg.Timeout, 60*time.Second)),
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends one user prompt and returns the raw completion text.
func (p *PerplexityClient) Complete(ctx context.Context, prompt string, maxTokens int) (string, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return "", err
	}
	if maxTokens <= 0 {
		maxTokens = p.cfg.MaxTokens
	}
	body, err := json.Marshal(chatRequest{
		Model:     p.cfg.Model,
		Messages:  []chatMessage{{Role: "user", Content: prompt}},
		MaxTokens: maxTokens,
	})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		strings.TrimRight(p.cfg.BaseURL, "/")+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		metrics.SourceError("perplexity")
		return "", err
	}
	if resp.StatusCode/100 != 2 {
		msg := util.ReadBodyLimit(resp.Body, 1024)
		metrics.SourceError("perplexity")
		return "", fmt.Errorf("perplexity %d: %s", resp.StatusCode, strings.TrimSpace(msg))
	}
	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return "", err
	}
	var out chatResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("perplexity: decode response: %w", err)
	}
	if len(out.Choices) == 0 {
		return "", fmt.Errorf("perplexity: empty choices")
	}
	return strings.TrimSpace(out.Choices[0].Message.Content), nil
}

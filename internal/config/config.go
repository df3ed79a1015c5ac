package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"marketbot/internal/model"
)

type FMPConfig struct {
	BaseURL    string        `yaml:"base_url"` // default https://financialmodelingprep.com/stable
	Timeout    time.Duration `yaml:"timeout"`
	UserAgent  string        `yaml:"user_agent"`
	MaxRetries int           `yaml:"max_retries"`
	Backoff    time.Duration `yaml:"backoff"`
	MaxBackoff time.Duration `yaml:"max_backoff"`
}

type PerplexityConfig struct {
	BaseURL       string        `yaml:"base_url"` // default https://api.perplexity.ai
	Model         string        `yaml:"model"`    // default "sonar"
	Timeout       time.Duration `yaml:"timeout"`
	MaxTokens     int           `yaml:"max_tokens"`
	RatePerSecond float64       `yaml:"rate_per_second"` // token bucket rate for completion calls
	Burst         int           `yaml:"burst"`
}

type AnthropicConfig struct {
	Model     string `yaml:"model"` // default claude-sonnet-4-20250514
	MaxTokens int    `yaml:"max_tokens"`
}

type DiscordConfig struct {
	Timeout   time.Duration `yaml:"timeout"`
	UserAgent string        `yaml:"user_agent"`
}

// CascadeConfig holds the recurrence-window policy. The 30–120 day bounds
// are empirical (quarterly cadence), kept configurable on purpose.
type CascadeConfig struct {
	MinGapDays int `yaml:"min_gap_days"`
	MaxGapDays int `yaml:"max_gap_days"`
}

type DedupConfig struct {
	MaxKeys int `yaml:"max_keys"` // persisted key cap, default 500
}

type BotConfig struct {
	SeenPath         string   `yaml:"seen_path"`         // identity key store file
	Watchlist        []string `yaml:"watchlist"`         // earnings: tickers to keep; empty = all
	MinValue         float64  `yaml:"min_value"`         // insider/congress: drop smaller trades
	BuyPricesPath    string   `yaml:"buy_prices_path"`   // earnings + pricealert
	EarningsMultiple float64  `yaml:"earnings_multiple"` // buy-price derivation
	LookbackDays     int      `yaml:"lookback_days"`
}

type Config struct {
	FMP        FMPConfig         `yaml:"fmp"`
	Perplexity PerplexityConfig  `yaml:"perplexity"`
	Anthropic  AnthropicConfig   `yaml:"anthropic"`
	Discord    DiscordConfig     `yaml:"discord"`
	Cascade    CascadeConfig     `yaml:"cascade"`
	Dedup      DedupConfig       `yaml:"dedup"`
	Insider    BotConfig         `yaml:"insider"`
	Congress   BotConfig         `yaml:"congress"`
	Earnings   BotConfig         `yaml:"earnings"`
	Timezone   string            `yaml:"timezone"` // "yesterday" calculation, default America/New_York
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return Config{}, err
	}
	c.applyDefaults()
	return c, nil
}

func (c *Config) applyDefaults() {
	if c.FMP.BaseURL == "" {
		c.FMP.BaseURL = "https://financialmodelingprep.com/stable"
	}
	if c.FMP.Timeout <= 0 {
		c.FMP.Timeout = 30 * time.Second
	}
	if c.Perplexity.BaseURL == "" {
		c.Perplexity.BaseURL = "https://api.perplexity.ai"
	}
	if c.Perplexity.Model == "" {
		c.Perplexity.Model = "sonar"
	}
	if c.Perplexity.Timeout <= 0 {
		c.Perplexity.Timeout = 60 * time.Second
	}
	if c.Perplexity.MaxTokens <= 0 {
		c.Perplexity.MaxTokens = 1000
	}
	if c.Anthropic.Model == "" {
		c.Anthropic.Model = "claude-sonnet-4-20250514"
	}
	if c.Anthropic.MaxTokens <= 0 {
		c.Anthropic.MaxTokens = 150
	}
	if c.Discord.Timeout <= 0 {
		c.Discord.Timeout = 30 * time.Second
	}
	if c.Cascade.MinGapDays <= 0 {
		c.Cascade.MinGapDays = 30
	}
	if c.Cascade.MaxGapDays <= 0 {
		c.Cascade.MaxGapDays = 120
	}
	if c.Dedup.MaxKeys <= 0 {
		c.Dedup.MaxKeys = 500
	}
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	for _, b := range []*BotConfig{&c.Insider, &c.Congress} {
		if b.LookbackDays <= 0 {
			b.LookbackDays = 7
		}
	}
	if c.Earnings.LookbackDays <= 0 {
		c.Earnings.LookbackDays = 1 // earnings checks yesterday
	}
	if c.Earnings.EarningsMultiple <= 0 {
		c.Earnings.EarningsMultiple = 20
	}
	if c.Insider.SeenPath == "" {
		c.Insider.SeenPath = "posted_insider_trades.json"
	}
	if c.Congress.SeenPath == "" {
		c.Congress.SeenPath = "posted_congress_trades.json"
	}
	if c.Earnings.SeenPath == "" {
		c.Earnings.SeenPath = "posted_earnings.json"
	}
	if c.Earnings.BuyPricesPath == "" {
		c.Earnings.BuyPricesPath = "buy_prices.json"
	}
}

// Bot returns the per-variant section.
func (c Config) Bot(v model.Variant) BotConfig {
	switch v {
	case model.InsiderPurchase:
		return c.Insider
	case model.CongressionalTrade:
		return c.Congress
	default:
		return c.Earnings
	}
}

// Secrets are credentials sourced from the environment, never from the
// config file. A .env file next to the binary is honored.
type Secrets struct {
	FMPAPIKey          string
	PerplexityAPIKey   string
	AnthropicAPIKey    string // optional; enables transcript-based guidance
	EarningsWebhookURL string
	TradingWebhookURL  string // insider + congress alerts
}

func LoadSecrets() Secrets {
	_ = godotenv.Load() // absent .env is fine; real env still applies
	return Secrets{
		FMPAPIKey:          os.Getenv("FMP_API_KEY"),
		PerplexityAPIKey:   os.Getenv("PERPLEXITY_API_KEY"),
		AnthropicAPIKey:    os.Getenv("ANTHROPIC_API_KEY"),
		EarningsWebhookURL: os.Getenv("DISCORD_WEBHOOK_URL"),
		TradingWebhookURL:  os.Getenv("CONGRESS_DISCORD_WEBHOOK_URL"),
	}
}

// WebhookFor picks the channel webhook for a variant.
func (s Secrets) WebhookFor(v model.Variant) string {
	if v == model.EarningsReport {
		return s.EarningsWebhookURL
	}
	return s.TradingWebhookURL
}

// Validate fails fast on missing credentials for the requested bot, before
// any client is built or any network call is made. Dry runs do not need a
// webhook.
func (s Secrets) Validate(v model.Variant, dryRun bool) error {
	switch v {
	case model.InsiderPurchase, model.CongressionalTrade:
		if s.PerplexityAPIKey == "" {
			return errors.New("PERPLEXITY_API_KEY environment variable not set")
		}
		if s.FMPAPIKey == "" {
			return errors.New("FMP_API_KEY environment variable not set")
		}
	case model.EarningsReport:
		if s.FMPAPIKey == "" {
			return errors.New("FMP_API_KEY environment variable not set")
		}
		if s.PerplexityAPIKey == "" {
			return errors.New("PERPLEXITY_API_KEY environment variable not set")
		}
	case model.PriceAlert:
		if s.FMPAPIKey == "" {
			return errors.New("FMP_API_KEY environment variable not set")
		}
	default:
		return fmt.Errorf("unknown bot variant: %s", v)
	}
	if !dryRun && s.WebhookFor(v) == "" {
		return errors.New("discord webhook environment variable not set")
	}
	return nil
}

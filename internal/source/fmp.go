package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"marketbot/internal/config"
	"marketbot/internal/metrics"
	"marketbot/internal/model"
	"marketbot/internal/util"
)

// FMPClient talks to the Financial Modeling Prep stable API. Responses are
// loosely typed; absent fields stay nil on the record.
type FMPClient struct {
	cfg    config.FMPConfig
	apiKey string
	client *http.Client
}

func NewFMP(cfg config.FMPConfig, apiKey string) *FMPClient {
	return &FMPClient{
		cfg:    cfg,
		apiKey: apiKey,
		client: util.NewHTTPClient(util.DefaultDur(cfg.Timeout, 30*time.Second)),
	}
}

// Events implements Structured for all three variants.
func (f *FMPClient) Events(ctx context.Context, v model.Variant, from, to string) ([]model.Record, error) {
	switch v {
	case model.EarningsReport:
		return f.earningsCalendar(ctx, from, to)
	case model.InsiderPurchase:
		return f.insiderPurchases(ctx, from, to)
	case model.CongressionalTrade:
		return f.congressTrades(ctx, from, to)
	default:
		return nil, fmt.Errorf("fmp: unknown variant %s", v)
	}
}

func (f *FMPClient) get(ctx context.Context, path string, params url.Values) ([]byte, error) {
	u, err := url.Parse(strings.TrimRight(f.cfg.BaseURL, "/") + path)
	if err != nil {
		return nil, err
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", f.apiKey)
	u.RawQuery = params.Encode()

	var raw []byte
	err = util.Retry(ctx, util.MaxInt(1, f.cfg.MaxRetries),
		util.DefaultDur(f.cfg.Backoff, 500*time.Millisecond),
		util.DefaultDur(f.cfg.MaxBackoff, 5*time.Second), func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
			if err != nil {
				return err
			}
			if ua := f.cfg.UserAgent; ua != "" {
				req.Header.Set("User-Agent", ua)
			}
			resp, err := f.client.Do(req)
			if err != nil {
				return err
			}
			if resp.StatusCode/100 != 2 {
				body := util.ReadBodyLimit(resp.Body, 1024)
				return fmt.Errorf("fmp %s %d: %s", path, resp.StatusCode, strings.TrimSpace(body))
			}
			raw, err = io.ReadAll(resp.Body)
			resp.Body.Close()
			return err
		})
	if err != nil {
		metrics.SourceError("fmp")
		return nil, err
	}
	return raw, nil
}

func (f *FMPClient) earningsCalendar(ctx context.Context, from, to string) ([]model.Record, error) {
	raw, err := f.get(ctx, "/earnings-calendar", url.Values{"from": {from}, "to": {to}})
	if err != nil {
		return nil, err
	}
	var out []model.Record
	for _, m := range rows(raw) {
		ticker := pickStr(m, "symbol")
		if ticker == "" {
			continue
		}
		out = append(out, model.Record{
			Variant:         model.EarningsReport,
			Subject:         ticker,
			Ticker:          ticker,
			OccurredOn:      pickStr(m, "date"),
			EPSActual:       pickFloat(m, "epsActual"),
			EPSEstimate:     pickFloat(m, "epsEstimated"),
			RevenueActual:   pickFloat(m, "revenueActual"),
			RevenueEstimate: pickFloat(m, "revenueEstimated"),
		})
	}
	return out, nil
}

func (f *FMPClient) insiderPurchases(ctx context.Context, from, to string) ([]model.Record, error) {
	raw, err := f.get(ctx, "/insider-trading/search", url.Values{
		"transactionType": {"P-Purchase"},
		"from":            {from},
		"to":              {to},
		"page":            {"0"},
	})
	if err != nil {
		return nil, err
	}
	var out []model.Record
	for _, m := range rows(raw) {
		ticker := pickStr(m, "symbol")
		name := pickStr(m, "reportingName")
		if ticker == "" || name == "" {
			continue
		}
		r := model.Record{
			Variant:    model.InsiderPurchase,
			Subject:    name,
			Ticker:     ticker,
			Title:      pickStr(m, "typeOfOwner"),
			OccurredOn: pickStr(m, "transactionDate"),
		}
		shares := pickFloat(m, "securitiesTransacted")
		price := pickFloat(m, "price")
		if shares != nil {
			r.Shares = strings.TrimPrefix(moneyString(*shares), "$")
			if price != nil {
				r.Value = moneyString(*shares * *price)
			}
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *FMPClient) congressTrades(ctx context.Context, from, to string) ([]model.Record, error) {
	var out []model.Record
	var firstErr error
	// Senate and House disclosures live on separate endpoints.
	for _, ep := range []struct{ path, chamber string }{
		{"/senate-latest", "Senate"},
		{"/house-latest", "House"},
	} {
		raw, err := f.get(ctx, ep.path, url.Values{"page": {"0"}})
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		for _, m := range rows(raw) {
			if typ := pickStr(m, "type", "transactionType"); typ != "" &&
				!strings.Contains(strings.ToLower(typ), "purchase") {
				continue
			}
			ticker := pickStr(m, "symbol", "ticker")
			name := pickStr(m, "office", "representative", "senator", "firstName")
			if last := pickStr(m, "lastName"); last != "" && pickStr(m, "firstName") != "" {
				name = pickStr(m, "firstName") + " " + last
			}
			if ticker == "" || name == "" {
				continue
			}
			date := pickStr(m, "transactionDate")
			if date != "" && (date < from || date > to) {
				continue
			}
			out = append(out, model.Record{
				Variant:     model.CongressionalTrade,
				Subject:     name,
				Ticker:      ticker,
				Chamber:     ep.chamber,
				Party:       pickStr(m, "party"),
				Amount:      pickStr(m, "amount", "range"),
				OccurredOn:  date,
				DisclosedOn: pickStr(m, "disclosureDate", "dateRecieved", "dateReceived"),
			})
		}
	}
	if len(out) == 0 && firstErr != nil {
		return nil, firstErr
	}
	return out, nil
}

// Profile returns the company name for a ticker, or "" when unknown.
func (f *FMPClient) Profile(ctx context.Context, ticker string) (string, error) {
	raw, err := f.get(ctx, "/profile", url.Values{"symbol": {ticker}})
	if err != nil {
		return "", err
	}
	for _, m := range rows(raw) {
		if name := pickStr(m, "companyName"); name != "" {
			return name, nil
		}
	}
	return "", nil
}

// Quote returns the current price for a ticker.
func (f *FMPClient) Quote(ctx context.Context, ticker string) (float64, error) {
	raw, err := f.get(ctx, "/quote", url.Values{"symbol": {ticker}})
	if err != nil {
		return 0, err
	}
	for _, m := range rows(raw) {
		if p := pickFloat(m, "price"); p != nil {
			return *p, nil
		}
	}
	return 0, fmt.Errorf("fmp: no price for %s", ticker)
}

// PastReport is one row of a ticker's historical earnings series.
type PastReport struct {
	Date    string
	EPS     *float64
	Revenue *float64
}

// EarningsHistory returns recent earnings rows, newest first. The endpoint
// needs a higher FMP plan; callers treat an error as "no history".
func (f *FMPClient) EarningsHistory(ctx context.Context, ticker string, limit int) ([]PastReport, error) {
	raw, err := f.get(ctx, "/earnings", url.Values{
		"symbol": {ticker},
		"limit":  {fmt.Sprintf("%d", limit)},
	})
	if err != nil {
		return nil, err
	}
	var out []PastReport
	for _, m := range rows(raw) {
		date := pickStr(m, "fiscalDateEnding", "date")
		if date == "" {
			continue
		}
		out = append(out, PastReport{
			Date:    date,
			EPS:     pickFloat(m, "eps", "epsActual"),
			Revenue: pickFloat(m, "revenue", "revenueActual"),
		})
	}
	return out, nil
}

// Transcript returns the earnings call transcript text, or "" when the
// plan does not include it.
func (f *FMPClient) Transcript(ctx context.Context, ticker string, year, quarter int) (string, error) {
	raw, err := f.get(ctx, "/earning-call-transcript", url.Values{
		"symbol":  {ticker},
		"year":    {fmt.Sprintf("%d", year)},
		"quarter": {fmt.Sprintf("%d", quarter)},
	})
	if err != nil {
		return "", err
	}
	for _, m := range rows(raw) {
		if content := pickStr(m, "content"); content != "" {
			return content, nil
		}
	}
	return "", nil
}

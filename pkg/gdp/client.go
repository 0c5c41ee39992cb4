package gdp

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"text/template"
	"time"

	"github.com/Masterminds/sprig/v3"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	// ErrUnexpectedStatus is returned when the API answers with a non-success status
	ErrUnexpectedStatus = errors.New("unexpected status from gdp service")
	// ErrInvalidResponse is returned when the API body cannot be decoded
	ErrInvalidResponse = errors.New("invalid response from gdp service")
)

// Fetcher looks up a single GDP value
type Fetcher interface {
	// Lookup returns the GDP for iso in year; found is false when the source has no value
	Lookup(ctx context.Context, iso string, year int) (value float64, found bool, err error)
}

// urlVariables are available to the URL template
type urlVariables struct {
	BaseURL   string
	ISO       string
	Indicator string
	Year      int
}

// worldBankMessage is the error document the API returns for unknown countries or indicators
type worldBankMessage struct {
	Message []struct {
		ID    string `json:"id"`
		Key   string `json:"key"`
		Value string `json:"value"`
	} `json:"message"`
}

// worldBankObservation is one entry of the data page
type worldBankObservation struct {
	Date  string   `json:"date"`
	Value *float64 `json:"value"`
}

// client implements Fetcher against the World Bank indicator API
type client struct {
	log        logrus.FieldLogger
	httpClient *http.Client
	tmpl       *template.Template
	limiter    *rate.Limiter
	baseURL    string
	indicator  string
	timeout    time.Duration
	userAgent  string
}

// NewClient creates a World Bank GDP client
func NewClient(logger logrus.FieldLogger, cfg *Config, httpClient *http.Client, userAgent string) (Fetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.SetDefaults()

	tmpl, err := template.New("gdp-url").Funcs(sprig.TxtFuncMap()).Parse(cfg.URLTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse url template: %w", err)
	}

	if httpClient == nil {
		httpClient = &http.Client{}
	}

	limit := rate.Inf
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
	}

	return &client{
		log:        logger.WithField("component", "gdp-worldbank"),
		httpClient: httpClient,
		tmpl:       tmpl,
		limiter:    rate.NewLimiter(limit, 1),
		baseURL:    cfg.BaseURL,
		indicator:  cfg.Indicator,
		timeout:    cfg.Timeout,
		userAgent:  userAgent,
	}, nil
}

func (c *client) Lookup(ctx context.Context, iso string, year int) (float64, bool, error) {
	url, err := c.renderURL(iso, year)
	if err != nil {
		return 0, false, err
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return 0, false, fmt.Errorf("rate limiter: %w", err)
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return 0, false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, false, fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, false, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return 0, false, nil
	case resp.StatusCode != http.StatusOK:
		return 0, false, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	value, found, err := parseResponse(body, year)
	if err != nil {
		return 0, false, err
	}

	c.log.WithFields(logrus.Fields{
		"iso":   iso,
		"year":  year,
		"found": found,
	}).Debug("GDP lookup")

	return value, found, nil
}

func (c *client) renderURL(iso string, year int) (string, error) {
	var buf bytes.Buffer
	if err := c.tmpl.Execute(&buf, urlVariables{
		BaseURL:   c.baseURL,
		ISO:       iso,
		Indicator: c.indicator,
		Year:      year,
	}); err != nil {
		return "", fmt.Errorf("failed to render url template: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}

// parseResponse extracts the value for year from a World Bank response. The API
// answers [meta, observations] on success and [message] when the key is unknown.
func parseResponse(body []byte, year int) (float64, bool, error) {
	var parts []json.RawMessage
	if err := json.Unmarshal(body, &parts); err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	if len(parts) == 0 {
		return 0, false, nil
	}

	var msg worldBankMessage
	if err := json.Unmarshal(parts[0], &msg); err == nil && len(msg.Message) > 0 {
		return 0, false, nil
	}

	if len(parts) < 2 {
		return 0, false, nil
	}

	var observations []worldBankObservation
	if err := json.Unmarshal(parts[1], &observations); err != nil {
		return 0, false, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}

	want := strconv.Itoa(year)
	for _, o := range observations {
		if o.Date == want && o.Value != nil {
			return *o.Value, true, nil
		}
	}

	return 0, false, nil
}

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/ethpandaops/energy-etl/pkg/codebook"
	"github.com/ethpandaops/energy-etl/pkg/table"
	"github.com/sirupsen/logrus"
)

// Define static errors
var (
	ErrUnexpectedStatus = errors.New("unexpected status fetching upstream file")
)

// ClientInterface defines the methods for reading the upstream files
type ClientInterface interface {
	// Energy fetches the energy dataset, keeping only columns when given
	Energy(ctx context.Context, columns ...string) (*table.Table, error)
	// Codebook fetches the upstream codebook
	Codebook(ctx context.Context) (codebook.Codebook, error)
	// Stop releases idle connections
	Stop() error
}

// client implements ClientInterface for HTTP and local locations
type client struct {
	log         logrus.FieldLogger
	httpClient  *http.Client
	energyURL   string
	codebookURL string
	bundled     string
	timeout     time.Duration
	userAgent   string
}

// NewClient creates an upstream client
func NewClient(logger logrus.FieldLogger, cfg *Config, userAgent string) (ClientInterface, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	cfg.SetDefaults()

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     cfg.KeepAlive,
	}

	return &client{
		log: logger.WithField("component", "source"),
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   0, // per-request timeouts
		},
		energyURL:   cfg.EnergyURL,
		codebookURL: cfg.CodebookURL,
		bundled:     cfg.BundledCodebook,
		timeout:     cfg.Timeout,
		userAgent:   userAgent,
	}, nil
}

func (c *client) Energy(ctx context.Context, columns ...string) (*table.Table, error) {
	start := time.Now()

	var t *table.Table
	err := c.open(ctx, c.energyURL, func(r io.Reader) error {
		var err error
		t, err = table.ReadCSV(r, columns...)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load energy data from %s: %w", c.energyURL, err)
	}

	c.log.WithFields(logrus.Fields{
		"location": c.energyURL,
		"rows":     t.Len(),
		"columns":  len(t.Columns()),
		"duration": time.Since(start),
	}).Info("Loaded energy data")

	return t, nil
}

func (c *client) Codebook(ctx context.Context) (codebook.Codebook, error) {
	location := c.codebookURL
	if c.bundled != "" {
		if _, err := os.Stat(c.bundled); err == nil {
			location = c.bundled
		}
	}

	var cb codebook.Codebook
	err := c.open(ctx, location, func(r io.Reader) error {
		var err error
		cb, err = codebook.Read(r)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load codebook from %s: %w", location, err)
	}

	c.log.WithFields(logrus.Fields{
		"location": location,
		"entries":  len(cb),
	}).Info("Loaded codebook")

	return cb, nil
}

func (c *client) Stop() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// open streams the document at location into read
func (c *client) open(ctx context.Context, location string, read func(io.Reader) error) error {
	u, err := url.Parse(location)
	if err == nil && (u.Scheme == "http" || u.Scheme == "https") {
		return c.fetch(ctx, location, read)
	}

	path := location
	if err == nil && u.Scheme == "file" {
		path = u.Path
	}

	f, err := os.Open(path) //nolint:gosec // location comes from operator config
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	return read(f)
}

func (c *client) fetch(ctx context.Context, location string, read func(io.Reader) error) error {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, location, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: %d %s", ErrUnexpectedStatus, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	return read(resp.Body)
}

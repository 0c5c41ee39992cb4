package cmd

import (
	"fmt"

	"github.com/ethpandaops/energy-etl/pkg/config"
	"github.com/ethpandaops/energy-etl/pkg/gdp"
	"github.com/ethpandaops/energy-etl/pkg/jobs"
	"github.com/ethpandaops/energy-etl/pkg/output"
	"github.com/ethpandaops/energy-etl/pkg/source"
	"github.com/sirupsen/logrus"
)

// application wires configuration into jobs
type application struct {
	config   *config.Config
	source   source.ClientInterface
	dataset  *jobs.DatasetJob
	codebook *jobs.CodebookJob
}

func newApplication() (*application, error) {
	cfg, err := config.Load(cfgFile, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	setLogLevel(cfg.Logging)

	ua := userAgent(cfg.UserAgent)

	src, err := source.NewClient(logger, &cfg.Sources, ua)
	if err != nil {
		return nil, fmt.Errorf("failed to create source client: %w", err)
	}

	writer, err := output.NewWriter(&cfg.Output, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create output writer: %w", err)
	}

	deps := &jobs.Dependencies{
		Source:  src,
		Writer:  writer,
		Options: cfg.PlanOptions(),
		Logger:  logger,
	}

	if cfg.GDP.Enabled {
		fetcher, err := gdp.NewClient(logger, &cfg.GDP, nil, ua)
		if err != nil {
			return nil, fmt.Errorf("failed to create gdp client: %w", err)
		}
		deps.GDP = fetcher
	}

	dataset, err := jobs.NewDatasetJob(deps)
	if err != nil {
		return nil, err
	}

	cb, err := jobs.NewCodebookJob(deps)
	if err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"config":      cfgFile,
		"active_year": cfg.ActiveYear,
		"range":       cfg.PreviousYearRange,
		"columns":     len(cfg.ColumnsToKeep),
		"gdp":         cfg.GDP.Enabled,
	}).Info("Configuration loaded")

	return &application{
		config:   cfg,
		source:   src,
		dataset:  dataset,
		codebook: cb,
	}, nil
}

func (a *application) Stop() {
	if err := a.source.Stop(); err != nil {
		logger.WithError(err).Warn("Failed to stop source client")
	}
}

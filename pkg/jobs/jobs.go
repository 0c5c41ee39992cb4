// Package jobs composes the dataset and codebook jobs from pipeline stages
package jobs

import (
	"context"
	"errors"

	"github.com/ethpandaops/energy-etl/pkg/codebook"
	"github.com/ethpandaops/energy-etl/pkg/gdp"
	"github.com/ethpandaops/energy-etl/pkg/observability"
	"github.com/ethpandaops/energy-etl/pkg/output"
	"github.com/ethpandaops/energy-etl/pkg/plan"
	"github.com/ethpandaops/energy-etl/pkg/source"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Job names
const (
	DatasetJobName  = "dataset"
	CodebookJobName = "codebook"
)

var (
	// ErrMissingDependency is returned when a job is built without a required collaborator
	ErrMissingDependency = errors.New("job dependency is missing")
)

// Job is a runnable batch job
type Job interface {
	// Name identifies the job in logs and metrics
	Name() string
	// Run executes one complete run
	Run(ctx context.Context) error
}

// Dependencies are the collaborators shared by both jobs
type Dependencies struct {
	Source source.ClientInterface
	// GDP is nil when backfill is disabled
	GDP     gdp.Fetcher
	Writer  *output.Writer
	Options plan.Options
	Logger  logrus.FieldLogger
}

func (d *Dependencies) validate() error {
	if d.Source == nil || d.Writer == nil || d.Logger == nil {
		return ErrMissingDependency
	}

	return nil
}

// runLogger tags a run with a unique id
func runLogger(logger logrus.FieldLogger, job string) logrus.FieldLogger {
	return logger.WithFields(logrus.Fields{
		"job":    job,
		"run_id": uuid.NewString(),
	})
}

// logMismatches warns once per mismatch and records counts per kind
func logMismatches(log logrus.FieldLogger, against string, mismatches []codebook.Mismatch) {
	counts := map[string]int{
		string(codebook.Orphan):       0,
		string(codebook.Undocumented): 0,
		string(codebook.Duplicate):    0,
	}

	for _, m := range mismatches {
		counts[string(m.Kind)]++
		log.WithFields(logrus.Fields{
			"kind":    m.Kind,
			"column":  m.Column,
			"against": against,
		}).Warn("Codebook mismatch")
	}

	observability.RecordCodebookMismatches(counts)

	if len(mismatches) == 0 {
		log.WithField("against", against).Info("Codebook consistent with dataset columns")
	}
}

package jobs

import (
	"context"
	"fmt"

	"github.com/ethpandaops/energy-etl/pkg/codebook"
	"github.com/ethpandaops/energy-etl/pkg/gdp"
	"github.com/ethpandaops/energy-etl/pkg/observability"
	"github.com/ethpandaops/energy-etl/pkg/pipeline"
	"github.com/ethpandaops/energy-etl/pkg/plan"
	"github.com/ethpandaops/energy-etl/pkg/synchronizer"
	"github.com/ethpandaops/energy-etl/pkg/table"
	"github.com/ethpandaops/energy-etl/pkg/transform"
	"github.com/sirupsen/logrus"
)

// Dataset stage names
const (
	StageFetchCodebook = "fetch-codebook"
	StageFetchEnergy   = "fetch-energy"
	StageBackfillGDP   = "backfill-gdp"
	StageTransform     = "transform"
	StageWriteDataset  = "write-dataset"
	StageVerifyDataset = "verify-dataset"
)

// DatasetJob produces the processed dataset
type DatasetJob struct {
	deps *Dependencies
}

// NewDatasetJob creates the dataset job
func NewDatasetJob(deps *Dependencies) (*DatasetJob, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	return &DatasetJob{deps: deps}, nil
}

// Name returns the job name
func (j *DatasetJob) Name() string {
	return DatasetJobName
}

// datasetRun holds the state of one run
type datasetRun struct {
	deps  *Dependencies
	log   logrus.FieldLogger
	cache gdp.Cache

	rawCodebook codebook.Codebook
	plan        *plan.Plan
	raw         *table.Table
	processed   *table.Table
}

// Run fetches, backfills, transforms and writes the dataset
func (j *DatasetJob) Run(ctx context.Context) error {
	run := &datasetRun{
		deps:  j.deps,
		log:   runLogger(j.deps.Logger, DatasetJobName),
		cache: gdp.NewCache(),
	}

	p, err := pipeline.New(DatasetJobName, run.log, run.stages()...)
	if err != nil {
		return fmt.Errorf("failed to build dataset pipeline: %w", err)
	}

	return p.Execute(ctx)
}

func (r *datasetRun) stages() []pipeline.Stage {
	stages := []pipeline.Stage{
		{Name: StageFetchCodebook, Run: r.fetchCodebook},
		{Name: StageFetchEnergy, DependsOn: []string{StageFetchCodebook}, Run: r.fetchEnergy},
		{Name: StageTransform, DependsOn: []string{StageFetchEnergy}, Run: r.transform},
		{Name: StageWriteDataset, DependsOn: []string{StageTransform}, Run: r.write},
		{Name: StageVerifyDataset, DependsOn: []string{StageWriteDataset}, Run: r.verify},
	}

	if r.deps.Options.GDPBackfill && r.deps.GDP != nil {
		stages = append(stages, pipeline.Stage{
			Name:      StageBackfillGDP,
			DependsOn: []string{StageFetchEnergy},
			Run:       r.backfill,
		})
		stages[2].DependsOn = append(stages[2].DependsOn, StageBackfillGDP)
	}

	return stages
}

func (r *datasetRun) fetchCodebook(ctx context.Context) error {
	cb, err := r.deps.Source.Codebook(ctx)
	if err != nil {
		return err
	}

	r.rawCodebook = cb
	p, err := plan.Build(r.deps.Options, cb)
	if err != nil {
		return err
	}
	r.plan = p

	r.log.WithFields(logrus.Fields{
		"columns": len(r.plan.Columns),
		"window":  r.plan.Window.String(),
	}).Info("Built column plan")

	return nil
}

func (r *datasetRun) fetchEnergy(ctx context.Context) error {
	t, err := r.deps.Source.Energy(ctx, r.plan.RawColumns()...)
	if err != nil {
		return err
	}

	r.raw = t
	observability.RecordRows(StageFetchEnergy, "read", t.Len())

	return nil
}

func (r *datasetRun) backfill(ctx context.Context) error {
	if !r.plan.Has(plan.ColumnGDP) {
		r.log.Debug("GDP column not kept, skipping backfill")
		return nil
	}

	_, err := gdp.Backfill(ctx, r.raw, r.plan.Window, r.plan.Required, r.cache, r.deps.GDP, r.log)
	return err
}

func (r *datasetRun) transform(_ context.Context) error {
	out, report, err := transform.New(r.plan, r.log).Apply(r.raw)
	if err != nil {
		return err
	}

	r.processed = out
	observability.RecordRows(StageTransform, "kept", report.OutputRows)
	observability.RecordRows(StageTransform, "dropped", report.InputRows-report.OutputRows)

	return nil
}

func (r *datasetRun) write(_ context.Context) error {
	if _, err := r.deps.Writer.WriteDataset(r.processed); err != nil {
		return err
	}

	observability.RecordRows(StageWriteDataset, "written", r.processed.Len())

	return nil
}

// verify checks the written columns against the codebook the plan publishes
func (r *datasetRun) verify(_ context.Context) error {
	published := synchronizer.New(r.log).Synchronize(r.rawCodebook, r.plan)
	logMismatches(r.log, "plan", codebook.Verify(r.processed.Columns(), published.Codebook, r.plan.IdentifierNames()...))

	return nil
}

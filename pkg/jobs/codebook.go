package jobs

import (
	"context"
	"fmt"

	"github.com/ethpandaops/energy-etl/pkg/codebook"
	"github.com/ethpandaops/energy-etl/pkg/pipeline"
	"github.com/ethpandaops/energy-etl/pkg/plan"
	"github.com/ethpandaops/energy-etl/pkg/synchronizer"
	"github.com/sirupsen/logrus"
)

// Codebook stage names
const (
	StageSynchronize    = "synchronize"
	StageWriteCodebook  = "write-codebook"
	StageVerifyCodebook = "verify-codebook"
)

// CodebookJob produces the published codebook
type CodebookJob struct {
	deps *Dependencies
}

// NewCodebookJob creates the codebook job
func NewCodebookJob(deps *Dependencies) (*CodebookJob, error) {
	if err := deps.validate(); err != nil {
		return nil, err
	}

	return &CodebookJob{deps: deps}, nil
}

// Name returns the job name
func (j *CodebookJob) Name() string {
	return CodebookJobName
}

// codebookRun holds the state of one run
type codebookRun struct {
	deps *Dependencies
	log  logrus.FieldLogger

	plan      *plan.Plan
	raw       codebook.Codebook
	published codebook.Codebook
}

// Run fetches, synchronizes and writes the codebook. It never reads the processed
// dataset except to report drift against an existing file.
func (j *CodebookJob) Run(ctx context.Context) error {
	run := &codebookRun{
		deps: j.deps,
		log:  runLogger(j.deps.Logger, CodebookJobName),
	}

	p, err := pipeline.New(CodebookJobName, run.log,
		pipeline.Stage{Name: StageFetchCodebook, Run: run.fetch},
		pipeline.Stage{Name: StageSynchronize, DependsOn: []string{StageFetchCodebook}, Run: run.synchronize},
		pipeline.Stage{Name: StageWriteCodebook, DependsOn: []string{StageSynchronize}, Run: run.write},
		pipeline.Stage{Name: StageVerifyCodebook, DependsOn: []string{StageWriteCodebook}, Run: run.verify},
	)
	if err != nil {
		return fmt.Errorf("failed to build codebook pipeline: %w", err)
	}

	return p.Execute(ctx)
}

func (r *codebookRun) fetch(ctx context.Context) error {
	cb, err := r.deps.Source.Codebook(ctx)
	if err != nil {
		return err
	}

	r.raw = cb
	p, err := plan.Build(r.deps.Options, cb)
	if err != nil {
		return err
	}
	r.plan = p

	return nil
}

func (r *codebookRun) synchronize(_ context.Context) error {
	r.published = synchronizer.New(r.log).Synchronize(r.raw, r.plan).Codebook
	return nil
}

func (r *codebookRun) write(_ context.Context) error {
	_, err := r.deps.Writer.WriteCodebook(r.published)
	return err
}

// verify checks the codebook against the plan and, when present, the dataset on disk
func (r *codebookRun) verify(_ context.Context) error {
	identifiers := r.plan.IdentifierNames()

	logMismatches(r.log, "plan", codebook.Verify(r.plan.Names(), r.published, identifiers...))

	header, err := r.deps.Writer.DatasetHeader()
	if err != nil {
		r.log.WithError(err).Warn("Could not read processed dataset header")
		return nil
	}

	if header == nil {
		r.log.Debug("No processed dataset on disk, skipping drift check")
		return nil
	}

	logMismatches(r.log, "dataset", codebook.Verify(header, r.published, identifiers...))

	return nil
}

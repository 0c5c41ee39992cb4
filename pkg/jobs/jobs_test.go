package jobs

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ethpandaops/energy-etl/internal/testutil"
	"github.com/ethpandaops/energy-etl/pkg/codebook"
	"github.com/ethpandaops/energy-etl/pkg/output"
	"github.com/ethpandaops/energy-etl/pkg/pipeline"
	"github.com/ethpandaops/energy-etl/pkg/plan"
	"github.com/ethpandaops/energy-etl/pkg/source"
	"github.com/ethpandaops/energy-etl/pkg/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Lookup(ctx context.Context, iso string, year int) (float64, bool, error) {
	args := m.Called(ctx, iso, year)
	return args.Get(0).(float64), args.Bool(1), args.Error(2)
}

type env struct {
	dir    string
	deps   *Dependencies
	writer *output.Writer
}

func newEnv(t *testing.T, fetcher *mockFetcher) *env {
	t.Helper()

	dir := t.TempDir()
	energy := testutil.WriteFile(t, dir, "upstream/energy.csv", testutil.EnergyCSV)
	cb := testutil.WriteFile(t, dir, "upstream/codebook.csv", testutil.CodebookCSV)

	src, err := source.NewClient(testutil.NewLogger(), &source.Config{EnergyURL: energy, CodebookURL: cb}, "energy-etl/test")
	require.NoError(t, err)
	t.Cleanup(func() { _ = src.Stop() })

	writer, err := output.NewWriter(&output.Config{Dir: filepath.Join(dir, "output")}, testutil.NewLogger())
	require.NoError(t, err)

	deps := &Dependencies{
		Source: src,
		Writer: writer,
		Options: plan.Options{
			Columns:           testutil.EnergyColumns,
			Required:          []string{"population"},
			ActiveYear:        2022,
			PreviousYearRange: 5,
			DefaultPrecision:  2,
			GDPBackfill:       fetcher != nil,
			GDPSource:         "World Bank",
		},
		Logger: testutil.NewLogger(),
	}
	if fetcher != nil {
		deps.GDP = fetcher
	}

	return &env{dir: dir, deps: deps, writer: writer}
}

func readOutput(t *testing.T, path string) *table.Table {
	t.Helper()

	f, err := os.Open(path) //nolint:gosec // test path
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	tbl, err := table.ReadCSV(f)
	require.NoError(t, err)

	return tbl
}

func TestDatasetJob(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Lookup", mock.Anything, "DEU", 2021).Return(4.0e12, true, nil).Once()
	fetcher.On("Lookup", mock.Anything, "DEU", 2022).Return(4.1e12, true, nil).Once()

	e := newEnv(t, fetcher)

	job, err := NewDatasetJob(e.deps)
	require.NoError(t, err)
	assert.Equal(t, DatasetJobName, job.Name())

	require.NoError(t, job.Run(context.Background()))
	fetcher.AssertExpectations(t)

	out := readOutput(t, e.writer.Config().DatasetPath())
	require.Equal(t, 4, out.Len())
	assert.Equal(t, "Germany", out.Get(0, "Country").String())
	assert.Equal(t, table.NumberValue(4.0e12), out.Get(0, "GDP ISD"))
	assert.Equal(t, table.NumberValue(4.1e12), out.Get(1, "GDP ISD"))
	assert.Equal(t, table.NumberValue(2.9e12), out.Get(2, "GDP ISD"))
	assert.True(t, out.Get(3, "GDP ISD").IsNull(), "aggregates are never looked up")
	assert.Equal(t, table.NumberValue(1.5e9), out.Get(0, "Coal Electricity kWh"))
}

func TestDatasetJob_WithoutBackfill(t *testing.T) {
	e := newEnv(t, nil)

	job, err := NewDatasetJob(e.deps)
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))

	out := readOutput(t, e.writer.Config().DatasetPath())
	assert.True(t, out.Get(0, "GDP ISD").IsNull())
}

func TestDatasetJob_GDPNotKept(t *testing.T) {
	fetcher := &mockFetcher{}
	e := newEnv(t, fetcher)
	e.deps.Options.Columns = []string{"country", "year", "iso_code", "population"}

	job, err := NewDatasetJob(e.deps)
	require.NoError(t, err)
	require.NoError(t, job.Run(context.Background()))

	fetcher.AssertNotCalled(t, "Lookup", mock.Anything, mock.Anything, mock.Anything)

	out := readOutput(t, e.writer.Config().DatasetPath())
	assert.False(t, out.Has("GDP ISD"))
}

func TestDatasetJob_FetchFailure(t *testing.T) {
	e := newEnv(t, nil)

	src, err := source.NewClient(testutil.NewLogger(), &source.Config{
		EnergyURL:   filepath.Join(e.dir, "absent.csv"),
		CodebookURL: filepath.Join(e.dir, "upstream/codebook.csv"),
	}, "")
	require.NoError(t, err)
	e.deps.Source = src

	job, err := NewDatasetJob(e.deps)
	require.NoError(t, err)

	err = job.Run(context.Background())
	require.ErrorIs(t, err, pipeline.ErrStageFailed)
	assert.Contains(t, err.Error(), StageFetchEnergy)

	_, statErr := os.Stat(e.writer.Config().DatasetPath())
	assert.True(t, os.IsNotExist(statErr), "nothing is written after a failed fetch")
}

func TestCodebookJob(t *testing.T) {
	fetcher := &mockFetcher{}
	fetcher.On("Lookup", mock.Anything, "DEU", mock.Anything).Return(4.0e12, true, nil)

	e := newEnv(t, fetcher)

	dataset, err := NewDatasetJob(e.deps)
	require.NoError(t, err)
	require.NoError(t, dataset.Run(context.Background()))

	job, err := NewCodebookJob(e.deps)
	require.NoError(t, err)
	assert.Equal(t, CodebookJobName, job.Name())
	require.NoError(t, job.Run(context.Background()))

	content := testutil.ReadFile(t, e.writer.Config().CodebookPath())
	cb, err := codebook.Read(strings.NewReader(content))
	require.NoError(t, err)

	header, err := e.writer.DatasetHeader()
	require.NoError(t, err)

	// Every published non-identifier column is documented
	p, err := plan.Build(e.deps.Options, mustCodebook(t))
	require.NoError(t, err)
	assert.Empty(t, codebook.Verify(header, cb, p.IdentifierNames()...))

	gdpEntry, ok := cb.Lookup("GDP ISD")
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(gdpEntry.Source, "; missing values filled from World Bank"))
}

func TestNewJobs_MissingDependencies(t *testing.T) {
	_, err := NewDatasetJob(&Dependencies{})
	require.ErrorIs(t, err, ErrMissingDependency)

	_, err = NewCodebookJob(&Dependencies{})
	require.ErrorIs(t, err, ErrMissingDependency)
}

func mustCodebook(t *testing.T) codebook.Codebook {
	t.Helper()

	cb, err := codebook.Read(strings.NewReader(testutil.CodebookCSV))
	require.NoError(t, err)

	return cb
}

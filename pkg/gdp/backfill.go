package gdp

import (
	"context"
	"fmt"
	"strings"

	"github.com/ethpandaops/energy-etl/pkg/observability"
	"github.com/ethpandaops/energy-etl/pkg/plan"
	"github.com/ethpandaops/energy-etl/pkg/table"
	"github.com/sirupsen/logrus"
)

// aggregatePrefix marks upstream regional aggregates that have no World Bank country code
const aggregatePrefix = "OWID_"

// Report summarizes a backfill
type Report struct {
	// Missing is the number of in-window rows with no GDP value
	Missing int
	// Filled is the number of cells filled
	Filled int
	// Lookups is the number of external requests made
	Lookups int
	// CacheHits is the number of cells answered from the cache
	CacheHits int
	// Unknown is the number of cells left empty because the source had no value
	Unknown int
	// Failed is the number of cells left empty because a lookup errored
	Failed int
	// Skipped is the number of cells without a usable ISO code
	Skipped int
	// Excluded is the number of in-window rows dropped later for a missing required value
	Excluded int
}

// Backfill fills empty GDP cells of the raw table in place. Only rows inside window
// with a country ISO code and a value for every required column present in t are
// considered. Each (iso, year) is looked up at most once per cache; failures are
// logged, cached and leave the cell empty.
func Backfill(
	ctx context.Context,
	t *table.Table,
	window plan.Window,
	required []string,
	cache Cache,
	fetcher Fetcher,
	logger logrus.FieldLogger,
) (*Report, error) {
	log := logger.WithField("component", "gdp-backfill")
	report := &Report{}

	if !t.Has(plan.ColumnGDP) {
		if err := t.AddColumn(plan.ColumnGDP); err != nil {
			return report, fmt.Errorf("failed to add gdp column: %w", err)
		}
	}

	for i := 0; i < t.Len(); i++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		row := t.Row(i)

		if !row.Get(plan.ColumnGDP).IsNull() {
			continue
		}

		y, ok := row.Get(plan.ColumnYear).Float()
		if !ok || !window.ContainsValue(y) {
			continue
		}

		if missingRequired(t, row, required) {
			report.Excluded++
			continue
		}

		report.Missing++

		iso := strings.TrimSpace(row.Text(plan.ColumnISOCode))
		if iso == "" || strings.HasPrefix(iso, aggregatePrefix) {
			report.Skipped++
			continue
		}

		key := Key{ISO: iso, Year: int(y)}

		result, cached := cache.Get(key)
		if cached {
			report.CacheHits++
			observability.RecordGDPCacheHit()
		} else {
			result = lookup(ctx, fetcher, key, log)
			if ctxErr := ctx.Err(); ctxErr != nil {
				return report, ctxErr
			}
			cache.Put(key, result)
			report.Lookups++
			observability.RecordGDPLookup(string(result.Status))
		}

		switch result.Status {
		case StatusFound:
			if err := t.Set(i, plan.ColumnGDP, table.NumberValue(result.Value)); err != nil {
				return report, err
			}
			report.Filled++
		case StatusUnknown:
			report.Unknown++
		case StatusFailed:
			report.Failed++
		}
	}

	observability.RecordGDPFilled(report.Filled)

	log.WithFields(logrus.Fields{
		"missing":    report.Missing,
		"filled":     report.Filled,
		"lookups":    report.Lookups,
		"cache_hits": report.CacheHits,
		"unknown":    report.Unknown,
		"failed":     report.Failed,
		"skipped":    report.Skipped,
		"excluded":   report.Excluded,
	}).Info("GDP backfill complete")

	return report, nil
}

// missingRequired reports whether row lacks a value for a required column of t.
// Columns absent from t are not filtered on, matching the transform.
func missingRequired(t *table.Table, row table.Row, required []string) bool {
	for _, c := range required {
		if t.Has(c) && row.Get(c).IsNull() {
			return true
		}
	}
	return false
}

func lookup(ctx context.Context, fetcher Fetcher, key Key, log logrus.FieldLogger) Result {
	value, found, err := fetcher.Lookup(ctx, key.ISO, key.Year)
	switch {
	case err != nil:
		log.WithError(err).WithField("key", key.String()).Warn("GDP lookup failed")
		observability.RecordError("gdp-backfill", "lookup")
		return Result{Status: StatusFailed}
	case !found:
		log.WithField("key", key.String()).Debug("No GDP value at source")
		return Result{Status: StatusUnknown}
	default:
		return Result{Status: StatusFound, Value: value}
	}
}

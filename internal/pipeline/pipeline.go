// Package pipeline orchestrates one reconciliation run: extract each monthly
// metadata pair, fold the per-period catalogs into a cumulative one, and
// synchronize it into the persistent store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/mhornych/chmi-station-catalog/internal/domain"
	"github.com/mhornych/chmi-station-catalog/internal/observability"
)

// Source lists the extract periods available on disk and loads one period's
// station and detail extracts.
type Source interface {
	Periods() ([]domain.Period, error)
	Load(p domain.Period) (primary, detail domain.Extract, err error)
}

// Output persists processed catalog files: one pair per period plus the
// cumulative pair consumed by later runs and external tooling.
type Output interface {
	WritePeriod(p domain.Period, catalog domain.Catalog, measurements domain.MeasurementSet) error
	WriteCumulative(catalog domain.Catalog, measurements domain.MeasurementSet) error
}

// Synchronizer upserts a cumulative catalog into the persistent store.
type Synchronizer interface {
	Sync(ctx context.Context, catalog domain.Catalog, measurements domain.MeasurementSet) (Report, error)
}

// Stage names a phase of the reconciliation run for error reporting.
type Stage string

const (
	StageDiscover  Stage = "discover"
	StageExtract   Stage = "extract"
	StageAssociate Stage = "associate"
	StageWrite     Stage = "write"
	StageSync      Stage = "synchronize"
)

// RunError wraps a failure with the stage and, where applicable, the period
// that triggered it.
type RunError struct {
	Stage  Stage
	Period domain.Period
	Err    error
}

func (e *RunError) Error() string {
	if e.Period.IsZero() {
		return fmt.Sprintf("%s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: period %s: %v", e.Stage, e.Period, e.Err)
}

func (e *RunError) Unwrap() error { return e.Err }

// Pipeline runs the extract-merge-synchronize batch. One invocation
// processes one catalog end to end; there is no internal parallelism, the
// dominant cost is file and store I/O.
type Pipeline struct {
	source  Source
	output  Output
	syncer  Synchronizer
	logger  *slog.Logger
	metrics *observability.Metrics
	ready   atomic.Bool
}

// New creates a Pipeline with the given stages and observability.
func New(source Source, output Output, syncer Synchronizer, logger *slog.Logger, metrics *observability.Metrics) *Pipeline {
	return &Pipeline{
		source:  source,
		output:  output,
		syncer:  syncer,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness returns nil once a run has completed successfully.
func (p *Pipeline) CheckReadiness(_ context.Context) error {
	if !p.ready.Load() {
		return errors.New("no reconciliation run has completed yet")
	}
	return nil
}

// Run executes one full reconciliation and returns the synchronization
// report. Periods are folded in chronological order so attribute
// corrections from newer extracts win.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	p.metrics.RunRunning.Set(1)
	defer p.metrics.RunRunning.Set(0)

	report, err := p.run(ctx)
	if err != nil {
		p.metrics.RunsFailed.Inc()
		return Report{}, err
	}

	p.metrics.RunsCompleted.Inc()
	p.metrics.RunDuration.Observe(time.Since(start).Seconds())
	p.ready.Store(true)
	return report, nil
}

func (p *Pipeline) run(ctx context.Context) (Report, error) {
	periods, err := p.source.Periods()
	if err != nil {
		return Report{}, &RunError{Stage: StageDiscover, Err: err}
	}
	if len(periods) == 0 {
		return Report{}, &RunError{Stage: StageDiscover, Err: errors.New("no metadata periods found")}
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	p.logger.Info("reconciliation started",
		"periods", len(periods), "first", periods[0].String(), "last", periods[len(periods)-1].String())

	cumulative := domain.Catalog{}
	measurements := domain.MeasurementSet{}
	for _, period := range periods {
		if err := ctx.Err(); err != nil {
			return Report{}, &RunError{Stage: StageExtract, Period: period, Err: err}
		}

		catalog, periodMeasurements, err := p.processPeriod(period)
		if err != nil {
			return Report{}, err
		}

		cumulative = domain.MergeCatalogs(cumulative, catalog)
		measurements = domain.MergeMeasurementSets(measurements, periodMeasurements)
		p.metrics.PeriodsProcessed.Inc()
	}

	if err := p.output.WriteCumulative(cumulative, measurements); err != nil {
		return Report{}, &RunError{Stage: StageWrite, Err: err}
	}
	p.metrics.CatalogStations.Set(float64(len(cumulative)))

	report, err := p.syncer.Sync(ctx, cumulative, measurements)
	if err != nil {
		return Report{}, &RunError{Stage: StageSync, Err: err}
	}

	p.logger.Info("reconciliation complete",
		"stations", len(cumulative),
		"stations_created", report.StationsCreated,
		"created_total", report.TotalCreated())
	return report, nil
}

// processPeriod reconciles one monthly extract pair into a catalog and
// writes the processed per-period files.
func (p *Pipeline) processPeriod(period domain.Period) (domain.Catalog, domain.MeasurementSet, error) {
	primary, detail, err := p.source.Load(period)
	if err != nil {
		return nil, nil, &RunError{Stage: StageExtract, Period: period, Err: err}
	}

	catalog, measurements, err := domain.BuildCatalog(primary, detail)
	if err != nil {
		stage := StageExtract
		var orphan *domain.OrphanStationError
		if errors.As(err, &orphan) {
			stage = StageAssociate
		}
		return nil, nil, &RunError{Stage: stage, Period: period, Err: err}
	}

	if err := p.output.WritePeriod(period, catalog, measurements); err != nil {
		return nil, nil, &RunError{Stage: StageWrite, Period: period, Err: err}
	}

	p.logger.Debug("period processed", "period", period.String(), "stations", len(catalog))
	return catalog, measurements, nil
}

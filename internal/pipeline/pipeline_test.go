package pipeline_test

import (
	"context"
	"errors"
	"testing"

	"github.com/mhornych/chmi-station-catalog/internal/domain"
	"github.com/mhornych/chmi-station-catalog/internal/observability"
	"github.com/mhornych/chmi-station-catalog/internal/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type extractPair struct {
	primary domain.Extract
	detail  domain.Extract
}

type fakeSource struct {
	pairs      map[domain.Period]extractPair
	order      []domain.Period
	periodsErr error
	loadErr    map[domain.Period]error
}

func (f *fakeSource) Periods() ([]domain.Period, error) {
	if f.periodsErr != nil {
		return nil, f.periodsErr
	}
	return append([]domain.Period(nil), f.order...), nil
}

func (f *fakeSource) Load(p domain.Period) (domain.Extract, domain.Extract, error) {
	if err := f.loadErr[p]; err != nil {
		return domain.Extract{}, domain.Extract{}, err
	}
	pair, ok := f.pairs[p]
	if !ok {
		return domain.Extract{}, domain.Extract{}, errors.New("unexpected period")
	}
	return pair.primary, pair.detail, nil
}

type fakeOutput struct {
	periods       []domain.Period
	cumulative    domain.Catalog
	cumulativeSet domain.MeasurementSet
	writes        int
	periodErr     error
	cumulativeErr error
}

func (f *fakeOutput) WritePeriod(p domain.Period, _ domain.Catalog, _ domain.MeasurementSet) error {
	if f.periodErr != nil {
		return f.periodErr
	}
	f.periods = append(f.periods, p)
	return nil
}

func (f *fakeOutput) WriteCumulative(catalog domain.Catalog, measurements domain.MeasurementSet) error {
	if f.cumulativeErr != nil {
		return f.cumulativeErr
	}
	f.writes++
	f.cumulative = catalog
	f.cumulativeSet = measurements
	return nil
}

type fakeSyncer struct {
	catalog      domain.Catalog
	measurements domain.MeasurementSet
	report       pipeline.Report
	err          error
}

func (f *fakeSyncer) Sync(_ context.Context, catalog domain.Catalog, measurements domain.MeasurementSet) (pipeline.Report, error) {
	if f.err != nil {
		return pipeline.Report{}, f.err
	}
	f.catalog = catalog
	f.measurements = measurements
	return f.report, nil
}

func newPipeline(source *fakeSource, output *fakeOutput, syncer *fakeSyncer) *pipeline.Pipeline {
	return pipeline.New(source, output, syncer, testLogger(), observability.NewMetricsForTesting())
}

func TestPipeline_MergesPeriodsChronologically(t *testing.T) {
	jan := domain.Period{Year: 2024, Month: 1}
	feb := domain.Period{Year: 2024, Month: 2}
	source := &fakeSource{
		// Discovery order is deliberately reversed; the run must still fold
		// January before February.
		order: []domain.Period{feb, jan},
		pairs: map[domain.Period]extractPair{
			jan: {
				primary: domain.Extract{
					Header: []string{"WSI", "GH_ID", "FULL_NAME", "GEOGR1", "GEOGR2", "ELEVATION"},
					Rows:   [][]string{{"S1", "G1", "Old Name", "10.0", "20.0", "300"}},
				},
				detail: domain.Extract{
					Header: []string{"EG_EL_ABBREVIATION", "WSI", "ABBREVIATION", "NAME", "UNIT", "DATASET"},
					Rows:   [][]string{{"10M", "S1", "TA", "Air Temp", "C", "meta2"}},
				},
			},
			feb: {
				primary: domain.Extract{
					Header: []string{"WSI", "GH_ID", "FULL_NAME", "GEOGR1", "GEOGR2", "ELEVATION"},
					Rows:   [][]string{{"S1", "G1", "New Name", "10.0", "20.0", "300"}},
				},
				detail: domain.Extract{
					Header: []string{"EG_EL_ABBREVIATION", "WSI", "ABBREVIATION", "NAME", "UNIT", "DATASET"},
					Rows:   [][]string{{"10M", "S1", "RH", "Rel Humidity", "%", "meta2"}},
				},
			},
		},
	}
	output := &fakeOutput{}
	syncer := &fakeSyncer{}
	p := newPipeline(source, output, syncer)

	_, err := p.Run(context.Background())

	require.NoError(t, err)
	require.Contains(t, syncer.catalog, "S1")
	entry := syncer.catalog["S1"]
	// February's attributes win; the measurement lists are the union.
	assert.Equal(t, "New Name", entry.Attrs[domain.AttrFullName])
	assert.Equal(t, []domain.Tuple{
		{"RH", "Rel Humidity", "%"},
		{"TA", "Air Temp", "C"},
	}, entry.Lists[domain.Category10Min])
	assert.Len(t, syncer.measurements[domain.Category10Min], 2)

	assert.Equal(t, []domain.Period{jan, feb}, output.periods)
	assert.Equal(t, 1, output.writes)
	assert.Equal(t, syncer.catalog, output.cumulative)
}

func TestPipeline_ReadinessFlipsAfterFirstRun(t *testing.T) {
	jan := domain.Period{Year: 2024, Month: 1}
	source := &fakeSource{
		order: []domain.Period{jan},
		pairs: map[domain.Period]extractPair{
			jan: {
				primary: domain.Extract{
					Header: []string{"WSI", "GH_ID", "FULL_NAME", "GEOGR1", "GEOGR2", "ELEVATION"},
					Rows:   [][]string{{"S1", "G1", "Station One", "10.0", "20.0", "300"}},
				},
				detail: domain.Extract{
					Header: []string{"EG_EL_ABBREVIATION", "WSI", "ABBREVIATION", "NAME", "UNIT", "DATASET"},
					Rows:   [][]string{{"10M", "S1", "TA", "Air Temp", "C", "meta2"}},
				},
			},
		},
	}
	p := newPipeline(source, &fakeOutput{}, &fakeSyncer{})

	require.Error(t, p.CheckReadiness(context.Background()))

	_, err := p.Run(context.Background())

	require.NoError(t, err)
	assert.NoError(t, p.CheckReadiness(context.Background()))
}

func TestPipeline_StageTaggedErrors(t *testing.T) {
	jan := domain.Period{Year: 2024, Month: 1}
	validPair := extractPair{
		primary: domain.Extract{
			Header: []string{"WSI", "GH_ID", "FULL_NAME", "GEOGR1", "GEOGR2", "ELEVATION"},
			Rows:   [][]string{{"S1", "G1", "Station One", "10.0", "20.0", "300"}},
		},
		detail: domain.Extract{
			Header: []string{"EG_EL_ABBREVIATION", "WSI", "ABBREVIATION", "NAME", "UNIT", "DATASET"},
			Rows:   [][]string{{"10M", "S1", "TA", "Air Temp", "C", "meta2"}},
		},
	}
	orphanPair := validPair
	orphanPair.detail = domain.Extract{
		Header: []string{"EG_EL_ABBREVIATION", "WSI", "ABBREVIATION", "NAME", "UNIT", "DATASET"},
		Rows:   [][]string{{"10M", "S9", "TA", "Air Temp", "C", "meta2"}},
	}

	tests := []struct {
		name   string
		source *fakeSource
		output *fakeOutput
		syncer *fakeSyncer
		stage  pipeline.Stage
	}{
		{
			name:   "no periods found",
			source: &fakeSource{},
			output: &fakeOutput{},
			syncer: &fakeSyncer{},
			stage:  pipeline.StageDiscover,
		},
		{
			name:   "discovery failure",
			source: &fakeSource{periodsErr: errors.New("permission denied")},
			output: &fakeOutput{},
			syncer: &fakeSyncer{},
			stage:  pipeline.StageDiscover,
		},
		{
			name: "load failure",
			source: &fakeSource{
				order:   []domain.Period{jan},
				loadErr: map[domain.Period]error{jan: errors.New("corrupt file")},
			},
			output: &fakeOutput{},
			syncer: &fakeSyncer{},
			stage:  pipeline.StageExtract,
		},
		{
			name: "orphan association row",
			source: &fakeSource{
				order: []domain.Period{jan},
				pairs: map[domain.Period]extractPair{jan: orphanPair},
			},
			output: &fakeOutput{},
			syncer: &fakeSyncer{},
			stage:  pipeline.StageAssociate,
		},
		{
			name: "period output failure",
			source: &fakeSource{
				order: []domain.Period{jan},
				pairs: map[domain.Period]extractPair{jan: validPair},
			},
			output: &fakeOutput{periodErr: errors.New("disk full")},
			syncer: &fakeSyncer{},
			stage:  pipeline.StageWrite,
		},
		{
			name: "cumulative output failure",
			source: &fakeSource{
				order: []domain.Period{jan},
				pairs: map[domain.Period]extractPair{jan: validPair},
			},
			output: &fakeOutput{cumulativeErr: errors.New("disk full")},
			syncer: &fakeSyncer{},
			stage:  pipeline.StageWrite,
		},
		{
			name: "store failure",
			source: &fakeSource{
				order: []domain.Period{jan},
				pairs: map[domain.Period]extractPair{jan: validPair},
			},
			output: &fakeOutput{},
			syncer: &fakeSyncer{err: errors.New("connection refused")},
			stage:  pipeline.StageSync,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := newPipeline(tc.source, tc.output, tc.syncer)

			_, err := p.Run(context.Background())

			var runErr *pipeline.RunError
			require.ErrorAs(t, err, &runErr)
			assert.Equal(t, tc.stage, runErr.Stage)
			assert.Error(t, p.CheckReadiness(context.Background()), "a failed run must not mark the pipeline ready")
		})
	}
}

func TestPipeline_CancelledContext(t *testing.T) {
	jan := domain.Period{Year: 2024, Month: 1}
	source := &fakeSource{order: []domain.Period{jan}}
	p := newPipeline(source, &fakeOutput{}, &fakeSyncer{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.Run(ctx)

	require.ErrorIs(t, err, context.Canceled)
}

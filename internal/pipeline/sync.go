package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mhornych/chmi-station-catalog/internal/domain"
	"github.com/mhornych/chmi-station-catalog/internal/observability"
)

// EventSink receives the creation events of a committed run. The Kafka
// adapter implements it; a nil sink disables the feed.
type EventSink interface {
	PublishCreations(ctx context.Context, events []domain.CreationEvent) error
}

// Report summarizes the entities created by one synchronization run. A
// second run over the same catalog reports all zeros.
type Report struct {
	MeasurementsCreated map[domain.Category]int
	StationsCreated     int
	AssociationsCreated map[domain.Category]int
}

func newReport() Report {
	return Report{
		MeasurementsCreated: make(map[domain.Category]int),
		AssociationsCreated: make(map[domain.Category]int),
	}
}

// TotalCreated returns the number of entities created across all kinds.
func (r Report) TotalCreated() int {
	total := r.StationsCreated
	for _, n := range r.MeasurementsCreated {
		total += n
	}
	for _, n := range r.AssociationsCreated {
		total += n
	}
	return total
}

// Syncer reconciles a cumulative catalog into the persistent store with
// create-or-reuse semantics: measurement types first, then stations, then
// their associations, all inside one transaction. Running it twice over the
// same catalog creates nothing the second time.
type Syncer struct {
	store   domain.SyncStore
	events  EventSink
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewSyncer creates a Syncer. Pass a nil events sink to disable the
// creation-event feed.
func NewSyncer(store domain.SyncStore, events EventSink, logger *slog.Logger, metrics *observability.Metrics) *Syncer {
	return &Syncer{
		store:   store,
		events:  events,
		logger:  logger,
		metrics: metrics,
	}
}

// Sync runs one synchronization. All creates commit together; any failure
// rolls the whole run back so a crash cannot leave a measurement type
// without its expected associations.
func (s *Syncer) Sync(ctx context.Context, catalog domain.Catalog, measurements domain.MeasurementSet) (Report, error) {
	start := time.Now()

	session, err := s.store.BeginSync(ctx)
	if err != nil {
		return Report{}, fmt.Errorf("begin sync: %w", err)
	}

	report, events, err := s.syncAll(ctx, session, catalog, measurements)
	if err != nil {
		if rbErr := session.Rollback(ctx); rbErr != nil {
			s.logger.Warn("rollback failed", "error", rbErr)
		}
		return Report{}, err
	}
	if err := session.Commit(ctx); err != nil {
		return Report{}, fmt.Errorf("commit sync: %w", err)
	}

	s.observe(report, time.Since(start))
	s.publish(ctx, events)
	return report, nil
}

func (s *Syncer) syncAll(ctx context.Context, session domain.SyncSession, catalog domain.Catalog, measurements domain.MeasurementSet) (Report, []domain.CreationEvent, error) {
	report := newReport()
	var events []domain.CreationEvent

	// Measurement types first so station associations can resolve them.
	for _, cat := range domain.Categories() {
		for _, m := range measurements[cat] {
			_, found, err := session.FindMeasurement(ctx, cat, m.Abbreviation())
			if err != nil {
				return report, nil, fmt.Errorf("find measurement %s/%s: %w", cat, m.Abbreviation(), err)
			}
			if found {
				// Existing abbreviations keep their first-seen name and unit.
				continue
			}
			if _, err := session.CreateMeasurement(ctx, cat, m); err != nil {
				return report, nil, fmt.Errorf("create measurement %s/%s: %w", cat, m.Abbreviation(), err)
			}
			report.MeasurementsCreated[cat]++
			events = append(events, domain.NewMeasurementCreated(cat, m))
			s.logger.Info("created measurement type",
				"category", cat, "abbreviation", m.Abbreviation(), "name", m.Name(), "unit", m.Unit())
		}
	}

	for _, wsi := range catalog.SortedWSIs() {
		entry := catalog[wsi]
		if !entry.HasMeasurements() {
			continue
		}
		stationID, err := s.syncStation(ctx, session, wsi, entry, &report, &events)
		if err != nil {
			return report, nil, err
		}
		if err := s.syncAssociations(ctx, session, wsi, stationID, entry, &report, &events); err != nil {
			return report, nil, err
		}
	}

	return report, events, nil
}

func (s *Syncer) syncStation(ctx context.Context, session domain.SyncSession, wsi string, entry *domain.StationEntry, report *Report, events *[]domain.CreationEvent) (int64, error) {
	stationID, found, err := session.FindStation(ctx, wsi)
	if err != nil {
		return 0, fmt.Errorf("find station %s: %w", wsi, err)
	}
	if found {
		// Existing stations keep their attributes untouched.
		return stationID, nil
	}

	rec := entry.Record(wsi)
	stationID, err = session.CreateStation(ctx, rec)
	if err != nil {
		return 0, fmt.Errorf("create station %s: %w", wsi, err)
	}
	report.StationsCreated++
	*events = append(*events, domain.NewStationCreated(rec))
	s.logger.Info("created station", "wsi", wsi, "full_name", rec.FullName)
	return stationID, nil
}

func (s *Syncer) syncAssociations(ctx context.Context, session domain.SyncSession, wsi string, stationID int64, entry *domain.StationEntry, report *Report, events *[]domain.CreationEvent) error {
	for _, cat := range domain.Categories() {
		for _, m := range entry.Lists[cat] {
			measurementID, found, err := session.FindMeasurement(ctx, cat, m.Abbreviation())
			if err != nil {
				return fmt.Errorf("resolve measurement %s/%s: %w", cat, m.Abbreviation(), err)
			}
			if !found {
				// The global measurement set is the union of all station
				// lists, so a miss here means the catalog is inconsistent.
				return fmt.Errorf("station %s references unknown measurement %s/%s", wsi, cat, m.Abbreviation())
			}

			exists, err := session.HasAssociation(ctx, cat, stationID, measurementID)
			if err != nil {
				return fmt.Errorf("check association %s %s/%s: %w", wsi, cat, m.Abbreviation(), err)
			}
			if exists {
				continue
			}
			if err := session.CreateAssociation(ctx, cat, stationID, measurementID); err != nil {
				return fmt.Errorf("create association %s %s/%s: %w", wsi, cat, m.Abbreviation(), err)
			}
			report.AssociationsCreated[cat]++
			*events = append(*events, domain.NewAssociationCreated(cat, wsi, m.Abbreviation()))
			s.logger.Info("created association", "wsi", wsi, "category", cat, "abbreviation", m.Abbreviation())
		}
	}
	return nil
}

func (s *Syncer) observe(report Report, elapsed time.Duration) {
	s.metrics.SyncDuration.Observe(elapsed.Seconds())
	s.metrics.StationsCreated.Add(float64(report.StationsCreated))
	for cat, n := range report.MeasurementsCreated {
		s.metrics.MeasurementsCreated.WithLabelValues(cat.Suffix()).Add(float64(n))
	}
	for cat, n := range report.AssociationsCreated {
		s.metrics.AssociationsCreated.WithLabelValues(cat.Suffix()).Add(float64(n))
	}
}

// publish sends creation events after the commit; the feed is best-effort
// and never fails a run that already persisted.
func (s *Syncer) publish(ctx context.Context, events []domain.CreationEvent) {
	if s.events == nil || len(events) == 0 {
		return
	}
	if err := s.events.PublishCreations(ctx, events); err != nil {
		s.logger.Warn("publish creation events failed", "error", err, "events", len(events))
	}
}

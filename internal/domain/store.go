package domain

import (
	"context"
	"time"
)

// SyncStore hands out transactional sessions for one synchronization run.
// The Postgres adapter implements it; tests substitute an in-memory fake.
type SyncStore interface {
	BeginSync(ctx context.Context) (SyncSession, error)
}

// SyncSession scopes one run's lookups and creates to a single transaction.
// Nothing becomes visible until Commit; Rollback discards everything. All
// creates follow create-or-reuse: lookup by natural key first, create only
// when absent, never update an existing match.
type SyncSession interface {
	FindMeasurement(ctx context.Context, cat Category, abbreviation string) (int64, bool, error)
	CreateMeasurement(ctx context.Context, cat Category, m Tuple) (int64, error)
	FindStation(ctx context.Context, wsi string) (int64, bool, error)
	CreateStation(ctx context.Context, rec StationRecord) (int64, error)
	HasAssociation(ctx context.Context, cat Category, stationID, measurementID int64) (bool, error)
	CreateAssociation(ctx context.Context, cat Category, stationID, measurementID int64) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// CreationEvent records one entity created during synchronization. Lookups
// and skips produce no event.
type CreationEvent struct {
	Kind         string    `json:"kind"` // "measurement", "station", "association"
	Category     Category  `json:"category,omitempty"`
	WSI          string    `json:"wsi,omitempty"`
	Abbreviation string    `json:"abbreviation,omitempty"`
	Name         string    `json:"name,omitempty"`
	Unit         string    `json:"unit,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Event kinds.
const (
	KindMeasurement = "measurement"
	KindStation     = "station"
	KindAssociation = "association"
)

// NewMeasurementCreated stamps a creation event for a new measurement type.
func NewMeasurementCreated(cat Category, m Tuple) CreationEvent {
	return CreationEvent{
		Kind:         KindMeasurement,
		Category:     cat,
		Abbreviation: m.Abbreviation(),
		Name:         m.Name(),
		Unit:         m.Unit(),
		CreatedAt:    clock.Now(),
	}
}

// NewStationCreated stamps a creation event for a new station.
func NewStationCreated(rec StationRecord) CreationEvent {
	return CreationEvent{
		Kind:      KindStation,
		WSI:       rec.WSI,
		Name:      rec.FullName,
		CreatedAt: clock.Now(),
	}
}

// NewAssociationCreated stamps a creation event for a new station to
// measurement link.
func NewAssociationCreated(cat Category, wsi, abbreviation string) CreationEvent {
	return CreationEvent{
		Kind:         KindAssociation,
		Category:     cat,
		WSI:          wsi,
		Abbreviation: abbreviation,
		CreatedAt:    clock.Now(),
	}
}

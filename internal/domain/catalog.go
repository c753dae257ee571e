package domain

import "fmt"

// Detail-extract row layout: the cadence marker, the station identifier, the
// measurement payload, and a trailing provenance field naming the source
// dataset. The marker is matched against every field rather than a fixed
// position; its column has moved between provider revisions.
const (
	detailWSIIndex     = 1
	detailPayloadStart = 2
	detailMinFields    = 4
)

// BuildStations indexes the station extract by normalized WSI. The first
// occurrence of a duplicated station wins; later rows are ignored. Attribute
// keys are the header column names, the first column being the join key.
func BuildStations(primary Extract) (Catalog, error) {
	if len(primary.Header) < 2 {
		return nil, fmt.Errorf("%w: station extract needs a key column and at least one attribute", ErrMalformedExtract)
	}
	catalog := make(Catalog, len(primary.Rows))
	for i, row := range primary.Rows {
		if len(row) != len(primary.Header) {
			return nil, fmt.Errorf("%w: station row %d has %d fields, header has %d",
				ErrMalformedExtract, i, len(row), len(primary.Header))
		}
		wsi := NormalizeWSI(row[0])
		if _, dup := catalog[wsi]; dup {
			continue
		}
		entry := NewStationEntry()
		for j, column := range primary.Header[1:] {
			entry.Attrs[column] = row[j+1]
		}
		catalog[wsi] = entry
	}
	return catalog, nil
}

// Associate scans the detail extract for rows tagged with the given cadence,
// groups them by station, and attaches each group to its catalog entry. It
// returns the globally deduplicated sorted list of distinct measurement
// tuples seen across all stations.
//
// Grouping is an explicit group-by on the station id: rows for one station
// are not guaranteed to be contiguous, so no adjacency assumption is made. A
// row referencing an unknown station aborts the scan with
// [OrphanStationError] before any catalog entry is touched.
func Associate(catalog Catalog, detail Extract, cat Category) ([]Tuple, error) {
	grouped := make(map[string][]Tuple)
	var all []Tuple

	for _, row := range detail.Rows {
		if !rowTagged(row, cat) {
			continue
		}
		if len(row) < detailMinFields {
			return nil, fmt.Errorf("%w: %s row %v is too short", ErrMalformedExtract, cat, row)
		}
		wsi := NormalizeWSI(row[detailWSIIndex])
		if _, ok := catalog[wsi]; !ok {
			return nil, &OrphanStationError{Category: cat, WSI: wsi}
		}
		payload := Tuple(row[detailPayloadStart : len(row)-1]).Clone()
		grouped[wsi] = append(grouped[wsi], payload)
		all = append(all, payload)
	}

	for wsi, tuples := range grouped {
		catalog[wsi].Lists[cat] = tuples
	}
	return UniqueSorted(all), nil
}

// rowTagged reports whether any field of the row equals the cadence marker.
func rowTagged(row []string, cat Category) bool {
	for _, field := range row {
		if field == string(cat) {
			return true
		}
	}
	return false
}

// BuildCatalog reconciles one period's extract pair into a catalog and the
// per-cadence measurement sets. Detail rows are deduplicated before
// association; the provider repeats rows verbatim.
func BuildCatalog(primary, detail Extract) (Catalog, MeasurementSet, error) {
	catalog, err := BuildStations(primary)
	if err != nil {
		return nil, nil, err
	}

	detailRows := make([]Tuple, len(detail.Rows))
	for i, row := range detail.Rows {
		detailRows[i] = Tuple(row)
	}
	deduped := Extract{Header: detail.Header}
	for _, row := range UniqueSorted(detailRows) {
		deduped.Rows = append(deduped.Rows, row)
	}

	measurements := make(MeasurementSet, len(Categories()))
	for _, cat := range Categories() {
		tuples, err := Associate(catalog, deduped, cat)
		if err != nil {
			return nil, nil, err
		}
		measurements[cat] = tuples
	}
	return catalog, measurements, nil
}

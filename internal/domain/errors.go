package domain

import (
	"errors"
	"fmt"
)

// ErrMalformedExtract marks an extract whose JSON, header, or row shape is
// inconsistent. The affected period cannot be processed.
var ErrMalformedExtract = errors.New("malformed extract")

// OrphanStationError reports a detail-extract row referencing a station that
// the station extract does not define. It indicates a consistency break
// between the two files and aborts the affected cadence scan; partial,
// silently dropped associations would be worse than a visible stop.
type OrphanStationError struct {
	Category Category
	WSI      string
}

func (e *OrphanStationError) Error() string {
	return fmt.Sprintf("station %q referenced by %s rows is missing from the station extract", e.WSI, e.Category)
}

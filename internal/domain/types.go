package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// Category is one of the three measurement cadences published by the provider.
// Each cadence has its own measurement-type namespace and its own pair of
// tables in the store.
type Category string

const (
	Category10Min  Category = "10M"
	CategoryHourly Category = "1H"
	CategoryDaily  Category = "DLY"
)

// Categories returns all cadences in their canonical processing order.
func Categories() []Category {
	return []Category{Category10Min, CategoryHourly, CategoryDaily}
}

// Suffix returns the lowercase identifier used in table and file names,
// e.g. measurements_10m, measurements-202401.json.
func (c Category) Suffix() string {
	return strings.ToLower(string(c))
}

func categoryFromKey(key string) (Category, bool) {
	switch Category(key) {
	case Category10Min, CategoryHourly, CategoryDaily:
		return Category(key), true
	}
	return "", false
}

// Tuple is one measurement-detail row: abbreviation, name, unit, plus any
// trailing descriptive fields the provider adds. Field order is significant.
type Tuple []string

func (t Tuple) Abbreviation() string { return t.field(0) }
func (t Tuple) Name() string         { return t.field(1) }
func (t Tuple) Unit() string         { return t.field(2) }

func (t Tuple) field(i int) string {
	if i < len(t) {
		return t[i]
	}
	return ""
}

// Equal reports whether two tuples have identical fields.
func (t Tuple) Equal(other Tuple) bool {
	if len(t) != len(other) {
		return false
	}
	for i := range t {
		if t[i] != other[i] {
			return false
		}
	}
	return true
}

// Less orders tuples lexicographically field by field, shorter tuples first
// on a shared prefix.
func (t Tuple) Less(other Tuple) bool {
	for i := 0; i < len(t) && i < len(other); i++ {
		if t[i] != other[i] {
			return t[i] < other[i]
		}
	}
	return len(t) < len(other)
}

// Clone returns an independent copy of the tuple.
func (t Tuple) Clone() Tuple {
	if t == nil {
		return nil
	}
	return append(Tuple(nil), t...)
}

// key produces a collision-safe map key. Fields are joined with the ASCII
// unit separator, which cannot appear in provider data.
func (t Tuple) key() string {
	return strings.Join(t, "\x1f")
}

// UnmarshalJSON accepts rows whose fields are strings or bare JSON scalars;
// numbers keep their literal form.
func (t *Tuple) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Tuple, len(raw))
	for i, field := range raw {
		s, err := scalarString(field)
		if err != nil {
			return err
		}
		out[i] = s
	}
	*t = out
	return nil
}

// MeasurementSet holds, per cadence, the globally deduplicated sorted list of
// distinct measurement tuples observed in one or more periods.
type MeasurementSet map[Category][]Tuple

// Catalog maps a normalized station identifier (WSI) to its attributes and
// per-cadence measurement lists. It is the in-memory merge unit: built fresh
// per period, folded across periods, then handed to the synchronizer.
type Catalog map[string]*StationEntry

// SortedWSIs returns the station identifiers in lexicographic order, giving
// deterministic iteration for persistence and logging.
func (c Catalog) SortedWSIs() []string {
	wsis := make([]string, 0, len(c))
	for wsi := range c {
		wsis = append(wsis, wsi)
	}
	sort.Strings(wsis)
	return wsis
}

// StationEntry holds one station's scalar attributes, keyed by the provider's
// column names (GH_ID, FULL_NAME, GEOGR1, GEOGR2, ELEVATION), and its
// per-cadence measurement lists.
type StationEntry struct {
	Attrs map[string]string
	Lists map[Category][]Tuple
}

// NewStationEntry creates an entry with initialized maps.
func NewStationEntry() *StationEntry {
	return &StationEntry{
		Attrs: make(map[string]string),
		Lists: make(map[Category][]Tuple),
	}
}

// HasMeasurements reports whether the station carries at least one non-empty
// measurement list. Stations without any are not materialized in the store.
func (e *StationEntry) HasMeasurements() bool {
	for _, list := range e.Lists {
		if len(list) > 0 {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the entry.
func (e *StationEntry) Clone() *StationEntry {
	out := NewStationEntry()
	for k, v := range e.Attrs {
		out.Attrs[k] = v
	}
	for cat, list := range e.Lists {
		out.Lists[cat] = cloneTuples(list)
	}
	return out
}

func cloneTuples(in []Tuple) []Tuple {
	out := make([]Tuple, len(in))
	for i, t := range in {
		out[i] = t.Clone()
	}
	return out
}

// MarshalJSON flattens the entry into a single object: attribute fields plus
// one key per cadence holding the measurement list. This is the processed
// catalog file format.
func (e *StationEntry) MarshalJSON() ([]byte, error) {
	flat := make(map[string]any, len(e.Attrs)+len(e.Lists))
	for k, v := range e.Attrs {
		flat[k] = v
	}
	for cat, list := range e.Lists {
		flat[string(cat)] = list
	}
	return json.Marshal(flat)
}

// UnmarshalJSON reverses MarshalJSON. Keys matching a cadence marker become
// measurement lists, everything else is a scalar attribute.
func (e *StationEntry) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	entry := NewStationEntry()
	for key, value := range raw {
		if cat, ok := categoryFromKey(key); ok {
			var list []Tuple
			if err := json.Unmarshal(value, &list); err != nil {
				return fmt.Errorf("station entry %s list: %w", key, err)
			}
			entry.Lists[cat] = list
			continue
		}
		s, err := scalarString(value)
		if err != nil {
			return fmt.Errorf("station entry attribute %s: %w", key, err)
		}
		entry.Attrs[key] = s
	}
	*e = *entry
	return nil
}

// Provider column names carrying the station attributes persisted to the store.
const (
	AttrGHID      = "GH_ID"
	AttrFullName  = "FULL_NAME"
	AttrX         = "GEOGR1"
	AttrY         = "GEOGR2"
	AttrElevation = "ELEVATION"
)

// StationRecord is the typed station row handed to the store.
type StationRecord struct {
	WSI       string
	GHID      string
	FullName  string
	X         float64
	Y         float64
	Elevation float64
}

// Record converts the entry's attribute map into a typed store row.
// Coordinates and elevation that fail to parse become zero rather than
// failing the run; the provider leaves them blank for some stations.
func (e *StationEntry) Record(wsi string) StationRecord {
	return StationRecord{
		WSI:       wsi,
		GHID:      e.Attrs[AttrGHID],
		FullName:  e.Attrs[AttrFullName],
		X:         parseFloatOrZero(e.Attrs[AttrX]),
		Y:         parseFloatOrZero(e.Attrs[AttrY]),
		Elevation: parseFloatOrZero(e.Attrs[AttrElevation]),
	}
}

func parseFloatOrZero(s string) float64 {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// NormalizeWSI strips all whitespace from a station identifier. Raw extracts
// embed stray spaces in some ids, including internal ones.
func NormalizeWSI(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

// Period identifies one monthly extract pair.
type Period struct {
	Year  int
	Month int
}

// String formats the period the way provider files are named: YYYYMM.
func (p Period) String() string {
	return fmt.Sprintf("%04d%02d", p.Year, p.Month)
}

// IsZero reports whether the period is unset.
func (p Period) IsZero() bool {
	return p.Year == 0 && p.Month == 0
}

// Before orders periods chronologically.
func (p Period) Before(other Period) bool {
	if p.Year != other.Year {
		return p.Year < other.Year
	}
	return p.Month < other.Month
}

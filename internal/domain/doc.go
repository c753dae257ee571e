// Package domain models CHMI weather station metadata and implements the
// reconciliation logic that turns raw provider extracts into a canonical
// station catalog.
//
// # Data Source
//
// The Czech Hydrometeorological Institute (CHMI) publishes monthly metadata
// extracts alongside its open measurement data. Each month produces two JSON
// files, downloaded by a separate collector job:
//
//	meta1-YYYYMM.json  station attributes (one row per station)
//	meta2-YYYYMM.json  station ↔ measurement availability (one row per
//	                   station/measurement/cadence combination)
//
// Both share the same envelope, a tabular payload wrapped twice:
//
//	{ "data": { "data": { "header": "WSI,GH_ID,FULL_NAME,...", "values": [[...], ...] } } }
//
// The header is a comma-separated column list; every value row carries exactly
// one field per column.
//
// # Provider Quirks
//
// The extracts are known to be messy in specific, recurring ways, and the
// reconciliation rules below exist because of them:
//
//   - Station identifiers (WSI) sometimes contain stray spaces, including
//     internal ones ("0-20000-0-11 518"). All whitespace is removed before a
//     WSI is used as a key, see [NormalizeWSI].
//   - meta2 occasionally repeats a station's row verbatim. Rows are
//     deduplicated before association, see [UniqueSorted].
//   - meta1 can list the same station twice with diverging attributes. The
//     first occurrence wins; later duplicates are ignored.
//   - meta2 has been observed to reference stations missing from meta1. This
//     breaks the join between the two files and aborts the affected scan with
//     [OrphanStationError] instead of silently dropping rows.
//
// # Measurement Cadences
//
// Measurement availability is tagged with one of three cadence markers, each
// forming an independent measurement-type namespace:
//
//	10M  ten-minute readings
//	1H   hourly readings
//	DLY  daily readings
//
// A measurement type is identified by its abbreviation within a cadence
// ("TA" under 10M and "TA" under DLY are distinct types).
//
// # Multi-Period Merge
//
// One month's extracts yield one [Catalog]. Months are folded chronologically
// into a cumulative catalog: measurement lists merge as sorted set unions
// (order-independent), scalar station attributes are overwritten by the later
// period so provider corrections converge. See [MergeCatalogs].
package domain

package domain

// MergeCatalogs deep-merges catalogs from successive periods into one
// cumulative catalog, left to right. The merge distinguishes three shapes:
//
//   - station entries present in both operands merge field by field;
//   - per-cadence measurement lists merge as the sorted, deduplicated union
//     of both operands (set semantics, order-independent);
//   - scalar attributes take the later operand's value (last write wins),
//     so attribute corrections in newer periods converge.
//
// The union rule is commutative and associative; the overwrite rule is not,
// which is why callers fold periods in chronological order.
func MergeCatalogs(catalogs ...Catalog) Catalog {
	merged := make(Catalog)
	for _, catalog := range catalogs {
		for wsi, entry := range catalog {
			existing, ok := merged[wsi]
			if !ok {
				merged[wsi] = entry.Clone()
				continue
			}
			existing.mergeFrom(entry)
		}
	}
	return merged
}

func (e *StationEntry) mergeFrom(src *StationEntry) {
	for k, v := range src.Attrs {
		e.Attrs[k] = v
	}
	for cat, list := range src.Lists {
		existing, ok := e.Lists[cat]
		if !ok {
			e.Lists[cat] = cloneTuples(list)
			continue
		}
		union := make([]Tuple, 0, len(existing)+len(list))
		union = append(union, existing...)
		union = append(union, list...)
		e.Lists[cat] = UniqueSorted(union)
	}
}

// MergeMeasurementSets unions per-cadence measurement lists across periods,
// keeping each distinct tuple exactly once in sorted order.
func MergeMeasurementSets(sets ...MeasurementSet) MeasurementSet {
	merged := make(MeasurementSet)
	for _, set := range sets {
		for cat, list := range set {
			combined := make([]Tuple, 0, len(merged[cat])+len(list))
			combined = append(combined, merged[cat]...)
			combined = append(combined, list...)
			merged[cat] = UniqueSorted(combined)
		}
	}
	return merged
}

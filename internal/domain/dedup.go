package domain

import "sort"

// UniqueSorted returns the distinct rows of in, ordered lexicographically
// over their fields. Equal-by-value rows are identical regardless of
// position; the input is never modified. The provider repeats rows verbatim
// often enough that every row list passes through here before use.
func UniqueSorted(in []Tuple) []Tuple {
	seen := make(map[string]struct{}, len(in))
	out := make([]Tuple, 0, len(in))
	for _, t := range in {
		k := t.key()
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, t.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Less(out[j]) })
	return out
}

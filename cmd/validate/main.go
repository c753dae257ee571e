// Command validate performs integrity checks over the processed catalog
// outputs: it re-runs the reconciliation from the raw extracts in memory and
// compares the result against the per-period and cumulative files a previous
// sync run wrote.
//
// Usage:
//
//	go run ./cmd/validate -data-dir ./data -output-dir ./data_db
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/google/go-cmp/cmp"
	fileadapter "github.com/mhornych/chmi-station-catalog/internal/adapter/file"
	"github.com/mhornych/chmi-station-catalog/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dataDir := flag.String("data-dir", "", "directory containing raw and processed metadata extracts")
	outputDir := flag.String("output-dir", "", "directory containing the cumulative catalog files")
	flag.Parse()

	if *dataDir == "" || *outputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*dataDir, *outputDir); code != 0 {
		os.Exit(code)
	}
}

func run(dataDir, outputDir string) int {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	source := fileadapter.NewSource(dataDir, logger)

	fmt.Println("=== Station Catalog Integrity Validation ===")
	fmt.Println()

	periods, err := source.Periods()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: discover periods: %v\n", err)
		return 1
	}
	if len(periods) == 0 {
		fmt.Fprintln(os.Stderr, "FATAL: no metadata periods found")
		return 1
	}
	sort.Slice(periods, func(i, j int) bool { return periods[i].Before(periods[j]) })

	// Rebuild every period in memory.
	rebuild := &phase{name: "raw extract reconciliation"}
	perPeriod := make(map[domain.Period]domain.Catalog)
	perPeriodSets := make(map[domain.Period]domain.MeasurementSet)
	for _, p := range periods {
		primary, detail, err := source.Load(p)
		if err != nil {
			rebuild.errorf("period %s: %v", p, err)
			continue
		}
		catalog, measurements, err := domain.BuildCatalog(primary, detail)
		if err != nil {
			rebuild.errorf("period %s: %v", p, err)
			continue
		}
		perPeriod[p] = catalog
		perPeriodSets[p] = measurements
	}

	periodParity := validatePeriodParity(dataDir, periods, perPeriod, perPeriodSets)
	cumulativeParity, cumulative := validateCumulativeParity(outputDir, periods, perPeriod, perPeriodSets)
	consistency := validateConsistency(cumulative)

	phases := []*phase{rebuild, periodParity, cumulativeParity, consistency}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-38s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Periods: %d (%s .. %s), stations in cumulative catalog: %d\n",
		len(periods), periods[0], periods[len(periods)-1], len(cumulative))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// validatePeriodParity compares each rebuilt period catalog against the
// processed files the sync run wrote next to the raw extracts.
func validatePeriodParity(dataDir string, periods []domain.Period, catalogs map[domain.Period]domain.Catalog, sets map[domain.Period]domain.MeasurementSet) *phase {
	p := &phase{name: "per-period catalog parity"}
	for _, period := range periods {
		rebuilt, ok := catalogs[period]
		if !ok {
			continue // already reported by the rebuild phase
		}
		dir := filepath.Join(dataDir, strconv.Itoa(period.Year), "processed_metadata", fmt.Sprintf("%02d", period.Month))

		var written domain.Catalog
		if err := loadJSON(filepath.Join(dir, fmt.Sprintf("meta-%s.json", period)), &written); err != nil {
			p.errorf("period %s: %v", period, err)
			continue
		}
		if diff := cmp.Diff(rebuilt, written); diff != "" {
			p.errorf("period %s catalog mismatch (-rebuilt +written):\n%s", period, diff)
		}

		var writtenSet domain.MeasurementSet
		if err := loadJSON(filepath.Join(dir, fmt.Sprintf("measurements-%s.json", period)), &writtenSet); err != nil {
			p.errorf("period %s: %v", period, err)
			continue
		}
		if diff := cmp.Diff(sets[period], writtenSet); diff != "" {
			p.errorf("period %s measurements mismatch (-rebuilt +written):\n%s", period, diff)
		}
	}
	return p
}

// validateCumulativeParity folds the rebuilt periods chronologically and
// compares against the cumulative files. It returns the rebuilt cumulative
// catalog for the consistency phase.
func validateCumulativeParity(outputDir string, periods []domain.Period, catalogs map[domain.Period]domain.Catalog, sets map[domain.Period]domain.MeasurementSet) (*phase, domain.Catalog) {
	p := &phase{name: "cumulative catalog parity"}

	cumulative := domain.Catalog{}
	measurements := domain.MeasurementSet{}
	for _, period := range periods {
		catalog, ok := catalogs[period]
		if !ok {
			p.errorf("period %s missing from rebuild, cumulative comparison is partial", period)
			continue
		}
		cumulative = domain.MergeCatalogs(cumulative, catalog)
		measurements = domain.MergeMeasurementSets(measurements, sets[period])
	}

	written, writtenSets, err := fileadapter.ReadCumulative(outputDir)
	if err != nil {
		p.errorf("load cumulative outputs: %v", err)
		return p, cumulative
	}
	if diff := cmp.Diff(cumulative, written); diff != "" {
		p.errorf("cumulative catalog mismatch (-rebuilt +written):\n%s", diff)
	}
	if diff := cmp.Diff(measurements, writtenSets); diff != "" {
		p.errorf("cumulative measurements mismatch (-rebuilt +written):\n%s", diff)
	}
	return p, cumulative
}

// validateConsistency checks the invariants of the cumulative catalog itself:
// station lists must be sorted and duplicate-free.
func validateConsistency(catalog domain.Catalog) *phase {
	p := &phase{name: "catalog internal consistency"}
	for _, wsi := range catalog.SortedWSIs() {
		entry := catalog[wsi]
		for _, cat := range domain.Categories() {
			list := entry.Lists[cat]
			deduped := domain.UniqueSorted(list)
			if diff := cmp.Diff(deduped, list); diff != "" {
				p.errorf("station %s %s list is not a sorted set:\n%s", wsi, cat, diff)
			}
		}
	}
	return p
}

func loadJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

package file

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mhornych/chmi-station-catalog/internal/domain"
)

// Output writes processed catalog files. Per-period catalogs land next to
// their raw extracts; the cumulative catalog files go to a separate output
// directory consumed by later runs and external tooling:
//
//	<data-dir>/<year>/processed_metadata/<MM>/meta-<YYYYMM>.json
//	<data-dir>/<year>/processed_metadata/<MM>/measurements-<YYYYMM>.json
//	<output-dir>/weather_stations.json
//	<output-dir>/measurements_<cat>.json
type Output struct {
	dataDir   string
	outputDir string
	logger    *slog.Logger
}

// NewOutput creates an Output writing under dataDir and outputDir.
func NewOutput(dataDir, outputDir string, logger *slog.Logger) *Output {
	return &Output{dataDir: dataDir, outputDir: outputDir, logger: logger}
}

// WritePeriod writes one period's processed catalog and measurement files.
func (o *Output) WritePeriod(p domain.Period, catalog domain.Catalog, measurements domain.MeasurementSet) error {
	dir := filepath.Join(o.dataDir, strconv.Itoa(p.Year), "processed_metadata", fmt.Sprintf("%02d", p.Month))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", dir, err)
	}

	if err := writeJSON(filepath.Join(dir, fmt.Sprintf("meta-%s.json", p)), catalog); err != nil {
		return err
	}
	return writeJSON(filepath.Join(dir, fmt.Sprintf("measurements-%s.json", p)), measurements)
}

// WriteCumulative writes the merged catalog and the per-cadence measurement
// lists.
func (o *Output) WriteCumulative(catalog domain.Catalog, measurements domain.MeasurementSet) error {
	if err := os.MkdirAll(o.outputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir %s: %w", o.outputDir, err)
	}

	if err := writeJSON(filepath.Join(o.outputDir, "weather_stations.json"), catalog); err != nil {
		return err
	}
	for _, cat := range domain.Categories() {
		path := filepath.Join(o.outputDir, fmt.Sprintf("measurements_%s.json", cat.Suffix()))
		if err := writeJSON(path, measurements[cat]); err != nil {
			return err
		}
	}

	o.logger.Debug("cumulative catalog written", "dir", o.outputDir, "stations", len(catalog))
	return nil
}

// ReadCumulative loads the cumulative catalog files back, for the validate
// command.
func ReadCumulative(outputDir string) (domain.Catalog, domain.MeasurementSet, error) {
	var catalog domain.Catalog
	if err := readJSON(filepath.Join(outputDir, "weather_stations.json"), &catalog); err != nil {
		return nil, nil, err
	}

	measurements := domain.MeasurementSet{}
	for _, cat := range domain.Categories() {
		path := filepath.Join(outputDir, fmt.Sprintf("measurements_%s.json", cat.Suffix()))
		var tuples []domain.Tuple
		if err := readJSON(path, &tuples); err != nil {
			return nil, nil, err
		}
		measurements[cat] = tuples
	}
	return catalog, measurements, nil
}

func writeJSON(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

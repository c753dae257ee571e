// Package file reads raw CHMI metadata extracts from the provider directory
// layout and writes the processed catalog files.
//
// Raw layout, one pair per month:
//
//	<data-dir>/<year>/metadata/<MM>/meta1-<YYYYMM>.json   station extract
//	<data-dir>/<year>/metadata/<MM>/meta2-<YYYYMM>.json   measurement extract
package file

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mhornych/chmi-station-catalog/internal/domain"
)

// Source discovers and loads monthly extract pairs under a data directory.
type Source struct {
	dataDir string
	logger  *slog.Logger
}

// NewSource creates a Source rooted at dataDir.
func NewSource(dataDir string, logger *slog.Logger) *Source {
	return &Source{dataDir: dataDir, logger: logger}
}

// Periods walks the year/month directory tree and returns every period whose
// extract pair is complete. Months with one or both files missing are skipped
// with a log line; the provider archive has gaps.
func (s *Source) Periods() ([]domain.Period, error) {
	years, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("read data dir %s: %w", s.dataDir, err)
	}

	var periods []domain.Period
	for _, yearEntry := range years {
		if !yearEntry.IsDir() {
			continue
		}
		year, err := strconv.Atoi(yearEntry.Name())
		if err != nil || year < 1000 || year > 9999 {
			continue
		}

		metadataDir := filepath.Join(s.dataDir, yearEntry.Name(), "metadata")
		months, err := os.ReadDir(metadataDir)
		if os.IsNotExist(err) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("read metadata dir %s: %w", metadataDir, err)
		}

		for _, monthEntry := range months {
			if !monthEntry.IsDir() {
				continue
			}
			month, err := strconv.Atoi(monthEntry.Name())
			if err != nil || month < 1 || month > 12 {
				continue
			}

			period := domain.Period{Year: year, Month: month}
			primary, detail := s.pairPaths(period)
			if !fileExists(primary) || !fileExists(detail) {
				s.logger.Debug("skipping incomplete period", "period", period.String())
				continue
			}
			periods = append(periods, period)
		}
	}
	return periods, nil
}

// Load reads and parses one period's extract pair.
func (s *Source) Load(p domain.Period) (domain.Extract, domain.Extract, error) {
	primaryPath, detailPath := s.pairPaths(p)

	primary, err := loadExtract(primaryPath)
	if err != nil {
		return domain.Extract{}, domain.Extract{}, err
	}
	detail, err := loadExtract(detailPath)
	if err != nil {
		return domain.Extract{}, domain.Extract{}, err
	}
	return primary, detail, nil
}

func (s *Source) pairPaths(p domain.Period) (primary, detail string) {
	dir := filepath.Join(s.dataDir, strconv.Itoa(p.Year), "metadata", fmt.Sprintf("%02d", p.Month))
	primary = filepath.Join(dir, fmt.Sprintf("meta1-%s.json", p))
	detail = filepath.Join(dir, fmt.Sprintf("meta2-%s.json", p))
	return primary, detail
}

func loadExtract(path string) (domain.Extract, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return domain.Extract{}, fmt.Errorf("read extract %s: %w", path, err)
	}
	extract, err := domain.ParseExtract(data)
	if err != nil {
		return domain.Extract{}, fmt.Errorf("parse extract %s: %w", filepath.Base(path), err)
	}
	return extract, nil
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

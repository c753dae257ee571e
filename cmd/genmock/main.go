// Command genmock generates a synthetic CHMI metadata archive in the raw
// provider layout: per-month meta1/meta2 extract pairs with the envelope
// wrapping, realistic quirks included (stray spaces in station ids, verbatim
// duplicate rows). Useful for local sync runs and for exercising cmd/validate
// without real provider data.
//
// Usage:
//
//	go run ./cmd/genmock -out ./data -start 202401 -months 3
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"

	"github.com/mhornych/chmi-station-catalog/internal/domain"
)

// mockStation is one synthetic station with its per-cadence measurements.
type mockStation struct {
	wsi       string
	ghID      string
	fullName  string
	x, y      float64
	elevation float64
	lists     map[domain.Category][][3]string // abbreviation, name, unit
}

var stations = []mockStation{
	{
		wsi: "0-203-0-10501", ghID: "P1PKAR01", fullName: "Karlov pod Pradedem",
		x: 17.2954, y: 50.0822, elevation: 747.2,
		lists: map[domain.Category][][3]string{
			domain.Category10Min: {{"TA", "Air temperature", "deg C"}, {"RH", "Relative humidity", "%"}},
			domain.CategoryDaily: {{"SRA", "Daily precipitation total", "mm"}},
		},
	},
	{
		// Stray internal space: the real archive has these.
		wsi: "0-203-0-114 06", ghID: "L3LYSA01", fullName: "Lysa hora",
		x: 18.4475, y: 49.5461, elevation: 1322.0,
		lists: map[domain.Category][][3]string{
			domain.Category10Min: {{"TA", "Air temperature", "deg C"}},
			domain.CategoryHourly: {{"F", "Wind speed average", "m/s"}, {"D", "Wind direction", "deg"}},
		},
	},
	{
		wsi: "0-203-0-11723", ghID: "B2BTUR01", fullName: "Brno-Turany",
		x: 16.6893, y: 49.1531, elevation: 241.0,
		lists: map[domain.Category][][3]string{
			domain.CategoryHourly: {{"F", "Wind speed average", "m/s"}},
			domain.CategoryDaily: {{"SRA", "Daily precipitation total", "mm"}, {"SNO", "New snow depth", "cm"}},
		},
	},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	out := flag.String("out", "", "data directory to generate into")
	start := flag.String("start", "202401", "first period, YYYYMM")
	months := flag.Int("months", 3, "number of consecutive months to generate")
	flag.Parse()

	if *out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	first, err := parsePeriod(*start)
	if err != nil {
		return err
	}

	period := first
	for i := 0; i < *months; i++ {
		if err := writePair(*out, period, i); err != nil {
			return fmt.Errorf("period %s: %w", period, err)
		}
		log.Printf("wrote extract pair for %s", period)
		period = next(period)
	}
	return nil
}

func parsePeriod(s string) (domain.Period, error) {
	if len(s) != 6 {
		return domain.Period{}, fmt.Errorf("invalid period %q, want YYYYMM", s)
	}
	year, err := strconv.Atoi(s[:4])
	if err != nil {
		return domain.Period{}, fmt.Errorf("invalid period %q: %w", s, err)
	}
	month, err := strconv.Atoi(s[4:])
	if err != nil || month < 1 || month > 12 {
		return domain.Period{}, fmt.Errorf("invalid period %q", s)
	}
	return domain.Period{Year: year, Month: month}, nil
}

func next(p domain.Period) domain.Period {
	if p.Month == 12 {
		return domain.Period{Year: p.Year + 1, Month: 1}
	}
	return domain.Period{Year: p.Year, Month: p.Month + 1}
}

// writePair writes one month's meta1/meta2 files. Later months include one
// more station than the first so multi-period merges have something to add.
func writePair(dataDir string, p domain.Period, monthIndex int) error {
	active := stations
	if monthIndex == 0 {
		active = stations[:2]
	}

	dir := filepath.Join(dataDir, strconv.Itoa(p.Year), "metadata", fmt.Sprintf("%02d", p.Month))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	primaryRows := make([][]any, 0, len(active))
	for _, st := range active {
		primaryRows = append(primaryRows, []any{st.wsi, st.ghID, st.fullName, st.x, st.y, st.elevation})
	}

	detailRows := make([][]any, 0)
	for _, st := range active {
		for _, cat := range domain.Categories() {
			for _, m := range st.lists[cat] {
				row := []any{string(cat), domain.NormalizeWSI(st.wsi), m[0], m[1], m[2], "meta2"}
				detailRows = append(detailRows, row)
				if cat == domain.Category10Min && m[0] == "TA" {
					// The provider repeats rows verbatim; so do we.
					detailRows = append(detailRows, row)
				}
			}
		}
	}

	primaryPath := filepath.Join(dir, fmt.Sprintf("meta1-%s.json", p))
	if err := writeEnvelope(primaryPath, "WSI,GH_ID,FULL_NAME,GEOGR1,GEOGR2,ELEVATION", primaryRows); err != nil {
		return err
	}
	detailPath := filepath.Join(dir, fmt.Sprintf("meta2-%s.json", p))
	return writeEnvelope(detailPath, "EG_EL_ABBREVIATION,WSI,ABBREVIATION,NAME,UNIT,DATASET", detailRows)
}

func writeEnvelope(path, header string, rows [][]any) error {
	envelope := map[string]any{
		"data": map[string]any{
			"data": map[string]any{
				"header": header,
				"values": rows,
			},
		},
	}
	data, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o644)
}

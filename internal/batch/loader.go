package batch

import (
	"bufio"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/bookscout/bookscout/internal/geo"
	"github.com/goccy/go-json"
	"github.com/parquet-go/parquet-go"
)

// KeywordRecord is one batch input row. Lat and Lon are optional.
type KeywordRecord struct {
	Keyword string   `json:"keyword" parquet:"keyword"`
	Lat     *float64 `json:"lat,omitempty" parquet:"lat"`
	Lon     *float64 `json:"lon,omitempty" parquet:"lon"`
}

// Location returns the record's coordinates, or nil when either is missing.
func (r KeywordRecord) Location() *geo.Point {
	if r.Lat == nil || r.Lon == nil {
		return nil
	}
	lat, lon := *r.Lat, *r.Lon
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return nil
	}
	return &geo.Point{Lat: lat, Lon: lon}
}

// Load reads keyword records from a JSONL or Parquet file. limit <= 0 reads all.
func Load(path string, limit int) ([]KeywordRecord, error) {
	ext := strings.ToLower(filepath.Ext(path))

	var records []KeywordRecord
	var err error
	switch ext {
	case ".parquet":
		records, err = loadParquet(path)
	case ".jsonl", ".json":
		records, err = loadJSONL(path, limit)
	default:
		return nil, fmt.Errorf("unsupported file format: %s (supported: .parquet, .jsonl)", ext)
	}
	if err != nil {
		return nil, err
	}

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

func loadJSONL(path string, limit int) ([]KeywordRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open keyword file: %w", err)
	}
	defer file.Close()

	var records []KeywordRecord
	scanner := bufio.NewScanner(file)

	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var record KeywordRecord
		if err := json.Unmarshal([]byte(line), &record); err != nil {
			return nil, fmt.Errorf("failed to parse JSON at line %d: %w", lineNum, err)
		}
		if strings.TrimSpace(record.Keyword) == "" {
			slog.Warn("Skipping row without keyword", "line", lineNum)
			continue
		}
		records = append(records, record)

		if limit > 0 && len(records) >= limit {
			break
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading keyword file: %w", err)
	}

	slog.Debug("Finished reading JSONL file", "records", len(records), "lines", lineNum)
	return records, nil
}

func loadParquet(path string) ([]KeywordRecord, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	pf, err := parquet.OpenFile(file, info.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	reader := parquet.NewGenericReader[KeywordRecord](pf)
	defer reader.Close()

	var records []KeywordRecord
	rows := make([]KeywordRecord, 128)
	for {
		n, err := reader.Read(rows)
		for _, row := range rows[:n] {
			if strings.TrimSpace(row.Keyword) != "" {
				records = append(records, row)
			}
		}
		if err != nil {
			break
		}
	}

	slog.Debug("Finished reading Parquet file", "records", len(records), "num_rows", pf.NumRows())
	return records, nil
}

package batch

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bookscout/bookscout/internal/recommend"
)

// Runner executes one recommendation request.
type Runner interface {
	Run(ctx context.Context, req recommend.Request) (*recommend.Result, error)
}

// Entry summarizes the pipeline outcome for one keyword.
type Entry struct {
	Keyword         string   `yaml:"keyword"`
	Mode            string   `yaml:"mode"`
	SeedISBN        string   `yaml:"seedisbn,omitempty"`
	Recommendations int      `yaml:"recommendations"`
	Available       int      `yaml:"available"`
	Regions         []string `yaml:"regions,omitempty"`
	Error           string   `yaml:"error,omitempty"`
}

// Run processes every record with at most concurrency pipelines in flight.
// Entries are returned in input order.
func Run(ctx context.Context, runner Runner, records []KeywordRecord, concurrency int) []Entry {
	if concurrency < 1 {
		concurrency = 1
	}
	slog.Info("Processing keywords", "count", len(records), "concurrency", concurrency)

	entries := make([]Entry, len(records))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, concurrency)

	for i, record := range records {
		wg.Add(1)
		go func(idx int, record KeywordRecord) {
			defer wg.Done()
			semaphore <- struct{}{}        // Acquire
			defer func() { <-semaphore }() // Release

			slog.Info("Processing keyword", "keyword", record.Keyword, "progress", fmt.Sprintf("%d/%d", idx+1, len(records)))
			entries[idx] = runOne(ctx, runner, record)
		}(i, record)
	}

	wg.Wait()
	return entries
}

func runOne(ctx context.Context, runner Runner, record KeywordRecord) Entry {
	entry := Entry{Keyword: record.Keyword}

	result, err := runner.Run(ctx, recommend.Request{Keyword: record.Keyword, Location: record.Location()})
	if err != nil {
		entry.Mode = string(recommend.ModeError)
		entry.Error = err.Error()
		return entry
	}

	entry.Mode = string(result.Mode)
	if result.SeedBook != nil {
		entry.SeedISBN = result.SeedBook.ISBN13
	}
	entry.Recommendations = len(result.Books) + len(result.Suggestions)
	for _, b := range result.Books {
		if b.NearbyLibCount > 0 {
			entry.Available++
		}
	}
	entry.Regions = result.RegionNames()
	return entry
}

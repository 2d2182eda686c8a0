package recommend

import (
	"context"
	"log/slog"

	"github.com/bookscout/bookscout/internal/catalog"
	"github.com/bookscout/bookscout/internal/suggest"
	"github.com/bookscout/bookscout/internal/titles"
)

// resolveSeeds looks up the top suggestions in the catalog and keeps the
// resolved hits in suggestion order.
func (p *Pipeline) resolveSeeds(ctx context.Context, suggestions []suggest.Suggestion) []catalog.Record {
	seeds := p.searchTitles(ctx, firstN(suggestions, MaxSeeds))
	slog.Info("Resolved seed books", "candidates", min(len(suggestions), MaxSeeds), "seeds", len(seeds))
	return seeds
}

// searchTitles runs one normalized-title search per suggestion concurrently
// and returns the resolved first hits, in input order.
func (p *Pipeline) searchTitles(ctx context.Context, suggestions []suggest.Suggestion) []catalog.Record {
	slots := make([]catalog.Record, len(suggestions))

	fanOut(ctx, p.fanout, len(suggestions), func(ctx context.Context, i int) {
		title := titles.Normalize(suggestions[i].Title)
		if title == "" {
			return
		}
		records, err := p.catalog.Search(ctx, catalog.Query{Keyword: title, PageSize: 1})
		if err != nil {
			slog.Warn("Title search failed", "title", suggestions[i].Title, "err", err)
			return
		}
		if len(records) > 0 && records[0].Resolved() {
			slots[i] = records[0]
		}
	})

	resolved := make([]catalog.Record, 0, len(slots))
	for _, rec := range slots {
		if rec != nil {
			resolved = append(resolved, rec)
		}
	}
	return resolved
}

func seedISBNs(seeds []catalog.Record) []string {
	isbns := make([]string, 0, MaxSeedISBNs)
	for _, rec := range firstN(seeds, MaxSeedISBNs) {
		isbns = append(isbns, rec.ISBN())
	}
	return isbns
}

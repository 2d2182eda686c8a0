package recommend

import (
	"context"
	"log/slog"

	"github.com/bookscout/bookscout/internal/catalog"
	"github.com/bookscout/bookscout/internal/suggest"
)

// expand gathers recommendations from usage analysis, then list
// recommendations, then the seeds themselves, stopping once enough are found.
func (p *Pipeline) expand(ctx context.Context, seeds []catalog.Record, suggestions []suggest.Suggestion) []catalog.Record {
	seen := newSeenSet(seeds)
	var list []catalog.Record

	list = p.expandUsage(ctx, seeds[0], list, seen)
	slog.Info("Usage analysis stage done", "count", len(list))

	if len(list) < MaxResults {
		list = p.expandRecommendList(ctx, seeds, list, seen)
		slog.Info("List recommendation stage done", "count", len(list))
	}

	if len(list) == 0 {
		list = p.expandFallback(ctx, seeds, suggestions, seen)
		slog.Info("Seed fallback stage done", "count", len(list))
	}

	return list
}

func (p *Pipeline) expandUsage(ctx context.Context, primary catalog.Record, list []catalog.Record, seen seenSet) []catalog.Record {
	usage, err := p.catalog.UsageAnalysis(ctx, primary.ISBN())
	if err != nil {
		slog.Warn("Usage analysis failed", "isbn", primary.ISBN(), "err", err)
		return list
	}
	return appendUnseen(list, usage.All(), seen)
}

func (p *Pipeline) expandRecommendList(ctx context.Context, seeds []catalog.Record, list []catalog.Record, seen seenSet) []catalog.Record {
	isbns := seedISBNs(seeds)
	modes := []catalog.RecommendMode{catalog.ModeMania, catalog.ModeReader}
	results := make([][]catalog.Record, len(modes))

	fanOut(ctx, p.fanout, len(modes), func(ctx context.Context, i int) {
		records, err := p.catalog.Recommend(ctx, isbns, modes[i])
		if err != nil {
			slog.Warn("List recommendation failed", "mode", string(modes[i]), "err", err)
			return
		}
		results[i] = records
	})

	for _, records := range results {
		list = appendUnseen(list, records, seen)
	}
	return list
}

func (p *Pipeline) expandFallback(ctx context.Context, seeds []catalog.Record, suggestions []suggest.Suggestion, seen seenSet) []catalog.Record {
	list := make([]catalog.Record, 0, MaxResults)
	added := make(seenSet, len(seeds))
	for _, rec := range seeds {
		if added.add(rec.ISBN()) {
			list = append(list, rec)
		}
	}

	if len(list) >= MaxResults || len(seeds) >= len(suggestions) {
		return list
	}

	extra := suggestions[len(seeds):min(len(suggestions), MaxResults)]
	return appendUnseen(list, p.searchTitles(ctx, extra), seen)
}

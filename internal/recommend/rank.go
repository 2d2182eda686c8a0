package recommend

import (
	"context"
	"log/slog"
	"sort"

	"github.com/bookscout/bookscout/internal/catalog"
	"github.com/bookscout/bookscout/internal/geo"
)

// rank counts holdings of each record across regions and stable-sorts by
// descending count. Records without an ISBN and failed lookups count zero.
func (p *Pipeline) rank(ctx context.Context, list []catalog.Record, regions []geo.Match) []Availability {
	counts := make([][]int, len(list))
	for i := range counts {
		counts[i] = make([]int, len(regions))
	}

	if len(regions) > 0 {
		fanOut(ctx, p.fanout, len(list)*len(regions), func(ctx context.Context, k int) {
			i, j := k/len(regions), k%len(regions)
			isbn := list[i].ISBN()
			if isbn == "" {
				return
			}
			n, err := p.catalog.LibraryCount(ctx, isbn, regions[j].Code)
			if err != nil {
				slog.Debug("Library lookup failed", "isbn", isbn, "region", regions[j].Code, "err", err)
				return
			}
			counts[i][j] = n
		})
	}

	ranked := make([]Availability, len(list))
	available := 0
	for i, rec := range list {
		total := 0
		for _, n := range counts[i] {
			total += n
		}
		if total > 0 {
			available++
		}
		ranked[i] = Availability{Book: rec, NearbyLibCount: total}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].NearbyLibCount > ranked[b].NearbyLibCount
	})

	slog.Info("Availability check done", "checked", len(list), "available", available)
	return ranked
}

package recommend

import (
	"context"
	"log/slog"

	"github.com/bookscout/bookscout/internal/catalog"
)

// enrich fills in missing cover images by looking each record up by ISBN.
// Records are updated in place; failures leave them unchanged.
func (p *Pipeline) enrich(ctx context.Context, list []catalog.Record) {
	var missing []catalog.Record
	for _, rec := range list {
		if rec.ImageURL() == "" && rec.Resolved() {
			missing = append(missing, rec)
		}
	}
	if len(missing) == 0 {
		return
	}

	fanOut(ctx, p.fanout, len(missing), func(ctx context.Context, i int) {
		rec := missing[i]
		records, err := p.catalog.Search(ctx, catalog.Query{ISBN13: rec.ISBN(), PageSize: 1})
		if err != nil {
			slog.Debug("Image lookup failed", "isbn", rec.ISBN(), "err", err)
			return
		}
		if len(records) > 0 && records[0].ImageURL() != "" {
			rec.SetImageURL(records[0].ImageURL())
		}
	})

	enriched := 0
	for _, rec := range list {
		if rec.ImageURL() != "" {
			enriched++
		}
	}
	slog.Info("Enrichment done", "with_image", enriched, "total", len(list))
}

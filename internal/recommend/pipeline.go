package recommend

import (
	"context"
	"errors"
	"log/slog"

	"github.com/bookscout/bookscout/internal/catalog"
	"github.com/bookscout/bookscout/internal/geo"
	"github.com/bookscout/bookscout/internal/metrics"
	"github.com/bookscout/bookscout/internal/suggest"
)

// Pipeline limits
const (
	MaxSeeds              = 7
	MaxSeedISBNs          = 5
	MaxResults            = 10
	MaxAvailabilityChecks = 15
	DefaultFanoutLimit    = 8
)

// Catalog is the subset of the library catalog the pipeline talks to.
type Catalog interface {
	Search(ctx context.Context, q catalog.Query) ([]catalog.Record, error)
	UsageAnalysis(ctx context.Context, isbn13 string) (*catalog.UsageAnalysis, error)
	Recommend(ctx context.Context, isbns []string, mode catalog.RecommendMode) ([]catalog.Record, error)
	LibraryCount(ctx context.Context, isbn, regionCode string) (int, error)
	MonthlyKeywords(ctx context.Context, month string) ([]string, error)
	Detail(ctx context.Context, isbn13 string) (catalog.Record, error)
}

// Suggester produces ranked book suggestions for a keyword.
type Suggester interface {
	Suggest(ctx context.Context, keyword string) ([]suggest.Suggestion, error)
}

// Request is one recommendation query. A nil Location means no GPS.
type Request struct {
	Keyword  string
	Location *geo.Point
}

// Pipeline turns a keyword into ranked, availability-checked recommendations.
type Pipeline struct {
	catalog   Catalog
	suggester Suggester
	fanout    int
	regions   []geo.Region
	random    Random
	metrics   *metrics.Metrics
}

// Option configures a Pipeline
type Option func(*Pipeline)

// WithFanoutLimit bounds the number of concurrent catalog calls per stage.
func WithFanoutLimit(n int) Option {
	return func(p *Pipeline) { p.fanout = n }
}

// WithRegions replaces the region table used for nearest-region lookup.
func WithRegions(regions []geo.Region) Option {
	return func(p *Pipeline) { p.regions = regions }
}

// WithRandom sets the randomness source for the monthly pick.
func WithRandom(r Random) Option {
	return func(p *Pipeline) { p.random = r }
}

// WithMetrics records pipeline results.
func WithMetrics(m *metrics.Metrics) Option {
	return func(p *Pipeline) { p.metrics = m }
}

// New returns a Pipeline. suggester may be nil when only the monthly and
// personalized picks are used.
func New(cat Catalog, suggester Suggester, opts ...Option) *Pipeline {
	p := &Pipeline{
		catalog:   cat,
		suggester: suggester,
		fanout:    DefaultFanoutLimit,
		regions:   geo.Regions(),
		random:    DefaultRandom,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run executes the full pipeline. Errors from the generative step are
// returned alongside a ModeError result; catalog failures degrade instead.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	result, err := p.run(ctx, req)
	if err != nil {
		result = &Result{Mode: ModeError, Err: err}
	}
	p.metrics.IncPipelineResult(string(result.Mode))
	return result, err
}

func (p *Pipeline) run(ctx context.Context, req Request) (*Result, error) {
	if p.suggester == nil {
		return nil, errors.New("no suggester configured")
	}

	suggestions, err := p.suggester.Suggest(ctx, req.Keyword)
	if err != nil {
		return nil, err
	}
	slog.Info("Got AI suggestions", "keyword", req.Keyword, "count", len(suggestions))

	seeds := p.resolveSeeds(ctx, suggestions)
	if len(seeds) == 0 {
		slog.Info("No seed books found, returning ai-only", "keyword", req.Keyword)
		return aiOnly(suggestions, nil), nil
	}
	list := p.expand(ctx, seeds, suggestions)
	p.enrich(ctx, list)
	// after enrich: the fallback stage may put seeds[0] itself in the list
	primary := summarize(seeds[0])

	if len(list) == 0 {
		slog.Info("All recommendation sources empty, returning ai-only", "keyword", req.Keyword)
		return aiOnly(suggestions, primary), nil
	}

	if req.Location == nil {
		books := make([]Availability, 0, MaxResults)
		for _, rec := range firstN(list, MaxResults) {
			books = append(books, Availability{Book: rec})
		}
		return &Result{Mode: ModeNoGPS, SeedBook: primary, Books: books}, nil
	}

	regions := geo.NearestIn(p.regions, req.Location.Lat, req.Location.Lon, geo.DefaultNearest)
	slog.Info("Nearest regions", "regions", geo.Names(regions))

	ranked := p.rank(ctx, firstN(list, MaxAvailabilityChecks), regions)
	return &Result{
		Mode:     ModeFull,
		SeedBook: primary,
		Books:    firstN(ranked, MaxResults),
		Regions:  regions,
	}, nil
}

package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/bookscout/bookscout/internal/cache"
	"github.com/bookscout/bookscout/internal/catalog"
	"github.com/bookscout/bookscout/internal/config"
	"github.com/bookscout/bookscout/internal/metrics"
	"github.com/bookscout/bookscout/internal/providers"
	"github.com/bookscout/bookscout/internal/recommend"
	"github.com/bookscout/bookscout/internal/suggest"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
)

// Handler serves the recommendation API.
type Handler struct {
	settings    config.Settings
	source      config.Source
	cache       cache.Store
	metrics     *metrics.Metrics
	catalog     *catalog.Client
	newProvider func(name, modelKey string) (providers.Provider, error)
	random      recommend.Random
	now         func() time.Time
}

// Option configures a Handler
type Option func(*Handler)

// WithCache sets the response cache.
func WithCache(c cache.Store) Option {
	return func(h *Handler) { h.cache = c }
}

// WithMetrics sets the metrics sink shared with the catalog client.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Handler) { h.metrics = m }
}

// WithCatalog sets the unkeyed catalog client template.
func WithCatalog(c *catalog.Client) Option {
	return func(h *Handler) { h.catalog = c }
}

// WithProviderFactory replaces how generative providers are built.
func WithProviderFactory(f func(name, modelKey string) (providers.Provider, error)) Option {
	return func(h *Handler) { h.newProvider = f }
}

// WithRandom sets the randomness used by the monthly pick.
func WithRandom(r recommend.Random) Option {
	return func(h *Handler) { h.random = r }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// New returns a Handler. Credentials are looked up in source on every request.
func New(settings config.Settings, source config.Source, opts ...Option) *Handler {
	h := &Handler{
		settings:    settings,
		source:      source,
		newProvider: suggest.NewProvider,
		random:      recommend.DefaultRandom,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.cache == nil {
		h.cache = cache.New(settings.CacheSize, settings.DailyCacheTTL)
	}
	if h.catalog == nil {
		h.catalog = catalog.NewClient(settings.CatalogBaseURL,
			catalog.WithCallTimeout(settings.CatalogTimeout),
			catalog.WithRateLimit(settings.CatalogRPS, settings.CatalogBurst),
			catalog.WithMetrics(h.metrics),
		)
	}
	return h
}

func (h *Handler) pipeline(libraryKey string, suggester recommend.Suggester) *recommend.Pipeline {
	return recommend.New(h.catalog.WithAuthKey(libraryKey), suggester,
		recommend.WithFanoutLimit(h.settings.FanoutLimit),
		recommend.WithRandom(h.random),
		recommend.WithMetrics(h.metrics),
	)
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, code int, data interface{}) {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	h.writeBody(w, code, body)
}

func (h *Handler) writeBody(w http.ResponseWriter, code int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(body); err != nil {
		slog.Error("Unable to write response", "err", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	h.writeJSON(w, code, map[string]string{"error": message})
}

// Cache helpers
func (h *Handler) cached(w http.ResponseWriter, route, key string) bool {
	body, ok := h.cache.Get(key)
	h.metrics.IncCacheLookup(route, ok)
	if !ok {
		return false
	}
	h.writeBody(w, http.StatusOK, body)
	return true
}

// respond writes data as a 200 and caches the encoded body. Requests cancelled
// mid-run may have produced degraded results, so they are not cached. It
// returns false without writing anything when data cannot be encoded.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, key string, data interface{}, ttl time.Duration) bool {
	body, err := json.Marshal(data)
	if err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		return false
	}
	if err := r.Context().Err(); err != nil {
		slog.Warn("Request cancelled, not caching response", "key", key, "err", err)
	} else {
		h.cache.Set(key, body, ttl)
	}
	h.writeBody(w, http.StatusOK, body)
	return true
}

func (h *Handler) today() string {
	return h.now().UTC().Format("2006-01-02")
}

func requestID(w http.ResponseWriter) string {
	id := uuid.NewString()
	w.Header().Set("X-Request-ID", id)
	return id
}

func allowGet(h *Handler, w http.ResponseWriter, r *http.Request) bool {
	switch r.Method {
	case http.MethodGet, http.MethodHead:
		return true
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
}

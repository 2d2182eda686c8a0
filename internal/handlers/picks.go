package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/bookscout/bookscout/internal/config"
	"github.com/bookscout/bookscout/internal/recommend"
)

// HandlePersonalized returns one recommendation for ?isbn13=, cached per day.
func (h *Handler) HandlePersonalized(w http.ResponseWriter, r *http.Request) {
	if !allowGet(h, w, r) {
		return
	}

	isbn13 := r.URL.Query().Get("isbn13")
	if isbn13 == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]any{"error": "isbn13 parameter required", "book": nil})
		return
	}

	params := url.Values{}
	params.Set("isbn13", isbn13)
	params.Set("date", h.today())
	cacheKey := r.URL.Path + "?" + params.Encode()
	if h.cached(w, "personalized", cacheKey) {
		return
	}

	key, err := config.LibraryKey(h.source)
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": err.Error(), "book": nil})
		return
	}

	id := requestID(w)
	result, err := h.pipeline(key, nil).Personalized(r.Context(), isbn13)
	if err != nil {
		slog.Error("Personalized recommendation failed", "request_id", id, "isbn", isbn13, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to fetch personalized recommendation", "book": nil})
		return
	}

	if !h.respond(w, r, cacheKey, result, h.settings.DailyCacheTTL) {
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to fetch personalized recommendation", "book": nil})
	}
}

// HandleMonthly returns a random pick for last month's trending keywords, cached per day.
func (h *Handler) HandleMonthly(w http.ResponseWriter, r *http.Request) {
	if !allowGet(h, w, r) {
		return
	}

	cacheKey := r.URL.Path + "?date=" + h.today()
	if h.cached(w, "monthly", cacheKey) {
		return
	}

	key, err := config.LibraryKey(h.source)
	if err != nil {
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	id := requestID(w)
	result, err := h.pipeline(key, nil).Monthly(r.Context(), h.now())
	switch {
	case errors.Is(err, recommend.ErrNoKeywords):
		h.writeJSON(w, http.StatusOK, map[string]any{"error": "No keywords found", "keyword": nil, "book": nil})
		return
	case errors.Is(err, recommend.ErrNoBooks):
		h.writeJSON(w, http.StatusOK, map[string]any{"error": "No books found for any keyword", "keyword": nil, "book": nil})
		return
	case err != nil:
		slog.Error("Monthly recommendation failed", "request_id", id, "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to fetch recommendation", "details": err.Error()})
		return
	}

	if !h.respond(w, r, cacheKey, result, h.settings.DailyCacheTTL) {
		h.writeJSON(w, http.StatusInternalServerError, map[string]any{"error": "Failed to fetch recommendation"})
	}
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/bookscout/bookscout/internal/config"
	"github.com/bookscout/bookscout/internal/geo"
	"github.com/bookscout/bookscout/internal/recommend"
	"github.com/bookscout/bookscout/internal/suggest"
)

// Client-facing messages
const (
	msgKeywordRequired = "검색어를 입력해주세요."
	msgParseFailed     = "AI 응답 파싱에 실패했습니다."
	msgPipelineFailed  = "AI 추천 중 오류가 발생했습니다."
)

// HandleAISearch runs the recommendation pipeline for ?keyword=&lat=&lon=.
func (h *Handler) HandleAISearch(w http.ResponseWriter, r *http.Request) {
	if !allowGet(h, w, r) {
		return
	}

	query := r.URL.Query()
	keyword := query.Get("keyword")
	if strings.TrimSpace(keyword) == "" {
		h.writeError(w, msgKeywordRequired, http.StatusBadRequest)
		return
	}

	cacheKey := r.URL.Path + "?" + query.Encode()
	if h.cached(w, "ai-search", cacheKey) {
		return
	}

	creds, err := config.ResolveCredentials(h.source, h.settings.Provider)
	if err != nil {
		slog.Error("Credentials not configured", "err", err)
		h.writeError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	id := requestID(w)
	provider, err := h.newProvider(h.settings.Provider, creds.ModelKey)
	if err != nil {
		slog.Error("Unable to create provider", "request_id", id, "err", err)
		h.writeError(w, msgPipelineFailed, http.StatusInternalServerError)
		return
	}
	generator := suggest.NewGenerator(provider, h.settings.Model, h.settings.Temperature)

	req := recommend.Request{Keyword: keyword}
	if point, ok := geo.ParsePoint(query.Get("lat"), query.Get("lon")); ok {
		req.Location = &point
	}

	slog.Info("AI search", "request_id", id, "keyword", keyword, "gps", req.Location != nil)
	result, err := h.pipeline(creds.LibraryKey, generator).Run(r.Context(), req)
	if err != nil {
		if errors.Is(err, suggest.ErrUnparseable) {
			h.writeError(w, msgParseFailed, http.StatusInternalServerError)
			return
		}
		slog.Error("AI search failed", "request_id", id, "keyword", keyword, "err", err)
		h.writeError(w, msgPipelineFailed, http.StatusInternalServerError)
		return
	}

	slog.Info("AI search done", "request_id", id, "mode", string(result.Mode), "recommendations", len(result.Books)+len(result.Suggestions))
	if !result.Mode.Cacheable() {
		h.writeJSON(w, http.StatusOK, result)
		return
	}
	if !h.respond(w, r, cacheKey, result, h.settings.SearchCacheTTL) {
		h.writeError(w, msgPipelineFailed, http.StatusInternalServerError)
	}
}

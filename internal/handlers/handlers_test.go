package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/bookscout/bookscout/internal/catalog"
	"github.com/bookscout/bookscout/internal/config"
	"github.com/bookscout/bookscout/internal/providers"
	"github.com/goccy/go-json"
	"github.com/jarcoal/httpmock"
)

const catalogURL = "http://catalog.test/api"

type stubProvider struct {
	text   string
	calls  int
	onCall func()
}

func (s *stubProvider) ExtractText(ctx context.Context, cfg providers.Config) (string, error) {
	s.calls++
	if s.onCall != nil {
		s.onCall()
	}
	return s.text, nil
}

type fixture struct {
	handler   *Handler
	transport *httpmock.MockTransport
	provider  *stubProvider
}

func newFixture(t *testing.T, src config.MapSource, aiText string) *fixture {
	t.Helper()
	transport := httpmock.NewMockTransport()
	client := catalog.NewClient(catalogURL,
		catalog.WithHTTPClient(&http.Client{Transport: transport}),
		catalog.WithCallTimeout(time.Second),
	)
	provider := &stubProvider{text: aiText}

	h := New(config.Defaults(), src,
		WithCatalog(client),
		WithProviderFactory(func(name, key string) (providers.Provider, error) { return provider, nil }),
		WithClock(func() time.Time { return time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC) }),
	)
	return &fixture{handler: h, transport: transport, provider: provider}
}

var fullCreds = config.MapSource{
	config.KeyOpenAIAPIKey:  "sk-test",
	config.KeyLibraryAPIKey: "lib-test",
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Failed to decode response %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestAISearchRequiresKeyword(t *testing.T) {
	f := newFixture(t, fullCreds, "[]")

	rec := httptest.NewRecorder()
	f.handler.HandleAISearch(rec, httptest.NewRequest(http.MethodGet, "/api/ai-search?keyword=", nil))

	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != msgKeywordRequired {
		t.Errorf("Expected %q, got %v", msgKeywordRequired, got)
	}
}

func TestAISearchMissingCredentials(t *testing.T) {
	tests := []struct {
		name string
		src  config.MapSource
		want string
	}{
		{"no model key", config.MapSource{config.KeyLibraryAPIKey: "lib"}, "OpenAI API key not configured"},
		{"no library key", config.MapSource{config.KeyOpenAIAPIKey: "sk"}, "Library API key not configured"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.src, "[]")
			rec := httptest.NewRecorder()
			f.handler.HandleAISearch(rec, httptest.NewRequest(http.MethodGet, "/api/ai-search?keyword=x", nil))

			if rec.Code != http.StatusInternalServerError {
				t.Errorf("Expected 500, got %d", rec.Code)
			}
			if got := decodeBody(t, rec)["error"]; got != tt.want {
				t.Errorf("Expected %q, got %v", tt.want, got)
			}
			if f.provider.calls != 0 {
				t.Error("Provider must not be called without credentials")
			}
		})
	}
}

func TestAISearchParseFailure(t *testing.T) {
	f := newFixture(t, fullCreds, "not json")

	rec := httptest.NewRecorder()
	f.handler.HandleAISearch(rec, httptest.NewRequest(http.MethodGet, "/api/ai-search?keyword=x", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", rec.Code)
	}
	if got := decodeBody(t, rec)["error"]; got != msgParseFailed {
		t.Errorf("Expected %q, got %v", msgParseFailed, got)
	}
	if n := f.transport.GetTotalCallCount(); n != 0 {
		t.Errorf("Expected no catalog calls, got %d", n)
	}
}

func TestAISearchAIOnlyIsCached(t *testing.T) {
	f := newFixture(t, fullCreds, `[{"title":"코스모스","author":"칼 세이건"}]`)
	f.transport.RegisterResponder("GET", catalogURL+"/srchBooks",
		httpmock.NewStringResponder(http.StatusOK, `{"response":{"numFound":0,"docs":[]}}`))

	target := "/api/ai-search?keyword=%EC%9A%B0%EC%A3%BC&lat=37.5&lon=127.0"

	first := httptest.NewRecorder()
	f.handler.HandleAISearch(first, httptest.NewRequest(http.MethodGet, target, nil))
	if first.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", first.Code, first.Body.String())
	}
	body := decodeBody(t, first)
	if body["mode"] != "ai-only" {
		t.Errorf("Expected ai-only, got %v", body["mode"])
	}
	if body["seedBook"] != nil {
		t.Errorf("Expected null seedBook, got %v", body["seedBook"])
	}
	recs, _ := body["recommendations"].([]any)
	if len(recs) != 1 {
		t.Errorf("Expected 1 recommendation, got %v", body["recommendations"])
	}

	catalogCalls := f.transport.GetTotalCallCount()
	second := httptest.NewRecorder()
	f.handler.HandleAISearch(second, httptest.NewRequest(http.MethodGet, target, nil))

	if second.Body.String() != first.Body.String() {
		t.Errorf("Expected cached body, got %s", second.Body.String())
	}
	if f.provider.calls != 1 {
		t.Errorf("Expected provider to be called once, got %d", f.provider.calls)
	}
	if f.transport.GetTotalCallCount() != catalogCalls {
		t.Error("Expected cache hit to skip the catalog")
	}
}

func TestAISearchCancelledRequestIsNotCached(t *testing.T) {
	f := newFixture(t, fullCreds, `[{"title":"코스모스","author":"칼 세이건"}]`)
	f.transport.RegisterResponder("GET", catalogURL+"/srchBooks",
		httpmock.NewStringResponder(http.StatusOK, `{"response":{"docs":[{"doc":{"isbn13":"9788983711892","bookname":"코스모스","bookImageURL":"http://img/c.jpg"}}]}}`))
	f.transport.RegisterResponder("GET", catalogURL+"/usageAnalysisList",
		httpmock.NewStringResponder(http.StatusOK, `{"response":{}}`))
	f.transport.RegisterResponder("GET", catalogURL+"/recommandList",
		httpmock.NewStringResponder(http.StatusOK, `{"response":{"list":[]}}`))

	target := "/api/ai-search?keyword=space"

	// the client goes away once the model has answered
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.provider.onCall = cancel

	first := httptest.NewRecorder()
	f.handler.HandleAISearch(first, httptest.NewRequest(http.MethodGet, target, nil).WithContext(ctx))
	if got := decodeBody(t, first)["mode"]; got != "ai-only" {
		t.Fatalf("Expected degraded ai-only result, got %v", got)
	}

	f.provider.onCall = nil
	catalogCalls := f.transport.GetTotalCallCount()

	second := httptest.NewRecorder()
	f.handler.HandleAISearch(second, httptest.NewRequest(http.MethodGet, target, nil))
	if second.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", second.Code, second.Body.String())
	}
	if got := decodeBody(t, second)["mode"]; got != "no-gps" {
		t.Errorf("Expected no-gps from a fresh run, got %v", got)
	}
	if f.provider.calls != 2 {
		t.Errorf("Expected provider to be called again, got %d calls", f.provider.calls)
	}
	if f.transport.GetTotalCallCount() == catalogCalls {
		t.Error("Expected the second request to reach the catalog")
	}
}

func TestRespondEncodeFailure(t *testing.T) {
	f := newFixture(t, fullCreds, "")

	rec := httptest.NewRecorder()
	ok := f.handler.respond(rec, httptest.NewRequest(http.MethodGet, "/x", nil), "k", map[string]any{"bad": make(chan int)}, time.Hour)

	if ok {
		t.Error("Expected respond to report the encode failure")
	}
	if rec.Body.Len() != 0 {
		t.Errorf("Expected nothing written, got %q", rec.Body.String())
	}
	if _, hit := f.handler.cache.Get("k"); hit {
		t.Error("Expected nothing cached")
	}
}

func TestAISearchFullMode(t *testing.T) {
	f := newFixture(t, fullCreds, `[{"title":"코스모스 (Cosmos)","author":"칼 세이건"}]`)
	f.transport.RegisterResponder("GET", catalogURL+"/srchBooks", func(req *http.Request) (*http.Response, error) {
		if kw := req.URL.Query().Get("keyword"); kw != "" && kw != "코스모스" {
			t.Errorf("Expected normalized title, got %q", kw)
		}
		return httpmock.NewStringResponse(http.StatusOK,
			`{"response":{"docs":[{"doc":{"isbn13":"9788983711892","bookname":"코스모스","bookImageURL":"http://img/c.jpg"}}]}}`), nil
	})
	f.transport.RegisterResponder("GET", catalogURL+"/usageAnalysisList",
		httpmock.NewStringResponder(http.StatusOK, `{"response":{"maniaRecBooks":[{"book":{"isbn13":"1","bookImageURL":"x"}},{"book":{"isbn13":"2","bookImageURL":"y"}}]}}`))
	f.transport.RegisterResponder("GET", catalogURL+"/recommandList",
		httpmock.NewStringResponder(http.StatusOK, `{"response":{"list":[]}}`))
	f.transport.RegisterResponder("GET", catalogURL+"/libSrchByBook", func(req *http.Request) (*http.Response, error) {
		if req.URL.Query().Get("isbn") == "2" {
			return httpmock.NewStringResponse(http.StatusOK, `{"response":{"libs":[{"lib":{}}]}}`), nil
		}
		return httpmock.NewStringResponse(http.StatusOK, `{"response":{"libs":[]}}`), nil
	})

	rec := httptest.NewRecorder()
	f.handler.HandleAISearch(rec, httptest.NewRequest(http.MethodGet, "/api/ai-search?keyword=space&lat=37.5665&lon=126.978", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["mode"] != "full" {
		t.Fatalf("Expected full, got %v", body["mode"])
	}
	regions, _ := body["regions"].([]any)
	if len(regions) != 2 || regions[0] != "서울" || regions[1] != "인천" {
		t.Errorf("Expected [서울 인천], got %v", body["regions"])
	}
	recs, _ := body["recommendations"].([]any)
	if len(recs) != 2 {
		t.Fatalf("Expected 2 recommendations, got %d", len(recs))
	}
	top, _ := recs[0].(map[string]any)
	if top["nearbyLibCount"] != float64(2) {
		t.Errorf("Expected top count 2, got %v", top["nearbyLibCount"])
	}
	seed, _ := body["seedBook"].(map[string]any)
	if seed["isbn13"] != "9788983711892" {
		t.Errorf("Unexpected seedBook %v", seed)
	}
	if _, ok := seed["publication_year"]; !ok {
		t.Error("Expected publication_year in seedBook")
	}
	if rec.Header().Get("X-Request-ID") == "" {
		t.Error("Expected request id header")
	}
}

func TestPersonalized(t *testing.T) {
	f := newFixture(t, fullCreds, "")

	rec := httptest.NewRecorder()
	f.handler.HandlePersonalized(rec, httptest.NewRequest(http.MethodGet, "/api/personalized-recommend", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}

	f.transport.RegisterResponder("GET", catalogURL+"/recommandList",
		httpmock.NewStringResponder(http.StatusOK, `{"response":{"docs":[{"book":{"isbn13":"77","bookname":"추천","class_nm":"문학"}}]}}`))

	rec = httptest.NewRecorder()
	f.handler.HandlePersonalized(rec, httptest.NewRequest(http.MethodGet, "/api/personalized-recommend?isbn13=978", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	body := decodeBody(t, rec)
	if body["source"] != "personalized" {
		t.Errorf("Expected personalized source, got %v", body["source"])
	}
	book, _ := body["book"].(map[string]any)
	if book["isbn13"] != "77" || book["class_nm"] != "문학" {
		t.Errorf("Unexpected book %v", book)
	}

	calls := f.transport.GetTotalCallCount()
	rec = httptest.NewRecorder()
	f.handler.HandlePersonalized(rec, httptest.NewRequest(http.MethodGet, "/api/personalized-recommend?isbn13=978", nil))
	if f.transport.GetTotalCallCount() != calls {
		t.Error("Expected second request to be served from cache")
	}
}

func TestMonthlyNoKeywords(t *testing.T) {
	f := newFixture(t, fullCreds, "")
	f.transport.RegisterResponder("GET", catalogURL+"/monthlyKeywords", func(req *http.Request) (*http.Response, error) {
		if got := req.URL.Query().Get("month"); got != "2026-09" {
			t.Errorf("Expected month 2026-09, got %s", got)
		}
		return httpmock.NewStringResponse(http.StatusOK, `{"response":{"keywords":[]}}`), nil
	})

	rec := httptest.NewRecorder()
	f.handler.HandleMonthly(rec, httptest.NewRequest(http.MethodGet, "/api/monthly-recommend", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["error"] != "No keywords found" || body["book"] != nil {
		t.Errorf("Unexpected body %v", body)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	f := newFixture(t, fullCreds, "")
	rec := httptest.NewRecorder()
	f.handler.HandleAISearch(rec, httptest.NewRequest(http.MethodPost, "/api/ai-search?keyword=x", strings.NewReader("")))
	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("Expected 405, got %d", rec.Code)
	}
}

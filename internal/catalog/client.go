package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bookscout/bookscout/internal/metrics"
	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the data4library (도서관 정보나루) open API root.
const DefaultBaseURL = "https://data4library.kr/api"

// Endpoint names
const (
	EndpointSearch          = "srchBooks"
	EndpointDetail          = "srchDtlList"
	EndpointUsageAnalysis   = "usageAnalysisList"
	EndpointRecommend       = "recommandList"
	EndpointLibraryByBook   = "libSrchByBook"
	EndpointMonthlyKeywords = "monthlyKeywords"
)

// RecommendMode selects the ranking used by the list-recommendation endpoint
type RecommendMode string

const (
	// ModeMania is the endpoint default ("마니아" recommendations).
	ModeMania RecommendMode = ""
	// ModeReader ranks by "다독자" readers.
	ModeReader RecommendMode = "reader"
)

// Client is a data4library API client. A Client without an auth key is a
// template; use WithAuthKey to obtain one bound to a credential. Copies share
// the HTTP client, rate limiter and circuit breaker.
type Client struct {
	BaseURL     string
	authKey     string
	httpClient  *http.Client
	callTimeout time.Duration
	limiter     *rate.Limiter
	breaker     *gobreaker.CircuitBreaker[[]byte]
	metrics     *metrics.Metrics
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithCallTimeout sets the deadline applied to every single catalog call
func WithCallTimeout(d time.Duration) Option {
	return func(c *Client) { c.callTimeout = d }
}

// WithRateLimit caps outbound requests per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithMetrics records per-endpoint request metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// NewClient creates a new catalog client
func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		BaseURL:     strings.TrimSuffix(baseURL, "/"),
		callTimeout: 10 * time.Second,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	c.breaker = newBreaker("catalog-api", c.metrics)
	return c
}

// WithAuthKey returns a copy of the client bound to the given credential.
func (c *Client) WithAuthKey(key string) *Client {
	cp := *c
	cp.authKey = key
	return &cp
}

// Query describes a srchBooks call. Exactly one of Keyword or ISBN13 is expected.
type Query struct {
	Keyword  string
	ISBN13   string
	PageNo   int
	PageSize int
}

// Search runs a title/keyword or ISBN search and returns the flattened records.
func (c *Client) Search(ctx context.Context, q Query) ([]Record, error) {
	params := url.Values{}
	if q.Keyword != "" {
		params.Set("keyword", q.Keyword)
	}
	if q.ISBN13 != "" {
		params.Set("isbn13", q.ISBN13)
	}
	pageNo, pageSize := q.PageNo, q.PageSize
	if pageNo <= 0 {
		pageNo = 1
	}
	if pageSize <= 0 {
		pageSize = 10
	}
	params.Set("pageNo", strconv.Itoa(pageNo))
	params.Set("pageSize", strconv.Itoa(pageSize))

	response, err := c.get(ctx, EndpointSearch, params)
	if err != nil {
		return nil, err
	}
	return ExtractRecords(response), nil
}

// UsageAnalysis holds the labeled sub-lists of usageAnalysisList
type UsageAnalysis struct {
	Mania  []Record
	Reader []Record
	CoLoan []Record
}

// All returns the sub-lists concatenated in mania, reader, co-loan order.
func (u *UsageAnalysis) All() []Record {
	if u == nil {
		return nil
	}
	all := make([]Record, 0, len(u.Mania)+len(u.Reader)+len(u.CoLoan))
	all = append(all, u.Mania...)
	all = append(all, u.Reader...)
	return append(all, u.CoLoan...)
}

// UsageAnalysis fetches usage-based recommendations for a single ISBN.
func (c *Client) UsageAnalysis(ctx context.Context, isbn13 string) (*UsageAnalysis, error) {
	params := url.Values{}
	params.Set("isbn13", isbn13)

	response, err := c.get(ctx, EndpointUsageAnalysis, params)
	if err != nil {
		return nil, err
	}

	return &UsageAnalysis{
		Mania:  listField("maniaRecBooks", "book")(response),
		Reader: listField("readerRecBooks", "book")(response),
		CoLoan: listField("coLoanBooks", "book")(response),
	}, nil
}

// Recommend calls recommandList for one or more ISBNs (joined with ';').
func (c *Client) Recommend(ctx context.Context, isbns []string, mode RecommendMode) ([]Record, error) {
	params := url.Values{}
	params.Set("isbn13", strings.Join(isbns, ";"))
	if mode != ModeMania {
		params.Set("type", string(mode))
	}

	response, err := c.get(ctx, EndpointRecommend, params)
	if err != nil {
		return nil, err
	}
	return ExtractRecords(response), nil
}

// LibraryCount returns how many libraries in a region hold the given ISBN.
func (c *Client) LibraryCount(ctx context.Context, isbn, regionCode string) (int, error) {
	params := url.Values{}
	params.Set("isbn", isbn)
	if regionCode != "" {
		params.Set("region", regionCode)
	}

	response, err := c.get(ctx, EndpointLibraryByBook, params)
	if err != nil {
		return 0, err
	}
	libs, _ := response["libs"].([]any)
	return len(libs), nil
}

// MonthlyKeywords returns the catalog's trending keywords for a YYYY-MM month.
func (c *Client) MonthlyKeywords(ctx context.Context, month string) ([]string, error) {
	params := url.Values{}
	params.Set("month", month)

	response, err := c.get(ctx, EndpointMonthlyKeywords, params)
	if err != nil {
		return nil, err
	}

	items, _ := response["keywords"].([]any)
	keywords := make([]string, 0, len(items))
	for _, item := range items {
		if word := unwrap(item, "keyword").String("word"); word != "" {
			keywords = append(keywords, word)
		}
	}
	return keywords, nil
}

// Detail fetches the detailed record for an ISBN. A nil record with a nil
// error means the catalog has no detail for it.
func (c *Client) Detail(ctx context.Context, isbn13 string) (Record, error) {
	params := url.Values{}
	params.Set("isbn13", isbn13)

	response, err := c.get(ctx, EndpointDetail, params)
	if err != nil {
		return nil, err
	}

	items, _ := response["detail"].([]any)
	if len(items) == 0 {
		return nil, nil
	}
	obj, _ := items[0].(map[string]any)
	book, ok := obj["book"].(map[string]any)
	if !ok {
		return nil, nil
	}
	return Record(book), nil
}

// get issues one GET and returns the decoded "response" object of the envelope.
func (c *Client) get(ctx context.Context, endpoint string, params url.Values) (map[string]any, error) {
	start := time.Now()
	outcome := "ok"
	defer func() {
		c.metrics.ObserveCatalog(endpoint, outcome, time.Since(start))
	}()

	if c.callTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.callTimeout)
		defer cancel()
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			outcome = "rate_limited"
			return nil, fmt.Errorf("catalog %s: rate limiter: %w", endpoint, err)
		}
	}

	params.Set("authKey", c.authKey)
	params.Set("format", "json")
	reqURL := fmt.Sprintf("%s/%s?%s", c.BaseURL, endpoint, params.Encode())

	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, endpoint, reqURL)
	})
	if err != nil {
		outcome = classify(err)
		return nil, fmt.Errorf("catalog %s: %w", endpoint, err)
	}

	var envelope struct {
		Response map[string]any `json:"response"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil {
		outcome = "decode_error"
		return nil, fmt.Errorf("failed to decode %s response: %w", endpoint, err)
	}
	if envelope.Response == nil {
		return map[string]any{}, nil
	}

	if msg, ok := envelope.Response["error"]; ok && msg != nil && msg != "" {
		outcome = "api_error"
		return nil, &APIError{Endpoint: endpoint, Message: fmt.Sprint(msg)}
	}

	return envelope.Response, nil
}

func (c *Client) fetch(ctx context.Context, endpoint, reqURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: string(body)}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	return body, nil
}

func classify(err error) string {
	var statusErr *StatusError
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "rejected"
	case errors.As(err, &statusErr):
		return "http_error"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "transport_error"
	}
}

package recommend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/bookscout/bookscout/internal/catalog"
)

var (
	// ErrNoKeywords means the catalog returned no keywords for the month.
	ErrNoKeywords = errors.New("no keywords found")
	// ErrNoBooks means none of the month's keywords matched a book.
	ErrNoBooks = errors.New("no books found for any keyword")
)

const (
	monthlySearchPageSize = 10
	monthlyPickWindow     = 5
)

// Random is the randomness the monthly pick needs. *rand.Rand satisfies it.
type Random interface {
	IntN(n int) int
	Shuffle(n int, swap func(i, j int))
}

type globalRandom struct{}

func (globalRandom) IntN(n int) int                      { return rand.IntN(n) }
func (globalRandom) Shuffle(n int, swap func(i, j int)) { rand.Shuffle(n, swap) }

// DefaultRandom uses the math/rand/v2 top-level generator.
var DefaultRandom Random = globalRandom{}

// MonthlyResult is the keyword-driven pick for a month.
type MonthlyResult struct {
	Keyword string       `json:"keyword"`
	Month   string       `json:"month"`
	Book    *BookSummary `json:"book"`
}

// PreviousMonth returns the calendar month before now as YYYY-MM (UTC).
func PreviousMonth(now time.Time) string {
	now = now.UTC()
	return time.Date(now.Year(), now.Month()-1, 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}

// Monthly picks a random book for a random trending keyword of the previous month.
func (p *Pipeline) Monthly(ctx context.Context, now time.Time) (*MonthlyResult, error) {
	month := PreviousMonth(now)

	keywords, err := p.catalog.MonthlyKeywords(ctx, month)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch monthly keywords: %w", err)
	}
	if len(keywords) == 0 {
		return nil, ErrNoKeywords
	}

	shuffled := append([]string(nil), keywords...)
	p.random.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	var keyword string
	var book catalog.Record
	for _, kw := range shuffled {
		records, err := p.catalog.Search(ctx, catalog.Query{Keyword: kw, PageSize: monthlySearchPageSize})
		if err != nil {
			return nil, fmt.Errorf("failed to search keyword %q: %w", kw, err)
		}
		if len(records) > 0 {
			keyword = kw
			book = records[p.random.IntN(min(len(records), monthlyPickWindow))]
			break
		}
	}
	if book == nil {
		return nil, ErrNoBooks
	}

	var detail catalog.Record
	if isbn := book.String("isbn13"); isbn != "" {
		detail, err = p.catalog.Detail(ctx, isbn)
		if err != nil {
			slog.Warn("Detail lookup failed", "isbn", isbn, "err", err)
			detail = nil
		}
	}

	return &MonthlyResult{
		Keyword: keyword,
		Month:   month,
		Book:    mergeDetail(book, detail),
	}, nil
}

// mergeDetail prefers search fields and fills gaps from detail, except the
// description which prefers detail.
func mergeDetail(book, detail catalog.Record) *BookSummary {
	pick := func(key string) string {
		if v := book.String(key); v != "" {
			return v
		}
		return detail.String(key)
	}
	description := detail.String("description")
	if description == "" {
		description = book.String("description")
	}

	return &BookSummary{
		BookName:        pick("bookname"),
		Authors:         pick("authors"),
		Publisher:       pick("publisher"),
		PublicationYear: pick("publication_year"),
		ISBN13:          pick("isbn13"),
		ImageURL:        pick("bookImageURL"),
		Description:     description,
		ClassName:       pick("class_nm"),
		LoanCount:       pick("loan_count"),
	}
}

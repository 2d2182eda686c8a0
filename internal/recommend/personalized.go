package recommend

import (
	"context"
	"fmt"

	"github.com/bookscout/bookscout/internal/catalog"
)

// PersonalizedSource labels personalized picks.
const PersonalizedSource = "personalized"

// BookSummary is the flattened view of a single picked record.
type BookSummary struct {
	BookName        string `json:"bookname"`
	Authors         string `json:"authors"`
	Publisher       string `json:"publisher"`
	PublicationYear string `json:"publication_year"`
	ISBN13          string `json:"isbn13"`
	ImageURL        string `json:"bookImageURL"`
	Description     string `json:"description"`
	ClassName       string `json:"class_nm"`
	LoanCount       string `json:"loan_count,omitempty"`
}

// PersonalizedResult is the single recommendation for an ISBN. Book is nil
// when the catalog has nothing to recommend.
type PersonalizedResult struct {
	Book   *BookSummary `json:"book"`
	Source string       `json:"source"`
}

// Personalized picks one recommendation for isbn13, preferring mania
// recommendations and falling back to reader recommendations.
func (p *Pipeline) Personalized(ctx context.Context, isbn13 string) (*PersonalizedResult, error) {
	books, err := p.catalog.Recommend(ctx, []string{isbn13}, catalog.ModeMania)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch mania recommendations: %w", err)
	}

	if len(books) == 0 {
		books, err = p.catalog.Recommend(ctx, []string{isbn13}, catalog.ModeReader)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch reader recommendations: %w", err)
		}
	}

	result := &PersonalizedResult{Source: PersonalizedSource}
	if len(books) == 0 {
		return result, nil
	}

	first := books[0]
	result.Book = &BookSummary{
		BookName:        first.Name(),
		Authors:         first.Authors(),
		Publisher:       first.Publisher(),
		PublicationYear: first.Year(),
		ISBN13:          first.String("isbn13"),
		ImageURL:        first.ImageURL(),
		Description:     first.String("description"),
		ClassName:       first.String("class_nm"),
	}
	return result, nil
}

package recommend

import (
	"github.com/bookscout/bookscout/internal/catalog"
	"github.com/bookscout/bookscout/internal/geo"
	"github.com/bookscout/bookscout/internal/suggest"
	"github.com/goccy/go-json"
)

// Mode tags which path the pipeline finished on.
type Mode string

const (
	ModeAIOnly Mode = "ai-only"
	ModeNoGPS  Mode = "no-gps"
	ModeFull   Mode = "full"
	ModeError  Mode = "error"
)

// Cacheable reports whether results in this mode may be stored.
func (m Mode) Cacheable() bool {
	switch m {
	case ModeAIOnly, ModeNoGPS, ModeFull:
		return true
	default:
		return false
	}
}

// SeedBook summarizes the primary seed record.
type SeedBook struct {
	BookName        string `json:"bookname"`
	Authors         string `json:"authors"`
	ISBN13          string `json:"isbn13"`
	ImageURL        string `json:"bookImageURL"`
	Publisher       string `json:"publisher"`
	PublicationYear string `json:"publication_year"`
}

func summarize(rec catalog.Record) *SeedBook {
	return &SeedBook{
		BookName:        rec.Name(),
		Authors:         rec.Authors(),
		ISBN13:          rec.ISBN(),
		ImageURL:        rec.ImageURL(),
		Publisher:       rec.Publisher(),
		PublicationYear: rec.Year(),
	}
}

// Availability pairs a record with its holdings count in the nearby regions.
type Availability struct {
	Book           catalog.Record `json:"book"`
	NearbyLibCount int            `json:"nearbyLibCount"`
}

// Result is the outcome of one pipeline run.
type Result struct {
	Mode     Mode
	SeedBook *SeedBook
	// Suggestions is set in ai-only mode.
	Suggestions []suggest.Suggestion
	// Books is set in no-gps and full modes.
	Books   []Availability
	Regions []geo.Match
	Err     error
}

// RegionNames returns the names of the matched regions, never nil.
func (r Result) RegionNames() []string {
	names := geo.Names(r.Regions)
	if names == nil {
		names = []string{}
	}
	return names
}

type resultPayload struct {
	Mode            Mode      `json:"mode"`
	SeedBook        *SeedBook `json:"seedBook"`
	Recommendations any       `json:"recommendations"`
	Regions         []string  `json:"regions"`
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.Mode == ModeError {
		msg := ""
		if r.Err != nil {
			msg = r.Err.Error()
		}
		return json.Marshal(map[string]string{"mode": string(r.Mode), "error": msg})
	}

	payload := resultPayload{
		Mode:     r.Mode,
		SeedBook: r.SeedBook,
		Regions:  r.RegionNames(),
	}
	if r.Mode == ModeAIOnly {
		suggestions := r.Suggestions
		if suggestions == nil {
			suggestions = []suggest.Suggestion{}
		}
		payload.Recommendations = suggestions
	} else {
		books := r.Books
		if books == nil {
			books = []Availability{}
		}
		payload.Recommendations = books
	}
	return json.Marshal(payload)
}

func aiOnly(suggestions []suggest.Suggestion, seed *SeedBook) *Result {
	return &Result{
		Mode:        ModeAIOnly,
		SeedBook:    seed,
		Suggestions: firstN(suggestions, MaxResults),
	}
}

func firstN[T any](items []T, n int) []T {
	if len(items) > n {
		return items[:n]
	}
	return items
}

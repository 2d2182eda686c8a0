package suggest

import (
	"context"
	"errors"
	"testing"

	"github.com/bookscout/bookscout/internal/providers"
)

type stubProvider struct {
	text   string
	err    error
	config providers.Config
}

func (s *stubProvider) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	s.config = config
	return s.text, s.err
}

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		wantCount int
		wantErr   bool
	}{
		{"plain array", `[{"title":"코스모스","author":"칼 세이건"}]`, 1, false},
		{"json fence", "```json\n[{\"title\":\"a\",\"author\":\"b\"},{\"title\":\"c\",\"author\":\"d\"}]\n```", 2, false},
		{"bare fence", "```\n[]\n```", 0, false},
		{"not json", "not json", 0, true},
		{"object instead of array", `{"title":"a"}`, 0, true},
		{"truncated array", `[{"title":"a"`, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnparseable) {
					t.Errorf("Expected ErrUnparseable, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if len(got) != tt.wantCount {
				t.Errorf("Expected %d suggestions, got %d", tt.wantCount, len(got))
			}
		})
	}
}

func TestSuggestSendsSystemPrompt(t *testing.T) {
	stub := &stubProvider{text: `[{"title":"사피엔스","author":"유발 하라리"}]`}
	g := NewGenerator(stub, "gpt-5-mini", 0)

	got, err := g.Suggest(context.Background(), "인류 역사")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "사피엔스" || got[0].Author != "유발 하라리" {
		t.Errorf("Unexpected suggestions: %+v", got)
	}
	if stub.config.System != SystemPrompt {
		t.Error("Expected system prompt to be sent")
	}
	if stub.config.Prompt != "인류 역사" || stub.config.Model != "gpt-5-mini" {
		t.Errorf("Unexpected provider config: %+v", stub.config)
	}
}

func TestSuggestProviderError(t *testing.T) {
	boom := errors.New("boom")
	g := NewGenerator(&stubProvider{err: boom}, "m", 0)

	_, err := g.Suggest(context.Background(), "x")
	if !errors.Is(err, boom) {
		t.Errorf("Expected provider error to be wrapped, got %v", err)
	}
	if errors.Is(err, ErrUnparseable) {
		t.Error("Provider error must not be reported as a parse failure")
	}
}

func TestNewProvider(t *testing.T) {
	for _, name := range []string{"openai", "gemini", "ollama"} {
		if _, err := NewProvider(name, "key"); err != nil {
			t.Errorf("Expected provider %s, got error %v", name, err)
		}
	}
	if _, err := NewProvider("unknown", "key"); err == nil {
		t.Error("Expected error for unknown provider")
	}
}

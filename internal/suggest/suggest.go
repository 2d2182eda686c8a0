package suggest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/bookscout/bookscout/internal/config"
	"github.com/bookscout/bookscout/internal/gemini"
	"github.com/bookscout/bookscout/internal/ollama"
	"github.com/bookscout/bookscout/internal/openai"
	"github.com/bookscout/bookscout/internal/providers"
	"github.com/goccy/go-json"
)

// SystemPrompt asks the model for ten Korean-edition titles as a bare JSON array.
const SystemPrompt = `너는 전 세계 출판 트렌드와 독자들의 니즈를 꿰뚫고 있는 '글로벌 북 큐레이션 전문가'야.
사용자 프롬프트에 맞는 도서를 산출해줘. 대한민국 공공도서관에 소장되어 있을 법한 도서 위주로 10권 추천해줘.
도서 제목은 반드시 한국어 정식 출판 제목만 사용해. 영문 병기, 괄호 안 원제, 부제는 포함하지 마.
반드시 아래 JSON 형식으로만 응답해. 다른 텍스트는 절대 포함하지 마.
[
  { "title": "도서 제목", "author": "저자명" },
  ...
]`

// ErrUnparseable is returned when the model output is not a JSON array of suggestions.
var ErrUnparseable = errors.New("AI 응답 파싱에 실패했습니다.")

// Suggestion is one model-proposed book, in model rank order.
type Suggestion struct {
	Title  string `json:"title"`
	Author string `json:"author"`
}

// Generator turns a keyword into ranked suggestions.
type Generator struct {
	provider    providers.Provider
	model       string
	temperature float64
}

// NewGenerator returns a Generator using provider with the given model.
func NewGenerator(provider providers.Provider, model string, temperature float64) *Generator {
	return &Generator{provider: provider, model: model, temperature: temperature}
}

// Suggest asks the model for books matching keyword.
func (g *Generator) Suggest(ctx context.Context, keyword string) ([]Suggestion, error) {
	text, err := g.provider.ExtractText(ctx, providers.Config{
		Model:       g.model,
		Temperature: g.temperature,
		System:      SystemPrompt,
		Prompt:      keyword,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate suggestions: %w", err)
	}

	suggestions, err := Parse(text)
	if err != nil {
		slog.Error("Failed to parse AI response", "keyword", keyword, "response", text)
		return nil, err
	}
	return suggestions, nil
}

// Parse decodes model output, tolerating a surrounding markdown code fence.
func Parse(text string) ([]Suggestion, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if !strings.HasPrefix(text, "[") {
		return nil, ErrUnparseable
	}

	var suggestions []Suggestion
	if err := json.Unmarshal([]byte(text), &suggestions); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnparseable, err)
	}
	if suggestions == nil {
		suggestions = []Suggestion{}
	}
	return suggestions, nil
}

// NewProvider builds the named provider. modelKey is the API key, or the
// server URL for ollama.
func NewProvider(name, modelKey string) (providers.Provider, error) {
	switch name {
	case config.ProviderOpenAI:
		return openai.New(modelKey), nil
	case config.ProviderGemini:
		return gemini.New(modelKey), nil
	case config.ProviderOllama:
		return ollama.New(modelKey), nil
	default:
		return nil, fmt.Errorf("unknown provider %q", name)
	}
}

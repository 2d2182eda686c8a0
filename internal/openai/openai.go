package openai

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bookscout/bookscout/internal/providers"
	"github.com/goccy/go-json"
)

// DefaultBaseURL is the OpenAI REST API root.
const DefaultBaseURL = "https://api.openai.com/v1"

// OpenAI is a provider for OpenAI chat completions
type OpenAI struct {
	apiKey     string
	BaseURL    string
	httpClient *http.Client
}

// New returns a new OpenAI provider bound to an API key
func New(apiKey string) *OpenAI {
	return &OpenAI{
		apiKey:  apiKey,
		BaseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature *float64  `json:"temperature,omitempty"`
}

// ExtractText generates text for the given prompt using OpenAI
func (o *OpenAI) ExtractText(ctx context.Context, config providers.Config) (string, error) {
	if o.apiKey == "" {
		return "", fmt.Errorf("OpenAI API key not set")
	}

	body := chatRequest{Model: config.Model}
	if config.System != "" {
		body.Messages = append(body.Messages, message{Role: "system", Content: config.System})
	}
	body.Messages = append(body.Messages, message{Role: "user", Content: config.Prompt})
	// reasoning models only accept the default temperature
	if config.Temperature > 0 {
		t := config.Temperature
		body.Temperature = &t
	}

	requestBody, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.BaseURL+"/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return "", fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+o.apiKey)

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return "", fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from OpenAI")
	}

	return response.Choices[0].Message.Content, nil
}

package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Environment keys
const (
	KeyLibraryAPIKey  = "DATA4LIBRARY_API_KEY"
	KeyOpenAIAPIKey   = "OPENAI_API_KEY"
	KeyGeminiAPIKey   = "GEMINI_API_KEY"
	KeyOllamaURL      = "OLLAMA_URL"
	KeyProvider       = "BOOKSCOUT_PROVIDER"
	KeyModel          = "BOOKSCOUT_MODEL"
	KeyTemperature    = "BOOKSCOUT_TEMPERATURE"
	KeySecretsFile    = "BOOKSCOUT_SECRETS_FILE"
	KeyCatalogBaseURL = "CATALOG_BASE_URL"
	KeyCatalogTimeout = "CATALOG_TIMEOUT_SECONDS"
	KeyCatalogRPS     = "CATALOG_RPS"
	KeyCatalogBurst   = "CATALOG_BURST"
	KeyFanoutLimit    = "FANOUT_LIMIT"
	KeyCacheSize      = "CACHE_SIZE"
	KeySearchCacheTTL = "SEARCH_CACHE_TTL_SECONDS"
)

// Provider names
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// DefaultOllamaURL is used when OLLAMA_URL is unset.
const DefaultOllamaURL = "http://localhost:11434"

var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-5-mini",
	ProviderGemini: "gemini-2.5-flash",
	ProviderOllama: "llama3.1",
}

// Settings holds the non-secret runtime configuration.
type Settings struct {
	Provider       string
	Model          string
	Temperature    float64
	CatalogBaseURL string
	CatalogTimeout time.Duration
	CatalogRPS     float64
	CatalogBurst   int
	FanoutLimit    int
	CacheSize      int
	SearchCacheTTL time.Duration
	DailyCacheTTL  time.Duration
}

// Defaults returns the settings used when nothing is configured.
func Defaults() Settings {
	return Settings{
		Provider:       ProviderOpenAI,
		Model:          defaultModels[ProviderOpenAI],
		CatalogTimeout: 10 * time.Second,
		CatalogRPS:     20,
		CatalogBurst:   20,
		FanoutLimit:    8,
		CacheSize:      1024,
		SearchCacheTTL: time.Hour,
		DailyCacheTTL:  24 * time.Hour,
	}
}

// Load reads settings from src on top of Defaults.
func Load(src Source) (Settings, error) {
	s := Defaults()
	var errs []error

	if v, ok := src.Lookup(KeyProvider); ok {
		s.Provider = strings.ToLower(v)
		s.Model = defaultModels[s.Provider]
	}
	if v, ok := src.Lookup(KeyModel); ok {
		s.Model = v
	}
	if v, ok := src.Lookup(KeyCatalogBaseURL); ok {
		s.CatalogBaseURL = v
	}
	if v, ok := src.Lookup(KeyTemperature); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", KeyTemperature, err))
		}
		s.Temperature = f
	}
	if v, ok := src.Lookup(KeyCatalogRPS); ok {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", KeyCatalogRPS, err))
		}
		s.CatalogRPS = f
	}

	ints := []struct {
		key string
		dst *int
	}{
		{KeyCatalogBurst, &s.CatalogBurst},
		{KeyFanoutLimit, &s.FanoutLimit},
		{KeyCacheSize, &s.CacheSize},
	}
	for _, field := range ints {
		v, ok := src.Lookup(field.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", field.key, err))
			continue
		}
		*field.dst = n
	}

	durations := []struct {
		key string
		dst *time.Duration
	}{
		{KeyCatalogTimeout, &s.CatalogTimeout},
		{KeySearchCacheTTL, &s.SearchCacheTTL},
	}
	for _, field := range durations {
		v, ok := src.Lookup(field.key)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %w", field.key, err))
			continue
		}
		*field.dst = time.Duration(n) * time.Second
	}

	if err := errors.Join(errs...); err != nil {
		return s, err
	}
	return s, s.Validate()
}

// Validate checks the settings for values the service cannot run with.
func (s Settings) Validate() error {
	var errs []error
	if _, ok := defaultModels[s.Provider]; !ok {
		errs = append(errs, fmt.Errorf("unknown provider %q (want openai, gemini or ollama)", s.Provider))
	}
	if s.Model == "" {
		errs = append(errs, errors.New("model must not be empty"))
	}
	if s.CatalogTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeyCatalogTimeout))
	}
	if s.FanoutLimit < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyFanoutLimit))
	}
	if s.CacheSize < 1 {
		errs = append(errs, fmt.Errorf("%s must be at least 1", KeyCacheSize))
	}
	if s.SearchCacheTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive", KeySearchCacheTTL))
	}
	if s.CatalogRPS < 0 {
		errs = append(errs, fmt.Errorf("%s must not be negative", KeyCatalogRPS))
	}
	return errors.Join(errs...)
}

// Credentials are the per-request secrets passed explicitly to the pipeline.
type Credentials struct {
	LibraryKey string
	// ModelKey is the provider API key, or the server URL for ollama.
	ModelKey string
}

// MissingCredentialError names a credential that is not configured.
type MissingCredentialError struct {
	Key   string
	Label string
}

func (e *MissingCredentialError) Error() string {
	return e.Label + " not configured"
}

// ResolveCredentials looks up the credentials needed by provider. The model
// key is checked first, matching the order the request handler reports them.
func ResolveCredentials(src Source, provider string) (Credentials, error) {
	var creds Credentials

	switch provider {
	case ProviderOpenAI:
		key, ok := src.Lookup(KeyOpenAIAPIKey)
		if !ok {
			return creds, &MissingCredentialError{Key: KeyOpenAIAPIKey, Label: "OpenAI API key"}
		}
		creds.ModelKey = key
	case ProviderGemini:
		key, ok := src.Lookup(KeyGeminiAPIKey)
		if !ok {
			return creds, &MissingCredentialError{Key: KeyGeminiAPIKey, Label: "Gemini API key"}
		}
		creds.ModelKey = key
	case ProviderOllama:
		creds.ModelKey = DefaultOllamaURL
		if url, ok := src.Lookup(KeyOllamaURL); ok {
			creds.ModelKey = strings.TrimSuffix(url, "/")
		}
	default:
		return creds, fmt.Errorf("unknown provider %q", provider)
	}

	key, err := LibraryKey(src)
	if err != nil {
		return creds, err
	}
	creds.LibraryKey = key
	return creds, nil
}

// LibraryKey looks up only the catalog credential.
func LibraryKey(src Source) (string, error) {
	key, ok := src.Lookup(KeyLibraryAPIKey)
	if !ok {
		return "", &MissingCredentialError{Key: KeyLibraryAPIKey, Label: "Library API key"}
	}
	return key, nil
}

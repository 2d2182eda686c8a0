package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestChainPrecedence(t *testing.T) {
	t.Setenv(KeyLibraryAPIKey, "from-env")
	t.Setenv(KeyOpenAIAPIKey, "env-openai")

	chain := Chain{MapSource{KeyLibraryAPIKey: "from-secrets", KeyOpenAIAPIKey: "  "}, EnvSource{}}

	if v, _ := chain.Lookup(KeyLibraryAPIKey); v != "from-secrets" {
		t.Errorf("Expected secrets file to win, got %q", v)
	}
	if v, _ := chain.Lookup(KeyOpenAIAPIKey); v != "env-openai" {
		t.Errorf("Expected blank secret to fall through to env, got %q", v)
	}
	if _, ok := chain.Lookup("BOOKSCOUT_UNSET_KEY"); ok {
		t.Error("Expected unset key to be absent")
	}
}

func TestLoadYAMLSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "secrets.yaml")
	content := "DATA4LIBRARY_API_KEY: lib-key\nCATALOG_RPS: 5\nEMPTY:\n"
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	src, err := LoadYAMLSource(path)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if v, _ := src.Lookup(KeyLibraryAPIKey); v != "lib-key" {
		t.Errorf("Expected lib-key, got %q", v)
	}
	if v, _ := src.Lookup(KeyCatalogRPS); v != "5" {
		t.Errorf("Expected numeric value to be stringified, got %q", v)
	}
	if _, ok := src.Lookup("EMPTY"); ok {
		t.Error("Expected null value to be absent")
	}

	if _, err := DefaultSource(filepath.Join(t.TempDir(), "missing.yaml")); err != nil {
		t.Errorf("Expected missing secrets file to be ignored, got %v", err)
	}
}

func TestResolveCredentials(t *testing.T) {
	tests := []struct {
		name       string
		provider   string
		src        MapSource
		wantErrKey string
		wantMsg    string
		wantModel  string
	}{
		{
			name:       "missing openai key",
			provider:   ProviderOpenAI,
			src:        MapSource{KeyLibraryAPIKey: "lib"},
			wantErrKey: KeyOpenAIAPIKey,
			wantMsg:    "OpenAI API key not configured",
		},
		{
			name:       "model key checked before library key",
			provider:   ProviderOpenAI,
			src:        MapSource{},
			wantErrKey: KeyOpenAIAPIKey,
			wantMsg:    "OpenAI API key not configured",
		},
		{
			name:       "missing library key",
			provider:   ProviderGemini,
			src:        MapSource{KeyGeminiAPIKey: "g"},
			wantErrKey: KeyLibraryAPIKey,
			wantMsg:    "Library API key not configured",
		},
		{
			name:      "ollama needs no model key",
			provider:  ProviderOllama,
			src:       MapSource{KeyLibraryAPIKey: "lib"},
			wantModel: DefaultOllamaURL,
		},
		{
			name:      "all present",
			provider:  ProviderOpenAI,
			src:       MapSource{KeyLibraryAPIKey: "lib", KeyOpenAIAPIKey: "sk"},
			wantModel: "sk",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			creds, err := ResolveCredentials(tt.src, tt.provider)
			if tt.wantErrKey == "" {
				if err != nil {
					t.Fatalf("Unexpected error: %v", err)
				}
				if creds.ModelKey != tt.wantModel {
					t.Errorf("Expected model key %q, got %q", tt.wantModel, creds.ModelKey)
				}
				if creds.LibraryKey != "lib" {
					t.Errorf("Expected library key lib, got %q", creds.LibraryKey)
				}
				return
			}

			var missing *MissingCredentialError
			if !errors.As(err, &missing) {
				t.Fatalf("Expected MissingCredentialError, got %v", err)
			}
			if missing.Key != tt.wantErrKey {
				t.Errorf("Expected missing key %s, got %s", tt.wantErrKey, missing.Key)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("Expected message %q, got %q", tt.wantMsg, err.Error())
			}
		})
	}
}

func TestLoadSettings(t *testing.T) {
	s, err := Load(MapSource{
		KeyProvider:       "Gemini",
		KeyCatalogTimeout: "3",
		KeyFanoutLimit:    "4",
		KeySearchCacheTTL: "60",
	})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if s.Provider != ProviderGemini || s.Model != defaultModels[ProviderGemini] {
		t.Errorf("Expected gemini defaults, got %s/%s", s.Provider, s.Model)
	}
	if s.CatalogTimeout != 3*time.Second {
		t.Errorf("Expected 3s timeout, got %v", s.CatalogTimeout)
	}
	if s.FanoutLimit != 4 {
		t.Errorf("Expected fan-out 4, got %d", s.FanoutLimit)
	}
	if s.SearchCacheTTL != time.Minute {
		t.Errorf("Expected 1m TTL, got %v", s.SearchCacheTTL)
	}
	if s.DailyCacheTTL != 24*time.Hour {
		t.Errorf("Expected 24h daily TTL, got %v", s.DailyCacheTTL)
	}
}

func TestLoadSettingsErrors(t *testing.T) {
	tests := []struct {
		name string
		src  MapSource
	}{
		{"non-numeric timeout", MapSource{KeyCatalogTimeout: "soon"}},
		{"zero fan-out", MapSource{KeyFanoutLimit: "0"}},
		{"unknown provider", MapSource{KeyProvider: "claude"}},
		{"negative rps", MapSource{KeyCatalogRPS: "-1"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Load(tt.src); err == nil {
				t.Error("Expected error, got nil")
			}
		})
	}
}

func TestDefaultsValid(t *testing.T) {
	if err := Defaults().Validate(); err != nil {
		t.Errorf("Expected defaults to validate, got %v", err)
	}
}

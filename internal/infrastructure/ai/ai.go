// Package ai provides language-model provider adapters used by the intent
// parser. Each provider wraps one HTTP API shape behind the shared
// httpProvider; the heuristic provider is the offline fallback when no
// credentials are configured.
package ai

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

// NewProvider builds the provider selected by configuration. An unknown
// provider name is a startup error; a known provider with missing
// credentials degrades to the heuristic fallback so the assistant keeps
// working offline.
func NewProvider(settings domain.LLMSettings) (ports.Provider, error) {
	client := &http.Client{Timeout: settings.Timeout() + 5*time.Second}

	switch settings.Provider {
	case "openai":
		if resolveAuth(settings.AuthEnvVar, "OPENAI_API_KEY") == "" {
			return newHeuristicProvider(), nil
		}
		return newHTTPProvider("openai", settings, client, openaiAdapter()), nil
	case "anthropic":
		if resolveAuth(settings.AuthEnvVar, "ANTHROPIC_API_KEY") == "" {
			return newHeuristicProvider(), nil
		}
		return newHTTPProvider("anthropic", settings, client, anthropicAdapter()), nil
	case "ollama":
		return newHTTPProvider("ollama", settings, client, ollamaAdapter()), nil
	case "heuristic", "":
		return newHeuristicProvider(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", settings.Provider)
	}
}

func resolveAuth(primary, fallback string) string {
	if primary != "" {
		if value := os.Getenv(primary); value != "" {
			return value
		}
	}
	if fallback == "" {
		return ""
	}
	return os.Getenv(fallback)
}

func valueOrDefault(value, def string) string {
	if value == "" {
		return def
	}
	return value
}

func valueOrDefaultInt(value, def int) int {
	if value == 0 {
		return def
	}
	return value
}

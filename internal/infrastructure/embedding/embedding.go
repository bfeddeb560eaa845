// Package embedding adapts local embedding backends to the recall index.
package embedding

import (
	"fmt"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

// NewEngine builds the configured embedding backend. An empty provider
// returns (nil, nil): recall then falls back to keyword matching.
func NewEngine(settings domain.EmbeddingSettings) (ports.EmbeddingEngine, error) {
	switch settings.Provider {
	case "":
		return nil, nil
	case "ollama":
		return newOllamaEngine(settings), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", settings.Provider)
	}
}

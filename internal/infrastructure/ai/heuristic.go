package ai

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

// heuristicProvider is the offline fallback used when no AI credentials are
// configured. It answers with the same JSON shape a real model would, so the
// parser path stays identical.
type heuristicProvider struct{}

func newHeuristicProvider() ports.Provider {
	return heuristicProvider{}
}

func (heuristicProvider) Name() string {
	return "heuristic"
}

func (heuristicProvider) Generate(_ context.Context, req ports.ProviderRequest) (ports.ProviderResponse, error) {
	intent, entities, confidence := guessIntent(req.Prompt)
	payload, err := json.Marshal(map[string]interface{}{
		"intent":     intent,
		"entities":   entities,
		"confidence": confidence,
		"reasoning":  "heuristic fallback (no AI provider configured)",
	})
	if err != nil {
		return ports.ProviderResponse{}, err
	}
	return ports.ProviderResponse{Content: string(payload)}, nil
}

func guessIntent(prompt string) (string, map[string]string, float64) {
	prompt = strings.ToLower(prompt)
	switch {
	case strings.Contains(prompt, "time") || strings.Contains(prompt, "date"):
		return "time", map[string]string{}, 0.9
	case strings.Contains(prompt, "remind"):
		return "reminder", map[string]string{"text": prompt}, 0.7
	case strings.Contains(prompt, "note"):
		return "note", map[string]string{"text": prompt}, 0.7
	case strings.Contains(prompt, "search") || strings.Contains(prompt, "find"):
		return "web_search", map[string]string{"query": prompt}, 0.65
	default:
		return "unknown", map[string]string{}, 0.3
	}
}

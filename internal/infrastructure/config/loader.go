// Package config loads the YAML configuration snapshot.
package config

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

// FileLoader loads YAML configuration from ~/.jarvis/config.yaml
// (overridable via JARVIS_CONFIG or an explicit path).
type FileLoader struct {
	overridePath string
}

// NewFileLoader builds a new loader. An empty path selects the default
// location.
func NewFileLoader(path string) *FileLoader {
	return &FileLoader{overridePath: path}
}

// Load implements ports.ConfigProvider. A missing file is not an error: the
// defaults are written out so the user has something to edit.
func (l *FileLoader) Load(context.Context) (domain.Config, error) {
	path := l.resolvePath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return domain.Config{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := writeDefault(path, cfg); err != nil {
				return domain.Config{}, err
			}
			return cfg, nil
		}
		return domain.Config{}, err
	}

	var cfg domain.Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return domain.Config{}, err
	}

	return hydrateDefaults(cfg), nil
}

func (l *FileLoader) resolvePath() string {
	if l.overridePath != "" {
		return expandPath(l.overridePath)
	}
	if custom := os.Getenv("JARVIS_CONFIG"); custom != "" {
		return expandPath(custom)
	}
	return filepath.Join(userHomeDir(), ".jarvis", "config.yaml")
}

func writeDefault(path string, cfg domain.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o600)
}

// DefaultConfig is the configuration written on first run.
func DefaultConfig() domain.Config {
	return domain.Config{
		ConfigFormatVersion: "1",
		LLM: domain.LLMSettings{
			Provider:       "ollama",
			Endpoint:       "http://localhost:11434/v1/chat/completions",
			ModelID:        "phi3:mini",
			MaxTokens:      512,
			TimeoutSeconds: 30,
		},
		Confidence: domain.ConfidenceSettings{
			ExecuteThreshold: 0.85,
			ConfirmThreshold: 0.60,
			RiskWeights: map[string]float64{
				"low":    1.0,
				"medium": 0.8,
				"high":   0.6,
			},
		},
		Conversation: domain.ConversationLimits{
			MaxTurns:       50,
			TimeoutSeconds: 300,
		},
		Memory: domain.MemorySettings{
			DataDir: filepath.Join(userHomeDir(), ".jarvis", "storage"),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: "",
			Endpoint: "http://localhost:11434",
			ModelID:  "nomic-embed-text",
		},
	}
}

func hydrateDefaults(cfg domain.Config) domain.Config {
	def := DefaultConfig()
	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = def.LLM.Provider
	}
	if cfg.LLM.Endpoint == "" {
		cfg.LLM.Endpoint = def.LLM.Endpoint
	}
	if cfg.LLM.TimeoutSeconds == 0 {
		cfg.LLM.TimeoutSeconds = def.LLM.TimeoutSeconds
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = def.LLM.MaxTokens
	}
	if cfg.Confidence.ExecuteThreshold == 0 && cfg.Confidence.ConfirmThreshold == 0 {
		cfg.Confidence.ExecuteThreshold = def.Confidence.ExecuteThreshold
		cfg.Confidence.ConfirmThreshold = def.Confidence.ConfirmThreshold
	}
	if len(cfg.Confidence.RiskWeights) == 0 {
		cfg.Confidence.RiskWeights = def.Confidence.RiskWeights
	}
	if cfg.Conversation.MaxTurns == 0 {
		cfg.Conversation.MaxTurns = def.Conversation.MaxTurns
	}
	if cfg.Conversation.TimeoutSeconds == 0 {
		cfg.Conversation.TimeoutSeconds = def.Conversation.TimeoutSeconds
	}
	if cfg.Memory.DataDir == "" {
		cfg.Memory.DataDir = def.Memory.DataDir
	}
	return cfg
}

func expandPath(path string) string {
	if filepath.IsAbs(path) {
		return path
	}
	if len(path) > 1 && path[:2] == "~/" {
		return filepath.Join(userHomeDir(), path[2:])
	}
	return filepath.Clean(path)
}

func userHomeDir() string {
	if home, err := os.UserHomeDir(); err == nil {
		return home
	}
	return "."
}

var _ ports.ConfigProvider = (*FileLoader)(nil)

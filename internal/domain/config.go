package domain

import (
	"fmt"
	"time"
)

// Config is the immutable configuration snapshot loaded once at startup.
// The pipeline never reloads configuration mid-session.
type Config struct {
	ConfigFormatVersion string             `yaml:"config_format_version"`
	LLM                 LLMSettings        `yaml:"llm"`
	Confidence          ConfidenceSettings `yaml:"confidence"`
	Conversation        ConversationLimits `yaml:"conversation"`
	Memory              MemorySettings     `yaml:"memory"`
	Embedding           EmbeddingSettings  `yaml:"embedding"`
}

// LLMSettings selects and bounds the language-model backend used by the
// intent parser.
type LLMSettings struct {
	Provider       string  `yaml:"provider"` // "openai", "anthropic", "ollama", "heuristic"
	Endpoint       string  `yaml:"endpoint"`
	AuthEnvVar     string  `yaml:"auth_env_var"`
	ModelID        string  `yaml:"model_id"`
	MaxTokens      int     `yaml:"max_tokens"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
}

// ConfidenceSettings holds the decision thresholds and risk weights consumed
// by the scorer.
type ConfidenceSettings struct {
	ExecuteThreshold float64             `yaml:"execute_threshold"`
	ConfirmThreshold float64             `yaml:"confirm_threshold"`
	RiskWeights      map[string]float64  `yaml:"risk_weights"`
}

// ConversationLimits bounds per-session dialogue state.
type ConversationLimits struct {
	MaxTurns       int     `yaml:"max_turns"`
	TimeoutSeconds float64 `yaml:"timeout_seconds"`
}

// MemorySettings locates the persistent store.
type MemorySettings struct {
	DataDir string `yaml:"data_dir"`
}

// EmbeddingSettings configures optional semantic recall. An empty provider
// disables embeddings; recall degrades to keyword matching.
type EmbeddingSettings struct {
	Provider string `yaml:"provider"` // "" or "ollama"
	Endpoint string `yaml:"endpoint"`
	ModelID  string `yaml:"model_id"`
}

// Timeout returns the LLM call budget as a duration.
func (s LLMSettings) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds * float64(time.Second))
}

// ContextTimeout returns how long a turn stays usable for reference
// resolution.
func (c ConversationLimits) ContextTimeout() time.Duration {
	return time.Duration(c.TimeoutSeconds * float64(time.Second))
}

// Weight returns the configured multiplier for a risk level, defaulting to
// 1.0 when the level is not configured.
func (c ConfidenceSettings) Weight(level RiskLevel) float64 {
	if w, ok := c.RiskWeights[string(level)]; ok {
		return w
	}
	return 1.0
}

// Validate rejects configurations under which decision semantics would be
// undefined. A failure here is fatal at startup: the process must refuse to
// run rather than gate tool execution on garbage thresholds.
func (c Config) Validate() error {
	conf := c.Confidence
	if conf.ExecuteThreshold < 0 || conf.ExecuteThreshold > 1 {
		return fmt.Errorf("confidence.execute_threshold %v outside [0,1]", conf.ExecuteThreshold)
	}
	if conf.ConfirmThreshold < 0 || conf.ConfirmThreshold > 1 {
		return fmt.Errorf("confidence.confirm_threshold %v outside [0,1]", conf.ConfirmThreshold)
	}
	if conf.ConfirmThreshold > conf.ExecuteThreshold {
		return fmt.Errorf("confidence.confirm_threshold %v exceeds execute_threshold %v",
			conf.ConfirmThreshold, conf.ExecuteThreshold)
	}
	for level, weight := range conf.RiskWeights {
		if ParseRiskLevel(level) != RiskLevel(level) {
			return fmt.Errorf("confidence.risk_weights: unknown risk level %q", level)
		}
		if weight < 0 || weight > 1 {
			return fmt.Errorf("confidence.risk_weights.%s %v outside [0,1]", level, weight)
		}
	}
	// Weights must not increase with risk.
	low, med, high := conf.Weight(RiskLow), conf.Weight(RiskMedium), conf.Weight(RiskHigh)
	if low < med || med < high {
		return fmt.Errorf("confidence.risk_weights not monotonic: low=%v medium=%v high=%v", low, med, high)
	}
	if c.LLM.TimeoutSeconds <= 0 {
		return fmt.Errorf("llm.timeout_seconds %v must be positive", c.LLM.TimeoutSeconds)
	}
	if c.Conversation.MaxTurns <= 0 {
		return fmt.Errorf("conversation.max_turns %d must be positive", c.Conversation.MaxTurns)
	}
	return nil
}

package domain

// ExecutionMode is the gate decision for one scored command.
type ExecutionMode string

const (
	// ModeAuto executes the tool immediately.
	ModeAuto ExecutionMode = "auto"
	// ModeConfirm withholds dispatch until explicit approval.
	ModeConfirm ExecutionMode = "confirm"
	// ModeAsk never dispatches; the assistant requests clarification.
	ModeAsk ExecutionMode = "ask"
)

// ConfidenceResult is the derived (never stored) outcome of scoring.
type ConfidenceResult struct {
	Score float64
	Mode  ExecutionMode
	Risk  RiskLevel
}

// ConfidenceScorer maps (raw confidence, risk level) onto a gate decision.
// It is a pure, total function of its inputs: no state, no side effects, and
// defined for every float input because the raw value is clamped first.
type ConfidenceScorer struct {
	settings ConfidenceSettings
}

// NewConfidenceScorer builds a scorer from the startup configuration
// snapshot. The settings are assumed validated (Config.Validate).
func NewConfidenceScorer(settings ConfidenceSettings) ConfidenceScorer {
	return ConfidenceScorer{settings: settings}
}

// Score dampens the raw confidence by the risk weight and picks a mode.
// Boundary values exactly at a threshold fall into the higher mode.
func (s ConfidenceScorer) Score(rawConfidence float64, risk RiskLevel) ConfidenceResult {
	adjusted := clamp01(rawConfidence) * s.settings.Weight(risk)
	adjusted = clamp01(adjusted)

	mode := ModeAsk
	switch {
	case adjusted >= s.settings.ExecuteThreshold:
		mode = ModeAuto
	case adjusted >= s.settings.ConfirmThreshold:
		mode = ModeConfirm
	}

	return ConfidenceResult{Score: adjusted, Mode: mode, Risk: risk}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

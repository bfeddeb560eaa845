// Package domain defines core business entities and value objects for the
// assistant pipeline.
//
// The domain layer is independent of infrastructure concerns: everything here
// is either plain data or pure behavior (confidence scoring, conversation
// state) with no I/O.
package domain

import (
	"context"
	"time"
)

// RiskLevel classifies how sensitive a tool is. It only influences confidence
// scoring; the registry itself never refuses a dispatch based on risk.
type RiskLevel string

const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// ParseRiskLevel maps a config or provider string onto a RiskLevel,
// defaulting to low for anything unrecognized.
func ParseRiskLevel(value string) RiskLevel {
	switch RiskLevel(value) {
	case RiskMedium:
		return RiskMedium
	case RiskHigh:
		return RiskHigh
	default:
		return RiskLow
	}
}

// Intent is the structured interpretation of one utterance. The "unknown"
// fallback is produced by FallbackIntent, never by propagating a parse error.
type Intent struct {
	Name       string
	Entities   map[string]string
	Confidence float64
	RawCommand string
	Reasoning  string
}

// FallbackIntent is what the parser returns when the model output is
// malformed, times out, or the utterance is empty.
func FallbackIntent(command string, reason string) Intent {
	return Intent{
		Name:       "unknown",
		Entities:   map[string]string{},
		Confidence: 0,
		RawCommand: command,
		Reasoning:  reason,
	}
}

// ConversationTurn records one completed exchange. Immutable once appended to
// a Conversation.
type ConversationTurn struct {
	Command   string
	Intent    string
	Entities  map[string]string
	Response  string
	Timestamp time.Time
}

// ToolHandler executes one tool invocation. A non-nil error (or a panic,
// which the registry absorbs) becomes a failed ToolResult.
type ToolHandler func(ctx context.Context, args map[string]string) (string, error)

// ToolDescriptor is the registered metadata plus handler for one invocable
// capability. Registered at startup and never mutated afterwards.
type ToolDescriptor struct {
	Name        string
	Description string
	Category    string
	Risk        RiskLevel
	Parameters  map[string]string
	Examples    []string
	Handler     ToolHandler
}

// ToolResult is the always-returned outcome of a dispatch. Handler faults are
// data here, not errors: nothing above the registry sees an uncaught fault
// from a tool body.
type ToolResult struct {
	Success bool
	Output  string
	Error   string
}

// CommandRecord is one append-only audit log entry.
type CommandRecord struct {
	ID            int64
	Command       string
	Intent        string
	Entities      map[string]string
	Success       bool
	ExecutionTime float64
	Timestamp     time.Time
}

// CommandStats aggregates the audit log for the history command.
type CommandStats struct {
	Total      int
	Successful int
	AvgTime    float64
	TopIntents map[string]int
}

// MemoryHit is one ranked result from semantic recall.
type MemoryHit struct {
	ID      string
	Content string
	Kind    string
	Score   float64
}

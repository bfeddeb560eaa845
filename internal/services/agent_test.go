package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/pkg/logger"
)

type stubDispatcher struct {
	tools    map[string]domain.ToolDescriptor
	executed []string
	result   domain.ToolResult
}

func (d *stubDispatcher) Get(name string) (domain.ToolDescriptor, bool) {
	desc, ok := d.tools[name]
	return desc, ok
}

func (d *stubDispatcher) Execute(_ context.Context, name string, _ map[string]string) domain.ToolResult {
	d.executed = append(d.executed, name)
	if _, ok := d.tools[name]; !ok {
		return domain.ToolResult{Success: false, Error: "tool not found: " + name}
	}
	return d.result
}

type stubMemory struct {
	records []domain.CommandRecord
	err     error
}

func (m *stubMemory) LogCommand(record domain.CommandRecord) error {
	if m.err != nil {
		return m.err
	}
	m.records = append(m.records, record)
	return nil
}

func (m *stubMemory) RecentCommands(int) ([]domain.CommandRecord, error) { return nil, nil }
func (m *stubMemory) CommandStats() (domain.CommandStats, error)         { return domain.CommandStats{}, nil }
func (m *stubMemory) StorePreference(string, string) error               { return nil }
func (m *stubMemory) Preference(string) (string, bool, error)            { return "", false, nil }
func (m *stubMemory) StoreFact(string, string) error                     { return nil }
func (m *stubMemory) Facts() (map[string]string, error)                  { return nil, nil }
func (m *stubMemory) Close() error                                       { return nil }

func testConfig() domain.Config {
	return domain.Config{
		LLM: domain.LLMSettings{TimeoutSeconds: 1},
		Confidence: domain.ConfidenceSettings{
			ExecuteThreshold: 0.85,
			ConfirmThreshold: 0.60,
			RiskWeights:      map[string]float64{"low": 1.0, "medium": 0.8, "high": 0.6},
		},
		Conversation: domain.ConversationLimits{MaxTurns: 50},
	}
}

func newTestAgent(provider *stubProvider, dispatcher *stubDispatcher, memory *stubMemory) *Agent {
	cfg := testConfig()
	return &Agent{
		Parser:   &IntentParser{Provider: provider, Timeout: time.Second, Logger: logger.NewNop()},
		Scorer:   domain.NewConfidenceScorer(cfg.Confidence),
		Registry: dispatcher,
		Memory:   memory,
		Logger:   logger.NewNop(),
		Config:   cfg,
	}
}

func TestProcessAutoExecutesAndBookkeeps(t *testing.T) {
	dispatcher := &stubDispatcher{
		tools:  map[string]domain.ToolDescriptor{"open_app": {Name: "open_app", Risk: domain.RiskLow}},
		result: domain.ToolResult{Success: true, Output: "Opening chrome"},
	}
	memory := &stubMemory{}
	agent := newTestAgent(&stubProvider{}, dispatcher, memory)
	session := agent.NewSession()

	outcome := session.Process(context.Background(), "open chrome")

	if outcome.Mode != domain.ModeAuto || !outcome.Success {
		t.Fatalf("outcome = %+v, want successful auto execution", outcome)
	}
	if outcome.Response != "Opening chrome" {
		t.Fatalf("response = %q, want tool output", outcome.Response)
	}
	if len(dispatcher.executed) != 1 || dispatcher.executed[0] != "open_app" {
		t.Fatalf("dispatched tools = %v, want exactly [open_app]", dispatcher.executed)
	}
	if len(memory.records) != 1 {
		t.Fatalf("audit log has %d entries, want exactly 1", len(memory.records))
	}
	if session.Conversation().Len() != 1 {
		t.Fatalf("conversation has %d turns, want exactly 1", session.Conversation().Len())
	}
}

func TestProcessConfirmWithholdsDispatch(t *testing.T) {
	dispatcher := &stubDispatcher{
		tools:  map[string]domain.ToolDescriptor{"open_app": {Name: "open_app", Risk: domain.RiskMedium}},
		result: domain.ToolResult{Success: true, Output: "Opening chrome"},
	}
	memory := &stubMemory{}
	agent := newTestAgent(&stubProvider{}, dispatcher, memory)
	session := agent.NewSession()

	// quick parse gives 0.95; medium risk dampens to 0.76 -> confirm
	outcome := session.Process(context.Background(), "open chrome")

	if outcome.Mode != domain.ModeConfirm || outcome.ActionTaken != "awaiting_confirmation" {
		t.Fatalf("outcome = %+v, want awaiting confirmation", outcome)
	}
	if len(dispatcher.executed) != 0 {
		t.Fatal("confirm mode must not dispatch")
	}
	if len(memory.records) != 1 || session.Conversation().Len() != 1 {
		t.Fatal("pending command must still be logged and added to context exactly once")
	}
	if !strings.Contains(outcome.Response, "confirm") {
		t.Fatalf("response %q should prompt for confirmation", outcome.Response)
	}
}

func TestProcessConfirmThenAffirmativeDispatches(t *testing.T) {
	dispatcher := &stubDispatcher{
		tools:  map[string]domain.ToolDescriptor{"open_app": {Name: "open_app", Risk: domain.RiskMedium}},
		result: domain.ToolResult{Success: true, Output: "Opening chrome"},
	}
	memory := &stubMemory{}
	agent := newTestAgent(&stubProvider{}, dispatcher, memory)
	session := agent.NewSession()

	session.Process(context.Background(), "open chrome")
	outcome := session.Process(context.Background(), "yes")

	if len(dispatcher.executed) != 1 || dispatcher.executed[0] != "open_app" {
		t.Fatalf("dispatched = %v, want held call executed", dispatcher.executed)
	}
	if !outcome.Success || outcome.Response != "Opening chrome" {
		t.Fatalf("outcome = %+v, want successful dispatch", outcome)
	}
	if len(memory.records) != 2 || session.Conversation().Len() != 2 {
		t.Fatal("both turns must be logged and added to context")
	}
}

func TestProcessConfirmThenOtherUtteranceDropsPending(t *testing.T) {
	dispatcher := &stubDispatcher{
		tools: map[string]domain.ToolDescriptor{
			"open_app":     {Name: "open_app", Risk: domain.RiskMedium},
			"current_time": {Name: "current_time", Risk: domain.RiskLow},
		},
		result: domain.ToolResult{Success: true, Output: "ok"},
	}
	provider := &stubProvider{content: `{"intent":"time","entities":{},"confidence":0.95}`}
	agent := newTestAgent(provider, dispatcher, &stubMemory{})
	session := agent.NewSession()

	session.Process(context.Background(), "open chrome")
	outcome := session.Process(context.Background(), "what time is it please")

	if outcome.ActionTaken != "current_time" {
		t.Fatalf("non-affirmative should flow through the pipeline, got %+v", outcome)
	}
	for _, name := range dispatcher.executed {
		if name == "open_app" {
			t.Fatal("dropped pending dispatch must never execute")
		}
	}
}

func TestProcessLowConfidenceAsks(t *testing.T) {
	dispatcher := &stubDispatcher{tools: map[string]domain.ToolDescriptor{}}
	memory := &stubMemory{}
	provider := &stubProvider{err: errors.New("model offline")}
	agent := newTestAgent(provider, dispatcher, memory)
	session := agent.NewSession()

	outcome := session.Process(context.Background(), "do the thing with the stuff")

	if outcome.Mode != domain.ModeAsk || outcome.Success {
		t.Fatalf("outcome = %+v, want clarification request", outcome)
	}
	if len(dispatcher.executed) != 0 {
		t.Fatal("ask mode must never dispatch")
	}
	if len(memory.records) != 1 || session.Conversation().Len() != 1 {
		t.Fatal("ask outcomes must still be logged and added to context")
	}
}

func TestProcessUnknownToolInAutoMode(t *testing.T) {
	dispatcher := &stubDispatcher{tools: map[string]domain.ToolDescriptor{}}
	provider := &stubProvider{content: `{"intent":"dance","entities":{},"confidence":0.99}`}
	agent := newTestAgent(provider, dispatcher, &stubMemory{})
	session := agent.NewSession()

	outcome := session.Process(context.Background(), "dance for me right now")

	if outcome.Success {
		t.Fatalf("outcome = %+v, want failure for unmapped intent", outcome)
	}
	if !strings.Contains(outcome.Response, "don't know how") {
		t.Fatalf("response = %q, want don't-know message", outcome.Response)
	}
}

func TestProcessSurvivesStorageFailure(t *testing.T) {
	dispatcher := &stubDispatcher{
		tools:  map[string]domain.ToolDescriptor{"open_app": {Name: "open_app", Risk: domain.RiskLow}},
		result: domain.ToolResult{Success: true, Output: "Opening chrome"},
	}
	memory := &stubMemory{err: errors.New("disk full")}
	agent := newTestAgent(&stubProvider{}, dispatcher, memory)
	session := agent.NewSession()

	outcome := session.Process(context.Background(), "open chrome")

	if !outcome.Success {
		t.Fatalf("storage failure must not fail the pipeline, got %+v", outcome)
	}
	if session.Conversation().Len() != 1 {
		t.Fatal("context update must happen despite storage failure")
	}
}

func TestProcessResolvesReferenceFromPriorTurn(t *testing.T) {
	dispatcher := &stubDispatcher{
		tools: map[string]domain.ToolDescriptor{
			"open_app":  {Name: "open_app", Risk: domain.RiskLow},
			"close_app": {Name: "close_app", Risk: domain.RiskLow},
		},
		result: domain.ToolResult{Success: true, Output: "done"},
	}
	agent := newTestAgent(&stubProvider{}, dispatcher, &stubMemory{})
	session := agent.NewSession()

	session.Process(context.Background(), "open chrome")
	outcome := session.Process(context.Background(), "close it")

	if outcome.Intent != "close_app" {
		t.Fatalf("intent = %s, want close_app via quick parse after resolution", outcome.Intent)
	}
	if outcome.Entities["target"] != "chrome" {
		t.Fatalf("entities = %v, want resolved target chrome", outcome.Entities)
	}
}

func TestSessionRunProcessesIntakeInOrder(t *testing.T) {
	dispatcher := &stubDispatcher{
		tools:  map[string]domain.ToolDescriptor{"open_app": {Name: "open_app", Risk: domain.RiskLow}},
		result: domain.ToolResult{Success: true, Output: "ok"},
	}
	memory := &stubMemory{}
	agent := newTestAgent(&stubProvider{}, dispatcher, memory)
	session := agent.NewSession()

	ctx, cancel := context.WithCancel(context.Background())
	commands := []string{"open chrome", "open firefox", "open spotify"}

	var seen []string
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = session.Run(ctx, func(outcome CommandOutcome) {
			seen = append(seen, outcome.Command)
			if len(seen) == len(commands) {
				cancel()
			}
		})
	}()

	for _, c := range commands {
		if err := session.Enqueue(context.Background(), c); err != nil {
			t.Fatalf("Enqueue(%q) error = %v", c, err)
		}
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("session run did not drain the intake")
	}

	for i, want := range commands {
		if seen[i] != want {
			t.Fatalf("processing order %v, want %v", seen, commands)
		}
	}
	for i, rec := range memory.records {
		if rec.Command != commands[i] {
			t.Fatalf("audit order %v differs from arrival order", memory.records)
		}
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

// Agent owns the shared pipeline components. It is safe to share across
// sessions: the parser and scorer are stateless, the registry is read-mostly,
// and the memory store serializes its own writes.
type Agent struct {
	Parser   *IntentParser
	Scorer   domain.ConfidenceScorer
	Registry ports.ToolDispatcher
	Memory   ports.MemoryRepository
	Recall   ports.SemanticSearcher // optional
	Logger   ports.Logger
	Config   domain.Config
}

// CommandOutcome is the terminal result of one pipeline pass. The
// orchestrator never raises for a malformed or failed command; every outcome
// is data shown to the user.
type CommandOutcome struct {
	Command     string
	Intent      string
	Entities    map[string]string
	Score       float64
	Mode        domain.ExecutionMode
	ActionTaken string
	Success     bool
	Response    string
}

// pendingDispatch is a confirm-gated tool call waiting for explicit approval.
type pendingDispatch struct {
	tool        string
	args        map[string]string
	intent      string
	description string
}

// Session is one conversation's pipeline instance. Commands are processed
// strictly one at a time per session; independent sessions run concurrently,
// each with its own Conversation.
type Session struct {
	ID           string
	agent        *Agent
	conversation *domain.Conversation
	intake       chan string
	pending      *pendingDispatch
}

// NewSession creates an independent session with its own dialogue context
// and intake queue.
func (a *Agent) NewSession() *Session {
	limits := a.Config.Conversation
	return &Session{
		ID:           uuid.NewString(),
		agent:        a,
		conversation: domain.NewConversation(limits.MaxTurns, limits.ContextTimeout()),
		intake:       make(chan string, 16),
	}
}

// Conversation exposes the session's dialogue history for read-only use
// (CLI rendering, prompt context).
func (s *Session) Conversation() *domain.Conversation { return s.conversation }

// Enqueue pushes an utterance into the session intake. Background producers
// use this instead of calling Process directly, which keeps the per-session
// pipeline single-entrant.
func (s *Session) Enqueue(ctx context.Context, text string) error {
	select {
	case s.intake <- text:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// StartListener runs a background producer until ctx is canceled. The
// listener owns its cancellation: it must observe ctx promptly, bounded by
// one in-flight unit of work.
func (s *Session) StartListener(ctx context.Context, listener ports.Listener) {
	go func() {
		if err := listener.Listen(ctx, s.intake); err != nil && !errors.Is(err, context.Canceled) {
			s.agent.Logger.Warn("listener stopped", map[string]interface{}{
				"session": s.ID,
				"error":   err.Error(),
			})
		}
	}()
}

// Run consumes the intake queue sequentially until ctx is canceled, invoking
// handle with every outcome. Within one session, turns reach the conversation
// and the audit log in arrival order.
func (s *Session) Run(ctx context.Context, handle func(CommandOutcome)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case text := <-s.intake:
			outcome := s.Process(ctx, text)
			if handle != nil {
				handle(outcome)
			}
		}
	}
}

// Process executes one full pipeline pass:
// reference resolution → intent parsing → confidence scoring → gate decision
// → (dispatch) → audit log → context update. Every terminal state produces
// exactly one log entry and exactly one conversation turn.
func (s *Session) Process(ctx context.Context, text string) CommandOutcome {
	started := time.Now()

	if s.pending != nil {
		if outcome, handled := s.resolvePending(ctx, text, started); handled {
			return outcome
		}
	}

	resolved := s.conversation.ResolveReference(text)
	if resolved != text {
		s.agent.Logger.Debug("reference resolved", map[string]interface{}{
			"session": s.ID,
			"from":    text,
			"to":      resolved,
		})
	}

	intent := s.agent.Parser.Parse(ctx, resolved, s.conversation.Summary())

	toolName := s.agent.Parser.ToolForIntent(intent.Name)
	risk := domain.RiskLow
	if toolName != "" {
		if desc, ok := s.agent.Registry.Get(toolName); ok {
			risk = desc.Risk
		}
	}

	conf := s.agent.Scorer.Score(intent.Confidence, risk)
	s.agent.Logger.Info("command scored", map[string]interface{}{
		"session": s.ID,
		"intent":  intent.Name,
		"score":   conf.Score,
		"mode":    string(conf.Mode),
		"risk":    string(risk),
	})

	var outcome CommandOutcome
	switch conf.Mode {
	case domain.ModeAuto:
		outcome = s.execute(ctx, text, intent, conf, toolName, started)
	case domain.ModeConfirm:
		description := describeAction(intent)
		s.pending = &pendingDispatch{
			tool:        toolName,
			args:        intent.Entities,
			intent:      intent.Name,
			description: description,
		}
		outcome = CommandOutcome{
			Command:     text,
			Intent:      intent.Name,
			Entities:    intent.Entities,
			Score:       conf.Score,
			Mode:        conf.Mode,
			ActionTaken: "awaiting_confirmation",
			Success:     true,
			Response:    fmt.Sprintf("Just to confirm - should I %s?", description),
		}
	default: // ModeAsk
		outcome = CommandOutcome{
			Command:     text,
			Intent:      intent.Name,
			Entities:    intent.Entities,
			Score:       conf.Score,
			Mode:        conf.Mode,
			ActionTaken: "clarify",
			Success:     false,
			Response:    "I'm not confident enough about what you want. Could you clarify?",
		}
	}

	s.finish(ctx, outcome, time.Since(started))
	return outcome
}

// execute dispatches through the registry in auto mode.
func (s *Session) execute(ctx context.Context, text string, intent domain.Intent, conf domain.ConfidenceResult, toolName string, started time.Time) CommandOutcome {
	outcome := CommandOutcome{
		Command:  text,
		Intent:   intent.Name,
		Entities: intent.Entities,
		Score:    conf.Score,
		Mode:     conf.Mode,
	}

	if toolName == "" {
		outcome.ActionTaken = "no_tool"
		outcome.Response = fmt.Sprintf("I don't know how to %s yet.", intent.Name)
		return outcome
	}

	result := s.agent.Registry.Execute(ctx, toolName, intent.Entities)
	outcome.ActionTaken = toolName
	outcome.Success = result.Success
	if result.Success {
		outcome.Response = result.Output
		if outcome.Response == "" {
			outcome.Response = "Done."
		}
	} else {
		outcome.Response = fmt.Sprintf("Sorry, I couldn't complete that. %s", result.Error)
	}
	return outcome
}

// resolvePending consumes an utterance while a confirmation is outstanding.
// An affirmative dispatches the held tool call; anything else drops it and
// lets the utterance flow through the normal pipeline.
func (s *Session) resolvePending(ctx context.Context, text string, started time.Time) (CommandOutcome, bool) {
	pending := s.pending
	s.pending = nil

	if !isAffirmative(text) {
		s.agent.Logger.Debug("pending dispatch dropped", map[string]interface{}{
			"session": s.ID,
			"tool":    pending.tool,
		})
		return CommandOutcome{}, false
	}

	outcome := CommandOutcome{
		Command:  text,
		Intent:   pending.intent,
		Entities: pending.args,
		Mode:     domain.ModeConfirm,
	}
	if pending.tool == "" {
		outcome.ActionTaken = "no_tool"
		outcome.Response = fmt.Sprintf("I don't know how to %s yet.", pending.intent)
	} else {
		result := s.agent.Registry.Execute(ctx, pending.tool, pending.args)
		outcome.ActionTaken = pending.tool
		outcome.Success = result.Success
		if result.Success {
			outcome.Response = result.Output
			if outcome.Response == "" {
				outcome.Response = "Done."
			}
		} else {
			outcome.Response = fmt.Sprintf("Sorry, I couldn't complete that. %s", result.Error)
		}
	}

	s.finish(ctx, outcome, time.Since(started))
	return outcome, true
}

// finish performs the two bookkeeping steps every terminal state owes:
// exactly one audit log append and exactly one conversation turn. A storage
// failure is logged and swallowed; losing one audit entry beats blocking the
// interaction.
func (s *Session) finish(ctx context.Context, outcome CommandOutcome, elapsed time.Duration) {
	record := domain.CommandRecord{
		Command:       outcome.Command,
		Intent:        outcome.Intent,
		Entities:      outcome.Entities,
		Success:       outcome.Success,
		ExecutionTime: elapsed.Seconds(),
		Timestamp:     time.Now(),
	}
	if err := s.agent.Memory.LogCommand(record); err != nil {
		s.agent.Logger.Error("audit log append failed, continuing without persistence", err,
			map[string]interface{}{"session": s.ID})
	}

	if s.agent.Recall != nil && outcome.Command != "" {
		if err := s.agent.Recall.Remember(ctx, outcome.Command, "command"); err != nil {
			s.agent.Logger.Debug("semantic remember failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	s.conversation.Add(outcome.Command, outcome.Intent, outcome.Entities, outcome.Response)
}

func describeAction(intent domain.Intent) string {
	switch intent.Name {
	case "open_app":
		return fmt.Sprintf("open %s", entityOr(intent.Entities, "app", "that application"))
	case "close_app":
		return fmt.Sprintf("close %s", entityOr(intent.Entities, "target", "this window"))
	case "web_search":
		return fmt.Sprintf("search for %s", entityOr(intent.Entities, "query", "that"))
	case "note":
		return "save that note"
	case "reminder":
		return "set that reminder"
	default:
		return fmt.Sprintf("do %s", intent.Name)
	}
}

func entityOr(entities map[string]string, key, fallback string) string {
	if v := entities[key]; v != "" {
		return v
	}
	return fallback
}

var affirmatives = map[string]bool{
	"yes": true, "y": true, "yeah": true, "yep": true, "sure": true,
	"do it": true, "go ahead": true, "confirm": true, "ok": true, "okay": true,
}

func isAffirmative(text string) bool {
	return affirmatives[strings.ToLower(strings.TrimSpace(text))]
}

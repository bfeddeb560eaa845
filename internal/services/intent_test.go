package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/harshaljain-cs/jarvis-go/internal/pkg/logger"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

type stubProvider struct {
	content string
	err     error
	delay   time.Duration
	calls   int
}

func (s *stubProvider) Name() string { return "stub" }

func (s *stubProvider) Generate(ctx context.Context, _ ports.ProviderRequest) (ports.ProviderResponse, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return ports.ProviderResponse{}, ctx.Err()
		}
	}
	if s.err != nil {
		return ports.ProviderResponse{}, s.err
	}
	return ports.ProviderResponse{Content: s.content}, nil
}

func newParser(provider *stubProvider) *IntentParser {
	return &IntentParser{
		Provider: provider,
		Timeout:  time.Second,
		Logger:   logger.NewNop(),
	}
}

func TestParseEmptyCommandSkipsProvider(t *testing.T) {
	provider := &stubProvider{}
	parser := newParser(provider)

	for _, command := range []string{"", "   ", "\t\n"} {
		intent := parser.Parse(context.Background(), command, "")
		if intent.Name != "unknown" {
			t.Fatalf("Parse(%q).Name = %s, want unknown", command, intent.Name)
		}
	}
	if provider.calls != 0 {
		t.Fatalf("provider was called %d times for empty input, want 0", provider.calls)
	}
}

func TestParseExtractsJSONFromProse(t *testing.T) {
	provider := &stubProvider{
		content: `Sure! Here is the parse you asked for:
{"intent": "web_search", "entities": {"query": "go testing"}, "confidence": 0.88, "reasoning": "search request"}
Let me know if you need anything else.`,
	}
	parser := newParser(provider)

	intent := parser.Parse(context.Background(), "please find articles about go testing", "")
	if intent.Name != "web_search" {
		t.Fatalf("intent = %s, want web_search", intent.Name)
	}
	if intent.Entities["query"] != "go testing" {
		t.Fatalf("entities = %v, want query extracted", intent.Entities)
	}
	if intent.Confidence != 0.88 {
		t.Fatalf("confidence = %v, want 0.88", intent.Confidence)
	}
}

func TestParseMalformedOutputFallsBack(t *testing.T) {
	cases := []string{
		"I could not parse that, sorry.",
		`{"intent": "web_search", "entities": {`,
		`{"entities": {}, "confidence": 0.9}`, // missing intent
	}
	for _, content := range cases {
		parser := newParser(&stubProvider{content: content})
		intent := parser.Parse(context.Background(), "do something complicated", "")
		if intent.Name != "unknown" || intent.Confidence != 0 {
			t.Fatalf("content %q: got %+v, want fallback intent", content, intent)
		}
	}
}

func TestParseProviderErrorFallsBack(t *testing.T) {
	parser := newParser(&stubProvider{err: errors.New("connection refused")})

	intent := parser.Parse(context.Background(), "do something complicated", "")
	if intent.Name != "unknown" {
		t.Fatalf("intent = %s, want unknown fallback", intent.Name)
	}
	if len(intent.Entities) != 0 {
		t.Fatalf("fallback entities = %v, want empty", intent.Entities)
	}
}

func TestParseTimeoutFallsBack(t *testing.T) {
	provider := &stubProvider{delay: 500 * time.Millisecond, content: `{"intent":"time","entities":{},"confidence":0.9}`}
	parser := &IntentParser{Provider: provider, Timeout: 20 * time.Millisecond, Logger: logger.NewNop()}

	start := time.Now()
	intent := parser.Parse(context.Background(), "do something complicated", "")
	if intent.Name != "unknown" {
		t.Fatalf("intent = %s, want unknown after timeout", intent.Name)
	}
	if elapsed := time.Since(start); elapsed > 200*time.Millisecond {
		t.Fatalf("parser waited %v, timeout not enforced", elapsed)
	}
}

func TestQuickParseSkipsModel(t *testing.T) {
	provider := &stubProvider{}
	parser := newParser(provider)

	intent := parser.Parse(context.Background(), "open vscode", "")
	if intent.Name != "open_app" {
		t.Fatalf("intent = %s, want open_app", intent.Name)
	}
	if intent.Entities["app"] != "code" {
		t.Fatalf("app alias not normalized: %v", intent.Entities)
	}
	if provider.calls != 0 {
		t.Fatal("quick parse should not hit the provider")
	}

	intent = parser.Parse(context.Background(), "search for sqlite tuning", "")
	if intent.Name != "web_search" || intent.Entities["query"] != "sqlite tuning" {
		t.Fatalf("quick search parse = %+v", intent)
	}
}

func TestParseNumericEntitiesStringified(t *testing.T) {
	provider := &stubProvider{
		content: `{"intent": "reminder", "entities": {"text": "standup", "minutes": 15}, "confidence": 0.8}`,
	}
	parser := newParser(provider)

	intent := parser.Parse(context.Background(), "remind me about standup in 15 minutes", "")
	if intent.Entities["minutes"] != "15" {
		t.Fatalf("numeric entity = %q, want %q", intent.Entities["minutes"], "15")
	}
}

func TestExtractJSONObject(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
		ok   bool
	}{
		{"bare object", `{"a":1}`, `{"a":1}`, true},
		{"leading prose", `result: {"a":1} trailing`, `{"a":1}`, true},
		{"nested object", `{"a":{"b":2}}`, `{"a":{"b":2}}`, true},
		{"brace inside string", `{"a":"}{"}`, `{"a":"}{"}`, true},
		{"unterminated", `{"a":1`, "", false},
		{"no object", `plain text`, "", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := extractJSONObject(tc.in)
			if ok != tc.ok || got != tc.want {
				t.Fatalf("extractJSONObject(%q) = (%q, %v), want (%q, %v)", tc.in, got, ok, tc.want, tc.ok)
			}
		})
	}
}

package domain

import (
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestConversationEvictsOldestBeyondCap(t *testing.T) {
	conv := NewConversation(50, 0)

	for i := 0; i < 100; i++ {
		conv.Add(fmt.Sprintf("command %d", i), "noop", nil, "ok")
	}

	history := conv.History(0)
	if len(history) != 50 {
		t.Fatalf("history length = %d, want 50", len(history))
	}
	if history[0].Command != "command 50" {
		t.Fatalf("oldest surviving turn = %q, want %q", history[0].Command, "command 50")
	}
	if history[49].Command != "command 99" {
		t.Fatalf("newest turn = %q, want %q", history[49].Command, "command 99")
	}
}

func TestConversationHistoryLimit(t *testing.T) {
	conv := NewConversation(0, 0)
	for i := 0; i < 5; i++ {
		conv.Add(fmt.Sprintf("c%d", i), "noop", nil, "ok")
	}

	got := conv.History(2)
	if len(got) != 2 || got[0].Command != "c3" || got[1].Command != "c4" {
		t.Fatalf("History(2) = %+v, want c3,c4 in order", got)
	}
}

func TestResolveReferenceSubstitutesEntity(t *testing.T) {
	conv := NewConversation(0, 0)
	conv.Add("open chrome", "open_app", map[string]string{"app": "chrome"}, "Opening Chrome")

	resolved := conv.ResolveReference("close it")
	if !strings.Contains(resolved, "chrome") {
		t.Fatalf("ResolveReference(%q) = %q, expected substitution of %q", "close it", resolved, "chrome")
	}
	if strings.Contains(strings.ToLower(resolved), " it") {
		t.Fatalf("resolved text still contains the bare pronoun: %q", resolved)
	}
}

func TestResolveReferenceWordBoundaries(t *testing.T) {
	conv := NewConversation(0, 0)
	conv.Add("open chrome", "open_app", map[string]string{"app": "chrome"}, "ok")

	// "quit" contains "it" but is not a standalone pronoun.
	if got := conv.ResolveReference("quit"); got != "quit" {
		t.Fatalf("ResolveReference(%q) = %q, want unchanged", "quit", got)
	}
}

func TestResolveReferenceWithoutAntecedent(t *testing.T) {
	conv := NewConversation(0, 0)
	if got := conv.ResolveReference("close it"); got != "close it" {
		t.Fatalf("no prior turn: ResolveReference returned %q, want input unchanged", got)
	}

	conv.Add("hello", "greeting", nil, "hi")
	if got := conv.ResolveReference("close it"); got != "close it" {
		t.Fatalf("no substitutable entity: got %q, want input unchanged", got)
	}
}

func TestResolveReferenceExpiredContext(t *testing.T) {
	conv := NewConversation(0, 5*time.Minute)
	conv.Add("open chrome", "open_app", map[string]string{"app": "chrome"}, "ok")

	current := time.Now()
	conv.now = func() time.Time { return current.Add(10 * time.Minute) }

	if got := conv.ResolveReference("close it"); got != "close it" {
		t.Fatalf("expired context: got %q, want input unchanged", got)
	}
}

func TestResolveReferenceLocation(t *testing.T) {
	conv := NewConversation(0, 0)
	conv.Add("what's the weather in tokyo", "weather", map[string]string{"location": "tokyo"}, "Sunny")

	resolved := conv.ResolveReference("book a hotel there")
	if !strings.Contains(resolved, "tokyo") {
		t.Fatalf("ResolveReference = %q, want location substitution", resolved)
	}
}

func TestSummaryCoversRecentTurns(t *testing.T) {
	conv := NewConversation(0, 0)
	if conv.Summary() != "" {
		t.Fatal("empty conversation should produce empty summary")
	}

	for i := 0; i < 5; i++ {
		conv.Add(fmt.Sprintf("command %d", i), "noop", nil, fmt.Sprintf("response %d", i))
	}

	summary := conv.Summary()
	if strings.Contains(summary, "command 1") {
		t.Fatalf("summary includes turns older than the last three: %q", summary)
	}
	for i := 2; i < 5; i++ {
		if !strings.Contains(summary, fmt.Sprintf("command %d", i)) {
			t.Fatalf("summary missing command %d: %q", i, summary)
		}
	}
}

func TestClearResetsState(t *testing.T) {
	conv := NewConversation(0, 0)
	conv.Add("open chrome", "open_app", map[string]string{"app": "chrome"}, "ok")
	conv.Clear()

	if conv.Len() != 0 || conv.LastIntent() != "" {
		t.Fatal("Clear did not reset conversation state")
	}
	if got := conv.ResolveReference("close it"); got != "close it" {
		t.Fatalf("cleared context still resolves: %q", got)
	}
}

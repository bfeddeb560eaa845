package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Conversation is the bounded rolling dialogue history for one session.
//
// A Conversation is privately owned by its session: the orchestrator
// processes commands one at a time per session, so no internal locking is
// needed. It mutates only its own buffers and performs no I/O.
type Conversation struct {
	turns      []ConversationTurn
	maxTurns   int
	timeout    time.Duration
	entities   map[string]string
	lastIntent string
	now        func() time.Time
}

// DefaultMaxTurns bounds history when no limit is configured.
const DefaultMaxTurns = 50

// NewConversation builds an empty conversation. maxTurns <= 0 selects the
// default cap; timeout <= 0 disables context expiry.
func NewConversation(maxTurns int, timeout time.Duration) *Conversation {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &Conversation{
		maxTurns: maxTurns,
		timeout:  timeout,
		entities: map[string]string{},
		now:      time.Now,
	}
}

// Add appends a completed turn, evicting the oldest entries once the cap is
// exceeded.
func (c *Conversation) Add(command, intent string, entities map[string]string, response string) {
	turn := ConversationTurn{
		Command:   command,
		Intent:    intent,
		Entities:  cloneEntities(entities),
		Response:  response,
		Timestamp: c.now(),
	}
	c.turns = append(c.turns, turn)
	if len(c.turns) > c.maxTurns {
		c.turns = c.turns[len(c.turns)-c.maxTurns:]
	}
	for k, v := range turn.Entities {
		c.entities[k] = v
	}
	c.lastIntent = intent
}

// History returns up to limit turns, most-recent-last. limit <= 0 returns
// everything. The returned slice is a copy; turns are immutable once added.
func (c *Conversation) History(limit int) []ConversationTurn {
	turns := c.turns
	if limit > 0 && len(turns) > limit {
		turns = turns[len(turns)-limit:]
	}
	out := make([]ConversationTurn, len(turns))
	copy(out, turns)
	return out
}

// Len reports the current number of retained turns.
func (c *Conversation) Len() int { return len(c.turns) }

// pronoun substitutions, checked as standalone words only
var referenceMarkers = []string{"it", "that", "this", "them", "there"}

var markerPatterns = func() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(referenceMarkers))
	for _, m := range referenceMarkers {
		patterns[m] = regexp.MustCompile(`(?i)\b` + m + `\b`)
	}
	return patterns
}()

// ResolveReference substitutes anaphoric markers ("it", "that", ...) with the
// most recent antecedent entity. Resolution is best-effort: with no prior
// turn, an expired context, or no substitutable entity, the input comes back
// unchanged. Absence of an antecedent is not an error.
func (c *Conversation) ResolveReference(text string) string {
	if !c.Valid() {
		return text
	}

	resolved := text
	for _, marker := range referenceMarkers {
		value := c.antecedent(marker)
		if value == "" {
			continue
		}
		if markerPatterns[marker].MatchString(resolved) {
			resolved = markerPatterns[marker].ReplaceAllString(resolved, value)
		}
	}
	return resolved
}

// antecedent picks the entity a marker most plausibly refers to.
func (c *Conversation) antecedent(marker string) string {
	if marker == "there" {
		return c.entities["location"]
	}
	// Priority order for what "it"/"that" likely refers to.
	for _, key := range []string{"app", "application", "file", "url", "query", "task", "item"} {
		if v := c.entities[key]; v != "" {
			return v
		}
	}
	// Fall back to the latest turn's first entity, if any.
	if len(c.turns) > 0 {
		for _, v := range c.turns[len(c.turns)-1].Entities {
			if v != "" {
				return v
			}
		}
	}
	return ""
}

// Valid reports whether the context is usable for resolution (non-empty and
// not expired).
func (c *Conversation) Valid() bool {
	if len(c.turns) == 0 {
		return false
	}
	if c.timeout <= 0 {
		return true
	}
	return c.now().Sub(c.turns[len(c.turns)-1].Timestamp) < c.timeout
}

// LastIntent returns the intent of the latest turn, or "".
func (c *Conversation) LastIntent() string { return c.lastIntent }

// LastEntities returns a copy of the latest turn's entities.
func (c *Conversation) LastEntities() map[string]string {
	if len(c.turns) == 0 {
		return map[string]string{}
	}
	return cloneEntities(c.turns[len(c.turns)-1].Entities)
}

// Summary renders the last few turns for inclusion in an LLM prompt.
func (c *Conversation) Summary() string {
	if len(c.turns) == 0 {
		return ""
	}
	recent := c.History(3)
	var b strings.Builder
	b.WriteString("Recent conversation:")
	for _, turn := range recent {
		response := turn.Response
		if len(response) > 100 {
			response = response[:100] + "..."
		}
		fmt.Fprintf(&b, "\nUser: %s\nAssistant: %s", turn.Command, response)
	}
	return b.String()
}

// Clear drops all retained state.
func (c *Conversation) Clear() {
	c.turns = nil
	c.entities = map[string]string{}
	c.lastIntent = ""
}

func cloneEntities(entities map[string]string) map[string]string {
	out := make(map[string]string, len(entities))
	for k, v := range entities {
		out[k] = v
	}
	return out
}

// Package services holds the application services composing the command
// pipeline: the intent parser and the orchestrating agent.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

const intentSystemPrompt = `You are an intent parser for a desktop voice assistant.
Extract the intent and entities from the user command.

Output ONLY a JSON object with these fields:
- intent: the action type (open_app, close_app, web_search, open_url, type_text, note, reminder, time, question, unknown)
- entities: key parameters as a string-to-string object
- confidence: your confidence from 0.0 to 1.0
- reasoning: brief explanation

Examples:
User: "Open Chrome"
{"intent": "open_app", "entities": {"app": "chrome"}, "confidence": 0.95, "reasoning": "Clear request to open the Chrome browser"}

User: "Search for Go tutorials on YouTube"
{"intent": "web_search", "entities": {"query": "Go tutorials", "site": "youtube"}, "confidence": 0.90, "reasoning": "Web search with site preference"}

User: "What time is it?"
{"intent": "time", "entities": {}, "confidence": 0.92, "reasoning": "Clock query"}

Respond ONLY with the JSON object, no other text.`

// appAliases canonicalizes spoken application names to launchable ones.
var appAliases = map[string]string{
	"google chrome":      "chrome",
	"browser":            "chrome",
	"microsoft edge":     "msedge",
	"edge":               "msedge",
	"visual studio code": "code",
	"vscode":             "code",
	"command prompt":     "cmd",
	"terminal":           "cmd",
	"file explorer":      "explorer",
	"word":               "winword",
	"powerpoint":         "powerpnt",
	"calculator":         "calc",
}

// intentToolMap binds parsed intent names to registry tool names.
var intentToolMap = map[string]string{
	"open_app":   "open_app",
	"close_app":  "close_app",
	"web_search": "web_search",
	"open_url":   "open_url",
	"note":       "note_add",
	"reminder":   "reminder_add",
	"time":       "current_time",
	"echo":       "echo",
}

// IntentParser turns raw utterances into structured intents via a
// language-model backend. It owns no state across calls; each Parse is
// independent, so concurrent sessions can share one parser.
type IntentParser struct {
	Provider ports.Provider
	Timeout  time.Duration
	Logger   ports.Logger
}

// Parse interprets one utterance. contextSummary (possibly empty) is the
// recent-dialogue rendering injected into the prompt. Parse never returns an
// error: malformed model output, timeouts, and connection failures all
// degrade to the fallback intent.
func (p *IntentParser) Parse(ctx context.Context, command, contextSummary string) domain.Intent {
	if strings.TrimSpace(command) == "" {
		return domain.FallbackIntent(command, "empty command")
	}

	if quick, ok := quickParse(command); ok {
		p.Logger.Debug("quick parse hit", map[string]interface{}{"intent": quick.Name})
		return quick
	}

	ctx, cancel := context.WithTimeout(ctx, p.timeout())
	defer cancel()

	prompt := fmt.Sprintf("Parse this command: %s", command)
	if contextSummary != "" {
		prompt = contextSummary + "\n\n" + prompt
	}

	resp, err := p.Provider.Generate(ctx, ports.ProviderRequest{
		System: intentSystemPrompt,
		Prompt: prompt,
	})
	if err != nil {
		// Timeout and transport failures are a designed degradation path,
		// not a pipeline abort.
		p.Logger.Warn("intent provider failed", map[string]interface{}{"error": err.Error()})
		return domain.FallbackIntent(command, "provider error: "+err.Error())
	}

	intent, ok := decodeIntent(resp.Content, command)
	if !ok {
		p.Logger.Warn("malformed intent response", map[string]interface{}{
			"content_length": len(resp.Content),
		})
		return domain.FallbackIntent(command, "malformed model output")
	}
	return intent
}

// ToolForIntent maps an intent name to a registry tool name, or "".
func (p *IntentParser) ToolForIntent(intent string) string {
	return intentToolMap[intent]
}

// quickParse answers common prefix patterns locally, skipping the model call.
func quickParse(command string) (domain.Intent, bool) {
	lower := strings.ToLower(strings.TrimSpace(command))

	if app, ok := strings.CutPrefix(lower, "open "); ok && app != "" {
		if !strings.Contains(app, ".") { // "open github.com" goes to the model
			return domain.Intent{
				Name:       "open_app",
				Entities:   map[string]string{"app": normalizeApp(app)},
				Confidence: 0.95,
				RawCommand: command,
				Reasoning:  "pattern match: open <app>",
			}, true
		}
	}

	if target, ok := strings.CutPrefix(lower, "close "); ok && target != "" {
		return domain.Intent{
			Name:       "close_app",
			Entities:   map[string]string{"target": target},
			Confidence: 0.90,
			RawCommand: command,
			Reasoning:  "pattern match: close <target>",
		}, true
	}

	for _, prefix := range []string{"search for ", "google ", "look up "} {
		if query, ok := strings.CutPrefix(lower, prefix); ok && query != "" {
			return domain.Intent{
				Name:       "web_search",
				Entities:   map[string]string{"query": query},
				Confidence: 0.92,
				RawCommand: command,
				Reasoning:  "pattern match: search",
			}, true
		}
	}

	return domain.Intent{}, false
}

func normalizeApp(app string) string {
	if canonical, ok := appAliases[strings.TrimSpace(app)]; ok {
		return canonical
	}
	return strings.TrimSpace(app)
}

// intentWire is the JSON shape requested from the model. Entity values may
// come back as numbers; they are normalized to strings.
type intentWire struct {
	Intent     string                 `json:"intent"`
	Entities   map[string]interface{} `json:"entities"`
	Confidence float64                `json:"confidence"`
	Reasoning  string                 `json:"reasoning"`
}

func decodeIntent(content, command string) (domain.Intent, bool) {
	payload, ok := extractJSONObject(content)
	if !ok {
		return domain.Intent{}, false
	}

	var wire intentWire
	if err := json.Unmarshal([]byte(payload), &wire); err != nil {
		return domain.Intent{}, false
	}
	if wire.Intent == "" {
		return domain.Intent{}, false
	}

	entities := make(map[string]string, len(wire.Entities))
	for key, value := range wire.Entities {
		entities[key] = stringifyEntity(value)
	}
	if app, ok := entities["app"]; ok {
		entities["app"] = normalizeApp(app)
	}

	return domain.Intent{
		Name:       wire.Intent,
		Entities:   entities,
		Confidence: wire.Confidence,
		RawCommand: command,
		Reasoning:  wire.Reasoning,
	}, true
}

// extractJSONObject returns the first balanced top-level JSON object embedded
// in text, tolerating surrounding prose. Brace counting is string-aware so
// braces inside quoted values do not confuse it.
func extractJSONObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

func stringifyEntity(value interface{}) string {
	switch v := value.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	case nil:
		return ""
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(raw)
	}
}

func (p *IntentParser) timeout() time.Duration {
	if p.Timeout > 0 {
		return p.Timeout
	}
	return 30 * time.Second
}

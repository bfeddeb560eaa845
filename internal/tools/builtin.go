package tools

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

// SystemProvider contributes the always-available local tools.
type SystemProvider struct{}

func (SystemProvider) Name() string        { return "system" }
func (SystemProvider) Description() string { return "Clock, echo and app launching" }

func (SystemProvider) Tools() []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        "current_time",
			Description: "Report the current date and time",
			Category:    "system",
			Risk:        domain.RiskLow,
			Examples:    []string{"what time is it", "what's the date"},
			Handler: func(context.Context, map[string]string) (string, error) {
				return time.Now().Format("Monday, January 2 2006, 15:04"), nil
			},
		},
		{
			Name:        "echo",
			Description: "Repeat the given text back",
			Category:    "system",
			Risk:        domain.RiskLow,
			Parameters:  map[string]string{"text": "text to repeat"},
			Handler: func(_ context.Context, args map[string]string) (string, error) {
				return args["text"], nil
			},
		},
		{
			Name:        "open_app",
			Description: "Open an application by name",
			Category:    "system",
			Risk:        domain.RiskMedium,
			Parameters:  map[string]string{"app": "application name"},
			Examples:    []string{"open chrome", "open notepad"},
			Handler: func(_ context.Context, args map[string]string) (string, error) {
				app := args["app"]
				if app == "" {
					return "", fmt.Errorf("missing app name")
				}
				return fmt.Sprintf("Opening %s", app), nil
			},
		},
		{
			Name:        "close_app",
			Description: "Close an application or window",
			Category:    "system",
			Risk:        domain.RiskMedium,
			Parameters:  map[string]string{"target": "application or window name"},
			Handler: func(_ context.Context, args map[string]string) (string, error) {
				target := args["target"]
				if target == "" {
					return "", fmt.Errorf("missing close target")
				}
				return fmt.Sprintf("Closing %s", target), nil
			},
		},
	}
}

// WebProvider contributes URL-building web tools. Actually opening a browser
// is left to the hosting environment.
type WebProvider struct{}

func (WebProvider) Name() string        { return "web" }
func (WebProvider) Description() string { return "Web search and URL handling" }

func (WebProvider) Tools() []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        "web_search",
			Description: "Search the web",
			Category:    "web",
			Risk:        domain.RiskLow,
			Parameters:  map[string]string{"query": "search terms", "engine": "google|bing|duckduckgo"},
			Examples:    []string{"search for go generics", "look up sqlite pragmas"},
			Handler: func(_ context.Context, args map[string]string) (string, error) {
				query := args["query"]
				if query == "" {
					return "", fmt.Errorf("missing query")
				}
				base := map[string]string{
					"google":     "https://www.google.com/search?q=",
					"bing":       "https://www.bing.com/search?q=",
					"duckduckgo": "https://duckduckgo.com/?q=",
				}
				engine := args["engine"]
				prefix, ok := base[engine]
				if !ok {
					prefix = base["google"]
				}
				return fmt.Sprintf("Searching: %s%s", prefix, url.QueryEscape(query)), nil
			},
		},
		{
			Name:        "open_url",
			Description: "Open a URL",
			Category:    "web",
			Risk:        domain.RiskLow,
			Parameters:  map[string]string{"url": "address to open"},
			Handler: func(_ context.Context, args map[string]string) (string, error) {
				raw := args["url"]
				if raw == "" {
					return "", fmt.Errorf("missing url")
				}
				if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
					raw = "https://" + raw
				}
				return fmt.Sprintf("Opening %s", raw), nil
			},
		},
	}
}

const (
	noteFactPrefix     = "note:"
	reminderFactPrefix = "reminder:"
)

// ProductivityProvider contributes note and reminder tools persisted through
// the memory system, so the store is exercised from the tool layer too.
type ProductivityProvider struct {
	Memory ports.MemoryRepository
	Logger ports.Logger
}

func (p *ProductivityProvider) Name() string        { return "productivity" }
func (p *ProductivityProvider) Description() string { return "Notes and reminders" }

// OnLoad verifies storage is reachable before the tools go live.
func (p *ProductivityProvider) OnLoad() error {
	if p.Memory == nil {
		return fmt.Errorf("productivity provider requires a memory repository")
	}
	return nil
}

// OnUnload is a no-op; notes stay persisted.
func (p *ProductivityProvider) OnUnload() error { return nil }

func (p *ProductivityProvider) Tools() []domain.ToolDescriptor {
	return []domain.ToolDescriptor{
		{
			Name:        "note_add",
			Description: "Save a note",
			Category:    "productivity",
			Risk:        domain.RiskLow,
			Parameters:  map[string]string{"text": "note body"},
			Examples:    []string{"note that the standup moved to 10am"},
			Handler: func(_ context.Context, args map[string]string) (string, error) {
				text := args["text"]
				if text == "" {
					return "", fmt.Errorf("missing note text")
				}
				key := noteFactPrefix + uuid.NewString()
				if err := p.Memory.StoreFact(key, text); err != nil {
					return "", fmt.Errorf("save note: %w", err)
				}
				return "Noted.", nil
			},
		},
		{
			Name:        "note_list",
			Description: "List saved notes",
			Category:    "productivity",
			Risk:        domain.RiskLow,
			Handler: func(context.Context, map[string]string) (string, error) {
				notes, err := p.factsWithPrefix(noteFactPrefix)
				if err != nil {
					return "", err
				}
				if len(notes) == 0 {
					return "No notes yet.", nil
				}
				return strings.Join(notes, "\n"), nil
			},
		},
		{
			Name:        "reminder_add",
			Description: "Save a reminder",
			Category:    "productivity",
			Risk:        domain.RiskLow,
			Parameters:  map[string]string{"text": "what to remind about", "when": "free-form time"},
			Handler: func(_ context.Context, args map[string]string) (string, error) {
				text := args["text"]
				if text == "" {
					return "", fmt.Errorf("missing reminder text")
				}
				when := args["when"]
				if when == "" {
					when = "unscheduled"
				}
				key := reminderFactPrefix + uuid.NewString()
				if err := p.Memory.StoreFact(key, fmt.Sprintf("%s (%s)", text, when)); err != nil {
					return "", fmt.Errorf("save reminder: %w", err)
				}
				return fmt.Sprintf("Reminder saved for %s.", when), nil
			},
		},
	}
}

func (p *ProductivityProvider) factsWithPrefix(prefix string) ([]string, error) {
	facts, err := p.Memory.Facts()
	if err != nil {
		return nil, fmt.Errorf("load facts: %w", err)
	}
	var out []string
	for key, value := range facts {
		if strings.HasPrefix(key, prefix) {
			out = append(out, "- "+value)
		}
	}
	sort.Strings(out)
	return out, nil
}

var (
	_ ports.ToolProvider   = SystemProvider{}
	_ ports.ToolProvider   = WebProvider{}
	_ ports.ToolProvider   = (*ProductivityProvider)(nil)
	_ ports.LifecycleHooks = (*ProductivityProvider)(nil)
)

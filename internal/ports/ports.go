// Package ports defines the interfaces between the application core and the
// infrastructure adapters.
//
// Following the ports-and-adapters pattern, the pipeline services depend only
// on these abstractions; concrete implementations (SQLite store, HTTP model
// providers, embedding engines) live in the infrastructure layer and are
// wired together once at bootstrap by internal/app.
package ports

import (
	"context"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
)

// ConfigProvider loads the startup configuration snapshot.
type ConfigProvider interface {
	Load(context.Context) (domain.Config, error)
}

// Provider is the language-model backend consumed by the intent parser.
// Implementations must honor ctx cancellation; the parser bounds every call
// with the configured timeout. Any error (non-2xx, timeout, connection
// failure) is recovered by the caller as a fallback intent, never propagated.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req ProviderRequest) (ProviderResponse, error)
}

// ProviderRequest carries one prompt to the model.
type ProviderRequest struct {
	System string
	Prompt string
}

// ProviderResponse is the raw model output. Content may embed the requested
// JSON object inside free-form prose; the parser extracts it tolerantly.
type ProviderResponse struct {
	Content string
}

// MemoryRepository is the durable store for the audit log, preferences, and
// facts. Implementations serialize all writes; reads observe a consistent
// snapshot.
type MemoryRepository interface {
	LogCommand(record domain.CommandRecord) error
	RecentCommands(limit int) ([]domain.CommandRecord, error)
	CommandStats() (domain.CommandStats, error)

	StorePreference(key, value string) error
	Preference(key string) (string, bool, error)

	StoreFact(key, value string) error
	Facts() (map[string]string, error)

	Close() error
}

// SemanticSearcher is the optional recall capability over past interactions.
// Memory stores probe for it at wiring time; absence means recall degrades to
// exact key lookup.
type SemanticSearcher interface {
	Remember(ctx context.Context, content, kind string) error
	Search(ctx context.Context, query string, k int) ([]domain.MemoryHit, error)
}

// EmbeddingEngine turns text into vectors for semantic recall.
type EmbeddingEngine interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	Dimensions() int
	Name() string
}

// ToolProvider is the plugin-shaped contract for contributing tools. The
// three methods are required; registration fails loudly if a returned
// descriptor is invalid (empty name, nil handler).
type ToolProvider interface {
	Name() string
	Description() string
	Tools() []domain.ToolDescriptor
}

// LifecycleHooks is the optional capability surface of a ToolProvider,
// probed by type assertion at registration and deregistration time.
type LifecycleHooks interface {
	OnLoad() error
	OnUnload() error
}

// ToolDispatcher is the registry surface the orchestrator needs: descriptor
// lookup for risk classification and fault-absorbing dispatch.
type ToolDispatcher interface {
	Get(name string) (domain.ToolDescriptor, bool)
	Execute(ctx context.Context, name string, args map[string]string) domain.ToolResult
}

// Listener is a background utterance producer (continuous dictation,
// scheduled reminders). It pushes into the session intake rather than calling
// pipeline components directly, and must stop promptly when ctx is canceled,
// bounded by one in-flight unit of work.
type Listener interface {
	Listen(ctx context.Context, intake chan<- string) error
}

// Logger is the structured logging abstraction used throughout the
// application layer.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error, fields map[string]interface{})
}

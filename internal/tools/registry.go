// Package tools implements the tool registry: named, risk-classified
// capabilities that the orchestrator dispatches to.
//
// The registry is the single boundary where tool-implementation faults are
// converted into data. A handler returning an error, or panicking outright,
// surfaces as a failed ToolResult; nothing above this layer ever sees an
// uncaught fault from a tool body.
package tools

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
)

// ErrInvalidDescriptor rejects registration of tools missing a name or
// handler.
var ErrInvalidDescriptor = errors.New("invalid tool descriptor")

// Registry maps tool names to descriptors and dispatches by name.
type Registry struct {
	mu        sync.RWMutex
	tools     map[string]domain.ToolDescriptor
	order     []string
	providers map[string]ports.ToolProvider
	logger    ports.Logger
}

// NewRegistry builds an empty registry.
func NewRegistry(log ports.Logger) *Registry {
	return &Registry{
		tools:     map[string]domain.ToolDescriptor{},
		providers: map[string]ports.ToolProvider{},
		logger:    log,
	}
}

// Register inserts a descriptor, overwriting any previous registration under
// the same name. Overwriting is deliberate (last-registered wins) and logged
// so it never happens silently.
func (r *Registry) Register(desc domain.ToolDescriptor) error {
	if desc.Name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidDescriptor)
	}
	if desc.Handler == nil {
		return fmt.Errorf("%w: %s has no handler", ErrInvalidDescriptor, desc.Name)
	}
	if desc.Risk == "" {
		desc.Risk = domain.RiskLow
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[desc.Name]; exists {
		r.logger.Warn("overwriting registered tool", map[string]interface{}{"tool": desc.Name})
	} else {
		r.order = append(r.order, desc.Name)
	}
	r.tools[desc.Name] = desc
	return nil
}

// RegisterProvider validates and registers every tool a provider contributes,
// then invokes its OnLoad hook if it has one. A single invalid descriptor
// fails the whole provider.
func (r *Registry) RegisterProvider(provider ports.ToolProvider) error {
	if provider.Name() == "" {
		return fmt.Errorf("%w: provider with empty name", ErrInvalidDescriptor)
	}
	descriptors := provider.Tools()
	for _, desc := range descriptors {
		if desc.Name == "" || desc.Handler == nil {
			return fmt.Errorf("%w: provider %s contributes a malformed tool %q",
				ErrInvalidDescriptor, provider.Name(), desc.Name)
		}
	}
	for _, desc := range descriptors {
		if err := r.Register(desc); err != nil {
			return err
		}
	}

	if hooks, ok := provider.(ports.LifecycleHooks); ok {
		if err := hooks.OnLoad(); err != nil {
			return fmt.Errorf("provider %s OnLoad: %w", provider.Name(), err)
		}
	}

	r.mu.Lock()
	r.providers[provider.Name()] = provider
	r.mu.Unlock()

	r.logger.Info("tool provider registered", map[string]interface{}{
		"provider": provider.Name(),
		"tools":    len(descriptors),
	})
	return nil
}

// UnregisterProvider removes a provider's tools and fires its OnUnload hook.
func (r *Registry) UnregisterProvider(name string) error {
	r.mu.Lock()
	provider, ok := r.providers[name]
	if !ok {
		r.mu.Unlock()
		return fmt.Errorf("provider %s not registered", name)
	}
	delete(r.providers, name)
	for _, desc := range provider.Tools() {
		delete(r.tools, desc.Name)
		r.order = removeName(r.order, desc.Name)
	}
	r.mu.Unlock()

	if hooks, ok := provider.(ports.LifecycleHooks); ok {
		if err := hooks.OnUnload(); err != nil {
			return fmt.Errorf("provider %s OnUnload: %w", name, err)
		}
	}
	return nil
}

// Get looks up a descriptor by name.
func (r *Registry) Get(name string) (domain.ToolDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	desc, ok := r.tools[name]
	return desc, ok
}

// List returns descriptors in registration order, optionally filtered by
// category.
func (r *Registry) List(category string) []domain.ToolDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.ToolDescriptor, 0, len(r.order))
	for _, name := range r.order {
		desc := r.tools[name]
		if category != "" && desc.Category != category {
			continue
		}
		out = append(out, desc)
	}
	return out
}

// Execute dispatches to a tool by name. It always returns a ToolResult: an
// unknown name, a handler error, and a handler panic all come back as a
// failed result, never as a raised fault.
func (r *Registry) Execute(ctx context.Context, name string, args map[string]string) (result domain.ToolResult) {
	desc, ok := r.Get(name)
	if !ok {
		return domain.ToolResult{Success: false, Error: fmt.Sprintf("tool not found: %s", name)}
	}

	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Error("tool handler panicked", fmt.Errorf("%v", rec),
				map[string]interface{}{"tool": name})
			result = domain.ToolResult{Success: false, Error: fmt.Sprintf("tool %s panicked: %v", name, rec)}
		}
	}()

	output, err := desc.Handler(ctx, args)
	if err != nil {
		return domain.ToolResult{Success: false, Error: err.Error()}
	}
	return domain.ToolResult{Success: true, Output: output}
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}

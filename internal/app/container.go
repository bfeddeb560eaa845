// Package app wires application services with infrastructure adapters.
package app

import (
	"context"
	"fmt"

	"github.com/harshaljain-cs/jarvis-go/internal/domain"
	"github.com/harshaljain-cs/jarvis-go/internal/infrastructure/ai"
	"github.com/harshaljain-cs/jarvis-go/internal/infrastructure/config"
	"github.com/harshaljain-cs/jarvis-go/internal/infrastructure/embedding"
	"github.com/harshaljain-cs/jarvis-go/internal/infrastructure/memory"
	"github.com/harshaljain-cs/jarvis-go/internal/pkg/logger"
	"github.com/harshaljain-cs/jarvis-go/internal/ports"
	"github.com/harshaljain-cs/jarvis-go/internal/services"
	"github.com/harshaljain-cs/jarvis-go/internal/tools"
)

// Container holds the constructed dependency graph.
type Container struct {
	Agent        *services.Agent
	Config       domain.Config
	ConfigLoader *config.FileLoader
	Registry     *tools.Registry
	Memory       *memory.SQLiteStore
	Logger       *logger.ZapLogger
}

// BuildContainer constructs the dependency graph. An invalid configuration is
// fatal here: the pipeline must not start with undefined gate semantics.
func BuildContainer(ctx context.Context, verbose bool, configPath string) (*Container, error) {
	cfgLoader := config.NewFileLoader(configPath)
	cfg, err := cfgLoader.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	log := logger.NewZap(verbose)

	provider, err := ai.NewProvider(cfg.LLM)
	if err != nil {
		return nil, fmt.Errorf("model provider: %w", err)
	}

	store, err := memory.NewSQLiteStore(cfg.Memory.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open memory store: %w", err)
	}

	engine, err := embedding.NewEngine(cfg.Embedding)
	if err != nil {
		log.Warn("embedding engine unavailable, recall degrades to keywords",
			map[string]interface{}{"error": err.Error()})
		engine = nil
	}
	var recall ports.SemanticSearcher = memory.NewSemanticIndex(store, engine, log)

	registry := tools.NewRegistry(log)
	providers := []ports.ToolProvider{
		tools.SystemProvider{},
		tools.WebProvider{},
		&tools.ProductivityProvider{Memory: store, Logger: log},
	}
	for _, p := range providers {
		if err := registry.RegisterProvider(p); err != nil {
			store.Close()
			return nil, fmt.Errorf("register tool provider %s: %w", p.Name(), err)
		}
	}

	agent := &services.Agent{
		Parser: &services.IntentParser{
			Provider: provider,
			Timeout:  cfg.LLM.Timeout(),
			Logger:   log,
		},
		Scorer:   domain.NewConfidenceScorer(cfg.Confidence),
		Registry: registry,
		Memory:   store,
		Recall:   recall,
		Logger:   log,
		Config:   cfg,
	}

	return &Container{
		Agent:        agent,
		Config:       cfg,
		ConfigLoader: cfgLoader,
		Registry:     registry,
		Memory:       store,
		Logger:       log,
	}, nil
}

// Close releases long-lived resources.
func (c *Container) Close() error {
	c.Logger.Sync()
	return c.Memory.Close()
}

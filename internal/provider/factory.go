package provider

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"

	"mentionbot/internal/config"
	"mentionbot/internal/domain"
)

// Constructor builds a completion backend from the llm config section.
type Constructor func(cfg config.LLMConfig, logger *slog.Logger) domain.CompletionService

// Factory maps llm.provider names to backends.
type Factory struct {
	cfg          config.LLMConfig
	logger       *slog.Logger
	mu           sync.RWMutex
	constructors map[string]Constructor
}

// NewFactory creates a factory with the built-in backends registered.
func NewFactory(cfg config.LLMConfig, logger *slog.Logger) *Factory {
	f := &Factory{
		cfg:          cfg,
		logger:       logger,
		constructors: make(map[string]Constructor),
	}
	f.registerDefaults()
	return f
}

// RegisterConstructor adds (or replaces) a backend constructor by name.
func (f *Factory) RegisterConstructor(name string, ctor Constructor) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.constructors[name] = ctor
}

func (f *Factory) registerDefaults() {
	f.constructors[config.ProviderOpenAI] = func(c config.LLMConfig, logger *slog.Logger) domain.CompletionService {
		return NewOpenAI(OpenAIConfig{APIKey: c.APIKey, APIBase: c.APIBase, Timeout: c.Timeout, Logger: logger})
	}
	f.constructors[config.ProviderAnthropic] = func(c config.LLMConfig, logger *slog.Logger) domain.CompletionService {
		return NewAnthropic(AnthropicConfig{APIKey: c.APIKey, APIBase: c.APIBase, Timeout: c.Timeout, Logger: logger})
	}
}

// Names lists the registered backends.
func (f *Factory) Names() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()
	names := make([]string, 0, len(f.constructors))
	for n := range f.constructors {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Get returns the backend named by llm.provider.
func (f *Factory) Get() (domain.CompletionService, error) {
	f.mu.RLock()
	ctor, ok := f.constructors[f.cfg.Provider]
	f.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown completion provider: %s", f.cfg.Provider)
	}
	return ctor(f.cfg, f.logger), nil
}

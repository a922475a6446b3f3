package llm

import (
	"fmt"

	"dmeflow/internal/config"
	"dmeflow/internal/port"
)

// ProviderFactory creates an LLMClient from a provider config.
type ProviderFactory func(cfg *config.LLMProviderConfig) (port.LLMClient, error)

// registry of client provider factories, populated explicitly via
// RegisterProvider at startup.
var providers = map[string]ProviderFactory{}

// RegisterProvider registers a client provider factory by name.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewClient creates an LLMClient from a provider config using the registered factory.
func NewClient(cfg *config.LLMProviderConfig) (port.LLMClient, error) {
	factory, ok := providers[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
	return factory(cfg)
}

// NewClientFromConfig builds the process-wide LLMClient from the full LLM
// section: primary only, or primary with secondary fallback. Returns nil when
// no provider is configured; callers treat a nil client as "no credentials".
func NewClientFromConfig(cfg *config.LLMConfig) (port.LLMClient, error) {
	if !cfg.Configured() {
		return nil, nil
	}

	var clients []port.LLMClient
	var names []string

	if cfg.Primary.Configured() {
		c, err := NewClient(&cfg.Primary)
		if err != nil {
			return nil, fmt.Errorf("building primary llm client: %w", err)
		}
		clients = append(clients, c)
		names = append(names, cfg.Primary.Provider)
	}
	if cfg.Secondary.Configured() {
		c, err := NewClient(&cfg.Secondary)
		if err != nil {
			return nil, fmt.Errorf("building secondary llm client: %w", err)
		}
		clients = append(clients, c)
		names = append(names, cfg.Secondary.Provider)
	}

	if len(clients) == 1 {
		return clients[0], nil
	}
	return NewFallbackClient(clients, names), nil
}

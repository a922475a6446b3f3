// Package providers registers all known LLM provider factories. Import it
// for side effects from any binary that builds clients via llm.NewClient.
package providers

import (
	"dmeflow/internal/config"
	"dmeflow/internal/llm"
	"dmeflow/internal/llm/anthropic"
	"dmeflow/internal/llm/openai"
	"dmeflow/internal/port"
)

func init() {
	llm.RegisterProvider("openai", func(cfg *config.LLMProviderConfig) (port.LLMClient, error) {
		return openai.NewClient(cfg), nil
	})
	llm.RegisterProvider("anthropic", func(cfg *config.LLMProviderConfig) (port.LLMClient, error) {
		return anthropic.NewClient(cfg), nil
	})
}

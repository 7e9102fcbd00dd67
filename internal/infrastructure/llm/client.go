// Package llm adapts generation providers to ports.ChatClient.
package llm

import (
	"context"
	"fmt"

	"NewsDigest/internal/config"
	"NewsDigest/internal/ports"
)

// NewClient returns the chat client for the configured provider.
func NewClient(ctx context.Context, cfg config.LLMConfig) (ports.ChatClient, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		client, err := NewGeminiClient(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderOpenRouter, "":
		return NewChatGPTClient(cfg), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

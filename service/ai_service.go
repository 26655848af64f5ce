package service

import (
	"context"
	"log"

	"github.com/chali-ug/chali-be/types"
)

// Generator is a single generation provider. Implementations make exactly
// one attempt per call; retry and fallback policy belongs to the chain.
type Generator interface {
	Name() string
	Generate(ctx context.Context, system string, history []types.ConversationTurn, message string) (string, error)
}

// ProviderChain tries an ordered list of generation providers until one
// succeeds or the list is exhausted. With a single provider this collapses
// to fail-fast; richer deployments list a fallback.
type ProviderChain struct {
	generators []Generator
}

func NewProviderChain(generators ...Generator) *ProviderChain {
	return &ProviderChain{generators: generators}
}

// Generate returns the first successful provider's text along with that
// provider's name. When every provider fails, the last failure is
// returned.
func (c *ProviderChain) Generate(ctx context.Context, system string, history []types.ConversationTurn, message string) (string, string, error) {
	if len(c.generators) == 0 {
		return "", "", types.NewPipelineError(types.ErrKindGeneration, "no generation providers configured", nil)
	}

	var lastErr error
	for _, g := range c.generators {
		text, err := g.Generate(ctx, system, history, message)
		if err == nil {
			return text, g.Name(), nil
		}
		lastErr = err
		log.Printf("generation: provider %s failed: %v", g.Name(), err)
	}
	return "", "", lastErr
}

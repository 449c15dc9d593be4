package prompt

import (
	"context"
	"math/rand/v2"

	"github.com/julianstephens/jotlit/internal/constants"
	"github.com/julianstephens/jotlit/internal/logger"
)

// Generator always yields a prompt: the remote provider when it answers,
// otherwise one of the fallback prompts.
type Generator struct {
	provider  Provider
	fallbacks []string
	intn      func(n int) int
}

type Option func(*Generator)

// WithFallbacks replaces the built-in fallback prompts. An empty list is ignored.
func WithFallbacks(prompts []string) Option {
	return func(g *Generator) {
		if len(prompts) > 0 {
			g.fallbacks = prompts
		}
	}
}

// WithIntn sets the random source used to pick a fallback prompt.
func WithIntn(intn func(n int) int) Option {
	return func(g *Generator) {
		g.intn = intn
	}
}

// NewGenerator accepts a nil provider, in which case only fallbacks are used.
func NewGenerator(provider Provider, opts ...Option) *Generator {
	g := &Generator{
		provider:  provider,
		fallbacks: constants.FallbackPrompts,
		intn:      rand.IntN,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns a non-empty prompt. Provider errors are logged and never
// returned.
func (g *Generator) Generate(ctx context.Context) string {
	if g.provider != nil {
		p, err := g.provider.FetchPrompt(ctx)
		if err == nil && p != "" {
			return p
		}
		logger.Warn("Error fetching prompt, used fallback prompt", "error", err)
	}
	return g.Fallback()
}

// Fallback picks one of the local prompts uniformly at random.
func (g *Generator) Fallback() string {
	return g.fallbacks[g.intn(len(g.fallbacks))]
}

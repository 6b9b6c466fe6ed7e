package generativeAI

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/FACorreiaa/travel-assistant/internal/types"
)

const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
)

// Embedder turns texts into vectors, one vector per input text in order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Completer answers a prompt with a single chat completion.
type Completer interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}

// Provider is a hosted model backend offering both capabilities.
type Provider interface {
	Embedder
	Completer
	Name() string
}

// ProviderConfig selects and configures a backend.
type ProviderConfig struct {
	Name           string
	EmbeddingModel string
	ChatModel      string
	OpenAIKey      string
	GeminiKey      string
}

// NewProvider builds the configured backend wrapped with tracing and metrics.
func NewProvider(ctx context.Context, cfg ProviderConfig, logger *slog.Logger) (Provider, error) {
	var (
		p   Provider
		err error
	)
	switch cfg.Name {
	case ProviderOpenAI, "":
		p, err = NewOpenAIClient(cfg.OpenAIKey, cfg.EmbeddingModel, cfg.ChatModel)
	case ProviderGemini:
		p, err = NewAIClient(ctx, cfg.GeminiKey, cfg.EmbeddingModel, cfg.ChatModel)
	default:
		return nil, fmt.Errorf("%w: %q", types.ErrUnknownProvider, cfg.Name)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("Provider initialised", slog.String("provider", p.Name()))
	return NewInstrumentedProvider(p, logger), nil
}

// EmbedOne embeds a single text.
func EmbedOne(ctx context.Context, e Embedder, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 || len(vectors[0]) == 0 {
		return nil, types.ErrEmptyEmbedding
	}
	return vectors[0], nil
}

package generativeAI

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"github.com/FACorreiaa/travel-assistant/internal/types"
)

const (
	defaultGeminiChatModel      = "gemini-2.0-flash"
	defaultGeminiEmbeddingModel = "text-embedding-004"
)

var _ Provider = (*AIClient)(nil)

// AIClient is the Gemini backend.
type AIClient struct {
	client         *genai.Client
	model          string
	embeddingModel string
}

func NewAIClient(ctx context.Context, apiKey, embeddingModel, chatModel string) (*AIClient, error) {
	if apiKey == "" {
		return nil, errors.New("GOOGLE_GEMINI_API_KEY is not set")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	if chatModel == "" {
		chatModel = defaultGeminiChatModel
	}
	if embeddingModel == "" {
		embeddingModel = defaultGeminiEmbeddingModel
	}
	return &AIClient{
		client:         client,
		model:          chatModel,
		embeddingModel: embeddingModel,
	}, nil
}

func (ai *AIClient) Name() string {
	return ProviderGemini
}

func (ai *AIClient) Complete(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr[float32](0.2),
	}
	if system != "" {
		config.SystemInstruction = &genai.Content{Parts: []*genai.Part{{Text: system}}}
	}
	result, err := ai.client.Models.GenerateContent(ctx, ai.model, genai.Text(prompt), config)
	if err != nil {
		return "", fmt.Errorf("gemini generate content: %w", err)
	}
	return result.Text(), nil
}

func (ai *AIClient) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = &genai.Content{Parts: []*genai.Part{{Text: text}}}
	}
	resp, err := ai.client.Models.EmbedContent(ctx, ai.embeddingModel, contents, nil)
	if err != nil {
		return nil, fmt.Errorf("gemini embed content: %w", err)
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d texts", types.ErrEmptyEmbedding, len(resp.Embeddings), len(texts))
	}
	out := make([][]float32, len(resp.Embeddings))
	for i, e := range resp.Embeddings {
		out[i] = e.Values
	}
	return out, nil
}

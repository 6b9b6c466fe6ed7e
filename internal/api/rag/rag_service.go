package rag

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/travel-assistant/app/observability/metrics"
	generativeAI "github.com/FACorreiaa/travel-assistant/internal/api/generative_ai"
	"github.com/FACorreiaa/travel-assistant/internal/types"
)

const (
	defaultTopK           = 4
	defaultEmbedBatchSize = 64
)

const answerInstructions = `You are a travel assistant. Use the following pieces of context to answer the question at the end.
If the context does not contain the answer, say that you don't know instead of making one up.`

type ServiceImpl struct {
	logger     *slog.Logger
	repository Repository
	provider   generativeAI.Provider
	topK       int
	batchSize  int
}

func NewServiceImpl(repository Repository, provider generativeAI.Provider, topK, batchSize int, logger *slog.Logger) *ServiceImpl {
	if topK <= 0 {
		topK = defaultTopK
	}
	if batchSize <= 0 {
		batchSize = defaultEmbedBatchSize
	}
	return &ServiceImpl{
		logger:     logger,
		repository: repository,
		provider:   provider,
		topK:       topK,
		batchSize:  batchSize,
	}
}

// NewChain fetches the whole corpus, embeds it and stores the vectors, then
// returns a chain answering questions against the fresh index. Every call
// rebuilds the index from scratch.
func (s *ServiceImpl) NewChain(ctx context.Context) (*Chain, error) {
	ctx, span := otel.Tracer("RagService").Start(ctx, "NewChain")
	defer span.End()

	l := s.logger.With(slog.String("method", "NewChain"))

	docs, err := s.repository.ListDocuments(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "ListDocuments failed")
		return nil, fmt.Errorf("failed to load corpus: %w", err)
	}

	indexed := make([]types.VectorDocument, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.Content) != "" {
			indexed = append(indexed, doc)
		}
	}

	for start := 0; start < len(indexed); start += s.batchSize {
		end := min(start+s.batchSize, len(indexed))
		texts := make([]string, 0, end-start)
		for _, doc := range indexed[start:end] {
			texts = append(texts, doc.Content)
		}

		vectors, err := s.provider.Embed(ctx, texts)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "Embed failed")
			return nil, fmt.Errorf("failed to embed corpus: %w", err)
		}
		if len(vectors) != len(texts) {
			err = fmt.Errorf("%w: got %d vectors for %d documents", types.ErrEmptyEmbedding, len(vectors), len(texts))
			span.RecordError(err)
			return nil, err
		}
		for i, v := range vectors {
			indexed[start+i].Embedding = v
		}
	}

	if err := s.repository.UpdateEmbeddings(ctx, indexed); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "UpdateEmbeddings failed")
		return nil, fmt.Errorf("failed to store corpus embeddings: %w", err)
	}

	l.InfoContext(ctx, "Q&A index built",
		slog.Int("documents", len(indexed)),
		slog.Int("skipped", len(docs)-len(indexed)),
		slog.String("provider", s.provider.Name()))
	span.SetAttributes(attribute.Int("documents.count", len(indexed)))
	span.SetStatus(codes.Ok, "Chain built")

	return &Chain{
		logger:     s.logger,
		repository: s.repository,
		provider:   s.provider,
		topK:       s.topK,
		Documents:  len(indexed),
	}, nil
}

// Chain answers questions by retrieving the closest documents and handing
// them to the completion model.
type Chain struct {
	logger     *slog.Logger
	repository Repository
	provider   generativeAI.Provider
	topK       int

	Documents int
}

func (c *Chain) Ask(ctx context.Context, question string) (string, error) {
	ctx, span := otel.Tracer("RagService").Start(ctx, "Ask", trace.WithAttributes(
		attribute.Int("question.length", len(question)),
		attribute.Int("k", c.topK),
	))
	defer span.End()

	embedding, err := generativeAI.EmbedOne(ctx, c.provider, question)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Embed failed")
		return "", fmt.Errorf("failed to embed question: %w", err)
	}

	docs, err := c.repository.FindSimilar(ctx, embedding, c.topK)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "FindSimilar failed")
		return "", fmt.Errorf("failed to retrieve context: %w", err)
	}

	answer, err := c.provider.Complete(ctx, answerInstructions, buildPrompt(question, docs))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "Complete failed")
		return "", fmt.Errorf("failed to answer question: %w", err)
	}

	metrics.Get().QuestionsTotal.Add(ctx, 1)
	c.logger.DebugContext(ctx, "Question answered", slog.Int("context.documents", len(docs)))
	span.SetAttributes(attribute.Int("context.documents", len(docs)))
	span.SetStatus(codes.Ok, "Answered")
	return strings.TrimSpace(answer), nil
}

func buildPrompt(question string, docs []types.VectorDocument) string {
	var sb strings.Builder
	sb.WriteString("Context:\n")
	for _, doc := range docs {
		sb.WriteString(doc.Content)
		sb.WriteString("\n\n")
	}
	sb.WriteString("Question: ")
	sb.WriteString(question)
	sb.WriteString("\nHelpful Answer:")
	return sb.String()
}

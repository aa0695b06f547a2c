package llm

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig holds the configuration for the hosted-OpenAI provider.
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string // optional; empty means api.openai.com
	Model       string
	EmbedModel  string
	Dimensions  int
	MaxTokens   int
	Temperature float32
}

// DefaultOpenAIConfig returns an OpenAIConfig with default values.
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Model:       openai.GPT4oMini,
		EmbedModel:  string(openai.SmallEmbedding3),
		Dimensions:  1536,
		MaxTokens:   1024,
		Temperature: 0.1,
	}
}

// OpenAI implements Embedder and Generator against the OpenAI API.
type OpenAI struct {
	client *openai.Client
	cfg    OpenAIConfig
}

// NewOpenAI creates an OpenAI provider.
func NewOpenAI(cfg OpenAIConfig) *OpenAI {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &OpenAI{client: openai.NewClientWithConfig(clientCfg), cfg: cfg}
}

// Dimensions reports the embedding dimension of the configured model.
func (o *OpenAI) Dimensions() int { return o.cfg.Dimensions }

// Embed fetches embeddings for the input texts, one vector per text, in order.
func (o *OpenAI) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("%w: input is empty", ErrEmbedding)
	}

	resp, err := o.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: input,
		Model: openai.EmbeddingModel(o.cfg.EmbedModel),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}
	if len(resp.Data) != len(input) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d", ErrEmbedding, len(input), len(resp.Data))
	}

	embeddings := make([][]float32, len(resp.Data))
	for i, d := range resp.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

// Generate performs a single-turn chat completion and returns the text.
func (o *OpenAI) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.cfg.Model,
		MaxTokens:   o.cfg.MaxTokens,
		Temperature: o.cfg.Temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices returned", ErrGeneration)
	}
	return resp.Choices[0].Message.Content, nil
}

package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/edgeflare/pgrag/pkg/httputil"
	"github.com/edgeflare/pgrag/pkg/util"
	"go.uber.org/zap"
)

// Config holds the configuration for the OpenAI-compatible HTTP client.
type Config struct {
	ModelID        string
	EmbedModelID   string
	APIURL         string
	APIKey         string
	EmbeddingsPath string
	GeneratePath   string
	Dimensions     int
	MaxTokens      int
	Temperature    float64
	Timeout        time.Duration
}

// DefaultConfig returns a Config with default values, targeting a local
// ollama instance.
func DefaultConfig() Config {
	return Config{
		ModelID:        "llama3.2:3b",
		EmbedModelID:   "mxbai-embed-large",
		APIKey:         util.GetEnvOrDefault("LLM_API_KEY", ""),
		APIURL:         util.GetEnvOrDefault("LLM_API_URL", "http://127.0.0.1:11434"),
		EmbeddingsPath: "/v1/embeddings",
		GeneratePath:   "/api/generate",
		Dimensions:     1024, // mxbai-embed-large
		MaxTokens:      1024,
		Temperature:    0.1,
		Timeout:        time.Minute,
	}
}

// Client talks to an OpenAI-compatible embeddings endpoint and an
// ollama-style generate endpoint. Calls are synchronous, bounded by
// Config.Timeout, and never retried: failures surface to the caller.
type Client struct {
	logger *zap.Logger
	Config Config
}

// NewClient creates a Client for the given config.
func NewClient(config Config, loggers ...*zap.Logger) *Client {
	var logger *zap.Logger
	if len(loggers) > 0 && loggers[0] != nil {
		logger = loggers[0]
	} else {
		logger = zap.NewNop()
	}
	return &Client{Config: config, logger: logger}
}

// Dimensions reports the embedding dimension of the configured model.
func (c *Client) Dimensions() int { return c.Config.Dimensions }

// EmbeddingRequest is the request body for the embeddings endpoint.
type EmbeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// EmbeddingResponse is the response body for the embeddings endpoint.
// https://platform.openai.com/docs/api-reference/embeddings/create
type EmbeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
	} `json:"data"`
}

// Embed fetches embeddings for the input texts, one vector per text, in order.
func (c *Client) Embed(ctx context.Context, input []string) ([][]float32, error) {
	if len(input) == 0 {
		return nil, fmt.Errorf("%w: input is empty", ErrEmbedding)
	}

	body, err := json.Marshal(&EmbeddingRequest{Input: input, Model: c.Config.EmbedModelID})
	if err != nil {
		return nil, fmt.Errorf("%w: failed to marshal request: %v", ErrEmbedding, err)
	}

	response, err := c.post(ctx, c.Config.EmbeddingsPath, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEmbedding, err)
	}

	var embeddingResponse EmbeddingResponse
	if err := json.Unmarshal(response.Body, &embeddingResponse); err != nil {
		return nil, fmt.Errorf("%w: failed to unmarshal response: %v", ErrEmbedding, err)
	}
	if len(embeddingResponse.Data) != len(input) {
		return nil, fmt.Errorf("%w: expected %d embeddings, got %d",
			ErrEmbedding, len(input), len(embeddingResponse.Data))
	}

	embeddings := make([][]float32, len(embeddingResponse.Data))
	for i, d := range embeddingResponse.Data {
		embeddings[i] = d.Embedding
	}
	return embeddings, nil
}

// GenerateRequest is the body for /generate requests. Model and Prompt are required.
// https://github.com/ollama/ollama/blob/main/docs/api.md#generate-a-completion
type GenerateRequest struct {
	Options map[string]interface{} `json:"options,omitempty"`
	Model   string                 `json:"model"`
	Prompt  string                 `json:"prompt"`
	Stream  bool                   `json:"stream"`
}

// GenerateResponse is the non-streaming response of the generate endpoint.
type GenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

// Generate sends a single-turn generation request and returns the model's text.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(&GenerateRequest{
		Prompt: prompt,
		Model:  c.Config.ModelID,
		Stream: false,
		Options: map[string]interface{}{
			"temperature": c.Config.Temperature,
			"num_predict": c.Config.MaxTokens,
		},
	})
	if err != nil {
		return "", fmt.Errorf("%w: failed to marshal request: %v", ErrGeneration, err)
	}

	response, err := c.post(ctx, c.Config.GeneratePath, body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	var generateResponse GenerateResponse
	if err := json.Unmarshal(response.Body, &generateResponse); err != nil {
		return "", fmt.Errorf("%w: failed to unmarshal response: %v", ErrGeneration, err)
	}
	return generateResponse.Response, nil
}

func (c *Client) post(ctx context.Context, path string, body []byte) (*httputil.Response, error) {
	config := httputil.DefaultRequestConfig(http.MethodPost, fmt.Sprintf("%s%s", c.Config.APIURL, path))
	config.Headers = map[string][]string{
		"Authorization": {fmt.Sprintf("Bearer %s", c.Config.APIKey)},
	}
	config.Timeout = c.Config.Timeout
	config.RetryEnabled = false
	config.Logger = c.logger

	return httputil.Request(ctx, config, body)
}

package pgrag

import (
	"github.com/edgeflare/pgrag/pkg/llm"
	"go.uber.org/zap"
)

// cmpOr mirrors cmp.Or from Go 1.22+; the build toolchain here is Go 1.21.
func cmpOr[T comparable](vals ...T) T {
	var zero T
	for _, v := range vals {
		if v != zero {
			return v
		}
	}
	return zero
}

// newProvider builds the embedding/generation provider from config. The
// embedding dimension always follows the store config: the store schema is
// the authority on the dimension invariant.
func newProvider(logger *zap.Logger) (llm.Embedder, llm.Generator) {
	if cfg.LLM.Provider == "openai" {
		c := llm.DefaultOpenAIConfig()
		c.APIKey = cfg.LLM.APIKey
		c.BaseURL = cfg.LLM.APIURL
		c.Model = cmpOr(cfg.LLM.Model, c.Model)
		c.EmbedModel = cmpOr(cfg.LLM.EmbedModel, c.EmbedModel)
		c.MaxTokens = cmpOr(cfg.LLM.MaxTokens, c.MaxTokens)
		if cfg.LLM.Temperature != 0 {
			c.Temperature = float32(cfg.LLM.Temperature)
		}
		c.Dimensions = cfg.Store.Dimensions
		p := llm.NewOpenAI(c)
		return p, p
	}

	c := llm.DefaultConfig()
	c.APIURL = cmpOr(cfg.LLM.APIURL, c.APIURL)
	c.APIKey = cmpOr(cfg.LLM.APIKey, c.APIKey)
	c.ModelID = cmpOr(cfg.LLM.Model, c.ModelID)
	c.EmbedModelID = cmpOr(cfg.LLM.EmbedModel, c.EmbedModelID)
	c.MaxTokens = cmpOr(cfg.LLM.MaxTokens, c.MaxTokens)
	if cfg.LLM.Temperature != 0 {
		c.Temperature = cfg.LLM.Temperature
	}
	if cfg.LLM.Timeout != 0 {
		c.Timeout = cfg.LLM.Timeout
	}
	c.Dimensions = cfg.Store.Dimensions
	p := llm.NewClient(c, logger)
	return p, p
}

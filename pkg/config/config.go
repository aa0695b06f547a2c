// Package config loads application-wide configuration from file, environment
// and flags via viper.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

// Version is the pgrag release version.
const Version = "0.1.0"

// Config holds application-wide configuration.
type Config struct {
	Store  StoreConfig  `mapstructure:"store"`
	LLM    LLMConfig    `mapstructure:"llm"`
	Ingest IngestConfig `mapstructure:"ingest"`
	Query  QueryConfig  `mapstructure:"query"`
}

// StoreConfig configures the Postgres vector store.
type StoreConfig struct {
	ConnString string `mapstructure:"connString"`
	TableName  string `mapstructure:"tableName"`
	Dimensions int    `mapstructure:"dimensions"`
}

// LLMConfig configures the embedding/generation provider.
// Provider is "openai" for the hosted API, anything else selects the
// OpenAI-compatible HTTP client (ollama).
type LLMConfig struct {
	Provider    string        `mapstructure:"provider"`
	APIURL      string        `mapstructure:"apiURL"`
	APIKey      string        `mapstructure:"apiKey"`
	Model       string        `mapstructure:"model"`
	EmbedModel  string        `mapstructure:"embedModel"`
	MaxTokens   int           `mapstructure:"maxTokens"`
	Temperature float64       `mapstructure:"temperature"`
	Timeout     time.Duration `mapstructure:"timeout"`
}

// IngestConfig configures the write path: sources and chunking parameters.
type IngestConfig struct {
	Sources      []string `mapstructure:"sources"`
	ChunkSize    int      `mapstructure:"chunkSize"`
	ChunkOverlap int      `mapstructure:"chunkOverlap"`
}

// QueryConfig configures the read path.
type QueryConfig struct {
	TopK int `mapstructure:"topK"`
	// EmptyContextShortCircuit returns the fallback answer without a
	// generator call when retrieval yields no chunks.
	EmptyContextShortCircuit bool `mapstructure:"emptyContextShortCircuit"`
}

// Default returns a Config with default values.
func Default() Config {
	return Config{
		Store: StoreConfig{
			TableName:  "rag_chunks",
			Dimensions: 1024,
		},
		Ingest: IngestConfig{
			ChunkSize:    2048,
			ChunkOverlap: 256,
		},
		Query: QueryConfig{
			TopK: 5,
		},
	}
}

// Load reads config from file or environment.
func Load(cfgFile string) (*Config, error) {
	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.SetConfigName("pgrag")
		v.SetConfigType("yaml")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config"))
		}
		v.AddConfigPath(".")
	}

	v.AutomaticEnv()
	v.SetEnvPrefix("PGRAG")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := Default()
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	return &cfg, nil
}

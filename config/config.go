package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"port"`

	// KnowledgeSource selects where knowledge documents are read from:
	// "file" (default) or "mongo".
	KnowledgeSource string `mapstructure:"knowledge_source"`
	KnowledgeDir    string `mapstructure:"knowledge_dir"`
	MongoURI        string `mapstructure:"MONGODB_URI"`
	MongoDatabase   string `mapstructure:"mongo_database"`

	// SemanticBackend selects the semantic search implementation:
	// "process" (per-company Python search script) or "weaviate".
	SemanticBackend string `mapstructure:"semantic_backend"`
	PythonBin       string `mapstructure:"python_bin"`

	// Providers is the ordered generation fallback chain, e.g.
	// ["openai", "gemini"].
	Providers []string `mapstructure:"providers"`

	AIEndpoint   string `mapstructure:"ai_endpoint"`
	Model        string `mapstructure:"model"`
	OpenAIAPIKey string `mapstructure:"OPENAI_API_KEY"`

	GeminiModel   string `mapstructure:"gemini_model"`
	GeminiAPIKeys string `mapstructure:"GEMINI_API_KEYS"`

	Companies map[string]CompanyConfig `mapstructure:"companies"`

	WeaviateStoreConfig WeaviateStoreConfig `mapstructure:"weaviate_store_config"`

	Timeouts TimeoutConfig `mapstructure:"timeouts"`
}

type CompanyConfig struct {
	// KnowledgePath overrides <knowledge_dir>/<company>/knowledge.json.
	KnowledgePath string `mapstructure:"knowledge_path"`

	// Semantic marks the company as having an embedding index.
	Semantic bool `mapstructure:"semantic"`

	// SemanticScript is the company's vector search script, used by the
	// "process" backend.
	SemanticScript string `mapstructure:"semantic_script"`
}

type WeaviateStoreConfig struct {
	Host     string `mapstructure:"host"`
	APIKey   string `mapstructure:"WEAVIATE_APIKEY"` // Changed to match env var
	Text2Vec string `mapstructure:"text2vec"`
}

type TimeoutConfig struct {
	// SemanticSearch bounds the inline (chat pipeline) semantic attempt.
	SemanticSearch time.Duration `mapstructure:"semantic_search"`
	// SemanticEndpoint bounds the dedicated /search endpoint.
	SemanticEndpoint time.Duration `mapstructure:"semantic_endpoint"`
	// Generation bounds a single provider call.
	Generation time.Duration `mapstructure:"generation"`
}

func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")
	v.AutomaticEnv()

	v.SetDefault("port", "8080")
	v.SetDefault("knowledge_source", "file")
	v.SetDefault("knowledge_dir", "public/knowledge-bases")
	v.SetDefault("mongo_database", "chali")
	v.SetDefault("semantic_backend", "process")
	v.SetDefault("python_bin", "python3")
	v.SetDefault("providers", []string{"openai"})
	v.SetDefault("gemini_model", "gemini-1.5-flash")
	v.SetDefault("timeouts.semantic_search", 5*time.Second)
	v.SetDefault("timeouts.semantic_endpoint", 15*time.Second)
	v.SetDefault("timeouts.generation", 30*time.Second)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	// Bind environment variables
	v.BindEnv("OPENAI_API_KEY")
	v.BindEnv("GEMINI_API_KEYS")
	v.BindEnv("WEAVIATE_APIKEY")
	v.BindEnv("MONGODB_URI")

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// GeminiKeys splits the comma-separated GEMINI_API_KEYS value.
func (c *Config) GeminiKeys() []string {
	if strings.TrimSpace(c.GeminiAPIKeys) == "" {
		return nil
	}
	parts := strings.Split(c.GeminiAPIKeys, ",")
	keys := make([]string, 0, len(parts))
	for _, p := range parts {
		if key := strings.TrimSpace(p); key != "" {
			keys = append(keys, key)
		}
	}
	return keys
}

// SemanticCompanies returns the allow-list of companies with an embedding
// index, lowercased.
func (c *Config) SemanticCompanies() map[string]bool {
	out := make(map[string]bool, len(c.Companies))
	for id, cc := range c.Companies {
		if cc.Semantic {
			out[strings.ToLower(id)] = true
		}
	}
	return out
}

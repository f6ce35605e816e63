package config

import "time"

// Config holds all application configuration.
type Config struct {
	User          User          `mapstructure:"user"`
	Elasticsearch Elasticsearch `mapstructure:"elasticsearch"`
	Embeddings    Embeddings    `mapstructure:"embeddings"`
	LLM           LLM           `mapstructure:"llm"`
	Metadata      Metadata      `mapstructure:"metadata"`
	Snapshot      Snapshot      `mapstructure:"snapshot"`
	Cache         Cache         `mapstructure:"cache"`
	MCP           MCP           `mapstructure:"mcp"`
}

// User identifies the owner all operations are scoped to.
type User struct {
	ID string `mapstructure:"id"`
}

// Elasticsearch holds ES connection configuration.
type Elasticsearch struct {
	Addresses     []string      `mapstructure:"addresses"`
	BookmarkIndex string        `mapstructure:"bookmark_index"`
	CacheIndex    string        `mapstructure:"cache_index"`
	Username      string        `mapstructure:"username"`
	Password      string        `mapstructure:"password"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

// Embeddings holds embedding provider configuration.
type Embeddings struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Model   string        `mapstructure:"model"`
	Dims    int           `mapstructure:"dims"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// LLM holds optional tag/description suggestion configuration.
type LLM struct {
	Enabled bool   `mapstructure:"enabled"`
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// Metadata holds page metadata fetch configuration.
type Metadata struct {
	UserAgent     string        `mapstructure:"user_agent"`
	Timeout       time.Duration `mapstructure:"timeout"`
	RenderAPIURL  string        `mapstructure:"render_api_url"`
	RenderTimeout time.Duration `mapstructure:"render_timeout"`
}

// Snapshot holds S3/MinIO page-archive configuration.
type Snapshot struct {
	Enabled         bool   `mapstructure:"enabled"`
	Endpoint        string `mapstructure:"endpoint"`
	Bucket          string `mapstructure:"bucket"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	UseSSL          bool   `mapstructure:"use_ssl"`
}

// Cache holds query-embedding cache configuration.
type Cache struct {
	HotSize int `mapstructure:"hot_size"` // in-process LRU entries
}

// MCP holds MCP server configuration.
type MCP struct {
	Name    string `mapstructure:"name"`
	Version string `mapstructure:"version"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		User: User{
			ID: "local",
		},
		Elasticsearch: Elasticsearch{
			Addresses:     []string{"http://localhost:9200"},
			BookmarkIndex: "linkstash-bookmarks",
			CacheIndex:    "linkstash-query-cache",
			Timeout:       10 * time.Second,
		},
		Embeddings: Embeddings{
			BaseURL: "https://api.openai.com",
			Model:   "text-embedding-3-small",
			Dims:    1536,
			Timeout: 8 * time.Second,
		},
		LLM: LLM{
			Enabled: false, // requires an API key and costs money
			BaseURL: "https://api.openai.com",
			Model:   "gpt-4o-mini",
		},
		Metadata: Metadata{
			Timeout:       8 * time.Second,
			RenderAPIURL:  "https://api.microlink.io",
			RenderTimeout: 10 * time.Second,
		},
		Snapshot: Snapshot{
			Enabled:         false, // requires a MinIO/S3 endpoint
			Endpoint:        "localhost:9000",
			Bucket:          "linkstash-snapshots",
			AccessKeyID:     "minioadmin",
			SecretAccessKey: "minioadmin",
			UseSSL:          false,
		},
		Cache: Cache{
			HotSize: 1024,
		},
		MCP: MCP{
			Name:    "linkstash",
			Version: "1.0.0",
		},
	}
}

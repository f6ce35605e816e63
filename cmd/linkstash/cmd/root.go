package cmd

import (
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/linkstash/linkstash/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile string
	verbose bool
	asUser  string
	cfg     config.Config
)

// GetConfig returns the loaded configuration.
func GetConfig() config.Config {
	return cfg
}

var rootCmd = &cobra.Command{
	Use:   "linkstash",
	Short: "Linkstash: a personal bookmarking service with hybrid search",
	Long: `Linkstash saves URLs and text snippets, fetches their page metadata,
and makes the whole collection searchable by meaning as well as keywords.

Commands:
  init     Create the Elasticsearch indices (and snapshot bucket)
  add      Save a URL or note:// snippet
  search   Search your bookmarks
  refresh  Re-fetch a bookmark's page metadata
  reindex  Refresh a bookmark's search embedding
  backfill Add missing type tags to existing bookmarks
  rm       Delete a bookmark
  serve    Start the MCP server`,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig, initLogger)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&asUser, "user", "", "act as this user ID (default from config)")
}

func initLogger() {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

func initConfig() {
	// Local .env files are convenient for API keys
	godotenv.Load()

	cfg = config.Defaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath("$HOME/.linkstash")
		viper.AddConfigPath(".")
	}

	// Environment variable overrides
	// LINKSTASH_ELASTICSEARCH_ADDRESSES -> elasticsearch.addresses
	viper.SetEnvPrefix("LINKSTASH")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Explicitly bind nested env vars
	viper.BindEnv("user.id", "LINKSTASH_USER_ID")
	viper.BindEnv("elasticsearch.addresses", "LINKSTASH_ELASTICSEARCH_ADDRESSES")
	viper.BindEnv("elasticsearch.bookmark_index", "LINKSTASH_ELASTICSEARCH_BOOKMARK_INDEX")
	viper.BindEnv("elasticsearch.cache_index", "LINKSTASH_ELASTICSEARCH_CACHE_INDEX")
	viper.BindEnv("elasticsearch.username", "LINKSTASH_ELASTICSEARCH_USERNAME")
	viper.BindEnv("elasticsearch.password", "LINKSTASH_ELASTICSEARCH_PASSWORD")
	viper.BindEnv("embeddings.base_url", "LINKSTASH_EMBEDDINGS_BASE_URL")
	viper.BindEnv("embeddings.api_key", "LINKSTASH_EMBEDDINGS_API_KEY")
	viper.BindEnv("embeddings.model", "LINKSTASH_EMBEDDINGS_MODEL")
	viper.BindEnv("embeddings.dims", "LINKSTASH_EMBEDDINGS_DIMS")
	viper.BindEnv("llm.enabled", "LINKSTASH_LLM_ENABLED")
	viper.BindEnv("llm.base_url", "LINKSTASH_LLM_BASE_URL")
	viper.BindEnv("llm.api_key", "LINKSTASH_LLM_API_KEY")
	viper.BindEnv("llm.model", "LINKSTASH_LLM_MODEL")
	viper.BindEnv("metadata.render_api_url", "LINKSTASH_METADATA_RENDER_API_URL")
	viper.BindEnv("snapshot.enabled", "LINKSTASH_SNAPSHOT_ENABLED")
	viper.BindEnv("snapshot.endpoint", "LINKSTASH_SNAPSHOT_ENDPOINT")
	viper.BindEnv("snapshot.bucket", "LINKSTASH_SNAPSHOT_BUCKET")
	viper.BindEnv("snapshot.access_key_id", "LINKSTASH_SNAPSHOT_ACCESS_KEY_ID")
	viper.BindEnv("snapshot.secret_access_key", "LINKSTASH_SNAPSHOT_SECRET_ACCESS_KEY")
	viper.BindEnv("cache.hot_size", "LINKSTASH_CACHE_HOT_SIZE")
	viper.BindEnv("mcp.name", "LINKSTASH_MCP_NAME")
	viper.BindEnv("mcp.version", "LINKSTASH_MCP_VERSION")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			slog.Warn("config file error", "error", err)
		}
		// No config file - use defaults + env vars
	}

	if err := viper.Unmarshal(&cfg); err != nil {
		slog.Warn("failed to parse config", "error", err)
	}

	// Handle special case: addresses as comma-separated string from env
	if addrs := os.Getenv("LINKSTASH_ELASTICSEARCH_ADDRESSES"); addrs != "" {
		cfg.Elasticsearch.Addresses = strings.Split(addrs, ",")
	}

	if asUser != "" {
		cfg.User.ID = asUser
	}
}

// internal/common/config/loader.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

func Load() (*Config, error) {
	loadEnvFile()

	// Base config
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./configs")
	viper.AddConfigPath("../../configs")
	viper.AddConfigPath(".")

	// Enable ENV override like OPENAI_API_KEY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	env := os.Getenv("APP_ENVIRONMENT")
	if env == "" {
		env = "development"
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading base config: %w", err)
		}
	}

	// Environment-specific overlay, ignored when missing
	envConfigFile := fmt.Sprintf("config.%s", env)
	viper.SetConfigName(envConfigFile)
	_ = viper.MergeInConfig()

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// LoadFromFile loads configuration from a specific file path
func LoadFromFile(path string) (*Config, error) {
	loadEnvFile()

	viper.SetConfigFile(path)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	expandEnvVars(viper.GetViper())

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&cfg)
	overrideEmptyConfig(&cfg)

	if err := validateConfig(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Load .env from multiple possible locations (running from different directories)
func loadEnvFile() {
	possiblePaths := []string{
		".env",
		"../.env",
		"../../.env",
		"../../../.env",
	}

	if rootDir := findProjectRoot(); rootDir != "" {
		possiblePaths = append(possiblePaths, filepath.Join(rootDir, ".env"))
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err == nil {
				return
			}
		}
	}
}

// Find project root by looking for go.mod
func findProjectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		return ""
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return ""
}

func expandEnvVars(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		val := v.Get(key)

		if strVal, ok := val.(string); ok {
			if strings.Contains(strVal, "${") || (strings.HasPrefix(strVal, "$") && len(strVal) > 1) {
				expanded := os.ExpandEnv(strVal)
				if expanded != strVal && expanded != "" {
					v.Set(key, expanded)
				}
			}
		}
	}
}

// Direct override if config values are still empty after expansion
func overrideEmptyConfig(cfg *Config) {
	if cfg.LLM.OpenAI.APIKey == "" {
		if val := os.Getenv("OPENAI_API_KEY"); val != "" {
			cfg.LLM.OpenAI.APIKey = val
		}
	}
	if cfg.LLM.Anthropic.APIKey == "" {
		if val := os.Getenv("ANTHROPIC_API_KEY"); val != "" {
			cfg.LLM.Anthropic.APIKey = val
		}
	}
	if cfg.Search.SerpAPI.APIKey == "" {
		if val := os.Getenv("SERPAPI_API_KEY"); val != "" {
			cfg.Search.SerpAPI.APIKey = val
		}
	}
	if cfg.Search.GoogleCSE.APIKey == "" {
		if val := os.Getenv("GOOGLE_API_KEY"); val != "" {
			cfg.Search.GoogleCSE.APIKey = val
		}
	}
	if cfg.Search.GoogleCSE.EngineID == "" {
		if val := os.Getenv("GOOGLE_SEARCH_ENGINE_ID"); val != "" {
			cfg.Search.GoogleCSE.EngineID = val
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "web-research-agent"
	}
	if cfg.App.Environment == "" {
		cfg.App.Environment = "development"
	}

	if len(cfg.LLM.Providers) == 0 {
		cfg.LLM.Providers = []string{"openai", "anthropic"}
	}
	if cfg.LLM.OpenAI.BaseURL == "" {
		cfg.LLM.OpenAI.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.LLM.OpenAI.Model == "" {
		cfg.LLM.OpenAI.Model = "gpt-4o"
	}
	if cfg.LLM.Anthropic.BaseURL == "" {
		cfg.LLM.Anthropic.BaseURL = "https://api.anthropic.com"
	}
	if cfg.LLM.Anthropic.Model == "" {
		cfg.LLM.Anthropic.Model = "claude-3-5-sonnet-latest"
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = 30 * time.Second
	}
	if cfg.LLM.MaxRetries == 0 {
		cfg.LLM.MaxRetries = 1
	}
	if cfg.LLM.MaxTokens == 0 {
		cfg.LLM.MaxTokens = 4000
	}

	if cfg.Search.SerpAPI.BaseURL == "" {
		cfg.Search.SerpAPI.BaseURL = "https://serpapi.com/search"
	}
	if cfg.Search.GoogleCSE.BaseURL == "" {
		cfg.Search.GoogleCSE.BaseURL = "https://www.googleapis.com/customsearch/v1"
	}
	if cfg.Search.ResultLimit == 0 {
		cfg.Search.ResultLimit = 5
	}
	if cfg.Search.Timeout == 0 {
		cfg.Search.Timeout = 10 * time.Second
	}

	if cfg.Scraper.UserAgent == "" {
		cfg.Scraper.UserAgent = "WebResearchAgent/1.0"
	}
	if cfg.Scraper.Timeout == 0 {
		cfg.Scraper.Timeout = 10 * time.Second
	}
	if cfg.Scraper.MaxConcurrency == 0 {
		cfg.Scraper.MaxConcurrency = 4
	}
	if cfg.Scraper.MaxContentChars == 0 {
		cfg.Scraper.MaxContentChars = 20000
	}
	if cfg.Scraper.MinContentChars == 0 {
		cfg.Scraper.MinContentChars = 100
	}

	w := &cfg.Analyzer.Weights
	if w.TermFrequency == 0 && w.TitleMatch == 0 && w.URLMatch == 0 &&
		w.Recency == 0 && w.PhraseMatch == 0 && w.ContentLength == 0 {
		w.TermFrequency = 0.4
		w.TitleMatch = 0.2
		w.URLMatch = 0.1
		w.Recency = 0.1
		w.PhraseMatch = 0.1
		w.ContentLength = 0.1
	}
	if cfg.Analyzer.MinLexicalScore == 0 {
		cfg.Analyzer.MinLexicalScore = 0.05
	}
	if cfg.Analyzer.MaxLLMItems == 0 {
		cfg.Analyzer.MaxLLMItems = 10
	}
	if cfg.Analyzer.ExcerptChars == 0 {
		cfg.Analyzer.ExcerptChars = 1200
	}
	if cfg.Analyzer.NearDupLenRatio == 0 {
		cfg.Analyzer.NearDupLenRatio = 0.9
	}

	if cfg.Generator.MaxTokens == 0 {
		cfg.Generator.MaxTokens = 4000
	}
	if cfg.Generator.MaxExcerptChars == 0 {
		cfg.Generator.MaxExcerptChars = 1500
	}

	if cfg.Agent.HistoryWindow == 0 {
		cfg.Agent.HistoryWindow = 5
	}
	if cfg.Agent.QueryTimeout == 0 {
		cfg.Agent.QueryTimeout = 2 * time.Minute
	}

	if cfg.Cache.TTL == 0 {
		cfg.Cache.TTL = 15 * time.Minute
	}

	if cfg.Metrics.Address == "" {
		cfg.Metrics.Address = ":9102"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

func validateConfig(cfg *Config) error {
	if cfg.Agent.HistoryWindow < 1 {
		return fmt.Errorf("agent.history_window must be >= 1")
	}
	if cfg.Scraper.MaxConcurrency < 1 {
		return fmt.Errorf("scraper.max_concurrency must be >= 1")
	}
	if cfg.Analyzer.MinLexicalScore < 0 || cfg.Analyzer.MinLexicalScore > 1 {
		return fmt.Errorf("analyzer.min_lexical_score must be in [0,1]")
	}
	if cfg.Cache.Enabled && cfg.Cache.Address == "" {
		return fmt.Errorf("cache.address is required when cache.enabled")
	}
	for _, p := range cfg.LLM.Providers {
		switch p {
		case "openai", "anthropic", "mock":
		default:
			return fmt.Errorf("unknown llm provider %q", p)
		}
	}
	return nil
}

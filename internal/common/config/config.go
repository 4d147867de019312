// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App       AppConfig       `mapstructure:"app"`
	LLM       LLMConfig       `mapstructure:"llm"`
	Search    SearchConfig    `mapstructure:"search"`
	Scraper   ScraperConfig   `mapstructure:"scraper"`
	Analyzer  AnalyzerConfig  `mapstructure:"analyzer"`
	Generator GeneratorConfig `mapstructure:"generator"`
	Agent     AgentConfig     `mapstructure:"agent"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// --- Core App Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// LLMConfig configures the LLM gateway and its provider chain.
type LLMConfig struct {
	// Providers lists provider names in preference order. Recognized names:
	// "openai", "anthropic", "mock". Providers without credentials are skipped
	// at wiring time.
	Providers []string `mapstructure:"providers"`

	OpenAI    OpenAIConfig    `mapstructure:"openai"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`

	// AllowMock appends the deterministic mock provider as the last resort.
	AllowMock bool `mapstructure:"allow_mock"`

	Timeout    time.Duration `mapstructure:"timeout"`
	MaxRetries int           `mapstructure:"max_retries"`
	MaxTokens  int           `mapstructure:"max_tokens"`
}

type OpenAIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

type AnthropicConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// SearchConfig configures search providers in preference order. The mock
// generator is always appended last so the pipeline always has something to rank.
type SearchConfig struct {
	SerpAPI     SerpAPIConfig   `mapstructure:"serpapi"`
	GoogleCSE   GoogleCSEConfig `mapstructure:"google_cse"`
	ResultLimit int             `mapstructure:"result_limit"`
	Timeout     time.Duration   `mapstructure:"timeout"`
}

type SerpAPIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
}

type GoogleCSEConfig struct {
	BaseURL  string `mapstructure:"base_url"`
	APIKey   string `mapstructure:"api_key"`
	EngineID string `mapstructure:"engine_id"`
}

// ScraperConfig bounds page fetching and extraction.
type ScraperConfig struct {
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	MaxConcurrency  int           `mapstructure:"max_concurrency"`
	MaxContentChars int           `mapstructure:"max_content_chars"`
	MinContentChars int           `mapstructure:"min_content_chars"`
	RespectRobots   bool          `mapstructure:"respect_robots"`
}

// AnalyzerConfig holds the tunable relevance-ranking knobs. The lexical weights
// and the near-duplicate threshold are deliberately configuration, not constants.
type AnalyzerConfig struct {
	Weights         LexicalWeights `mapstructure:"weights"`
	MinLexicalScore float64        `mapstructure:"min_lexical_score"`
	MaxLLMItems     int            `mapstructure:"max_llm_items"`
	ExcerptChars    int            `mapstructure:"excerpt_chars"`
	NearDupLenRatio float64        `mapstructure:"near_dup_len_ratio"`
}

// LexicalWeights are combined into a normalized [0,1] lexical score.
type LexicalWeights struct {
	TermFrequency float64 `mapstructure:"term_frequency"`
	TitleMatch    float64 `mapstructure:"title_match"`
	URLMatch      float64 `mapstructure:"url_match"`
	Recency       float64 `mapstructure:"recency"`
	PhraseMatch   float64 `mapstructure:"phrase_match"`
	ContentLength float64 `mapstructure:"content_length"`
}

// GeneratorConfig bounds response synthesis.
type GeneratorConfig struct {
	MaxTokens       int `mapstructure:"max_tokens"`
	MaxExcerptChars int `mapstructure:"max_excerpt_chars"`
}

// AgentConfig configures the orchestrator.
type AgentConfig struct {
	HistoryWindow int           `mapstructure:"history_window"`
	QueryTimeout  time.Duration `mapstructure:"query_timeout"`
}

// CacheConfig configures the optional Redis search-result cache.
type CacheConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Address  string        `mapstructure:"address"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Address string `mapstructure:"address"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

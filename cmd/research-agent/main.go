// cmd/research-agent/main.go
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"web-research-agent/internal/agent"
	"web-research-agent/internal/common/cache"
	"web-research-agent/internal/common/config"
	commonhttp "web-research-agent/internal/common/http"
	"web-research-agent/internal/common/logger"
	"web-research-agent/internal/common/observability"
	"web-research-agent/internal/llm"
	contentanalyzer "web-research-agent/internal/pipeline/content-analyzer"
	queryanalyzer "web-research-agent/internal/pipeline/query-analyzer"
	responsegenerator "web-research-agent/internal/pipeline/response-generator"
	searchtool "web-research-agent/internal/pipeline/search-tool"
	webscraper "web-research-agent/internal/pipeline/web-scraper"
)

func main() {
	var (
		configPath = flag.String("config", "", "path to config file (default: search standard locations)")
		query      = flag.String("query", "", "run a single query and exit instead of starting the REPL")
	)
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewStructured(cfg.Logging.Level, cfg.Logging.Format)
	log.Info("starting research agent", map[string]interface{}{
		"version":     cfg.App.Version,
		"environment": cfg.App.Environment,
	})

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()

	if cfg.Metrics.Enabled {
		go serveMetrics(cfg.Metrics.Address, log)
	}

	researchAgent, cleanup, err := buildAgent(cfg, obs, log)
	if err != nil {
		log.Error("failed to assemble pipeline", map[string]interface{}{
			"error": err.Error(),
		})
		os.Exit(1)
	}
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	session := agent.NewSession(cfg.Agent.HistoryWindow)

	if *query != "" {
		printResponse(researchAgent.Research(ctx, session, *query))
		return
	}
	runREPL(ctx, researchAgent, session)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

// buildAgent wires the five pipeline stages from configuration and returns a
// cleanup func for resources that need closing.
func buildAgent(cfg *config.Config, obs *observability.Observability, log logger.Logger) (*agent.Agent, func(), error) {
	gateway, err := buildGateway(cfg, log)
	if err != nil {
		return nil, nil, err
	}

	searchCache, closeCache := buildCache(cfg, log)

	planner := queryanalyzer.NewAnalyzer(&queryanalyzer.Config{
		MaxTokens:     cfg.LLM.MaxTokens,
		HistoryWindow: cfg.Agent.HistoryWindow,
	}, gateway, log)

	searcher := searchtool.NewTool(&searchtool.Config{
		ResultLimit: cfg.Search.ResultLimit,
		Timeout:     cfg.Search.Timeout,
	}, buildSearchProviders(cfg), searchCache, log)

	scraper := webscraper.NewScraper(&webscraper.Config{
		UserAgent:       cfg.Scraper.UserAgent,
		Timeout:         cfg.Scraper.Timeout,
		MaxConcurrency:  cfg.Scraper.MaxConcurrency,
		MaxContentChars: cfg.Scraper.MaxContentChars,
		MinContentChars: cfg.Scraper.MinContentChars,
		RespectRobots:   cfg.Scraper.RespectRobots,
	}, log)

	ranker := contentanalyzer.NewAnalyzer(&contentanalyzer.Config{
		Weights: contentanalyzer.Weights{
			TermFrequency: cfg.Analyzer.Weights.TermFrequency,
			TitleMatch:    cfg.Analyzer.Weights.TitleMatch,
			URLMatch:      cfg.Analyzer.Weights.URLMatch,
			Recency:       cfg.Analyzer.Weights.Recency,
			PhraseMatch:   cfg.Analyzer.Weights.PhraseMatch,
			ContentLength: cfg.Analyzer.Weights.ContentLength,
		},
		MinLexicalScore: cfg.Analyzer.MinLexicalScore,
		MaxLLMItems:     cfg.Analyzer.MaxLLMItems,
		ExcerptChars:    cfg.Analyzer.ExcerptChars,
		NearDupLenRatio: cfg.Analyzer.NearDupLenRatio,
		MaxTokens:       cfg.LLM.MaxTokens,
	}, gateway, log)

	generator := responsegenerator.NewGenerator(&responsegenerator.Config{
		MaxTokens:       cfg.Generator.MaxTokens,
		MaxExcerptChars: cfg.Generator.MaxExcerptChars,
	}, gateway, log)

	researchAgent := agent.NewAgent(&agent.Config{
		SearchLimit:  cfg.Search.ResultLimit,
		QueryTimeout: cfg.Agent.QueryTimeout,
	}, planner, searcher, scraper, ranker, generator, obs, log)

	return researchAgent, closeCache, nil
}

// buildGateway assembles the LLM provider chain in configured preference
// order, skipping providers without credentials.
func buildGateway(cfg *config.Config, log logger.Logger) (*llm.Gateway, error) {
	var providers []llm.Provider
	for _, name := range cfg.LLM.Providers {
		switch name {
		case "openai":
			if cfg.LLM.OpenAI.APIKey != "" {
				providers = append(providers, llm.NewOpenAIProvider(cfg.LLM.OpenAI))
			}
		case "anthropic":
			if cfg.LLM.Anthropic.APIKey != "" {
				providers = append(providers, llm.NewAnthropicProvider(cfg.LLM.Anthropic))
			}
		case "mock":
			providers = append(providers, llm.NewMockProvider())
		}
	}
	if cfg.LLM.AllowMock && !hasMock(providers) {
		providers = append(providers, llm.NewMockProvider())
	}
	if len(providers) == 0 {
		return nil, fmt.Errorf("no llm providers available: configure credentials or enable llm.allow_mock")
	}

	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = p.Name()
	}
	log.Info("llm provider chain assembled", map[string]interface{}{
		"providers": names,
	})
	return llm.NewGateway(providers, cfg.LLM.Timeout, cfg.LLM.MaxRetries, log), nil
}

func hasMock(providers []llm.Provider) bool {
	for _, p := range providers {
		if p.Name() == "mock" {
			return true
		}
	}
	return false
}

// buildSearchProviders assembles the search chain: configured external APIs
// first, deterministic mock always last.
func buildSearchProviders(cfg *config.Config) []searchtool.Provider {
	client := commonhttp.NewClientWithUserAgent(cfg.Search.Timeout, cfg.Scraper.UserAgent)

	var providers []searchtool.Provider
	if cfg.Search.SerpAPI.APIKey != "" {
		providers = append(providers, searchtool.NewSerpAPIProvider(
			cfg.Search.SerpAPI.BaseURL, cfg.Search.SerpAPI.APIKey, client))
	}
	if cfg.Search.GoogleCSE.APIKey != "" && cfg.Search.GoogleCSE.EngineID != "" {
		providers = append(providers, searchtool.NewGoogleCSEProvider(
			cfg.Search.GoogleCSE.BaseURL, cfg.Search.GoogleCSE.APIKey, cfg.Search.GoogleCSE.EngineID, client))
	}
	providers = append(providers, searchtool.NewMockProvider())
	return providers
}

// buildCache connects the optional Redis search cache. Failure to connect is
// not fatal; the pipeline just queries providers directly.
func buildCache(cfg *config.Config, log logger.Logger) (searchtool.Cache, func()) {
	if !cfg.Cache.Enabled {
		return nil, func() {}
	}
	redisCache, err := cache.New(cfg.Cache)
	if err == nil {
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		err = redisCache.Ping(pingCtx)
		cancel()
	}
	if err != nil {
		log.Warn("search cache unavailable, continuing without it", map[string]interface{}{
			"address": cfg.Cache.Address,
			"error":   err.Error(),
		})
		if redisCache != nil {
			redisCache.Close()
		}
		return nil, func() {}
	}
	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			log.Warn("closing cache failed", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}
}

func serveMetrics(address string, log logger.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info("metrics endpoint listening", map[string]interface{}{
		"address": address,
	})
	if err := http.ListenAndServe(address, mux); err != nil {
		log.Error("metrics server stopped", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// runREPL reads queries from stdin until EOF or interrupt. "/reset" clears
// conversation history; "/quit" exits.
func runREPL(ctx context.Context, researchAgent *agent.Agent, session *agent.Session) {
	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)

	fmt.Println("Research agent ready. Enter a query, /reset to clear history, /quit to exit.")
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		if ctx.Err() != nil {
			return
		}

		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case line == "/quit", line == "/exit":
			return
		case line == "/reset":
			session.Reset()
			fmt.Println("Conversation history cleared.")
			continue
		}

		printResponse(researchAgent.Research(ctx, session, line))
	}
}

func printResponse(resp *responsegenerator.Response) {
	fmt.Printf("\n%s\n", resp.Summary)
	if resp.DetailedResponse != "" {
		fmt.Printf("\n%s\n", resp.DetailedResponse)
	}
	if len(resp.Highlights) > 0 {
		fmt.Println("\nHighlights:")
		for _, h := range resp.Highlights {
			fmt.Printf("  - %s\n", h)
		}
	}
	if len(resp.Sources) > 0 {
		fmt.Println("\nSources:")
		for i, s := range resp.Sources {
			note := ""
			if s.ReliabilityNote != "" {
				note = " (" + s.ReliabilityNote + ")"
			}
			fmt.Printf("  [%d] %s - %s%s\n", i+1, s.Title, s.URL, note)
		}
	}
	if resp.Degraded {
		fmt.Printf("\nNote: this answer is degraded (%s).\n", strings.Join(resp.DegradationReasons, ", "))
	}
	fmt.Println()
}

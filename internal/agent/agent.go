// internal/agent/agent.go
package agent

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	commonerrors "web-research-agent/internal/common/errors"
	"web-research-agent/internal/common/logger"
	"web-research-agent/internal/common/metrics"
	"web-research-agent/internal/common/observability"
	"web-research-agent/internal/models"
	contentanalyzer "web-research-agent/internal/pipeline/content-analyzer"
	queryanalyzer "web-research-agent/internal/pipeline/query-analyzer"
	responsegenerator "web-research-agent/internal/pipeline/response-generator"
	searchtool "web-research-agent/internal/pipeline/search-tool"
	webscraper "web-research-agent/internal/pipeline/web-scraper"
)

type Config struct {
	// SearchLimit caps results requested from the search stage per query.
	SearchLimit int
	// QueryTimeout is the global per-query deadline; once it elapses the
	// remaining network calls are abandoned and the pipeline proceeds with
	// whatever partial data exists.
	QueryTimeout time.Duration
}

// Collaborator surfaces, one per pipeline stage.
type Planner interface {
	Analyze(ctx context.Context, query string, history []models.Turn) (*queryanalyzer.QueryPlan, error)
}

type Searcher interface {
	Search(ctx context.Context, plan *queryanalyzer.QueryPlan, limit int) ([]searchtool.Result, error)
}

type Scraper interface {
	Scrape(ctx context.Context, results []searchtool.Result) []webscraper.Content
}

type Ranker interface {
	Analyze(ctx context.Context, plan *queryanalyzer.QueryPlan, items []webscraper.Content) ([]contentanalyzer.Ranked, error)
}

type Generator interface {
	Generate(ctx context.Context, query string, plan *queryanalyzer.QueryPlan, ranked []contentanalyzer.Ranked, history []models.Turn) *responsegenerator.Response
}

// Agent sequences the five pipeline stages and applies the degradation
// policy at every boundary: stage failures are recovered locally and surface
// only as reasons on the final response, never as an error to the caller.
type Agent struct {
	config    *Config
	planner   Planner
	searcher  Searcher
	scraper   Scraper
	ranker    Ranker
	generator Generator
	obs       *observability.Observability
	logger    logger.Logger
}

func NewAgent(config *Config, planner Planner, searcher Searcher, scraper Scraper, ranker Ranker, generator Generator, obs *observability.Observability, log logger.Logger) *Agent {
	return &Agent{
		config:    config,
		planner:   planner,
		searcher:  searcher,
		scraper:   scraper,
		ranker:    ranker,
		generator: generator,
		obs:       obs,
		logger:    log,
	}
}

// Research runs one query through the full pipeline and records the turn on
// the session. The returned response is always well formed; degraded plus
// its reasons is the only signal of reduced quality.
func (a *Agent) Research(ctx context.Context, session *Session, query string) *responsegenerator.Response {
	requestID := uuid.NewString()
	log := a.logger.With(map[string]interface{}{
		"request_id": requestID,
	})
	metrics.ResearchRequests.Inc()

	if a.config.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.config.QueryTimeout)
		defer cancel()
	}

	deg := commonerrors.NewDegradationLog(log)
	history := session.History()

	log.Info("research started", map[string]interface{}{
		"query":        query,
		"history_size": len(history),
	})

	var plan *queryanalyzer.QueryPlan
	a.stage(ctx, queryanalyzer.StageName, func() {
		var err error
		plan, err = a.planner.Analyze(ctx, query, history)
		if err != nil {
			a.fail(queryanalyzer.StageName, err)
			deg.Record(queryanalyzer.StageName, commonerrors.ReasonPlanningDegraded,
				commonerrors.NewPlanningDegradedError(err))
		}
	})

	var results []searchtool.Result
	a.stage(ctx, searchtool.StageName, func() {
		var err error
		results, err = a.searcher.Search(ctx, plan, a.config.SearchLimit)
		if err != nil {
			a.fail(searchtool.StageName, err)
			deg.Record(searchtool.StageName, commonerrors.ReasonSearchProviderExhausted, err)
		}
	})

	var contents []webscraper.Content
	if len(results) > 0 {
		a.stage(ctx, webscraper.StageName, func() {
			contents = a.scraper.Scrape(ctx, results)
		})
		for _, c := range contents {
			if c.Method != webscraper.MethodFailed {
				continue
			}
			switch c.FailReason {
			case commonerrors.ReasonPolicyDenied:
				deg.Record(webscraper.StageName, commonerrors.ReasonPolicyDenied,
					commonerrors.NewRobotsDeniedError(c.Result.URL))
			default:
				deg.Record(webscraper.StageName, commonerrors.ReasonScrapeFailed,
					commonerrors.NewScrapeFailedError(c.Result.URL, c.FailReason))
			}
		}
	}

	var ranked []contentanalyzer.Ranked
	if len(contents) > 0 {
		a.stage(ctx, contentanalyzer.StageName, func() {
			var err error
			ranked, err = a.ranker.Analyze(ctx, plan, contents)
			if err != nil {
				a.fail(contentanalyzer.StageName, err)
				deg.Record(contentanalyzer.StageName, commonerrors.ReasonRankingFallback,
					commonerrors.NewRankingFallbackError(err))
			}
		})
	}

	var resp *responsegenerator.Response
	a.stage(ctx, responsegenerator.StageName, func() {
		resp = a.generator.Generate(ctx, query, plan, ranked, history)
	})

	resp.DegradationReasons = mergeReasons(deg.Reasons(), resp.DegradationReasons)
	resp.Degraded = len(resp.DegradationReasons) > 0
	if resp.Degraded {
		metrics.ResearchDegraded.Inc()
	}

	session.Append(models.Turn{
		Query:           query,
		ResponseSummary: resp.Summary,
		Timestamp:       time.Now().UTC(),
	})

	log.Info("research completed", map[string]interface{}{
		"sources":  len(resp.Sources),
		"degraded": resp.Degraded,
		"reasons":  resp.DegradationReasons,
	})
	return resp
}

// stage wraps one pipeline stage with duration and status recording.
func (a *Agent) stage(ctx context.Context, name string, fn func()) {
	start := time.Now()
	fn()
	elapsed := time.Since(start)

	metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())
	if a.obs != nil {
		a.obs.RecordStage(ctx, name, "completed")
		a.obs.RecordStageDuration(ctx, name, elapsed)
	}
}

func (a *Agent) fail(stage string, err error) {
	code := "INTERNAL_ERROR"
	var stdErr *commonerrors.StandardError
	if errors.As(err, &stdErr) {
		code = string(stdErr.Code)
	}
	metrics.StageFailures.WithLabelValues(stage, code).Inc()
}

// mergeReasons keeps pipeline-boundary reasons first, then the generator's
// own, deduplicated in order.
func mergeReasons(pipeline, generator []string) []string {
	merged := make([]string, 0, len(pipeline)+len(generator))
	seen := make(map[string]bool)
	for _, r := range append(pipeline, generator...) {
		if seen[r] {
			continue
		}
		seen[r] = true
		merged = append(merged, r)
	}
	return merged
}

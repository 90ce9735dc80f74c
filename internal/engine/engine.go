package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sitroom/sitrep/internal/analyze"
	"github.com/sitroom/sitrep/internal/cache"
	"github.com/sitroom/sitrep/internal/classify"
	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/decision"
	"github.com/sitroom/sitrep/internal/domain"
	"github.com/sitroom/sitrep/internal/metrics"
)

// Engine runs the full situation-analysis pipeline: classification, the
// concurrent analyzer fan-out, decision fusion, and the cache write. The
// cache entry is the only shared mutable state and is replaced wholesale.
type Engine struct {
	cfg        *config.Config
	classifier *classify.Classifier
	analyzers  []analyze.Analyzer
	fuser      *decision.Engine
	cache      *cache.ResultCache
	metrics    *metrics.Set

	mu sync.Mutex // serializes cache writes per run
}

// Option customizes an Engine.
type Option func(*Engine)

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *metrics.Set) Option {
	return func(e *Engine) { e.metrics = m }
}

// WithAnalyzers replaces the default analyzer set.
func WithAnalyzers(analyzers []analyze.Analyzer) Option {
	return func(e *Engine) { e.analyzers = analyzers }
}

// New builds an engine from the configuration.
func New(cfg *config.Config, opts ...Option) *Engine {
	e := &Engine{
		cfg:        cfg,
		classifier: classify.New(cfg.Classifier),
		analyzers:  analyze.All(cfg.Analysis),
		fuser:      decision.New(cfg.Fusion),
		cache:      cache.New(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Close releases engine resources.
func (e *Engine) Close() {
	e.cache.Stop()
}

// Latest returns the cached result of the most recent run, if still fresh.
func (e *Engine) Latest() (*domain.AnalysisResult, bool) {
	result, ok := e.cache.Get(cache.LatestKey)
	if e.metrics != nil {
		if ok {
			e.metrics.CacheHits.Inc()
		} else {
			e.metrics.CacheMisses.Inc()
		}
	}
	return result, ok
}

// Run executes one analysis pass over the batch. A cancelled context
// discards in-flight results without touching the cache; a fusion failure
// is fatal to this run only and leaves the previous cached result valid.
func (e *Engine) Run(ctx context.Context, batch *domain.Batch) (*domain.AnalysisResult, error) {
	started := time.Now()
	if batch == nil {
		batch = &domain.Batch{}
	}
	if batch.AsOf.IsZero() {
		batch.AsOf = started
	}

	classified := e.classifyBatch(batch)

	findings, err := e.fanOut(ctx, classified)
	if err != nil {
		e.countFailure()
		return nil, err
	}

	decisions, err := e.fuser.Fuse(findings, started)
	if err != nil {
		e.countFailure()
		return nil, err
	}

	result := e.assemble(classified, findings, decisions, started)

	if err := ctx.Err(); err != nil {
		// Abandoned run: the caller superseded it, so the result must not
		// reach the cache.
		return nil, err
	}

	e.mu.Lock()
	e.cache.Set(cache.LatestKey, result, e.cfg.Cache.TTL)
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RunsTotal.Inc()
		e.metrics.RunDuration.Observe(time.Since(started).Seconds())
	}
	log.Info().
		Int("news", result.Metadata.NewsCount).
		Int("symbols", result.Metadata.MarketSymbolsCount).
		Int("decisions", len(result.Decisions)).
		Float64("confidence", result.Confidence).
		Msg("analysis run complete")

	return result, nil
}

// classifyBatch annotates items in a copy of the batch. A classification
// failure excludes only that item.
func (e *Engine) classifyBatch(batch *domain.Batch) *domain.Batch {
	out := &domain.Batch{
		News:    make([]domain.NewsItem, 0, len(batch.News)),
		Quotes:  batch.Quotes,
		Returns: batch.Returns,
		AsOf:    batch.AsOf,
	}
	for _, item := range batch.News {
		annotated, err := e.classifier.Classify(item)
		if err != nil {
			log.Warn().Err(err).Str("item", item.ID).Msg("item excluded from batch")
			continue
		}
		out.News = append(out.News, annotated)
	}
	return out
}

// fanOut runs every analyzer concurrently against the read-only batch.
// A panic or error in one analyzer counts as zero findings from it and
// never aborts the others.
func (e *Engine) fanOut(ctx context.Context, batch *domain.Batch) (*analyze.Findings, error) {
	results := make([]*analyze.Findings, len(e.analyzers))

	var wg sync.WaitGroup
	for i, a := range e.analyzers {
		wg.Add(1)
		go func(i int, a analyze.Analyzer) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					e.analyzerFailed(a.Name(), &domain.AnalyzerError{
						Analyzer: a.Name(),
						Err:      fmt.Errorf("panic: %v", r),
					})
				}
			}()
			findings, err := a.Analyze(ctx, batch)
			if err != nil {
				e.analyzerFailed(a.Name(), &domain.AnalyzerError{Analyzer: a.Name(), Err: err})
				return
			}
			results[i] = findings
		}(i, a)
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	merged := &analyze.Findings{}
	for _, findings := range results {
		if findings == nil {
			continue
		}
		merged.Patterns = append(merged.Patterns, findings.Patterns...)
		merged.Trends = append(merged.Trends, findings.Trends...)
		merged.Risks = append(merged.Risks, findings.Risks...)
		merged.Opportunities = append(merged.Opportunities, findings.Opportunities...)
		merged.Narratives = append(merged.Narratives, findings.Narratives...)
		merged.Characters = append(merged.Characters, findings.Characters...)
		if findings.Correlations != nil {
			merged.Correlations = findings.Correlations
		}
	}

	if e.metrics != nil {
		e.metrics.FindingsTotal.WithLabelValues("pattern").Add(float64(len(merged.Patterns)))
		e.metrics.FindingsTotal.WithLabelValues("trend").Add(float64(len(merged.Trends)))
		e.metrics.FindingsTotal.WithLabelValues("risk").Add(float64(len(merged.Risks)))
		e.metrics.FindingsTotal.WithLabelValues("opportunity").Add(float64(len(merged.Opportunities)))
		e.metrics.FindingsTotal.WithLabelValues("narrative").Add(float64(len(merged.Narratives)))
		e.metrics.FindingsTotal.WithLabelValues("character").Add(float64(len(merged.Characters)))
	}
	return merged, nil
}

func (e *Engine) analyzerFailed(name string, err error) {
	log.Warn().Err(err).Str("analyzer", name).Msg("analyzer failed, treating as zero findings")
	if e.metrics != nil {
		e.metrics.AnalyzerFailures.WithLabelValues(name).Inc()
	}
}

func (e *Engine) countFailure() {
	if e.metrics != nil {
		e.metrics.RunFailures.Inc()
	}
}

func (e *Engine) assemble(batch *domain.Batch, findings *analyze.Findings, decisions []domain.Decision, started time.Time) *domain.AnalysisResult {
	meta := domain.ResultMetadata{
		NewsCount:               len(batch.News),
		MarketSymbolsCount:      len(batch.Quotes),
		PatternsDetected:        len(findings.Patterns),
		RisksIdentified:         len(findings.Risks),
		OpportunitiesIdentified: len(findings.Opportunities),
	}
	for _, item := range batch.News {
		if item.Sentiment == nil {
			continue
		}
		switch {
		case *item.Sentiment > 0.2:
			meta.PositiveSentimentCount++
		case *item.Sentiment < -0.2:
			meta.NegativeSentimentCount++
		default:
			meta.NeutralSentimentCount++
		}
	}

	confidence := e.fuser.OverallConfidence(findings)

	return &domain.AnalysisResult{
		ID:            uuid.NewString(),
		GeneratedAt:   started,
		Patterns:      findings.Patterns,
		Trends:        findings.Trends,
		Risks:         findings.Risks,
		Opportunities: findings.Opportunities,
		Correlations:  findings.Correlations,
		Narratives:    findings.Narratives,
		Characters:    findings.Characters,
		Decisions:     decisions,
		Summary:       summarize(findings, decisions, confidence),
		Confidence:    confidence,
		Metadata:      meta,
	}
}

// summarize builds the human-readable one-liner for the run. Deterministic
// given the same findings.
func summarize(findings *analyze.Findings, decisions []domain.Decision, confidence float64) string {
	parts := []string{
		fmt.Sprintf("%d patterns", len(findings.Patterns)),
		fmt.Sprintf("%d trends", len(findings.Trends)),
		fmt.Sprintf("%d risks", len(findings.Risks)),
		fmt.Sprintf("%d opportunities", len(findings.Opportunities)),
		fmt.Sprintf("%d narratives", len(findings.Narratives)),
	}
	s := strings.Join(parts, ", ")
	if len(findings.Risks) > 0 {
		s += fmt.Sprintf("; top risk: %s", findings.Risks[0].Title)
	}
	if len(decisions) > 0 {
		s += fmt.Sprintf("; leading decision: %s %s", decisions[0].Action, decisions[0].Subject)
	}
	s += fmt.Sprintf("; overall confidence %.0f", confidence)
	return s
}

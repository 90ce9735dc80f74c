package sched

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/sitroom/sitrep/internal/domain"
	"github.com/sitroom/sitrep/internal/engine"
	"github.com/sitroom/sitrep/internal/metrics"
	"github.com/sitroom/sitrep/internal/monitor"
	"github.com/sitroom/sitrep/internal/sources"
)

// Scheduler drives the periodic pipeline: fetch a batch with bounded
// timeouts, run the engine, then evaluate monitors against the classified
// output. A run superseded by the next tick is cancelled and its result
// discarded.
type Scheduler struct {
	cron     *cron.Cron
	engine   *engine.Engine
	registry *monitor.Registry
	news     sources.NewsSource
	market   sources.MarketSource
	timeout  time.Duration
	metrics  *metrics.Set

	mirror    ResultMirror
	mirrorTTL time.Duration

	mu         sync.Mutex
	cancelPrev context.CancelFunc
}

// ResultMirror receives a copy of each successful result so other processes
// can read it, e.g. the redis-backed store.
type ResultMirror interface {
	SetLatestResult(ctx context.Context, result *domain.AnalysisResult, ttl time.Duration) error
}

// Option customizes a Scheduler.
type Option func(*Scheduler)

// WithMetrics attaches prometheus collectors.
func WithMetrics(m *metrics.Set) Option {
	return func(s *Scheduler) { s.metrics = m }
}

// WithResultMirror mirrors each successful result with the given TTL.
func WithResultMirror(mirror ResultMirror, ttl time.Duration) Option {
	return func(s *Scheduler) {
		s.mirror = mirror
		s.mirrorTTL = ttl
	}
}

func New(eng *engine.Engine, registry *monitor.Registry, news sources.NewsSource, market sources.MarketSource, fetchTimeout time.Duration, opts ...Option) *Scheduler {
	s := &Scheduler{
		cron:     cron.New(),
		engine:   eng,
		registry: registry,
		news:     news,
		market:   market,
		timeout:  fetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start registers the analysis job under spec (e.g. "@every 5m") and starts
// the cron loop.
func (s *Scheduler) Start(spec string) error {
	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return err
	}
	s.cron.Start()
	log.Info().Str("spec", spec).Msg("scheduler started")
	return nil
}

// Stop halts the loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

// RunOnce executes one full cycle immediately.
func (s *Scheduler) RunOnce(ctx context.Context) (*domain.AnalysisResult, []domain.Alert, error) {
	batch := s.fetchBatch(ctx)

	result, err := s.engine.Run(ctx, batch)
	if err != nil {
		return nil, nil, err
	}

	if s.mirror != nil {
		if err := s.mirror.SetLatestResult(ctx, result, s.mirrorTTL); err != nil {
			log.Warn().Err(err).Msg("result mirror write failed")
		}
	}

	alerts, err := s.registry.Evaluate(ctx, &domain.Batch{News: batch.News, AsOf: batch.AsOf})
	if err != nil {
		// Persistence trouble; the alerts themselves are still good.
		log.Warn().Err(err).Msg("monitor evaluation persistence failed")
	}
	if s.metrics != nil {
		s.metrics.AlertsRaised.Add(float64(len(alerts)))
	}
	return result, alerts, nil
}

// tick cancels any still-running previous cycle before starting the next,
// so a superseded run never reaches the cache.
func (s *Scheduler) tick() {
	s.mu.Lock()
	if s.cancelPrev != nil {
		s.cancelPrev()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancelPrev = cancel
	s.mu.Unlock()

	if _, _, err := s.RunOnce(ctx); err != nil {
		log.Error().Err(err).Msg("scheduled analysis run failed")
	}
}

// fetchBatch pulls from both sources with bounded timeouts; a failed source
// contributes an empty slice, never aborts the cycle.
func (s *Scheduler) fetchBatch(ctx context.Context) *domain.Batch {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	batch := &domain.Batch{AsOf: time.Now()}

	if s.news != nil {
		items, err := s.news.FetchNews(fetchCtx)
		if err != nil {
			log.Warn().Err(err).Msg("news fetch failed, continuing with partial batch")
		}
		batch.News = items
	}
	if s.market != nil {
		quotes, err := s.market.FetchQuotes(fetchCtx)
		if err != nil {
			log.Warn().Err(err).Msg("market fetch failed, continuing with partial batch")
		}
		batch.Quotes = quotes
	}
	return batch
}

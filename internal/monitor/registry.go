package monitor

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/sitroom/sitrep/internal/config"
	"github.com/sitroom/sitrep/internal/domain"
	"github.com/sitroom/sitrep/internal/store"
)

// Registry owns the persistent keyword monitors and the process-lifetime
// alert log. All mutation goes through its lock; nothing else touches a
// Monitor. Persistence is delegated to the store; a persistence failure is
// surfaced to the caller but never corrupts the in-memory list.
type Registry struct {
	mu       sync.Mutex
	monitors map[string]*domain.Monitor
	alerts   []domain.Alert
	store    store.MonitorStore
	sink     store.AlertSink
	defaults config.MonitorConfig

	subsMu sync.Mutex
	subs   []chan domain.Alert
}

// Option customizes a Registry.
type Option func(*Registry)

// WithAlertSink publishes each raised alert to an external sink in addition
// to the in-memory log.
func WithAlertSink(sink store.AlertSink) Option {
	return func(r *Registry) { r.sink = sink }
}

// NewRegistry loads the persisted monitor list. A load failure falls back
// to an empty list: the registry is returned usable alongside the wrapped
// error.
func NewRegistry(ctx context.Context, st store.MonitorStore, defaults config.MonitorConfig, opts ...Option) (*Registry, error) {
	r := &Registry{
		monitors: make(map[string]*domain.Monitor),
		store:    st,
		defaults: defaults,
	}
	for _, opt := range opts {
		opt(r)
	}

	loaded, err := st.LoadMonitors(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("monitor load failed, starting with empty list")
		return r, &domain.MonitorPersistenceError{Op: "load", Err: err}
	}
	for i := range loaded {
		m := loaded[i]
		r.monitors[m.ID] = &m
	}
	return r, nil
}

// Add creates a new active monitor. A threshold of zero or less takes the
// configured default. A save failure is returned but the monitor stays in
// the in-memory list.
func (r *Registry) Add(ctx context.Context, query string, threshold float64) (domain.Monitor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if threshold <= 0 {
		threshold = r.defaults.DefaultThreshold
	}
	m := &domain.Monitor{
		ID:             uuid.NewString(),
		Query:          query,
		AlertThreshold: threshold,
		CheckInterval:  r.defaults.DefaultInterval,
		IsActive:       true,
		CreatedAt:      time.Now(),
	}
	r.monitors[m.ID] = m

	if err := r.persistLocked(ctx); err != nil {
		return *m, err
	}
	return *m, nil
}

// Remove deletes a monitor by id. A missing id is a no-op returning false,
// never an error, and never mutates the list.
func (r *Registry) Remove(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.monitors[id]; !ok {
		return false, nil
	}
	delete(r.monitors, id)

	if err := r.persistLocked(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Deactivate flips a monitor inactive without deleting it.
func (r *Registry) Deactivate(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.monitors[id]
	if !ok {
		return false, nil
	}
	m.IsActive = false

	if err := r.persistLocked(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Activate flips a monitor back to active.
func (r *Registry) Activate(ctx context.Context, id string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.monitors[id]
	if !ok {
		return false, nil
	}
	m.IsActive = true

	if err := r.persistLocked(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// Evaluate checks every active monitor against the batch. Match ratio is
// the fraction of items whose title+description contains the query
// (case-insensitive), over max(batch size, 1). Crossing the threshold
// raises one alert and bumps the counters. CheckInterval is advisory
// metadata and deliberately not enforced as a gate here.
func (r *Registry) Evaluate(ctx context.Context, batch *domain.Batch) ([]domain.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	size := len(batch.News)
	denom := size
	if denom < 1 {
		denom = 1
	}

	var raised []domain.Alert
	for _, m := range r.sortedLocked() {
		if !m.IsActive {
			continue
		}

		query := strings.ToLower(m.Query)
		matches := 0
		for _, item := range batch.News {
			text := strings.ToLower(item.Title + " " + item.Description)
			if strings.Contains(text, query) {
				matches++
			}
		}

		ratio := float64(matches) / float64(denom)
		m.LastChecked = now
		if ratio < m.AlertThreshold {
			continue
		}

		m.AlertCount++
		alert := domain.Alert{
			ID:        uuid.NewString(),
			MonitorID: m.ID,
			Severity:  severityForRatio(ratio),
			Message:   fmt.Sprintf("monitor %q matched %d/%d items (ratio %.2f, threshold %.2f)", m.Query, matches, size, ratio, m.AlertThreshold),
			Timestamp: now,
		}
		r.alerts = append(r.alerts, alert)
		raised = append(raised, alert)
		r.broadcast(ctx, alert)
	}

	if len(raised) > 0 || size > 0 {
		if err := r.persistLocked(ctx); err != nil {
			return raised, err
		}
	}
	return raised, nil
}

// severityForRatio grades the absolute match ratio, independent of the
// threshold that let the alert fire.
func severityForRatio(ratio float64) domain.AlertLevel {
	switch {
	case ratio >= 0.9:
		return domain.AlertCritical
	case ratio >= 0.7:
		return domain.AlertHigh
	case ratio >= 0.5:
		return domain.AlertMedium
	default:
		return domain.AlertLow
	}
}

// Monitors returns a snapshot sorted by creation time.
func (r *Registry) Monitors() []domain.Monitor {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Monitor, 0, len(r.monitors))
	for _, m := range r.sortedLocked() {
		out = append(out, *m)
	}
	return out
}

// Alerts returns a copy of the alert log, oldest first.
func (r *Registry) Alerts() []domain.Alert {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.Alert, len(r.alerts))
	copy(out, r.alerts)
	return out
}

// Acknowledge flips the only mutable flag on an emitted alert.
func (r *Registry) Acknowledge(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.alerts {
		if r.alerts[i].ID == id {
			r.alerts[i].Acknowledged = true
			return true
		}
	}
	return false
}

// Subscribe returns a channel receiving every alert raised after the call,
// plus a cancel func that removes the subscription. Slow subscribers drop
// alerts rather than blocking evaluation.
func (r *Registry) Subscribe() (<-chan domain.Alert, func()) {
	ch := make(chan domain.Alert, 16)
	r.subsMu.Lock()
	r.subs = append(r.subs, ch)
	r.subsMu.Unlock()

	cancel := func() {
		r.subsMu.Lock()
		defer r.subsMu.Unlock()
		for i, sub := range r.subs {
			if sub == ch {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				return
			}
		}
	}
	return ch, cancel
}

func (r *Registry) broadcast(ctx context.Context, alert domain.Alert) {
	r.subsMu.Lock()
	for _, ch := range r.subs {
		select {
		case ch <- alert:
		default:
		}
	}
	r.subsMu.Unlock()

	if r.sink != nil {
		if err := r.sink.PublishAlert(ctx, alert); err != nil {
			log.Warn().Err(err).Msg("alert sink publish failed")
		}
	}
}

// sortedLocked orders monitors by creation time then id for deterministic
// evaluation. Caller holds the lock.
func (r *Registry) sortedLocked() []*domain.Monitor {
	out := make([]*domain.Monitor, 0, len(r.monitors))
	for _, m := range r.monitors {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func (r *Registry) persistLocked(ctx context.Context) error {
	snapshot := make([]domain.Monitor, 0, len(r.monitors))
	for _, m := range r.sortedLocked() {
		snapshot = append(snapshot, *m)
	}
	if err := r.store.SaveMonitors(ctx, snapshot); err != nil {
		return &domain.MonitorPersistenceError{Op: "save", Err: err}
	}
	return nil
}

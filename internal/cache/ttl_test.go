package cache

import (
	"testing"
	"time"

	"github.com/sitroom/sitrep/internal/domain"
)

func TestCache_SetGet(t *testing.T) {
	c := New()
	defer c.Stop()

	result := &domain.AnalysisResult{ID: "r1"}
	c.Set(LatestKey, result, time.Minute)

	got, ok := c.Get(LatestKey)
	if !ok {
		t.Fatal("expected cached result")
	}
	if got.ID != "r1" {
		t.Errorf("got ID %q, want r1", got.ID)
	}
}

func TestCache_ExpiredEntryIsMiss(t *testing.T) {
	c := New()
	defer c.Stop()

	c.Set(LatestKey, &domain.AnalysisResult{ID: "r1"}, 10*time.Millisecond)
	time.Sleep(30 * time.Millisecond)

	if _, ok := c.Get(LatestKey); ok {
		t.Fatal("expired entry must not be served")
	}
}

func TestCache_SetReplacesEntry(t *testing.T) {
	c := New()
	defer c.Stop()

	c.Set(LatestKey, &domain.AnalysisResult{ID: "old"}, time.Minute)
	c.Set(LatestKey, &domain.AnalysisResult{ID: "new"}, time.Minute)

	got, ok := c.Get(LatestKey)
	if !ok || got.ID != "new" {
		t.Fatalf("got %+v ok=%v, want the replacing entry", got, ok)
	}
}

func TestCache_StatsCountHitsAndMisses(t *testing.T) {
	c := New()
	defer c.Stop()

	c.Get(LatestKey) // miss
	c.Set(LatestKey, &domain.AnalysisResult{ID: "r1"}, time.Minute)
	c.Get(LatestKey) // hit
	c.Get(LatestKey) // hit

	stats := c.SnapshotStats()
	if stats.Hits != 2 || stats.Misses != 1 {
		t.Errorf("got hits=%d misses=%d, want 2/1", stats.Hits, stats.Misses)
	}
}

func TestCache_RemoveExpired(t *testing.T) {
	c := New()
	defer c.Stop()

	c.Set("a", &domain.AnalysisResult{ID: "a"}, -time.Second)
	c.Set("b", &domain.AnalysisResult{ID: "b"}, time.Minute)

	c.removeExpired()

	c.mu.RLock()
	defer c.mu.RUnlock()
	if _, ok := c.entries["a"]; ok {
		t.Error("expired entry should have been swept")
	}
	if _, ok := c.entries["b"]; !ok {
		t.Error("live entry should survive the sweep")
	}
}

func TestCache_StopIsIdempotent(t *testing.T) {
	c := New()
	c.Stop()
	c.Stop()
}

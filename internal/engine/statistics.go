package engine

import (
	"sync"
	"time"

	"promptsmith/internal/cache"
)

// Statistics is a snapshot of the engine's aggregate counters.
type Statistics struct {
	// Constructions counts ConstructPrompt calls.
	Constructions int64 `json:"constructions"`

	// CacheHits/CacheMisses/CacheHitRatio summarize cache behavior.
	CacheHits     int64   `json:"cache_hits"`
	CacheMisses   int64   `json:"cache_misses"`
	CacheHitRatio float64 `json:"cache_hit_ratio"`

	// IssueCounts counts raised issues per code.
	IssueCounts map[string]int64 `json:"issue_counts,omitempty"`

	// OperationTimings holds cumulative durations per operation.
	OperationTimings map[string]time.Duration `json:"operation_timings,omitempty"`
}

// statistics is the engine-owned mutable counter state. It is a field
// on the Engine instance, not package state, so independent engines
// (and tests) never share counters.
type statistics struct {
	mu sync.Mutex

	constructions int64
	issueCounts   map[string]int64
	timings       map[string]time.Duration
}

func newStatistics() *statistics {
	return &statistics{
		issueCounts: make(map[string]int64),
		timings:     make(map[string]time.Duration),
	}
}

func (s *statistics) recordConstruction() {
	s.mu.Lock()
	s.constructions++
	s.mu.Unlock()
}

func (s *statistics) recordIssue(code string) {
	s.mu.Lock()
	s.issueCounts[code]++
	s.mu.Unlock()
}

func (s *statistics) recordTiming(operation string, d time.Duration) {
	s.mu.Lock()
	s.timings[operation] += d
	s.mu.Unlock()
}

func (s *statistics) snapshot(cacheStats cache.Stats) Statistics {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := Statistics{
		Constructions:    s.constructions,
		CacheHits:        cacheStats.Hits,
		CacheMisses:      cacheStats.Misses,
		CacheHitRatio:    cacheStats.HitRatio(),
		IssueCounts:      make(map[string]int64, len(s.issueCounts)),
		OperationTimings: make(map[string]time.Duration, len(s.timings)),
	}
	for k, v := range s.issueCounts {
		out.IssueCounts[k] = v
	}
	for k, v := range s.timings {
		out.OperationTimings[k] = v
	}
	return out
}

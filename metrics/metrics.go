package metrics

import (
	"sync"
	"sync/atomic"
	"time"
)

// Metrics tracks rate limiting verdicts. Fallback counters exist so operators
// can tell "the limit is enforcing" apart from "the store is down and the
// limit is silently disabled".
type Metrics struct {
	allowed         atomic.Int64
	denied          atomic.Int64
	fallbackAllowed atomic.Int64
	fallbackDenied  atomic.Int64

	// Per-resource stats
	mu            sync.RWMutex
	resourceStats map[string]*ResourceStats
	startTime     time.Time
}

// ResourceStats tracks verdict counts for a single resource key.
type ResourceStats struct {
	Resource        string    `json:"resource"`
	Allowed         int64     `json:"allowed"`
	Denied          int64     `json:"denied"`
	FallbackAllowed int64     `json:"fallback_allowed"`
	FallbackDenied  int64     `json:"fallback_denied"`
	LastSeenAt      time.Time `json:"last_seen_at"`
	FirstSeenAt     time.Time `json:"first_seen_at"`
}

// New creates a new metrics tracker.
func New() *Metrics {
	return &Metrics{
		resourceStats: make(map[string]*ResourceStats),
		startTime:     time.Now(),
	}
}

// RecordVerdict records a normal limiter decision for a resource.
func (m *Metrics) RecordVerdict(resource string, allowed bool) {
	if allowed {
		m.allowed.Add(1)
	} else {
		m.denied.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.statsLocked(resource)
	if allowed {
		stats.Allowed++
	} else {
		stats.Denied++
	}
	stats.LastSeenAt = time.Now()
}

// RecordFallback records a decision made by the fallback policy because the
// counter store was unavailable.
func (m *Metrics) RecordFallback(resource string, allowed bool) {
	if allowed {
		m.fallbackAllowed.Add(1)
	} else {
		m.fallbackDenied.Add(1)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	stats := m.statsLocked(resource)
	if allowed {
		stats.FallbackAllowed++
	} else {
		stats.FallbackDenied++
	}
	stats.LastSeenAt = time.Now()
}

func (m *Metrics) statsLocked(resource string) *ResourceStats {
	stats, exists := m.resourceStats[resource]
	if !exists {
		stats = &ResourceStats{
			Resource:    resource,
			FirstSeenAt: time.Now(),
		}
		m.resourceStats[resource] = stats
	}
	return stats
}

// Snapshot represents a point-in-time view of metrics.
type Snapshot struct {
	Allowed         int64            `json:"allowed"`
	Denied          int64            `json:"denied"`
	FallbackAllowed int64            `json:"fallback_allowed"`
	FallbackDenied  int64            `json:"fallback_denied"`
	Resources       int64            `json:"resources"`
	TopResources    []*ResourceStats `json:"top_resources"`
	UptimeSeconds   int64            `json:"uptime_seconds"`
	StartTime       time.Time        `json:"start_time"`
}

// GetSnapshot returns a snapshot of current metrics.
func (m *Metrics) GetSnapshot() *Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Copy resource stats
	top := make([]*ResourceStats, 0, len(m.resourceStats))
	for _, stats := range m.resourceStats {
		copied := *stats
		top = append(top, &copied)
	}

	// Sort by total traffic (top 10)
	sortByTraffic(top)
	if len(top) > 10 {
		top = top[:10]
	}

	uptime := time.Since(m.startTime)

	return &Snapshot{
		Allowed:         m.allowed.Load(),
		Denied:          m.denied.Load(),
		FallbackAllowed: m.fallbackAllowed.Load(),
		FallbackDenied:  m.fallbackDenied.Load(),
		Resources:       int64(len(m.resourceStats)),
		TopResources:    top,
		UptimeSeconds:   int64(uptime.Seconds()),
		StartTime:       m.startTime,
	}
}

func total(s *ResourceStats) int64 {
	return s.Allowed + s.Denied + s.FallbackAllowed + s.FallbackDenied
}

// Helper to sort resources by total traffic
func sortByTraffic(resources []*ResourceStats) {
	for i := 0; i < len(resources)-1; i++ {
		for j := i + 1; j < len(resources); j++ {
			if total(resources[j]) > total(resources[i]) {
				resources[i], resources[j] = resources[j], resources[i]
			}
		}
	}
}

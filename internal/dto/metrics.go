package dto

import "time"

// SystemMetrics is a lightweight aggregate snapshot exposed on the API for
// quick inspection without scraping Prometheus.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	SweepRuns                uint64    `json:"sweep_runs"`
	SweepTransitions         uint64    `json:"sweep_transitions"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

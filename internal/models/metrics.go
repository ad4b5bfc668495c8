package models

import "time"

// SystemMetrics is the JSON snapshot served next to the Prometheus endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cacheHitRatio"`
	CacheHits                uint64    `json:"cacheHits"`
	CacheMisses              uint64    `json:"cacheMisses"`
	RequestsTotal            uint64    `json:"requestsTotal"`
	AverageRequestDurationMs float64   `json:"averageRequestDurationMs"`
	TransitionsApplied       uint64    `json:"transitionsApplied"`
	TransitionsRejected      uint64    `json:"transitionsRejected"`
	JobsProcessed            uint64    `json:"jobsProcessed"`
	JobsFailed               uint64    `json:"jobsFailed"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generatedAt"`
}

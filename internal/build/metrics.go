package build

import (
	"sync"
	"time"
)

// Stats is a point-in-time view of export metrics.
type Stats struct {
	Total           int64         `json:"total"`
	Succeeded       int64         `json:"succeeded"`
	Failed          int64         `json:"failed"`
	Bytes           int64         `json:"bytes"`
	TotalDuration   time.Duration `json:"total_duration"`
	AverageDuration time.Duration `json:"average_duration"`
}

// SuccessRate returns the share of successful artifacts as a percentage.
func (s Stats) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total) * 100
}

// Metrics tracks export throughput across workers.
type Metrics struct {
	stats Stats
	mutex sync.RWMutex
}

// NewMetrics creates an empty metrics tracker.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// Record adds one artifact result.
func (m *Metrics) Record(result Result) {
	m.mutex.Lock()
	defer m.mutex.Unlock()

	m.stats.Total++
	m.stats.TotalDuration += result.Duration
	if result.Err != nil {
		m.stats.Failed++
	} else {
		m.stats.Succeeded++
		m.stats.Bytes += int64(result.Bytes)
	}

	m.stats.AverageDuration = m.stats.TotalDuration / time.Duration(m.stats.Total)
}

// Snapshot returns the current counters.
func (m *Metrics) Snapshot() Stats {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.stats
}

package monitoring

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

type HealthCheckFunc func(ctx context.Context) error

// StatsFunc contributes a named section to the /metrics payload.
type StatsFunc func() map[string]any

type HealthCheck struct {
	Name    string    `json:"name"`
	Status  string    `json:"status"`
	Message string    `json:"message,omitempty"`
	LastRun time.Time `json:"last_run"`
}

type RequestMetrics struct {
	RequestCount    int64            `json:"request_count"`
	AvgDurationMs   float64          `json:"avg_request_duration_ms"`
	ActiveRequests  int64            `json:"active_requests"`
	ErrorCount      int64            `json:"error_count"`
	StatusCodes     map[string]int64 `json:"status_codes"`
	Endpoints       map[string]int64 `json:"endpoint_calls"`
	StartTime       time.Time        `json:"start_time"`
	LastRequest     time.Time        `json:"last_request"`
	RateLimitedHits int64            `json:"rate_limited"`
}

// Monitor collects request metrics and runs health checks on demand.
type Monitor struct {
	mu            sync.RWMutex
	metrics       RequestMetrics
	totalDuration time.Duration

	checksMu sync.RWMutex
	checks   map[string]HealthCheckFunc
	stats    map[string]StatsFunc

	checkTimeout time.Duration
	now          func() time.Time
}

func NewMonitor() *Monitor {
	now := time.Now
	return &Monitor{
		metrics: RequestMetrics{
			StatusCodes: make(map[string]int64),
			Endpoints:   make(map[string]int64),
			StartTime:   now(),
		},
		checks:       make(map[string]HealthCheckFunc),
		stats:        make(map[string]StatsFunc),
		checkTimeout: 5 * time.Second,
		now:          now,
	}
}

func (m *Monitor) RegisterHealthCheck(name string, check HealthCheckFunc) {
	m.checksMu.Lock()
	defer m.checksMu.Unlock()
	m.checks[name] = check
}

func (m *Monitor) RegisterStats(name string, fn StatsFunc) {
	m.checksMu.Lock()
	defer m.checksMu.Unlock()
	m.stats[name] = fn
}

func (m *Monitor) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := m.now()

		m.mu.Lock()
		m.metrics.ActiveRequests++
		m.mu.Unlock()

		c.Next()

		duration := m.now().Sub(start)
		statusCode := c.Writer.Status()
		endpoint := c.Request.Method + " " + c.FullPath()
		if c.FullPath() == "" {
			endpoint = c.Request.Method + " <unmatched>"
		}

		m.mu.Lock()
		defer m.mu.Unlock()

		m.metrics.RequestCount++
		m.metrics.ActiveRequests--
		m.totalDuration += duration
		m.metrics.AvgDurationMs = float64(m.totalDuration.Milliseconds()) / float64(m.metrics.RequestCount)
		m.metrics.LastRequest = m.now()

		if statusCode >= http.StatusBadRequest {
			m.metrics.ErrorCount++
		}
		if statusCode == http.StatusTooManyRequests {
			m.metrics.RateLimitedHits++
		}
		m.metrics.StatusCodes[strconv.Itoa(statusCode)]++
		m.metrics.Endpoints[endpoint]++
	}
}

func (m *Monitor) Snapshot() RequestMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := m.metrics
	out.StatusCodes = make(map[string]int64, len(m.metrics.StatusCodes))
	out.Endpoints = make(map[string]int64, len(m.metrics.Endpoints))
	for k, v := range m.metrics.StatusCodes {
		out.StatusCodes[k] = v
	}
	for k, v := range m.metrics.Endpoints {
		out.Endpoints[k] = v
	}
	return out
}

// RunHealthChecks runs every registered check with a bounded timeout.
func (m *Monitor) RunHealthChecks(ctx context.Context) []HealthCheck {
	m.checksMu.RLock()
	names := make([]string, 0, len(m.checks))
	for name := range m.checks {
		names = append(names, name)
	}
	checks := make(map[string]HealthCheckFunc, len(m.checks))
	for k, v := range m.checks {
		checks[k] = v
	}
	m.checksMu.RUnlock()

	sort.Strings(names)

	results := make([]HealthCheck, 0, len(names))
	for _, name := range names {
		checkCtx, cancel := context.WithTimeout(ctx, m.checkTimeout)
		err := checks[name](checkCtx)
		cancel()

		result := HealthCheck{Name: name, Status: "healthy", LastRun: m.now()}
		if err != nil {
			result.Status = "unhealthy"
			result.Message = err.Error()
		}
		results = append(results, result)
	}
	return results
}

func healthy(checks []HealthCheck) bool {
	for _, check := range checks {
		if check.Status != "healthy" {
			return false
		}
	}
	return true
}

type SystemMetrics struct {
	Uptime         string      `json:"uptime"`
	MemoryUsage    MemoryStats `json:"memory"`
	GoroutineCount int         `json:"goroutine_count"`
	CPUCount       int         `json:"cpu_count"`
	GoVersion      string      `json:"go_version"`
}

type MemoryStats struct {
	Alloc        uint64 `json:"alloc_mb"`
	TotalAlloc   uint64 `json:"total_alloc_mb"`
	Sys          uint64 `json:"sys_mb"`
	NumGC        uint32 `json:"num_gc"`
	GCPauseTotal string `json:"gc_pause_total"`
}

func (m *Monitor) SystemMetrics() SystemMetrics {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	return SystemMetrics{
		Uptime: m.now().Sub(m.metrics.StartTime).Round(time.Second).String(),
		MemoryUsage: MemoryStats{
			Alloc:        bToMb(ms.Alloc),
			TotalAlloc:   bToMb(ms.TotalAlloc),
			Sys:          bToMb(ms.Sys),
			NumGC:        ms.NumGC,
			GCPauseTotal: time.Duration(ms.PauseTotalNs).String(),
		},
		GoroutineCount: runtime.NumGoroutine(),
		CPUCount:       runtime.NumCPU(),
		GoVersion:      runtime.Version(),
	}
}

func bToMb(b uint64) uint64 {
	return b / 1024 / 1024
}

func (m *Monitor) MetricsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		response := gin.H{
			"application": m.Snapshot(),
			"system":      m.SystemMetrics(),
			"timestamp":   m.now().UTC(),
		}

		m.checksMu.RLock()
		for name, fn := range m.stats {
			response[name] = fn()
		}
		m.checksMu.RUnlock()

		c.JSON(http.StatusOK, response)
	}
}

func (m *Monitor) HealthHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		checks := m.RunHealthChecks(c.Request.Context())

		status, code := "healthy", http.StatusOK
		if !healthy(checks) {
			status, code = "unhealthy", http.StatusServiceUnavailable
		}

		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": m.now().UTC(),
			"checks":    checks,
			"uptime":    m.now().Sub(m.metrics.StartTime).Round(time.Second).String(),
		})
	}
}

func (m *Monitor) ReadinessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if healthy(m.RunHealthChecks(c.Request.Context())) {
			c.JSON(http.StatusOK, gin.H{"status": "ready", "timestamp": m.now().UTC()})
			return
		}
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready", "timestamp": m.now().UTC()})
	}
}

func (m *Monitor) LivenessHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "alive",
			"timestamp": m.now().UTC(),
		})
	}
}

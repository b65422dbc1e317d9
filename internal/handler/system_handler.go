package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/response"
)

const metricsInterval = 7 * time.Second

// SessionCounter reports how many sessions the engine is hosting.
type SessionCounter interface {
	Count() int
}

// SystemHandler reports engine load: hosted sessions, persistence backlog
// and Go runtime figures.
type SystemHandler struct {
	sessions  SessionCounter
	rdb       *redis.Client
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(sessions SessionCounter, rdb *redis.Client, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		sessions:  sessions,
		rdb:       rdb,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type systemMetrics struct {
	Timestamp int64  `json:"timestamp"`
	Uptime    string `json:"uptime"`

	HostedSessions int `json:"hosted_sessions"`

	// Persistence backlog, keyed by queue name
	Queues map[string]int64 `json:"queues,omitempty"`

	// Go Application
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	HeapSys    uint64 `json:"heap_sys"`
	NumGC      uint32 `json:"num_gc"`
	GoVersion  string `json:"go_version"`
	NumCPU     int    `json:"num_cpu"`
}

// Metrics godoc
// GET /api/v1/system/metrics
func (h *SystemHandler) Metrics(c *gin.Context) {
	response.Success(c, http.StatusOK, h.collect(c.Request.Context()))
}

// MetricsSSE godoc
// GET /api/v1/system/metrics/stream
func (h *SystemHandler) MetricsSSE(c *gin.Context) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.log.Info().Msg("Proctor connected to system metrics SSE")

	ticker := time.NewTicker(metricsInterval)
	defer ticker.Stop()

	// Send immediately on connect, then every tick
	h.writeMetrics(c)

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Msg("Proctor disconnected from system metrics SSE")
			return
		case <-ticker.C:
			h.writeMetrics(c)
		}
	}
}

func (h *SystemHandler) writeMetrics(c *gin.Context) {
	data, err := json.Marshal(h.collect(c.Request.Context()))
	if err != nil {
		return
	}
	c.Writer.Write([]byte("data: "))
	c.Writer.Write(data)
	c.Writer.Write([]byte("\n\n"))
	c.Writer.Flush()
}

func (h *SystemHandler) collect(ctx context.Context) systemMetrics {
	m := systemMetrics{
		Timestamp:      time.Now().Unix(),
		Uptime:         formatDuration(time.Since(h.startTime)),
		HostedSessions: h.sessions.Count(),
		GoVersion:      runtime.Version(),
		NumCPU:         runtime.NumCPU(),
	}

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.Goroutines = runtime.NumGoroutine()
	m.HeapAlloc = ms.HeapAlloc
	m.HeapSys = ms.Sys
	m.NumGC = ms.NumGC

	if h.rdb == nil {
		return m
	}

	// ── Worker Queues (pipelined LLEN) ──
	queues := config.WorkerKey.Queues()
	cmds := make([]*redis.IntCmd, len(queues))
	pipe := h.rdb.Pipeline()
	for i, q := range queues {
		cmds[i] = pipe.LLen(ctx, q)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		h.log.Debug().Err(err).Msg("Queue length lookup failed")
		return m
	}
	m.Queues = make(map[string]int64, len(queues))
	for i, q := range queues {
		m.Queues[q], _ = cmds[i].Result()
	}
	return m
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}

package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/exstem-engine/internal/config"
	"github.com/stemsi/exstem-engine/internal/repository"
	"github.com/stemsi/exstem-engine/internal/response"
)

const (
	keepAliveInterval = 30 * time.Second
	maxResultsLimit   = 200
)

// MonitorHandler gives proctors a live integrity feed and the persisted
// results.
type MonitorHandler struct {
	rdb           *redis.Client
	resultRepo    *repository.ResultRepository
	integrityRepo *repository.IntegrityRepository
	log           zerolog.Logger
}

func NewMonitorHandler(
	rdb *redis.Client,
	resultRepo *repository.ResultRepository,
	integrityRepo *repository.IntegrityRepository,
	log zerolog.Logger,
) *MonitorHandler {
	return &MonitorHandler{
		rdb:           rdb,
		resultRepo:    resultRepo,
		integrityRepo: integrityRepo,
		log:           log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorAllSSE godoc
// GET /api/v1/monitor/stream
// Streams integrity events of every session.
func (h *MonitorHandler) MonitorAllSSE(c *gin.Context) {
	h.stream(c, config.CacheKey.MonitorChannel(), "all")
}

// MonitorSessionSSE godoc
// GET /api/v1/sessions/:id/monitor
// Streams integrity events of one session.
func (h *MonitorHandler) MonitorSessionSSE(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}
	h.stream(c, config.CacheKey.SessionMonitorChannel(id), id.String())
}

func (h *MonitorHandler) stream(c *gin.Context, channel, scope string) {
	reqCtx := c.Request.Context()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	pubsub := h.rdb.Subscribe(reqCtx, channel)
	defer pubsub.Close()

	ch := pubsub.Channel()

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	h.log.Info().Str("scope", scope).Msg("Proctor attached to integrity SSE")

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("scope", scope).Msg("Proctor detached from integrity SSE")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Forward raw JSON; no need to decode.
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

// ListResults godoc
// GET /api/v1/results?limit=50&flagged=true
func (h *MonitorHandler) ListResults(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation,
			map[string]string{"limit": "limit must be a positive integer"})
		return
	}
	if limit > maxResultsLimit {
		limit = maxResultsLimit
	}
	flaggedOnly := c.Query("flagged") == "true"

	results, err := h.resultRepo.ListRecent(c.Request.Context(), limit, flaggedOnly)
	if err != nil {
		h.log.Error().Err(err).Msg("List results failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"results": results})
}

// ListIntegrityEvents godoc
// GET /api/v1/sessions/:id/integrity-events
func (h *MonitorHandler) ListIntegrityEvents(c *gin.Context) {
	id, ok := parseSessionID(c)
	if !ok {
		return
	}

	events, err := h.integrityRepo.ListBySession(c.Request.Context(), id)
	if err != nil {
		h.log.Error().Err(err).Str("session_id", id.String()).Msg("List integrity events failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"events": events})
}

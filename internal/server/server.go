// Package server exposes the assistant over HTTP and websocket.
package server

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/nexa-assistant/nexa/internal/history"
	"github.com/nexa-assistant/nexa/internal/intent"
)

const (
	defaultHistoryLimit = 20
	maxHistoryLimit     = 200
)

// Pipeline is the utterance-processing surface the server exposes.
type Pipeline interface {
	Process(ctx context.Context, utterance string) intent.PublicResponse
	SetPersonality(role string)
	PersonalityRole() string
}

// HistoryReader serves the diagnostics endpoint.
type HistoryReader interface {
	Recent(ctx context.Context, n int) ([]history.Entry, error)
}

// Handlers groups the server's collaborators.
type Handlers struct {
	pipeline Pipeline
	history  HistoryReader
	metrics  http.Handler
	logger   *zap.Logger
}

func NewHandlers(pipeline Pipeline, history HistoryReader, metrics http.Handler, logger *zap.Logger) *Handlers {
	return &Handlers{pipeline: pipeline, history: history, metrics: metrics, logger: logger}
}

// Router registers routes and middleware. mode is a gin mode string
// ("release", "debug", "test").
func Router(h *Handlers, mode string) *gin.Engine {
	gin.SetMode(mode)
	r := gin.New()
	r.Use(Recovery(h.logger), Logger(h.logger))

	v1 := r.Group("/api/v1")
	{
		v1.POST("/utterance", h.utterance)
		v1.POST("/personality", h.setPersonality)
		v1.GET("/personality", h.getPersonality)
		v1.GET("/history", h.recentHistory)
		v1.GET("/messages/:name", h.cannedMessage)
	}

	r.GET("/ws", h.websocket)
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if h.metrics != nil {
		r.GET("/metrics", gin.WrapH(h.metrics))
	}
	return r
}

type utteranceRequest struct {
	Request string `json:"request"`
}

func (h *Handlers) utterance(c *gin.Context) {
	var req utteranceRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Request == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be JSON with a non-empty 'request' field"})
		return
	}
	c.JSON(http.StatusOK, h.pipeline.Process(c.Request.Context(), req.Request))
}

type personalityRequest struct {
	Personality string `json:"personality"`
}

func (h *Handlers) setPersonality(c *gin.Context) {
	var req personalityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Personality == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be JSON with a non-empty 'personality' field"})
		return
	}
	h.pipeline.SetPersonality(req.Personality)
	c.JSON(http.StatusOK, gin.H{"personality": req.Personality})
}

func (h *Handlers) getPersonality(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"personality": h.pipeline.PersonalityRole()})
}

func (h *Handlers) recentHistory(c *gin.Context) {
	limit := defaultHistoryLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxHistoryLimit {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and " + strconv.Itoa(maxHistoryLimit)})
			return
		}
		limit = n
	}
	entries, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("reading history", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "history unavailable"})
		return
	}
	if entries == nil {
		entries = []history.Entry{}
	}
	c.JSON(http.StatusOK, gin.H{"entries": entries})
}

func (h *Handlers) cannedMessage(c *gin.Context) {
	msg, ok := cannedMessages[c.Param("name")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown message"})
		return
	}
	c.JSON(http.StatusOK, msg)
}

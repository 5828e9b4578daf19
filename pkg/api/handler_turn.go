package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/shreyasgm/ask-atlas-sub001/pkg/conversations"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/events"
	"github.com/shreyasgm/ask-atlas-sub001/pkg/graph"
)

// TurnRequest is the body of POST /api/turns.
type TurnRequest struct {
	ThreadID  string `json:"thread_id"`
	SessionID string `json:"session_id" binding:"required"`
	Message   string `json:"message" binding:"required"`

	// Optional SQL generation overrides.
	OverrideSchema    string `json:"override_schema,omitempty"`
	OverrideDirection string `json:"override_direction,omitempty"`
	OverrideMode      string `json:"override_mode,omitempty"`
}

// streamTurn runs one turn and streams StreamData events as
// server-sent events. A terminal "done" or "error" event closes the
// stream.
func (s *Server) streamTurn(c *gin.Context) {
	var req TurnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ThreadID == "" {
		req.ThreadID = uuid.NewString()
	}

	ctx := c.Request.Context()
	title := conversations.DeriveTitle(req.Message, 50)
	if _, err := s.conversations.Create(ctx, req.ThreadID, req.SessionID, title); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create conversation"})
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Thread-ID", req.ThreadID)
	c.Writer.Flush()

	stream := make(chan events.StreamData, 64)
	errCh := make(chan error, 1)
	go func() {
		defer close(stream)
		_, err := s.executor.ExecuteTurn(ctx, req.ThreadID, req.Message, graph.TurnOptions{
			OverrideSchema:    req.OverrideSchema,
			OverrideDirection: req.OverrideDirection,
			OverrideMode:      req.OverrideMode,
		}, func(event events.StreamData) {
			select {
			case stream <- event:
			case <-ctx.Done():
			}
		})
		errCh <- err
	}()

	for event := range stream {
		writeSSE(c, "message", event)
	}

	if err := <-errCh; err != nil {
		slog.Error("Turn failed", "thread_id", req.ThreadID, "error", err)
		writeSSE(c, "error", gin.H{"error": err.Error()})
		return
	}

	if err := s.conversations.UpdateTimestamp(ctx, req.ThreadID); err != nil {
		slog.Warn("Failed to touch conversation", "thread_id", req.ThreadID, "error", err)
	}
	writeSSE(c, "done", gin.H{"thread_id": req.ThreadID})
}

func writeSSE(c *gin.Context, event string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	c.Writer.WriteString("event: " + event + "\n")
	c.Writer.WriteString("data: " + string(data) + "\n\n")
	c.Writer.Flush()
}

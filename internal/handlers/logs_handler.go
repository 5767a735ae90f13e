package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/transferpeer/peerconnect/pkg/logger"
	"github.com/transferpeer/peerconnect/pkg/metrics"
	"go.uber.org/zap"
)

const frontendLogFile = "frontend.log"

type LogsHandler struct {
	mu  sync.Mutex
	out io.Writer
}

type LogEntry struct {
	Timestamp string         `json:"timestamp" binding:"required"`
	Level     string         `json:"level" binding:"required,oneof=debug info warn error"`
	Message   string         `json:"message" binding:"required,max=4000"`
	Context   map[string]any `json:"context,omitempty"`
}

type LogBatchRequest struct {
	Logs []LogEntry `json:"logs" binding:"required,min=1,max=100,dive"`
}

// NewLogsHandler writes SPA log batches to a rotated frontend.log under logDir
func NewLogsHandler(logDir string) *LogsHandler {
	return NewLogsHandlerWithWriter(logger.NewRotatingFile(logDir, frontendLogFile))
}

// NewLogsHandlerWithWriter writes SPA log batches to out as JSON lines
func NewLogsHandlerWithWriter(out io.Writer) *LogsHandler {
	return &LogsHandler{out: out}
}

// ReceiveFrontendLogs handles POST /api/v1/logs
func (h *LogsHandler) ReceiveFrontendLogs(c *gin.Context) {
	var req LogBatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		if details := ParseValidationErrors(err); len(details) > 0 {
			respondErrorWithDetails(c, http.StatusBadRequest, "Validation failed", details, err)
			return
		}
		respondError(c, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	if err := h.write(req.Logs); err != nil {
		logger.Error("Failed to write frontend logs", zap.Error(err))
		respondError(c, http.StatusInternalServerError, "Failed to write logs", err)
		return
	}

	for _, entry := range req.Logs {
		metrics.FrontendLogsReceived.WithLabelValues(strings.ToLower(entry.Level)).Inc()
	}
	logger.Debug("Received frontend logs", zap.Int("count", len(req.Logs)))
	c.JSON(http.StatusOK, gin.H{"success": true, "received": len(req.Logs)})
}

func (h *LogsHandler) write(entries []LogEntry) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	enc := json.NewEncoder(h.out)
	for _, entry := range entries {
		line := make(map[string]any, len(entry.Context)+4)
		for k, v := range entry.Context {
			line[k] = v
		}
		line["ts"] = entry.Timestamp
		line["level"] = entry.Level
		line["msg"] = entry.Message
		line["service"] = "spa"

		if err := enc.Encode(line); err != nil {
			return fmt.Errorf("failed to encode log entry: %w", err)
		}
	}
	return nil
}

// Package handler exposes the notification log and dispatch endpoints.
package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"breed_site_backend/internal/notifications/service"
	"breed_site_backend/internal/notifications/transport"
	"breed_site_backend/platform/httpkit"
)

type Handler struct {
	dispatcher *service.Dispatcher
}

func New(dispatcher *service.Dispatcher) *Handler {
	return &Handler{dispatcher: dispatcher}
}

// Name identifies the module in startup logs.
func (h *Handler) Name() string { return "notifications" }

// RegisterRoutes mounts the notification endpoints on the router.
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/notifications", h.Dispatch)
	r.GET("/notifications", h.List)
	r.GET("/notifications/stats", h.Stats)
	r.GET("/notifications/:id", h.Get)
	r.POST("/notifications/retry-sweep", h.RetrySweep)
	r.POST("/notifications/purge", h.Purge)
	r.GET("/test-twilio", h.TestChannel)
}

type dispatchRequest struct {
	Type      string         `json:"type"`
	Data      map[string]any `json:"data"`
	Recipient string         `json:"recipient"`
}

type dispatchResponse struct {
	Success   bool   `json:"success"`
	LogID     string `json:"logId"`
	MessageID string `json:"messageId,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Dispatch accepts a notification event and delivers it synchronously. A
// provider failure still returns the log id so the caller can find the
// failed record.
func (h *Handler) Dispatch(c *gin.Context) {
	var req dispatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, http.StatusBadRequest, "invalid JSON body")
		return
	}

	event := &transport.Event{Type: req.Type, Data: req.Data}
	rec, err := h.dispatcher.Dispatch(c.Request.Context(), event, req.Recipient)
	if err != nil {
		if rec.ID == "" {
			httpkit.HandleError(c, err)
			return
		}
		c.JSON(http.StatusBadGateway, dispatchResponse{
			Success: false,
			LogID:   rec.ID,
			Error:   rec.Error,
		})
		return
	}

	httpkit.OK(c, dispatchResponse{
		Success:   true,
		LogID:     rec.ID,
		MessageID: rec.MessageID,
	})
}

type listResponse struct {
	Success       bool               `json:"success"`
	Notifications []transport.Record `json:"notifications"`
	Total         int                `json:"total"`
	Limit         int                `json:"limit"`
	Offset        int                `json:"offset"`
}

// List returns log records newest first. Supports status, limit and offset
// query parameters.
func (h *Handler) List(c *gin.Context) {
	limit := queryInt(c, "limit", 20, 100)
	offset := queryInt(c, "offset", 0, 1<<30)

	items, total, err := h.dispatcher.List(c.Request.Context(), c.Query("status"), c.Query("type"), limit, offset)
	if httpkit.HandleError(c, err) {
		return
	}

	httpkit.OK(c, listResponse{
		Success:       true,
		Notifications: items,
		Total:         total,
		Limit:         limit,
		Offset:        offset,
	})
}

// Get returns a single log record by id.
func (h *Handler) Get(c *gin.Context) {
	rec, err := h.dispatcher.Get(c.Request.Context(), c.Param("id"))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"success": true, "notification": rec})
}

// Stats returns per-status record counts.
func (h *Handler) Stats(c *gin.Context) {
	stats, err := h.dispatcher.Stats(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"success": true, "stats": stats})
}

// RetrySweep re-attempts failed notifications with retries left.
func (h *Handler) RetrySweep(c *gin.Context) {
	attempted, succeeded, err := h.dispatcher.RetrySweep(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"success": true, "attempted": attempted, "succeeded": succeeded})
}

// Purge deletes log records older than the retention window.
func (h *Handler) Purge(c *gin.Context) {
	purged, err := h.dispatcher.Purge(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"success": true, "purged": purged})
}

// TestChannel verifies the active message channel's credentials.
func (h *Handler) TestChannel(c *gin.Context) {
	if err := h.dispatcher.PingChannel(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": err.Error()})
		return
	}
	httpkit.OK(c, gin.H{
		"success":    true,
		"connection": h.dispatcher.ChannelName(),
		"message":    "channel credentials verified",
	})
}

func queryInt(c *gin.Context, key string, fallback, max int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return fallback
	}
	if value > max {
		return max
	}
	return value
}

package handlers

import (
	"errors"
	"net/http"

	"controme_bridge"
	"controme_bridge/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	statusOK        = "ok"
	statusDegraded  = "degraded"
	statusRefreshed = "refreshed"

	errNoSnapshotMsg = "no snapshot available yet"
	errRefreshMsg    = "refresh failed; previous snapshot retained"
)

// logAndJSONError centralizes error logging and the JSON error response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}

// statusForError maps service errors to HTTP status codes.
func statusForError(err error) int {
	var unknownParam *controme_bridge.UnknownParameterError
	var transport *controme_bridge.TransportError
	switch {
	case errors.As(err, &unknownParam):
		return http.StatusNotFound
	case errors.Is(err, service.ErrThermostatNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrNoSnapshot):
		return http.StatusServiceUnavailable
	case errors.As(err, &transport):
		return http.StatusBadGateway
	default:
		return http.StatusBadRequest
	}
}

// @Summary      Health check
// @Description  Reports degraded when the last refresh attempt failed.
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	resp := gin.H{"status": statusOK}
	if err := h.services.LastError(); err != nil {
		resp["status"] = statusDegraded
		resp["last_error"] = err.Error()
	}
	if snap := h.services.Coordinator.Snapshot(); snap != nil {
		resp["snapshot_taken_at"] = snap.TakenAt
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      Current snapshot
// @Tags         gateway
// @Produce      json
// @Success      200  {object}  controme_bridge.Snapshot
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/snapshot [get]
// @Security     BearerAuth
func (h *Handler) getSnapshot(c *gin.Context) {
	snap := h.services.Coordinator.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoSnapshotMsg})
		return
	}
	c.JSON(http.StatusOK, snap)
}

// @Summary      Request an out-of-cycle refresh
// @Description  Coalesces with an in-flight refresh; callers get the result of the attempt that actually ran.
// @Tags         gateway
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /api/v1/refresh [post]
// @Security     BearerAuth
func (h *Handler) requestRefresh(c *gin.Context) {
	if err := h.services.Coordinator.Refresh(c.Request.Context()); err != nil {
		h.logAndJSONError(c, http.StatusBadGateway, errRefreshMsg, "refresh_request_failed", err)
		return
	}
	resp := gin.H{"status": statusRefreshed}
	if snap := h.services.Coordinator.Snapshot(); snap != nil {
		resp["snapshot_taken_at"] = snap.TakenAt
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary      System metrics
// @Description  Valve-weighted and room-weighted heating demand plus demand room lists.
// @Tags         gateway
// @Produce      json
// @Success      200  {object}  service.SystemMetrics
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/metrics [get]
// @Security     BearerAuth
func (h *Handler) getMetrics(c *gin.Context) {
	m, err := h.services.Monitoring.Metrics()
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, m)
}

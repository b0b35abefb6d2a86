package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Request DTO for a parameter write.
type setParameterRequest struct {
	Value any `json:"value" binding:"required"`
}

// SetParameterRequest is an exported model for Swagger docs of the parameter payload.
type SetParameterRequest struct {
	// Value to write. Numbers for numeric parameters, booleans for switches,
	// strings for enumerated parameters.
	Value any `json:"value" example:"2.5"`
}

// Request DTO for a setpoint write.
type setTemperatureRequest struct {
	TargetC *float64 `json:"target_c" binding:"required"`
}

// @Summary      List thermostats
// @Tags         thermostats
// @Produce      json
// @Success      200  {object}  map[string]interface{}  "count, thermostats"
// @Failure      401  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/thermostats [get]
// @Security     BearerAuth
func (h *Handler) listThermostats(c *gin.Context) {
	snap := h.services.Coordinator.Snapshot()
	if snap == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": errNoSnapshotMsg})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"count":       len(snap.Thermostats),
		"thermostats": snap.Thermostats,
	})
}

// @Summary      Get one thermostat
// @Tags         thermostats
// @Produce      json
// @Param        id   path   string  true  "Device ID, e.g. OD1234*5"
// @Success      200  {object}  controme_bridge.Thermostat
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Failure      503  {object}  map[string]string
// @Router       /api/v1/thermostats/{id} [get]
// @Security     BearerAuth
func (h *Handler) getThermostat(c *gin.Context) {
	t, err := h.services.Monitoring.Thermostat(c.Param("id"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, t)
}

// @Summary      Read one writable parameter
// @Description  Reports available=false while the parameter is inside its post-write cooldown window.
// @Tags         thermostats
// @Produce      json
// @Param        id    path   string  true  "Device ID"
// @Param        name  path   string  true  "Parameter name, e.g. sensor_offset"
// @Success      200   {object}  service.ParameterReading
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/parameters/{name} [get]
// @Security     BearerAuth
func (h *Handler) getParameter(c *gin.Context) {
	r, err := h.services.Monitoring.ParameterValue(c.Param("id"), c.Param("name"))
	if err != nil {
		c.JSON(statusForError(err), gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, r)
}

// @Summary      Write one parameter
// @Description  Numbers are clamped to the parameter's range. A successful write starts a 60s cooldown for this device+parameter pair.
// @Tags         thermostats
// @Accept       json
// @Produce      json
// @Param        id    path   string               true  "Device ID"
// @Param        name  path   string               true  "Parameter name"
// @Param        body  body   SetParameterRequest  true  "Value payload"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/parameters/{name} [put]
// @Security     BearerAuth
func (h *Handler) setParameter(c *gin.Context) {
	var req setParameterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}

	deviceID := c.Param("id")
	name := c.Param("name")
	if err := h.services.Dispatcher.SetParameter(c.Request.Context(), deviceID, name, req.Value); err != nil {
		h.logAndJSONError(c, statusForError(err), err.Error(), "parameter_set_failed", err,
			"device_id", deviceID, "parameter", name)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "written", "parameter": name})
}

// @Summary      Set the room setpoint
// @Description  Writes the setpoint of the room this thermostat is assigned to. Clamped to 5-30 °C.
// @Tags         thermostats
// @Accept       json
// @Produce      json
// @Param        id    path   string                 true  "Device ID"
// @Param        body  body   setTemperatureRequest  true  "Setpoint payload"
// @Success      200   {object}  map[string]string
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Failure      502   {object}  map[string]string
// @Router       /api/v1/thermostats/{id}/temperature [put]
// @Security     BearerAuth
func (h *Handler) setTemperature(c *gin.Context) {
	var req setTemperatureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid body: " + err.Error()})
		return
	}

	deviceID := c.Param("id")
	if err := h.services.Dispatcher.SetRoomTemperature(c.Request.Context(), deviceID, *req.TargetC); err != nil {
		h.logAndJSONError(c, statusForError(err), err.Error(), "temperature_set_failed", err,
			"device_id", deviceID)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "written"})
}

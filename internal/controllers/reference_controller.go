package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ListZones returns the delivery zones loaded when the workspace opened.
func (h *Handler) ListZones(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	zones, err := ws.Reference.Zones()
	c.JSON(http.StatusOK, gin.H{"zones": zones, "error": errString(err)})
}

// ListTimeZones returns the delivery time-slots.
func (h *Handler) ListTimeZones(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	tzs, err := ws.Reference.TimeZones()
	c.JSON(http.StatusOK, gin.H{"timezones": tzs, "error": errString(err)})
}

// ReloadReference refetches zones and time-slots.
func (h *Handler) ReloadReference(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := ws.Reference.Load(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	zones, _ := ws.Reference.Zones()
	tzs, _ := ws.Reference.TimeZones()
	c.JSON(http.StatusOK, gin.H{"zones": zones, "timezones": tzs})
}

// Counts returns the sidebar counters.
func (h *Handler) Counts(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ws.Counters.Counts())
}

// RefreshCounts refetches both feeds and returns the counters.
func (h *Handler) RefreshCounts(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, ws.Counters.RefreshCounts(c.Request.Context()))
}

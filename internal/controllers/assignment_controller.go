package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"frost_dispatch/internal/assignment"
)

// AssignmentState switches the view to ?zone=&timezone= when given and
// returns the rows, markers and selection. A detail fetch failure is
// reported in the state's "error" field.
func (h *Handler) AssignmentState(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	var tab assignment.Tab
	if err := c.ShouldBindQuery(&tab); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if tab.ZoneID != 0 || tab.TimeZoneID != 0 {
		err := ws.View.SelectTab(c.Request.Context(), tab)
		if errors.Is(err, assignment.ErrStale) {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, ws.View.State())
}

// AssignmentMarkers returns the markers of the current tab as GeoJSON.
func (h *Handler) AssignmentMarkers(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	b, err := assignment.MarkersGeoJSON(ws.View.Markers()).MarshalJSON()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not encode markers"})
		return
	}
	c.Data(http.StatusOK, "application/geo+json", b)
}

// ToggleOrder flips the selection of one order of the current tab.
func (h *Handler) ToggleOrder(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "orderId")
	if !ok {
		return
	}
	selected, err := ws.View.Toggle(id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "selected": selected, "state": ws.View.State()})
}

type boxInput struct {
	From assignment.LatLng `json:"from" binding:"required"`
	To   assignment.LatLng `json:"to" binding:"required"`
}

// SelectBox adds every marker inside the dragged rectangle to the selection.
func (h *Handler) SelectBox(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	var input boxInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	hit := ws.View.SelectBox(input.From, input.To)
	if hit == nil {
		hit = []uint{}
	}
	c.JSON(http.StatusOK, gin.H{"hit": hit, "state": ws.View.State()})
}

// SelectAll selects every order of the current tab.
func (h *Handler) SelectAll(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	ws.View.SelectAll()
	c.JSON(http.StatusOK, ws.View.State())
}

// DeselectAll empties the selection.
func (h *Handler) DeselectAll(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	ws.View.DeselectAll()
	c.JSON(http.StatusOK, ws.View.State())
}

type assignInput struct {
	RouteID uint `json:"route_id"`
}

// AssignSelected assigns the selection to a route. The route id is checked
// by the action itself so an empty body yields the same validation error.
func (h *Handler) AssignSelected(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	var input assignInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := ws.Actions.AssignSelected(c.Request.Context(), input.RouteID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"state": ws.View.State(), "counts": ws.Counters.Counts()})
}

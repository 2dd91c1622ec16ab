package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"frost_dispatch/internal/feeds"
	"frost_dispatch/internal/models"
)

type orderFeedResponse struct {
	Orders    []models.Order `json:"orders"`
	Error     string         `json:"error,omitempty"`
	FetchedAt time.Time      `json:"fetched_at"`
}

func orderFeedBody(snap feeds.OrderSnapshot, statuses []models.OrderStatus) orderFeedResponse {
	orders := snap.Orders
	if len(statuses) > 0 {
		orders = models.FilterByStatus(orders, statuses...)
	}
	return orderFeedResponse{Orders: orders, Error: errString(snap.Err), FetchedAt: snap.FetchedAt}
}

func statusFilter(c *gin.Context) []models.OrderStatus {
	var out []models.OrderStatus
	for _, s := range strings.Split(c.Query("status"), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, models.OrderStatus(s))
		}
	}
	return out
}

// ListOrders returns the order feed, optionally filtered by ?status=a,b.
// A failed fetch is reported in "error" next to an empty list.
func (h *Handler) ListOrders(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, orderFeedBody(ws.Orders.Snapshot(), statusFilter(c)))
}

// RefreshOrders refetches the order feed now.
func (h *Handler) RefreshOrders(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := ws.Orders.Refresh(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderFeedBody(ws.Orders.Snapshot(), statusFilter(c)))
}

type cancelOrderInput struct {
	Reason string `json:"reason"`
}

// CancelOrder cancels an order, then refetches the feeds and re-derives the
// assignment view so the order leaves the rows and the selection.
func (h *Handler) CancelOrder(c *gin.Context) {
	ws, s, ok := h.workspace(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input cancelOrderInput
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	if err := h.api.CancelOrder(c.Request.Context(), s, id, input.Reason); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"counts": ws.Actions.Refresh(c.Request.Context())})
}

// UpdateOrder forwards an admin correction of an order.
func (h *Handler) UpdateOrder(c *gin.Context) {
	ws, s, ok := h.workspace(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var patch map[string]any
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if len(patch) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "nothing to update"})
		return
	}

	order, err := h.api.UpdateOrderByAdmin(c.Request.Context(), s, id, patch)
	if err != nil {
		respondError(c, err)
		return
	}
	ws.Actions.Refresh(c.Request.Context())
	c.JSON(http.StatusOK, order)
}

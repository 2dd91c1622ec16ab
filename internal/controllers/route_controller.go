package controllers

import (
	"cmp"
	"context"
	"fmt"
	"net/http"
	"slices"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/archive"
	"frost_dispatch/internal/assignment"
	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/export"
	"frost_dispatch/internal/feeds"
	"frost_dispatch/internal/models"
	"frost_dispatch/internal/workspace"
)

type routeFeedResponse struct {
	Routes            []models.Route `json:"routes"`
	PendingSettlement []models.Route `json:"pending_settlement"`
	Error             string         `json:"error,omitempty"`
	FetchedAt         time.Time      `json:"fetched_at"`
}

func routeFeedBody(snap feeds.RouteSnapshot, status string) routeFeedResponse {
	routes := snap.Routes
	if status != "" {
		routes = slices.DeleteFunc(slices.Clone(routes), func(r models.Route) bool {
			return string(r.LocalStatus) != status
		})
	}
	return routeFeedResponse{
		Routes:            routes,
		PendingSettlement: snap.PendingSettlement,
		Error:             errString(snap.Err),
		FetchedAt:         snap.FetchedAt,
	}
}

// ListRoutes returns the open routes (optionally ?status=created|active) and
// the closed routes pending settlement.
func (h *Handler) ListRoutes(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, routeFeedBody(ws.Routes.Snapshot(), c.Query("status")))
}

// RefreshRoutes refetches the route feed now.
func (h *Handler) RefreshRoutes(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	if err := ws.Routes.Refresh(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, routeFeedBody(ws.Routes.Snapshot(), c.Query("status")))
}

// CreateRoute creates a route, optionally assigning the current selection to it.
func (h *Handler) CreateRoute(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	var input assignment.CreateRouteInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	route, err := ws.Actions.CreateRoute(c.Request.Context(), input)
	if err != nil {
		if route.ID != 0 {
			// created, but the chained assignment failed
			c.JSON(http.StatusBadGateway, gin.H{"error": err.Error(), "route": route})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, route)
}

type routePatchInput struct {
	Delivery      *uint      `json:"delivery"`
	ScheduledDate *time.Time `json:"scheduled_date"`
	Name          *string    `json:"name"`
	Orders        []uint     `json:"orders"`
}

// UpdateRoute changes driver, schedule, name or orders of a route.
func (h *Handler) UpdateRoute(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input routePatchInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	patch := backend.RoutePatch{
		Delivery:      input.Delivery,
		ScheduledDate: input.ScheduledDate,
		Name:          input.Name,
		Orders:        input.Orders,
	}
	if err := ws.Actions.UpdateRoute(c.Request.Context(), id, patch); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, routeFeedBody(ws.Routes.Snapshot(), ""))
}

// CancelRoute cancels a route.
func (h *Handler) CancelRoute(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := ws.Actions.CancelRoute(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, routeFeedBody(ws.Routes.Snapshot(), ""))
}

// RemoveOrderFromRoute takes one order back out of a route.
func (h *Handler) RemoveOrderFromRoute(c *gin.Context) {
	ws, _, ok := h.workspace(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	orderID, ok := paramID(c, "orderId")
	if !ok {
		return
	}
	if err := ws.Actions.RemoveOrder(c.Request.Context(), id, orderID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, routeFeedBody(ws.Routes.Snapshot(), ""))
}

// ExportRoute streams the route sheet as Latin-1 CSV.
func (h *Handler) ExportRoute(c *gin.Context) {
	ws, s, ok := h.workspace(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}

	route, orders, err := h.routeWithOrders(c.Request.Context(), ws, s, id)
	if err != nil {
		respondError(c, err)
		return
	}

	c.Header("Content-Type", export.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename(route)))
	c.Status(http.StatusOK)
	if err := export.WriteRouteCSV(c.Writer, route, orders); err != nil {
		logrus.WithError(err).WithField("route_id", id).Error("Writing route export failed.")
	}
}

// routeWithOrders finds the route in the feed, or fetches it, and returns its
// orders in delivery order.
func (h *Handler) routeWithOrders(ctx context.Context, ws *workspace.Workspace, s backend.Session, id uint) (models.Route, []models.Order, error) {
	route, found := ws.Routes.Find(id)
	if !found || len(route.Orders) == 0 {
		fetched, err := h.api.Route(ctx, s, id)
		if err != nil {
			return models.Route{}, nil, err
		}
		route = fetched
	}

	orders := slices.Clone(route.Orders)
	if len(orders) == 0 {
		for _, o := range ws.Orders.Orders() {
			if o.RouteID != nil && *o.RouteID == id {
				orders = append(orders, o)
			}
		}
	}
	slices.SortStableFunc(orders, func(a, b models.Order) int {
		if c := cmp.Compare(a.RouteOrder, b.RouteOrder); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return route, orders, nil
}

// RouteTrail returns the latest archived driver positions of a route, newest first.
func (h *Handler) RouteTrail(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	limit := archive.DefaultTrailLimit
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 && v <= 5000 {
		limit = v
	}
	trail, err := h.archive.RouteTrail(c.Request.Context(), id, limit)
	if err != nil {
		logrus.WithError(err).WithField("route_id", id).Error("Reading route trail failed.")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not read route trail"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"route_id": id, "positions": trail})
}

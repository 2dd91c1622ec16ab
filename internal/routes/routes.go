package routes

import (
	"io"
	"net/http"

	ginlog "github.com/gin-contrib/logger"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"frost_dispatch/internal/controllers"
	"frost_dispatch/internal/middleware"
)

// SetupRouter wires every endpoint of the dashboard API. Access logs go to accessLog.
func SetupRouter(h *controllers.Handler, tokens *middleware.Tokens, gatherer prometheus.Gatherer, accessLog io.Writer) *gin.Engine {
	r := gin.New()
	r.Use(
		middleware.RequestID(),
		ginlog.SetLogger(
			ginlog.WithWriter(accessLog),
			ginlog.WithSkipPath([]string{"/healthz", "/metrics"}),
			ginlog.WithDefaultLevel(zerolog.InfoLevel),
		),
		gin.Recovery(),
	)

	r.GET("/healthz", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "ok"}) })
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	authed := r.Group("/")
	authed.Use(tokens.RequireSession())

	AuthRoutes(r, authed, h)
	OrderRoutes(authed, h)
	RouteRoutes(authed, h)
	AssignmentRoutes(authed, h)
	AdminRoutes(authed, h)
	WebSocketRoutes(authed, h)

	return r
}

func AuthRoutes(r *gin.Engine, authed *gin.RouterGroup, h *controllers.Handler) {
	r.POST("/auth/login", h.Login)
	authed.DELETE("/auth/session", h.Logout)
}

func OrderRoutes(rg *gin.RouterGroup, h *controllers.Handler) {
	orders := rg.Group("/orders")
	{
		orders.GET("", h.ListOrders)
		orders.POST("/refresh", h.RefreshOrders)
		orders.POST("/:id/cancel", h.CancelOrder)
		orders.PATCH("/:id", h.UpdateOrder)
	}

	rg.GET("/counters", h.Counts)
	rg.POST("/counters/refresh", h.RefreshCounts)

	payments := rg.Group("/payments")
	{
		payments.POST("", h.CreatePayment)
		payments.PATCH("/:id/status", h.UpdatePaymentStatus)
	}
}

func RouteRoutes(rg *gin.RouterGroup, h *controllers.Handler) {
	routes := rg.Group("/routes")
	{
		routes.GET("", h.ListRoutes)
		routes.POST("", h.CreateRoute)
		routes.POST("/refresh", h.RefreshRoutes)
		routes.PATCH("/:id", h.UpdateRoute)
		routes.POST("/:id/cancel", h.CancelRoute)
		routes.POST("/:id/remove-order/:orderId", h.RemoveOrderFromRoute)
		routes.GET("/:id/export.csv", h.ExportRoute)
		routes.GET("/:id/trail", h.RouteTrail)
	}

	ref := rg.Group("/reference")
	{
		ref.GET("/zones", h.ListZones)
		ref.GET("/timezones", h.ListTimeZones)
		ref.POST("/reload", h.ReloadReference)
	}
}

func AssignmentRoutes(rg *gin.RouterGroup, h *controllers.Handler) {
	a := rg.Group("/assignment")
	{
		a.GET("", h.AssignmentState)
		a.GET("/markers.geojson", h.AssignmentMarkers)
		a.POST("/toggle/:orderId", h.ToggleOrder)
		a.POST("/box", h.SelectBox)
		a.POST("/select-all", h.SelectAll)
		a.POST("/deselect-all", h.DeselectAll)
		a.POST("/assign", h.AssignSelected)
	}
}

func AdminRoutes(rg *gin.RouterGroup, h *controllers.Handler) {
	admins := rg.Group("/admins")
	admins.Use(middleware.RequireRole("admin", "superadmin"))
	{
		admins.GET("", h.ListAdmins)
		admins.POST("", h.CreateAdmin)
		admins.PATCH("/:id", h.UpdateAdmin)
		admins.POST("/:id/change-password", h.ChangeAdminPassword)
	}
}

func WebSocketRoutes(rg *gin.RouterGroup, h *controllers.Handler) {
	ws := rg.Group("/ws")
	{
		ws.GET("/tracking/:routeId", h.TrackRoute)
		ws.GET("/cash-boxes", h.TrackCashBoxes)
	}
}

// Package controllers exposes the operator workspaces over JSON and websockets.
package controllers

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/archive"
	"frost_dispatch/internal/assignment"
	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/middleware"
	"frost_dispatch/internal/models"
	"frost_dispatch/internal/tracking"
	"frost_dispatch/internal/workspace"
)

// API is the part of the backend client the handlers forward to directly.
type API interface {
	Login(ctx context.Context, email, password string) (backend.LoginResult, error)
	Route(ctx context.Context, s backend.Session, routeID uint) (models.Route, error)
	CancelOrder(ctx context.Context, s backend.Session, orderID uint, reason string) error
	UpdateOrderByAdmin(ctx context.Context, s backend.Session, orderID uint, patch map[string]any) (models.Order, error)
	AdminsByRole(ctx context.Context, s backend.Session, role string) ([]models.Admin, error)
	CreateAdmin(ctx context.Context, s backend.Session, in models.AdminInput) (models.Admin, error)
	UpdateAdmin(ctx context.Context, s backend.Session, id uint, in models.AdminInput) (models.Admin, error)
	ChangeAdminPassword(ctx context.Context, s backend.Session, id uint, password string) error
	CreatePayment(ctx context.Context, s backend.Session, p models.Payment) (models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, s backend.Session, paymentID uint, status string) error
}

// Handler holds what every endpoint needs.
type Handler struct {
	api      API
	spaces   *workspace.Registry
	tokens   *middleware.Tokens
	archive  archive.Archive
	upgrader websocket.Upgrader
}

func NewHandler(api API, spaces *workspace.Registry, tokens *middleware.Tokens, arch archive.Archive, allowedOrigins []string) *Handler {
	if arch == nil {
		arch = archive.Nop{}
	}
	anyOrigin := slices.Contains(allowedOrigins, "*")
	return &Handler{
		api:     api,
		spaces:  spaces,
		tokens:  tokens,
		archive: arch,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || anyOrigin || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// workspace returns the caller's workspace, reopening it after an expiry.
func (h *Handler) workspace(c *gin.Context) (*workspace.Workspace, backend.Session, bool) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
		return nil, backend.Session{}, false
	}
	return h.spaces.Acquire(c.Request.Context(), s), s, true
}

// respondError maps domain and backend errors onto HTTP statuses.
func respondError(c *gin.Context, err error) {
	var (
		ve *assignment.ValidationError
		se *backend.StatusError
	)
	switch {
	case errors.As(err, &ve):
		body := gin.H{"error": ve.Message}
		if ve.Field != "" {
			body["field"] = ve.Field
		}
		c.JSON(http.StatusUnprocessableEntity, body)
	case errors.Is(err, tracking.ErrNoDriver):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, assignment.ErrStale):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, backend.ErrUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Backend temporarily unavailable"})
	case errors.As(err, &se) && se.Code >= 400 && se.Code < 500:
		c.JSON(se.Code, gin.H{"error": se.Body})
	default:
		logrus.WithError(err).WithField("path", c.FullPath()).Error("Backend request failed.")
		c.JSON(http.StatusBadGateway, gin.H{"error": "Backend request failed"})
	}
}

// paramID parses a positive integer path parameter.
func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

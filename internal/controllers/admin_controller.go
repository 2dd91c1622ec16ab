package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/models"
)

// ListAdmins lists staff by ?role= (drivers are role "delivery").
func (h *Handler) ListAdmins(c *gin.Context) {
	_, s, ok := h.workspace(c)
	if !ok {
		return
	}
	role := c.Query("role")
	if role == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "role query parameter is required"})
		return
	}
	admins, err := h.api.AdminsByRole(c.Request.Context(), s, role)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"admins": admins})
}

// CreateAdmin registers a new member of staff.
func (h *Handler) CreateAdmin(c *gin.Context) {
	_, s, ok := h.workspace(c)
	if !ok {
		return
	}
	var input models.AdminInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Name == nil || input.Email == nil || input.Role == nil || input.Password == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name, email, role and password are required"})
		return
	}

	admin, err := h.api.CreateAdmin(c.Request.Context(), s, input)
	if err != nil {
		respondError(c, err)
		return
	}
	logrus.WithFields(logrus.Fields{
		"session_id": s.ID,
		"admin_id":   admin.ID,
		"role":       admin.Role,
	}).Info("Admin created.")
	c.JSON(http.StatusCreated, admin)
}

// UpdateAdmin patches a member of staff.
func (h *Handler) UpdateAdmin(c *gin.Context) {
	_, s, ok := h.workspace(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input models.AdminInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.Password != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "use change-password to set a password"})
		return
	}

	admin, err := h.api.UpdateAdmin(c.Request.Context(), s, id, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, admin)
}

type changePasswordInput struct {
	Password string `json:"password" binding:"required,min=6"`
}

// ChangeAdminPassword sets a new password for a member of staff.
func (h *Handler) ChangeAdminPassword(c *gin.Context) {
	_, s, ok := h.workspace(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input changePasswordInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.api.ChangeAdminPassword(c.Request.Context(), s, id, input.Password); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"frost_dispatch/internal/backend"
	"frost_dispatch/internal/middleware"
)

type loginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Login exchanges operator credentials for a dashboard token and opens the
// operator's workspace.
func (h *Handler) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res, err := h.api.Login(c.Request.Context(), input.Email, input.Password)
	if err != nil {
		if backend.IsStatus(err, http.StatusUnauthorized) || backend.IsStatus(err, http.StatusForbidden) || backend.IsStatus(err, http.StatusNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		respondError(c, err)
		return
	}

	token, s, err := h.tokens.GenerateToken(res.Admin.ID, res.Admin.Role, res.Token)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not generate token"})
		return
	}
	h.spaces.Acquire(c.Request.Context(), s)

	logrus.WithFields(logrus.Fields{
		"session_id": s.ID,
		"admin_id":   s.AdminID,
		"role":       s.Role,
	}).Info("Operator logged in.")

	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"session_id": s.ID,
		"admin":      res.Admin,
	})
}

// Logout closes the caller's workspace.
func (h *Handler) Logout(c *gin.Context) {
	s, ok := middleware.SessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Session not found"})
		return
	}
	h.spaces.Close(s.ID)
	c.Status(http.StatusNoContent)
}

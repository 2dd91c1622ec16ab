package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"frost_dispatch/internal/models"
)

// CreatePayment registers a payment and refreshes the order feed.
func (h *Handler) CreatePayment(c *gin.Context) {
	ws, s, ok := h.workspace(c)
	if !ok {
		return
	}
	var input models.Payment
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	p, err := h.api.CreatePayment(c.Request.Context(), s, input)
	if err != nil {
		respondError(c, err)
		return
	}
	_ = ws.Orders.Refresh(c.Request.Context())
	c.JSON(http.StatusCreated, p)
}

type paymentStatusInput struct {
	Status string `json:"status" binding:"required"`
}

// UpdatePaymentStatus changes the status of a payment and refreshes the order feed.
func (h *Handler) UpdatePaymentStatus(c *gin.Context) {
	ws, s, ok := h.workspace(c)
	if !ok {
		return
	}
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var input paymentStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.api.UpdatePaymentStatus(c.Request.Context(), s, id, input.Status); err != nil {
		respondError(c, err)
		return
	}
	_ = ws.Orders.Refresh(c.Request.Context())
	c.Status(http.StatusNoContent)
}

package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/moonrisegoods/nps/internal/application/paymentservice"
	"github.com/moonrisegoods/nps/internal/domain"
)

type CheckoutHandler struct {
	paymentSvc paymentservice.IPaymentService
	logger     zerolog.Logger
}

func NewCheckoutHandler(paymentSvc paymentservice.IPaymentService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		paymentSvc: paymentSvc,
		logger:     logger,
	}
}

func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req domain.CheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	response, err := h.paymentSvc.CreateSession(c.Request.Context(), req)
	if err != nil {
		status := createErrorStatus(err)
		if status == http.StatusInternalServerError {
			h.logger.Error().Err(err).Msg("Session creation failed")
		}
		c.JSON(status, gin.H{
			"error": err.Error(),
		})
		return
	}

	c.JSON(http.StatusCreated, response)
}

func (h *CheckoutHandler) AttachCustomer(c *gin.Context) {
	var req domain.AttachCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return
	}

	if err := h.paymentSvc.AttachCustomer(c.Request.Context(), req.OrderID, req.Customer); err != nil {
		switch {
		case errors.Is(err, domain.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, domain.ErrSessionNotPending), errors.Is(err, domain.ErrValidation):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		default:
			h.logger.Error().Err(err).Str("order_id", req.OrderID).Msg("Customer attach failed")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to attach customer info"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *CheckoutHandler) GetStatus(c *gin.Context) {
	orderID := c.Param("order_id")

	response, err := h.paymentSvc.Reconcile(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}

		// An internal fault during reconciliation is retryable; the client
		// keeps polling and shows a warning, never a hard failure.
		h.logger.Error().Err(err).Str("order_id", orderID).Msg("Reconciliation failed")
		c.JSON(http.StatusOK, domain.StatusResponse{
			Status:  domain.SessionStatusError,
			OrderID: orderID,
		})
		return
	}

	c.JSON(http.StatusOK, response)
}

func createErrorStatus(err error) int {
	switch {
	case errors.Is(err, domain.ErrNotConfigured):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrNoItems),
		errors.Is(err, domain.ErrInvalidTotal),
		errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPriceUnavailable):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

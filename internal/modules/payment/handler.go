package payment

import (
	"errors"
	"net/http"
	"strconv"

	"motobook/internal/domain"
	"motobook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/payments/intents", h.CreateIntent)
}

// RegisterWebhookRoutes registers the provider event entry point. The upstream
// transport has already verified the event signature.
func (h *Handler) RegisterWebhookRoutes(rg *gin.RouterGroup) {
	rg.POST("/webhooks/payment-events", h.HandleWebhookEvent)
}

func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/bookings/:id/payments", h.ListBookingPayments)
}

func (h *Handler) CreateIntent(c *gin.Context) {
	var req CreateIntentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	resp, err := h.service.CreateIntent(c.Request.Context(), req)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
		case errors.Is(err, ErrInvalidAmount):
			response.Error(c, http.StatusBadRequest, "INVALID_AMOUNT", "Payment amount is invalid for this booking")
		case errors.Is(err, ErrProviderUnavailable):
			response.Error(c, http.StatusBadGateway, "PROVIDER_ERROR", "Payment provider is unavailable")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create payment intent")
		}
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"payment_intent": resp})
}

// HandleWebhookEvent applies a provider event. Non-2xx answers make the
// provider redeliver, which is safe because the handler is idempotent.
func (h *Handler) HandleWebhookEvent(c *gin.Context) {
	var req WebhookEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid event payload")
		return
	}

	refundReq, err := h.service.HandleProviderEvent(c.Request.Context(), domain.ProviderEvent{
		EventID:          req.EventID,
		Type:             req.Type,
		ProviderIntentID: req.ProviderIntentID,
		ProviderChargeID: req.ProviderChargeID,
		AmountRefunded:   req.AmountRefunded,
		Status:           req.Status,
	})
	if err != nil {
		switch {
		case errors.Is(err, ErrUnsupportedEvent):
			// Acknowledge so the provider stops redelivering event types we
			// deliberately ignore.
			response.Success(c, http.StatusOK, gin.H{"ignored": true})
		case errors.Is(err, ErrPaymentNotFound):
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "No payment matches the provider id")
		default:
			response.Error(c, http.StatusInternalServerError, "RETRYABLE", "Event processing failed, safe to redeliver")
		}
		return
	}

	data := gin.H{"processed": true}
	if refundReq != nil {
		data["refund_request"] = refundReq
	}
	response.Success(c, http.StatusOK, data)
}

func (h *Handler) ListBookingPayments(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	payments, err := h.service.ListByBooking(c.Request.Context(), id)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list payments")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"payments": payments})
}

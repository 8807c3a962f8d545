package booking

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
	rg.POST("/bookings", h.CreateBooking)
	rg.GET("/bookings/:id", h.GetBooking)
	rg.PATCH("/bookings/:id/status", h.UpdateBookingStatus)
	rg.PATCH("/bookings/:id/cancel", h.CancelBooking)
	rg.GET("/add-ons", h.ListAddOns)
}

func (h *Handler) CreateBooking(c *gin.Context) {
	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, fieldErrs, err := h.service.CreateBooking(c.Request.Context(), req)
	if fieldErrs != nil {
		response.FieldErrors(c, http.StatusBadRequest, fieldErrs)
		return
	}
	if err != nil {
		if errors.Is(err, ErrReferenceCollision) {
			response.Error(c, http.StatusConflict, "REFERENCE_COLLISION", "Could not allocate a booking reference, retry")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create booking")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"booking": gin.H{
			"id":                b.ID,
			"booking_reference": b.BookingReference,
			"status":            b.Status,
		},
	})
}

func (h *Handler) GetBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	b, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load booking")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) UpdateBookingStatus(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	var req UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), id, domain.BookingStatus(req.Status))
	if err != nil {
		h.writeServiceError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"booking": b})
}

func (h *Handler) CancelBooking(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid booking ID")
		return
	}

	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Cancellation reason is required")
		return
	}

	b, calc, err := h.service.CancelBooking(c.Request.Context(), id, req.Reason)
	if err != nil {
		h.writeServiceError(c, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"booking": b,
		"refund": gin.H{
			"entitled_amount":    calc.EntitledAmount,
			"details":            calc.Details,
			"policy_applied":     calc.PolicyApplied,
			"days_before_pickup": calc.DaysLabel(),
		},
	})
}

func (h *Handler) ListAddOns(c *gin.Context) {
	t := domain.BookingType(c.Query("booking_type"))
	switch t {
	case domain.BookingHire, domain.BookingService, domain.BookingSales:
	default:
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "booking_type must be one of hire, service, sales")
		return
	}

	addons, err := h.service.ListAddOns(c.Request.Context(), t)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list add-ons")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"add_ons": addons})
}

func (h *Handler) writeServiceError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Booking not found")
	case errors.Is(err, ErrInvalidStatusTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", "Booking cannot move to the requested status")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update booking")
	}
}

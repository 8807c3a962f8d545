package refund

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

// RegisterRoutes registers customer-facing refund endpoints.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/refund-requests", h.CreateRefundRequest)
	rg.POST("/refund-requests/verify", h.VerifyRefundRequest)
}

// RegisterAdminRoutes registers admin refund endpoints; the caller wraps them
// in auth + admin role middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/refund-requests", h.ListRefundRequests)
	rg.POST("/refund-requests", h.AdminCreateRefundRequest)
	rg.PATCH("/refund-requests/:id/review", h.ReviewRefundRequest)
	rg.PATCH("/refund-requests/:id/approve", h.ApproveRefundRequest)
	rg.PATCH("/refund-requests/:id/reject", h.RejectRefundRequest)
}

func (h *Handler) CreateRefundRequest(c *gin.Context) {
	var req CreateRefundRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, fieldErrs, err := h.service.CreateRefundRequest(c.Request.Context(), CreateParams{
		PaymentID:        req.PaymentID,
		AmountToRefund:   req.AmountToRefund,
		Reason:           req.Reason,
		RequestingActor:  c.GetInt64("user_id"),
		RequesterContact: req.Contact,
		IsAdminInitiated: false,
	})
	if fieldErrs != nil {
		response.FieldErrors(c, http.StatusBadRequest, fieldErrs)
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create refund request")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{
		"refund_request": result,
		"status":         result.Status,
	})
}

func (h *Handler) VerifyRefundRequest(c *gin.Context) {
	var req VerifyRefundRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.ConfirmVerification(c.Request.Context(), req.Token)
	if err != nil {
		switch {
		case errors.Is(err, ErrTokenExpired):
			response.Error(c, http.StatusGone, "TOKEN_EXPIRED", "Verification token has expired")
		case errors.Is(err, ErrTokenInvalid):
			response.Error(c, http.StatusBadRequest, "TOKEN_INVALID", "Verification token is invalid")
		default:
			response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to verify refund request")
		}
		return
	}

	response.Success(c, http.StatusOK, gin.H{"refund_request": result})
}

func (h *Handler) AdminCreateRefundRequest(c *gin.Context) {
	var req AdminCreateRefundRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, fieldErrs, err := h.service.CreateRefundRequest(c.Request.Context(), CreateParams{
		PaymentID:        req.PaymentID,
		AmountToRefund:   req.AmountToRefund,
		Reason:           req.Reason,
		RequestingActor:  c.GetInt64("user_id"),
		IsAdminInitiated: true,
		InitialStatus:    domain.RefundRequestStatus(req.InitialStatus),
	})
	if fieldErrs != nil {
		response.FieldErrors(c, http.StatusBadRequest, fieldErrs)
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create refund request")
		return
	}

	response.Success(c, http.StatusCreated, gin.H{"refund_request": result})
}

func (h *Handler) ListRefundRequests(c *gin.Context) {
	status := domain.RefundRequestStatus(c.Query("status"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	requests, err := h.service.List(c.Request.Context(), status, limit, offset)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list refund requests")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"refund_requests": requests})
}

func (h *Handler) ReviewRefundRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid refund request ID")
		return
	}

	result, err := h.service.Review(c.Request.Context(), id, c.GetInt64("user_id"))
	if err != nil {
		h.writeTransitionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refund_request": result})
}

func (h *Handler) ApproveRefundRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid refund request ID")
		return
	}

	var req ApproveRefundRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, fieldErrs, err := h.service.Approve(c.Request.Context(), id, c.GetInt64("user_id"), req.AmountToRefund)
	if fieldErrs != nil {
		response.FieldErrors(c, http.StatusBadRequest, fieldErrs)
		return
	}
	if err != nil {
		h.writeTransitionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refund_request": result})
}

func (h *Handler) RejectRefundRequest(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Error(c, http.StatusBadRequest, "INVALID_ID", "Invalid refund request ID")
		return
	}

	var req RejectRefundRequestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	result, err := h.service.Reject(c.Request.Context(), id, c.GetInt64("user_id"), req.Reason)
	if err != nil {
		h.writeTransitionError(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"refund_request": result})
}

func (h *Handler) writeTransitionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		response.Error(c, http.StatusNotFound, "NOT_FOUND", "Refund request not found")
	case errors.Is(err, ErrInvalidTransition):
		response.Error(c, http.StatusConflict, "INVALID_TRANSITION", "Refund request cannot move to the requested status")
	default:
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update refund request")
	}
}

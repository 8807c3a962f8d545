package policy

import (
	"net/http"

	"motobook/internal/pkg/response"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterAdminRoutes registers policy settings endpoints; callers wrap them
// in auth + admin role middleware.
func (h *Handler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/policy-settings", h.GetPolicySettings)
	rg.PUT("/policy-settings", h.UpdatePolicySettings)
}

func (h *Handler) GetPolicySettings(c *gin.Context) {
	settings, err := h.service.Get(c.Request.Context())
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load policy settings")
		return
	}
	if settings == nil {
		response.Error(c, http.StatusNotFound, "NOT_CONFIGURED", "Refund policy has not been configured")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"policy_settings": settings})
}

func (h *Handler) UpdatePolicySettings(c *gin.Context) {
	var req UpdatePolicySettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	settings, fieldErrs, err := h.service.Save(c.Request.Context(), req)
	if fieldErrs != nil {
		response.FieldErrors(c, http.StatusBadRequest, fieldErrs)
		return
	}
	if err != nil {
		response.Error(c, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save policy settings")
		return
	}

	response.Success(c, http.StatusOK, gin.H{"policy_settings": settings})
}

package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sublytics/sublytics/internal/api/dto"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/logger"
	"github.com/sublytics/sublytics/internal/service"
)

type UserMetricsHandler struct {
	userService service.UserAnalyticsService
	logger      *logger.Logger
}

func NewUserMetricsHandler(
	userService service.UserAnalyticsService,
	logger *logger.Logger,
) *UserMetricsHandler {
	return &UserMetricsHandler{
		userService: userService,
		logger:      logger,
	}
}

func (h *UserMetricsHandler) GetUserMetrics(c *gin.Context) {
	var req dto.AnalyticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("invalid user metrics query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.userService.UserMetrics(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorw("failed to build user metrics", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

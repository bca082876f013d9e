package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sublytics/sublytics/internal/logger"
	"github.com/sublytics/sublytics/internal/service"
)

type FunnelHandler struct {
	funnelService service.OnboardingFunnelService
	logger        *logger.Logger
}

func NewFunnelHandler(
	funnelService service.OnboardingFunnelService,
	logger *logger.Logger,
) *FunnelHandler {
	return &FunnelHandler{
		funnelService: funnelService,
		logger:        logger,
	}
}

func (h *FunnelHandler) GetOnboardingFunnel(c *gin.Context) {
	response, err := h.funnelService.OnboardingFunnel(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to build onboarding funnel", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

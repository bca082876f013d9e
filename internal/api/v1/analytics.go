package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sublytics/sublytics/internal/api/dto"
	ierr "github.com/sublytics/sublytics/internal/errors"
	"github.com/sublytics/sublytics/internal/logger"
	"github.com/sublytics/sublytics/internal/service"
)

type AnalyticsHandler struct {
	analyticsService service.SubscriptionAnalyticsService
	logger           *logger.Logger
}

func NewAnalyticsHandler(
	analyticsService service.SubscriptionAnalyticsService,
	logger *logger.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		logger:           logger,
	}
}

func (h *AnalyticsHandler) GetOverview(c *gin.Context) {
	response, err := h.analyticsService.OverviewTab(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to build overview tab", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *AnalyticsHandler) GetCardProvider(c *gin.Context) {
	response, err := h.analyticsService.CardProviderTab(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to build card provider tab", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *AnalyticsHandler) GetWalletProvider(c *gin.Context) {
	response, err := h.analyticsService.WalletProviderTab(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to build wallet provider tab", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *AnalyticsHandler) GetCompare(c *gin.Context) {
	response, err := h.analyticsService.CompareTab(c.Request.Context())
	if err != nil {
		h.logger.Errorw("failed to build compare tab", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *AnalyticsHandler) GetSummary(c *gin.Context) {
	var req dto.SummaryRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("invalid summary query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.analyticsService.Summary(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorw("failed to build summary", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *AnalyticsHandler) GetMonthlyTotals(c *gin.Context) {
	var req dto.AnalyticsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("invalid totals query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.analyticsService.MonthlyTotals(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorw("failed to build monthly totals", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

func (h *AnalyticsHandler) GetIncome(c *gin.Context) {
	var req dto.IncomeRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("invalid income query parameters").
			Mark(ierr.ErrValidation))
		return
	}

	response, err := h.analyticsService.IncomeTable(c.Request.Context(), &req)
	if err != nil {
		h.logger.Errorw("failed to build income table", "error", err)
		c.Error(err)
		return
	}
	c.JSON(http.StatusOK, response)
}

package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	v1 "github.com/sublytics/sublytics/internal/api/v1"
	"github.com/sublytics/sublytics/internal/config"
	"github.com/sublytics/sublytics/internal/logger"
	"github.com/sublytics/sublytics/internal/rest/middleware"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Analytics *v1.AnalyticsHandler
	Upload    *v1.UploadHandler
	Funnel    *v1.FunnelHandler
	Users     *v1.UserMetricsHandler
}

func NewHandlers(
	analytics *v1.AnalyticsHandler,
	upload *v1.UploadHandler,
	funnel *v1.FunnelHandler,
	users *v1.UserMetricsHandler,
) Handlers {
	return Handlers{
		Analytics: analytics,
		Upload:    upload,
		Funnel:    funnel,
		Users:     users,
	}
}

// NewRouter builds the gin engine with the standard middleware chain and all
// dashboard routes mounted under /v1.
func NewRouter(handlers Handlers, cfg *config.Configuration, log *logger.Logger) *gin.Engine {
	if cfg.Deployment.Mode != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	gin.DefaultWriter = log.GetGinLogger()

	router := gin.New()
	router.Use(
		middleware.SentryMiddleware(cfg),
		middleware.RequestIDMiddleware,
		middleware.LoggingMiddleware(log),
		middleware.ErrorHandler(),
		gin.Recovery(),
	)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	group := router.Group("/v1/dashboard")
	{
		group.GET("/overview", handlers.Analytics.GetOverview)
		group.GET("/card", handlers.Analytics.GetCardProvider)
		group.GET("/wallet", handlers.Analytics.GetWalletProvider)
		group.GET("/compare", handlers.Analytics.GetCompare)
		group.GET("/summary", handlers.Analytics.GetSummary)
		group.GET("/totals", handlers.Analytics.GetMonthlyTotals)
		group.GET("/income", handlers.Analytics.GetIncome)
		group.GET("/funnel", handlers.Funnel.GetOnboardingFunnel)
		group.GET("/users", handlers.Users.GetUserMetrics)
		group.POST("/uploads/wallet", handlers.Upload.UploadWalletExport)
		group.POST("/uploads/recovery", handlers.Upload.UploadRecoveryExport)
	}

	return router
}

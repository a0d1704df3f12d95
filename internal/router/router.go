package router

import (
	"net/http"

	"finance-tracker/internal/assistant"
	"finance-tracker/internal/config"
	"finance-tracker/internal/handler"
	"finance-tracker/internal/middleware"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter wires the gin engine: public auth endpoints plus the
// JWT-protected API surface.
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	authHandler := handler.NewAuthHandler(db, jwtSecret, cfg.JWT.ExpireHours,
		cfg.Security.BcryptCost, cfg.Security.ResetTokenMinutes)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/password-reset", authHandler.RequestPasswordReset)
	api.POST("/auth/password-reset/confirm", authHandler.ResetPassword)

	protected := api.Group("")
	protected.Use(
		middleware.AuthMiddleware(jwtSecret, db),
		middleware.ActivityMiddleware(db),
	)

	protected.POST("/auth/logout", authHandler.Logout)
	protected.GET("/me", handler.GetMe(db))
	protected.PUT("/profile", handler.UpdateProfile(db))
	protected.POST("/profile/password", handler.ChangePassword(db, cfg.Security.BcryptCost))

	txHandler := handler.NewTransactionHandler(db, cfg.App.PageSize)
	protected.POST("/transactions", txHandler.Create)
	protected.GET("/transactions", txHandler.List)
	protected.PUT("/transactions/:id", txHandler.Update)
	protected.DELETE("/transactions/:id", txHandler.Delete)

	dashHandler := handler.NewDashboardHandler(db)
	protected.GET("/dashboard/stats", dashHandler.Stats)
	protected.GET("/dashboard/categories", dashHandler.Categories)

	goalHandler := handler.NewGoalHandler(db)
	protected.POST("/goals", goalHandler.Create)
	protected.GET("/goals", goalHandler.List)
	protected.PUT("/goals/:id", goalHandler.Update)
	protected.DELETE("/goals/:id", goalHandler.Delete)

	assistantClient := assistant.NewClient(cfg.Assistant)
	assistantHandler := handler.NewAssistantHandler(db, assistantClient)
	protected.POST("/assistant/analysis", assistantHandler.Analyze)
	protected.POST("/assistant/chat", assistantHandler.Chat)

	exportHandler := handler.NewExportHandler(db)
	protected.GET("/export/csv", exportHandler.CSV)
	protected.GET("/export/xlsx", exportHandler.XLSX)

	protected.GET("/activity", handler.ListActivity(db))

	return r
}

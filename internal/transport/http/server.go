package http

import (
	"github.com/gin-gonic/gin"

	"faqdesk/internal/bootstrap"
	"faqdesk/internal/transport/http/handler"
	"faqdesk/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(middleware.RequestID(), middleware.AccessLog(app.Log), middleware.Recovery(app.Log))
	if len(app.Config.App.CORSOrigins) > 0 {
		router.Use(middleware.CORS(app.Config.App.CORSOrigins))
	}

	checks := map[string]handler.DependencyCheck{}
	for name, check := range app.HealthChecks() {
		checks[name] = check
	}
	healthHandler := handler.NewHealthHandler(app.Config.App.Name, app.Config.App.Env, app.StartedAt, checks)
	router.GET("/healthz", healthHandler.Check)

	aiLog := app.Log.With("component", "ai_gate")
	askHandler := handler.NewAskHandler(app.Services.Ask, handler.NewAIGate(app.Limiters.AI, app.Limiters.AIQuota, aiLog))
	suggestHandler := handler.NewSuggestHandler(app.Services.Suggest)
	aiHandler := handler.NewAIHandler(app.Services.AI, handler.NewAIGate(nil, app.Limiters.AIQuota, aiLog))
	fileHandler := handler.NewFileHandler(
		app.Signer,
		app.LocalSigner,
		app.Config.Storage.DefaultBucket,
		app.Config.SignedURLTTL(),
		app.Log.With("component", "files"),
	)
	adminHandler := handler.NewAdminHandler(app.Services.Reembed)

	v1 := router.Group("/api/v1")
	v1.POST("/ask", middleware.RateLimit(app.Limiters.Ask, app.Log), askHandler.Ask)
	v1.GET("/suggest", middleware.RateLimit(app.Limiters.Suggest, app.Log), suggestHandler.Suggest)
	v1.POST("/ai", middleware.RateLimit(app.Limiters.AI, app.Log), aiHandler.Answer)

	filesGroup := v1.Group("/files")
	filesGroup.GET("/signed", middleware.RateLimit(app.Limiters.Files, app.Log), fileHandler.Signed)
	if app.LocalSigner != nil {
		filesGroup.GET("/download", fileHandler.Download)
	}

	adminGroup := v1.Group("/admin")
	adminGroup.POST("/reembed", middleware.RateLimit(app.Limiters.AI, app.Log), adminHandler.Reembed)

	return router
}

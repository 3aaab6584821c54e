package api

import (
	"github.com/gin-gonic/gin"
	"github.com/virshi-ai/visibility-api/internal/config"
	handlers "github.com/virshi-ai/visibility-api/internal/http/api/handlers"
	"github.com/virshi-ai/visibility-api/internal/ratelimit"
	"github.com/virshi-ai/visibility-api/internal/scan"
	"github.com/virshi-ai/visibility-api/internal/store"
	"gorm.io/gorm"
)

// Stores bundles the persistence layers the API serves.
type Stores struct {
	Users    *store.UserStore
	Projects *store.ProjectStore
	Keywords *store.KeywordStore
	Scans    *store.ScanStore
	Chat     *store.ChatStore
}

// RegisterRoutes registers all API routes, middleware, and handlers.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, jwtCfg config.JWTConfig, stores Stores, service *scan.Service, limiter *ratelimit.Manager) {
	if r == nil || db == nil {
		return
	}

	healthHandler := handlers.NewHealthHandler(db)
	r.GET("/healthz", healthHandler.Healthz)

	v1 := r.Group("/v1")

	authHandler := handlers.NewAuthHandler(db, stores.Users, jwtCfg)
	v1.POST("/auth/register", authHandler.Register)
	v1.POST("/auth/login", authHandler.Login)

	authed := v1.Group("")
	authed.Use(authMiddleware(db, jwtCfg))

	authed.GET("/auth/me", authHandler.Me)

	projectHandler := handlers.NewProjectHandler(stores.Projects)
	authed.POST("/projects", projectHandler.Create)
	authed.GET("/projects", projectHandler.List)
	authed.GET("/projects/:id", projectHandler.Get)
	authed.PUT("/projects/:id", projectHandler.Update)
	authed.DELETE("/projects/:id", projectHandler.Delete)

	keywordHandler := handlers.NewKeywordHandler(stores.Projects, stores.Keywords)
	authed.GET("/projects/:id/keywords", keywordHandler.List)
	authed.POST("/projects/:id/keywords", keywordHandler.Add)
	authed.PUT("/projects/:id/keywords/:keyword_id", keywordHandler.SetActive)
	authed.DELETE("/projects/:id/keywords/:keyword_id", keywordHandler.Delete)

	billingHandler := handlers.NewBillingHandler(stores.Projects, service)
	authed.GET("/billing/plans", billingHandler.Plans)
	authed.GET("/projects/:id/billing", billingHandler.Usage)
	authed.POST("/projects/:id/billing/upgrade", billingHandler.Upgrade)

	dashboardHandler := handlers.NewDashboardHandler(stores.Projects, stores.Scans)
	authed.GET("/projects/:id/dashboard", dashboardHandler.Metrics)

	scanHandler := handlers.NewScanHandler(stores.Projects, stores.Scans, service)
	authed.GET("/projects/:id/scans", scanHandler.History)

	// Automation-backed endpoints carry the per-user rate limit.
	limited := authed.Group("")
	limited.Use(rateLimitMiddleware(db, limiter))
	limited.POST("/projects/:id/scans", scanHandler.Run)
	limited.POST("/projects/:id/prompts", scanHandler.Prompts)
	limited.POST("/projects/:id/recommendations", scanHandler.Recommendations)

	chatHandler := handlers.NewChatHandler(stores.Projects, stores.Chat, service)
	limited.POST("/chat", chatHandler.Ask)
	authed.GET("/chat/history", chatHandler.History)
	authed.DELETE("/chat/history", chatHandler.Clear)
}

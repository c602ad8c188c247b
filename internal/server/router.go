package server

import (
  "strings"
  "github.com/gin-gonic/gin"
  "github.com/gin-contrib/cors"
  "go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
  "github.com/lilybloom/babynames-backend/internal/handlers"
  "github.com/lilybloom/babynames-backend/internal/middleware"
)

type RouterConfig struct {
  AllowedOrigins        string
  AuthHandler           *handlers.AuthHandler
  AuthMiddleware        *middleware.AuthMiddleware
  UserHandler           *handlers.UserHandler
  GenerationHandler     *handlers.GenerationHandler
  FavoriteHandler       *handlers.FavoriteHandler
  BillingWebhookHandler *handlers.BillingWebhookHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
  router := gin.Default()
  router.Use(otelgin.Middleware("babynames-backend"))

  origins := strings.Split(cfg.AllowedOrigins, ",")
  router.Use(cors.New(cors.Config{
    AllowOrigins:     origins,
    AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
    AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
    AllowCredentials: true,
  }))

// ===============
// || Public    ||
// ===============
  router.GET("/healthcheck", handlers.HealthCheck)
  router.POST("/webhooks/billing", cfg.BillingWebhookHandler.HandleEvent)

  api := router.Group("/api")
  api.POST("/register", cfg.AuthHandler.Register)
  api.POST("/login", cfg.AuthHandler.Login)

  // Generation admits anonymous callers; quota and history only apply when
  // a token resolves.
  api.POST("/names/generate", cfg.AuthMiddleware.OptionalAuth(), cfg.GenerationHandler.GenerateNames)

// ===============
// || Protected ||
// ===============
  protected := api.Group("/")
  protected.Use(cfg.AuthMiddleware.RequireAuth())
  protected.POST("/refresh", cfg.AuthHandler.Refresh)
  protected.POST("/logout", cfg.AuthHandler.Logout)
  protected.GET("/user", cfg.UserHandler.GetMe)
  protected.GET("/favorites", cfg.FavoriteHandler.ListFavorites)
  protected.POST("/favorites", cfg.FavoriteHandler.SaveFavorite)
  protected.DELETE("/favorites/:id", cfg.FavoriteHandler.RemoveFavorite)

  return router
}

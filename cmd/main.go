package main

import (
  "context"
  "fmt"
  "os"
  "time"
  "github.com/joho/godotenv"
  "github.com/lilybloom/babynames-backend/internal/db"
  "github.com/lilybloom/babynames-backend/internal/handlers"
  "github.com/lilybloom/babynames-backend/internal/logger"
  "github.com/lilybloom/babynames-backend/internal/middleware"
  "github.com/lilybloom/babynames-backend/internal/observability"
  "github.com/lilybloom/babynames-backend/internal/repos"
  "github.com/lilybloom/babynames-backend/internal/server"
  "github.com/lilybloom/babynames-backend/internal/services"
  "github.com/lilybloom/babynames-backend/internal/utils"
)

func main() {
  _ = godotenv.Load()

  // Logger
  logMode := os.Getenv("LOG_MODE")
  if logMode == "" {
    logMode = "development"
  }
  log, err := logger.New(logMode)
  if err != nil {
    fmt.Printf("Failed to init logger: %v\n", err)
    os.Exit(1)
  }
  defer log.Sync()

  // Tracing
  otelShutdown := observability.InitOTel(context.Background(), log, "babynames-backend")
  defer func() {
    ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
    defer cancel()
    _ = otelShutdown(ctx)
  }()

  // Env
  log.Info("Loading environment variables from main...")
  jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
  webhookSecret := utils.GetEnv("BILLING_WEBHOOK_SECRET", "defaultwebhooksecret", log)
  allowedOrigins := utils.GetEnv("CORS_ALLOWED_ORIGINS", "http://localhost:3000", log)
  accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
  refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

  // Postgres
  postgresService, err := db.NewPostgresService(log)
  if err != nil {
    log.Error("Postgres init failed", "error", err)
    os.Exit(1)
  }
  if err = postgresService.AutoMigrateAll(); err != nil {
    log.Warn("Postgres auto migration failed", "error", err)
  }
  thePG := postgresService.DB()

  // Redis (optional; only the billing replay guard uses it)
  redisClient, err := db.NewRedisClient(log)
  if err != nil {
    log.Warn("Redis init failed, continuing without webhook replay guard", "error", err)
    redisClient = nil
  }

  // Repos
  log.Info("Setting up Repos from main...")
  userRepo := repos.NewUserRepo(thePG, log)
  userTokenRepo := repos.NewUserTokenRepo(thePG, log)
  nameRepo := repos.NewNameRepo(thePG, log)
  seenNameRepo := repos.NewSeenNameRepo(thePG, log)
  favoriteRepo := repos.NewFavoriteNameRepo(thePG, log)

  // Services
  log.Info("Setting up Services from main...")
  openaiClient, err := services.NewOpenAIClient(log)
  if err != nil {
    log.Error("Could not init OpenAIClient", "error", err)
    os.Exit(1)
  }
  authService := services.NewAuthService(thePG, log, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second)
  userService := services.NewUserService(thePG, log, userRepo)
  generationService := services.NewGenerationService(thePG, log, userRepo, nameRepo, seenNameRepo, openaiClient)
  favoriteService := services.NewFavoriteService(thePG, log, nameRepo, favoriteRepo)
  billingService := services.NewBillingService(thePG, log, userRepo, redisClient)

  // Handlers
  log.Info("Setting up handlers from main...")
  authHandler := handlers.NewAuthHandler(authService)
  userHandler := handlers.NewUserHandler(userService)
  generationHandler := handlers.NewGenerationHandler(generationService)
  favoriteHandler := handlers.NewFavoriteHandler(favoriteService)
  billingWebhookHandler := handlers.NewBillingWebhookHandler(billingService, webhookSecret)

  // Middleware
  log.Info("Setting up middleware from main...")
  authMiddleware := middleware.NewAuthMiddleware(log, authService)

  // Router
  log.Info("Setting up router from main...")
  router := server.NewRouter(server.RouterConfig{
    AllowedOrigins:        allowedOrigins,
    AuthHandler:           authHandler,
    AuthMiddleware:        authMiddleware,
    UserHandler:           userHandler,
    GenerationHandler:     generationHandler,
    FavoriteHandler:       favoriteHandler,
    BillingWebhookHandler: billingWebhookHandler,
  })

  port := utils.GetEnv("PORT", "8080", log)
  fmt.Printf("Server listening on :%s\n", port)
  if err := router.Run(":" + port); err != nil {
    log.Error("Server failed", "error", err)
  }
}

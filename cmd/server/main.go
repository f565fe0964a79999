package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/modwarden/backend/config"
	"github.com/modwarden/backend/internal/auth"
	"github.com/modwarden/backend/internal/bot"
	"github.com/modwarden/backend/internal/cache"
	"github.com/modwarden/backend/internal/database"
	"github.com/modwarden/backend/internal/handlers"
	"github.com/modwarden/backend/internal/middleware"
	"github.com/modwarden/backend/internal/notes"
	"github.com/modwarden/backend/internal/notify"
	"github.com/modwarden/backend/internal/platform"
	"github.com/modwarden/backend/internal/repository"
	"github.com/modwarden/backend/internal/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	if cfg.Server.Env == "production" {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	} else {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Connect to database
	db, err := database.NewPostgresDB(cfg.GetDSN())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	// Run migrations
	log.Info().Msg("running database migrations")
	if err := database.RunMigrations(db.DB); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to Redis
	redis, err := cache.NewRedisClient(cfg.GetRedisAddr(), cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Warn().Err(err).Msg("failed to connect to Redis, live event feed disabled")
		redis = nil
	} else {
		defer redis.Close()
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWT.Secret, cfg.JWT.ExpiryHours)
	client := platform.NewClient(cfg.Platform)
	webhook := notify.NewWebhook(cfg.Platform.WebhookURL)

	// Initialize repositories
	operatorRepo := repository.NewOperatorRepository(db)
	offenseRepo := repository.NewOffenseRepository(db)
	unflairedRepo := repository.NewUnflairedRepository(db)
	filterRepo := repository.NewFilterRepository(db)
	stickyRepo := repository.NewStickyRepository(db)
	eventRepo := repository.NewEventRepository(db)

	seenRepo, err := repository.NewSeenRepository(db, cfg.Bot.DedupRetention)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize seen ledger")
	}

	// The annotation sink and publisher are optional modules
	var sink bot.AnnotationSink
	if cfg.Bot.EnableNotes {
		sink = notes.NewService(client, cfg.Bot.Domain)
	}
	var publisher bot.EventPublisher
	if redis != nil {
		publisher = redis
	}

	// Start the moderation bot
	b := bot.New(cfg.Bot, client, seenRepo, offenseRepo, unflairedRepo,
		filterRepo, stickyRepo, eventRepo, publisher, webhook, sink)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go b.Start(ctx)

	// Initialize WebSocket hub (only if Redis is available)
	var hub *websocket.Hub
	var wsHandler *websocket.Handler
	if redis != nil {
		hub = websocket.NewHub(redis)
		go hub.Run()
		wsHandler = websocket.NewHandler(hub, jwtService, cfg.CORS.AllowedOrigins)
	}

	// The button callback is unauthenticated; throttle it through Redis when
	// available.
	var buttonLimiter handlers.ActionLimiter
	if redis != nil {
		buttonLimiter = redis
	}

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(operatorRepo, jwtService)
	commandHandler := handlers.NewCommandHandler(b, offenseRepo, filterRepo, eventRepo, cfg.Bot.Domain)
	buttonHandler := handlers.NewButtonHandler(b, offenseRepo, buttonLimiter, cfg.Bot.Domain)

	// Initialize rate limiter
	rateLimiter := middleware.NewRateLimiter(cfg.API.RateLimitPerSec)
	rateLimiter.Cleanup()

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Middleware
	router.Use(middleware.CORSMiddleware(cfg.CORS.AllowedOrigins))

	// Health check
	router.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok"}
		if hub != nil {
			status["dashboard_clients"] = len(hub.ConnectedOperators())
		}
		c.JSON(200, status)
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public routes
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Interactive button callbacks from the chat platform
	router.POST("/hooks/interactive", buttonHandler.HandleCallback)

	// WebSocket endpoint (only if Redis is available)
	if wsHandler != nil {
		router.GET("/ws", wsHandler.HandleWebSocket)
	}

	// Protected routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(jwtService))
	api.Use(middleware.RateLimitMiddleware(rateLimiter))
	{
		// Operator routes
		api.GET("/me", authHandler.GetMe)

		// User commands
		api.POST("/users/track", commandHandler.Track)
		api.POST("/users/untrack", commandHandler.Untrack)
		api.POST("/users/botban", commandHandler.Botban)
		api.POST("/users/unbotban", commandHandler.Unbotban)
		api.POST("/users/mute", commandHandler.MuteWarnings)
		api.POST("/users/unmute", commandHandler.UnmuteWarnings)
		api.GET("/users/flagged", commandHandler.ListFlagged)
		api.GET("/users/:username/summary", commandHandler.Summary)

		// Filter management
		api.GET("/filters", commandHandler.ListFilters)
		api.POST("/filters", commandHandler.AddFilter)
		api.DELETE("/filters", commandHandler.RemoveFilter)

		// Audit trail
		api.GET("/events", commandHandler.RecentEvents)

		// Modmail relay
		api.POST("/modmail", commandHandler.SendModmail)
	}

	// Start server
	addr := ":" + cfg.Server.Port
	log.Info().Str("addr", addr).Str("env", cfg.Server.Env).Str("domain", cfg.Bot.Domain).
		Msg("starting modwarden server")
	if err := router.Run(addr); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}

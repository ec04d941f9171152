package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/websocket/v2"
	"github.com/joho/godotenv"
	"github.com/jp973/groupnotify-backend/internal/cache"
	"github.com/jp973/groupnotify-backend/internal/email"
	"github.com/jp973/groupnotify-backend/internal/handlers"
	"github.com/jp973/groupnotify-backend/internal/handlers/ws"
	"github.com/jp973/groupnotify-backend/internal/middleware"
	"github.com/jp973/groupnotify-backend/internal/payment"
	"github.com/jp973/groupnotify-backend/internal/repository"
	"github.com/jp973/groupnotify-backend/internal/scheduler"
	"github.com/jp973/groupnotify-backend/internal/service"
	"github.com/jp973/groupnotify-backend/internal/storage"
)

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET is required")
	}

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		AppName: "GroupNotify Backend",
	})

	// Middleware
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     os.Getenv("ALLOWED_ORIGINS"),
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowMethods:     "GET, POST, PUT, DELETE, OPTIONS",
		AllowCredentials: true,
	}))

	// Initialize database connection
	db, err := repository.InitDB()
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	// Initialize Redis cache
	redisAddr := os.Getenv("REDIS_ADDR")
	if redisAddr == "" {
		redisAddr = "localhost:6379"
	}
	redisPassword := os.Getenv("REDIS_PASSWORD")
	redisDB := 0
	if dbStr := os.Getenv("REDIS_DB"); dbStr != "" {
		if parsedDB, err := strconv.Atoi(dbStr); err == nil {
			redisDB = parsedDB
		}
	}

	redisCache := cache.NewRedisCache(redisAddr, redisPassword, redisDB)
	if err := redisCache.Ping(); err != nil {
		log.Printf("WARNING: Redis connection failed: %v. Running without cache.", err)
		redisCache = nil
	} else {
		log.Println("Redis cache connected successfully")
	}

	rosterCache := cache.NewRosterCache(redisCache)

	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	messageRepo := repository.NewMessageRepository(db)
	refreshTokenRepo := repository.NewRefreshTokenRepository(db)
	otpRepo := repository.NewOtpTokenRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	joinRequestRepo := repository.NewJoinRequestRepository(db)
	orderRepo := repository.NewOrderRepository(db)

	// Initialize S3/MinIO storage (best-effort; feature endpoints return 503 if missing)
	var s3Store *storage.S3Storage
	if cfg, err := storage.LoadS3ConfigFromEnv(); err != nil {
		log.Printf("WARNING: S3 storage not configured: %v", err)
	} else if st, err := storage.NewS3Storage(cfg); err != nil {
		log.Printf("WARNING: Failed to initialize S3 storage: %v", err)
	} else {
		s3Store = st
		log.Printf("S3 storage initialized successfully (bucket=%s)", cfg.Bucket)
	}
	var fileURLs service.FileURLResolver
	if s3Store != nil {
		fileURLs = s3Store
	}

	var emailSender service.EmailSender
	if sender := email.NewSMTPSenderFromEnv(); sender != nil {
		emailSender = sender
	} else {
		log.Println("WARNING: SMTP not configured, OTPs will be written to the log")
		emailSender = email.LogSender{}
	}

	// Initialize websocket hub (implements the notifier boundary)
	hub := ws.NewHub()

	// Initialize services
	authService := service.NewAuthService(userRepo, refreshTokenRepo, otpRepo, emailSender)
	groupService := service.NewGroupService(groupRepo, joinRequestRepo, userRepo, rosterCache)
	notificationService := service.NewNotificationService(messageRepo, groupRepo, hub, fileURLs, rosterCache)
	messageService := service.NewMessageService(messageRepo, userRepo, notificationService)

	var paymentService *service.PaymentService
	if gateway := payment.NewRazorpayClientFromEnv(); gateway != nil {
		paymentService = service.NewPaymentService(orderRepo, gateway, gateway.KeySecret())
	} else {
		log.Println("WARNING: Razorpay keys not configured, payment endpoints disabled")
	}

	// Initialize handlers
	wsHandler := handlers.NewWebSocketHandler(groupService, hub)
	authHandler := handlers.NewAuthHandler(authService)
	groupHandler := handlers.NewGroupHandler(groupService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	messageHandler := handlers.NewMessageHandler(messageService, groupService)
	paymentHandler := handlers.NewPaymentHandler(paymentService)
	storageHandler := handlers.NewStorageHandler(s3Store)

	// Scheduler goroutine; cancelled on shutdown
	sched := scheduler.New(messageRepo, notificationService, scheduler.DefaultInterval)
	schedCtx, stopScheduler := context.WithCancel(context.Background())
	go sched.Run(schedCtx)

	// Public routes
	api := app.Group("/api", middleware.OriginAllowed())
	auth := api.Group("/auth", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)
	auth.Post("/logout", authHandler.Logout)
	auth.Post("/forgot-password", authHandler.ForgotPassword)
	auth.Post("/reset-password", authHandler.ResetPassword)

	// Gateway webhook is signed by the provider, not by a user token
	api.Post("/payments/webhook", paymentHandler.Webhook)

	// Admin routes
	admin := api.Group("/admin", middleware.AuthRequired(), middleware.RequireRole("admin"))
	admin.Post("/groups", groupHandler.CreateGroup)
	admin.Get("/groups", groupHandler.GetAdminGroups)
	// Static segments before :id so fiber does not swallow them as ids
	admin.Get("/groups/requests", groupHandler.GetJoinRequests)
	admin.Put("/groups/join-request/:id/action", groupHandler.HandleJoinRequest)
	admin.Post("/groups/notify", notificationHandler.NotifyAllGroups)
	admin.Get("/groups/notifications", notificationHandler.GetGroupNotifications)
	admin.Put("/groups/:id", groupHandler.UpdateGroup)
	admin.Delete("/groups/:id", groupHandler.DeleteGroup)
	admin.Post("/groups/:id/notify", notificationHandler.NotifyGroup)

	// User routes
	user := api.Group("/user", middleware.AuthRequired())
	user.Get("/groups", groupHandler.GetAvailableGroups)
	user.Post("/groups/join", groupHandler.RequestJoin)
	user.Get("/groups/approved", groupHandler.GetApprovedGroups)
	user.Get("/groups/messages", messageHandler.GetGroupFeed)
	user.Post("/messages", messageHandler.SendMessage)
	user.Get("/messages", messageHandler.GetChatHistory)

	// Membership payment routes
	member := api.Group("/member", middleware.AuthRequired())
	member.Post("/order", paymentHandler.CreateOrder)
	member.Post("/verify", paymentHandler.VerifyOrder)

	// Presigned URL routes
	store := api.Group("/storage", middleware.AuthRequired())
	store.Get("/upload-url", storageHandler.GetUploadURL)
	store.Get("/download-url", storageHandler.GetDownloadURL)

	// WebSocket route (websocket upgrade needs special handling)
	app.Use(
		"/ws",
		middleware.OriginAllowed(),
		middleware.AuthRequired(),
		func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		},
	)
	app.Get("/ws", websocket.New(wsHandler.HandleWebSocket))

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"message": "GroupNotify is running",
		})
	})

	// Start server
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	// Shut the scheduler down before the listener exits
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-quit
		log.Println("Shutting down...")
		stopScheduler()
		_ = app.Shutdown()
	}()

	log.Printf("Server starting on port %s...", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
	stopScheduler()
}

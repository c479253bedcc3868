package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/bharatabhiyan/marketplace-backend/internal/config"
	"github.com/bharatabhiyan/marketplace-backend/internal/database"
	"github.com/bharatabhiyan/marketplace-backend/internal/handlers"
	"github.com/bharatabhiyan/marketplace-backend/internal/middleware"
	"github.com/bharatabhiyan/marketplace-backend/internal/services"
	"github.com/bharatabhiyan/marketplace-backend/pkg/jwt"
)

var (
	version   = "dev"
	buildTime = "unknown"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	logger.Info("Starting Bharat Abhiyan Marketplace Backend")
	logger.Infof("Version: %s, Build Time: %s", version, buildTime)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Set log level
	logLevel, err := logrus.ParseLevel(cfg.Server.LogLevel)
	if err != nil {
		logger.Warn("Invalid log level, using INFO")
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Set Gin mode
	if cfg.Server.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	} else {
		gin.SetMode(gin.DebugMode)
	}

	// Initialize database connection
	logger.Info("Connecting to database...")
	db, err := database.NewConnection(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}
	logger.Info("Database connection established")

	// Make sure the upload directory exists before accepting documents
	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		logger.Fatalf("Failed to create upload directory: %v", err)
	}

	// Initialize repositories
	userRepository := database.NewUserRepository(db)
	providerRepository := database.NewProviderRepository(db)
	taxonomyRepository := database.NewTaxonomyRepository(db)
	subscriptionRepository := database.NewSubscriptionRepository(db)
	paymentRepository := database.NewPaymentRepository(db)
	captainRepository := database.NewCaptainRepository(db)
	refreshTokenRepository := database.NewRefreshTokenRepository(db)
	guideRepository := database.NewGuideRepository(db)

	// Initialize services
	logger.Info("Initializing services...")
	jwtService := jwt.NewService(
		cfg.JWT.Secret,
		cfg.JWT.RefreshSecret,
		cfg.JWT.AccessTokenExpiry,
		cfg.JWT.RefreshTokenExpiry,
	)
	auditService := services.NewAuditService(db)
	rateLimitService := services.NewRateLimitService(db, &cfg.RateLimit)
	razorpayService := services.NewRazorpayService(&cfg.Razorpay, logger)
	geminiService := services.NewGeminiService(&cfg.Gemini, logger)

	authService := services.NewAuthService(
		userRepository,
		refreshTokenRepository,
		jwtService,
		rateLimitService,
		auditService,
		cfg.Security.BcryptCost,
		cfg.JWT.RefreshTokenExpiry,
		logger,
	)
	taxonomyService := services.NewTaxonomyService(taxonomyRepository)
	applicationService := services.NewApplicationService(providerRepository, taxonomyService)
	subscriptionService := services.NewSubscriptionService(
		subscriptionRepository, providerRepository, razorpayService, auditService, logger)
	registrationPaymentService := services.NewRegistrationPaymentService(
		paymentRepository, userRepository, razorpayService, auditService, logger)
	captainService := services.NewCaptainService(captainRepository, userRepository, auditService, logger)
	guideService := services.NewGuideService(guideRepository, geminiService, rateLimitService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	paymentHandler := handlers.NewPaymentHandler(registrationPaymentService)
	taxonomyHandler := handlers.NewTaxonomyHandler(taxonomyService)
	providerHandler := handlers.NewProviderHandler(applicationService, &cfg.Uploads)
	verificationHandler := handlers.NewVerificationHandler(applicationService, auditService)
	subscriptionHandler := handlers.NewSubscriptionHandler(subscriptionService)
	captainHandler := handlers.NewCaptainHandler(captainService, &cfg.Uploads)
	guideHandler := handlers.NewGuideHandler(guideService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	// CORS configuration
	corsConfig := cors.Config{
		AllowOrigins:     cfg.CORS.AllowedOrigins,
		AllowMethods:     cfg.CORS.AllowedMethods,
		AllowHeaders:     cfg.CORS.AllowedHeaders,
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	router.Use(cors.New(corsConfig))

	// Health check endpoint
	router.GET("/health", healthCheckHandler(db))

	// Uploaded documents
	router.Static(cfg.Uploads.ServePrefix, cfg.Uploads.Dir)

	api := router.Group("/api")
	{
		// Authentication
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.AuthMiddleware(jwtService), authHandler.Logout)
			auth.GET("/me", middleware.AuthMiddleware(jwtService), authHandler.Me)
		}

		// Registration payment: public, signature-protected
		payments := api.Group("/payments/registration")
		{
			payments.POST("/order", paymentHandler.CreateOrder)
			payments.POST("/callback", paymentHandler.Callback)
			payments.GET("/status/:user_id", paymentHandler.Status)
		}

		// Reference taxonomy
		taxonomy := api.Group("/taxonomy")
		{
			taxonomy.GET("/locations", taxonomyHandler.Locations)
			taxonomy.GET("/categories", taxonomyHandler.Categories)
			taxonomy.GET("/types", taxonomyHandler.Types)
			taxonomy.GET("/areas", taxonomyHandler.Areas)
		}

		// Provider applications and directory
		providers := api.Group("/providers")
		{
			providers.GET("/search", providerHandler.Search)

			authed := providers.Group("", middleware.AuthMiddleware(jwtService))
			{
				authed.POST("/profile", providerHandler.SaveProfile)
				authed.GET("/me", providerHandler.Me)
				authed.POST("/submit", providerHandler.Submit)
			}
		}

		// Captain review queue for provider applications
		verification := api.Group("/verification",
			middleware.AuthMiddleware(jwtService), middleware.RequireCaptain())
		{
			verification.GET("/applications", verificationHandler.Pending)
			verification.POST("/applications/:id/verify", verificationHandler.Verify)
			verification.POST("/applications/:id/reject", verificationHandler.Reject)
		}

		// Listing subscriptions
		subscriptions := api.Group("/subscriptions")
		{
			subscriptions.POST("/callback", subscriptionHandler.Callback)

			authed := subscriptions.Group("", middleware.AuthMiddleware(jwtService))
			{
				authed.POST("", subscriptionHandler.Create)
				authed.GET("/status", subscriptionHandler.Status)
				authed.GET("/history", subscriptionHandler.History)
			}
		}

		// Captain onboarding: public document submission keyed by captain code
		captains := api.Group("/captains")
		{
			captains.POST("/documents", captainHandler.SubmitDocuments)
			captains.GET("/status/:code", captainHandler.Status)
		}

		// Admin: captain verification
		admin := api.Group("/admin",
			middleware.AuthMiddleware(jwtService), middleware.RequireAdmin())
		{
			admin.GET("/captains", captainHandler.Pending)
			admin.POST("/captains/:user_id/verify", captainHandler.Verify)
			admin.POST("/captains/:user_id/reject", captainHandler.Reject)
		}

		// Government services guide
		guide := api.Group("/guide")
		{
			guide.GET("/services", guideHandler.Services)
			guide.GET("/services/:id/questions", guideHandler.Questions)
			guide.GET("/questions/:id/answer", guideHandler.Answer)
			guide.POST("/ask", middleware.AuthMiddleware(jwtService), guideHandler.Ask)
		}
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Infof("Server starting on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	}

	logger.Info("Server exited successfully")
}

// requestLogger middleware for logging HTTP requests
func requestLogger(logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		fields := logrus.Fields{
			"status":     c.Writer.Status(),
			"method":     c.Request.Method,
			"path":       path,
			"query":      query,
			"ip":         c.ClientIP(),
			"latency_ms": latency.Milliseconds(),
			"user_agent": c.Request.UserAgent(),
		}

		if userCtx, exists := middleware.GetUserContext(c); exists {
			fields["user_id"] = userCtx.UserID
			fields["roles"] = userCtx.Roles
		}

		entry := logger.WithFields(fields)

		status := c.Writer.Status()
		switch {
		case len(c.Errors) > 0:
			entry.WithField("errors", c.Errors.String()).Error("Request failed with errors")
		case status >= 500:
			entry.Error("Request completed with server error")
		case status >= 400:
			entry.Warn("Request completed with client error")
		default:
			entry.Info("Request completed successfully")
		}
	}
}

// healthCheckHandler returns a health check endpoint
func healthCheckHandler(db database.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":   "unhealthy",
				"database": "unhealthy",
				"error":    err.Error(),
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"database":  "healthy",
			"version":   version,
			"timestamp": time.Now().Unix(),
		})
	}
}

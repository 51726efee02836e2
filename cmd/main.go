package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"realest/internal/auth"
	"realest/internal/config"
	"realest/internal/database"
	"realest/internal/handlers"
	"realest/internal/jobs"
	"realest/internal/repository"
	"realest/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	db := database.GetDB()

	// Initialize repository
	propertyRepo := repository.NewPropertyRepository(db)

	// Initialize services
	authService := services.NewAuthService(db)
	adminService := services.NewAdminService(db)
	notificationService := services.NewNotificationService(db)
	propertyService := services.NewPropertyService(db, propertyRepo, notificationService)
	verificationService := services.NewVerificationService(propertyRepo, adminService, notificationService, cfg.App.ListingTTLDays)
	duplicateService := services.NewDuplicateService(propertyRepo, adminService, cfg.Verification)
	inquiryService := services.NewInquiryService(db, propertyRepo, notificationService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	propertyHandler := handlers.NewPropertyHandler(propertyService, adminService)
	verificationHandler := handlers.NewVerificationHandler(verificationService, duplicateService)
	adminHandler := handlers.NewAdminHandler(adminService, propertyRepo)
	inquiryHandler := handlers.NewInquiryHandler(inquiryService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)

	// Start the listing expiry sweep
	expiryJob := jobs.NewExpiryJob(propertyService)
	if err := expiryJob.Start(cfg.App.ExpirySweepSpec); err != nil {
		log.Fatalf("Failed to start expiry job: %v", err)
	}
	defer expiryJob.Stop()
	log.Println("Listing expiry job started")

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
		"http://127.0.0.1:3000",
		"http://127.0.0.1:5173",
	}
	if cfg.App.FrontendURL != "" {
		allowedOrigins = append(allowedOrigins, cfg.App.FrontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/logout", authHandler.Logout)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// Public listing routes. Optional auth lets owners and admins see their
	// non-live listings through the same endpoint.
	public := router.Group("/api")
	public.Use(auth.OptionalAuthMiddleware())
	{
		public.GET("/properties", propertyHandler.SearchProperties)
		public.GET("/properties/:id", propertyHandler.GetProperty)
		public.POST("/properties/:id/inquiries", inquiryHandler.CreateInquiry)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// Listing management
		api.POST("/properties", propertyHandler.CreateProperty)
		api.GET("/properties/mine", propertyHandler.GetMyProperties)
		api.PUT("/properties/:id", propertyHandler.UpdateProperty)
		api.POST("/properties/:id/submit", propertyHandler.SubmitProperty)
		api.POST("/properties/:id/sold", propertyHandler.MarkSold)

		// Duplicate check (owner or admin)
		api.GET("/properties/:id/duplicates", verificationHandler.CheckDuplicates)

		// Inquiries
		api.GET("/properties/:id/inquiries", inquiryHandler.GetPropertyInquiries)
		api.GET("/inquiries", inquiryHandler.GetMyInquiries)

		// Notifications
		api.GET("/notifications", notificationHandler.GetNotifications)
		api.POST("/notifications/:id/read", notificationHandler.MarkRead)
		api.POST("/notifications/read-all", notificationHandler.MarkAllRead)
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(adminHandler.AdminMiddleware())
	{
		admin.GET("/dashboard", adminHandler.GetDashboard)
		admin.GET("/logs", adminHandler.GetActionLogs)
		admin.GET("/properties/queue", adminHandler.GetQueue)

		// Verification pipeline
		admin.POST("/properties/:id/ml-validation", verificationHandler.UpdateMLValidation)
		admin.POST("/properties/:id/vet", verificationHandler.VetProperty)
		admin.POST("/properties/:id/duplicate-review", verificationHandler.ResolveDuplicateReview)

		// User management (super admin only)
		admin.POST("/users/promote", adminHandler.SuperAdminMiddleware(), adminHandler.PromoteToAdmin)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)
		log.Printf("Health check: http://localhost:%s/health", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}

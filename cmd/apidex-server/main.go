package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/apidex/apidex/pkg/apidex/admin"
	"github.com/apidex/apidex/pkg/apidex/apikeys"
	"github.com/apidex/apidex/pkg/apidex/auth"
	"github.com/apidex/apidex/pkg/apidex/config"
	"github.com/apidex/apidex/pkg/apidex/database"
	"github.com/apidex/apidex/pkg/apidex/endpoints"
	"github.com/apidex/apidex/pkg/apidex/icons"
	"github.com/apidex/apidex/pkg/apidex/models"
	"github.com/apidex/apidex/pkg/apidex/requests"
	"github.com/apidex/apidex/pkg/apidex/review"
	"github.com/apidex/apidex/pkg/apidex/tags"
)

// @title apidex API
// @version 1.0
// @description A community registry of API endpoints with a moderated submission queue.

// @host localhost:8080
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token or API key. Format: "Bearer {token}"

func main() {
	log := logrus.New()
	cfg := config.Load()

	// Connect to database
	if err := database.Connect(cfg.DBPath); err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Run auto-migrations
	if err := models.AutoMigrate(database.GetDB()); err != nil {
		log.WithError(err).Fatal("Failed to run migrations")
	}
	log.Info("Database migrations completed")

	// Create default admin user if no admin exists
	if err := ensureAdminExists(log); err != nil {
		log.WithError(err).Fatal("Failed to ensure admin user exists")
	}

	// Icon store is optional; uploads are rejected politely when absent
	var iconStore icons.Store
	if cfg.Icons.Endpoint != "" {
		store, err := icons.NewMinioStore(context.Background(), cfg.Icons)
		if err != nil {
			log.WithError(err).Fatal("Failed to connect to icon store")
		}
		iconStore = store
		log.WithField("endpoint", cfg.Icons.Endpoint).Info("Icon store connected")
	} else {
		log.Warn("No icon store configured - icon uploads disabled")
	}

	// Set up Gin router
	r := gin.Default()

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
		})
	})

	db := database.GetDB()

	// API routes
	api := r.Group("/api")
	{
		api.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status":  "ok",
				"service": "apidex",
			})
		})

		// Auth routes (public)
		authHandler := auth.NewHandler(db)
		authHandler.RegisterRoutes(api.Group("/auth"))

		// Public catalog routes
		endpointsHandler := endpoints.NewHandler(db)
		endpointsHandler.RegisterRoutes(api.Group(""))

		tagsHandler := tags.NewHandler(db)
		tagsHandler.RegisterRoutes(api.Group(""))

		// Combined auth middleware (accepts JWT or API key)
		combinedAuth := apikeys.CombinedAuthMiddleware(db)

		// API keys routes (JWT only - need to be logged in to manage keys)
		apiKeysHandler := apikeys.NewHandler(db)
		apiKeysHandler.RegisterRoutes(api.Group("", auth.AuthMiddleware()))

		// Submission routes (protected - accepts JWT or API key)
		requestsHandler := requests.NewHandler(db)
		requestsHandler.RegisterRoutes(api.Group("", combinedAuth))

		// Icon uploads (protected)
		iconsHandler := icons.NewHandler(iconStore)
		iconsHandler.RegisterRoutes(api.Group("", combinedAuth))

		// Admin routes (JWT only, admin role required)
		adminGroup := api.Group("/admin")
		adminGroup.Use(auth.AuthMiddleware(), auth.RequireAdmin())

		reviewHandler := review.NewHandler(db)
		reviewHandler.RegisterRoutes(adminGroup)

		endpointsHandler.RegisterAdminRoutes(adminGroup)
		tagsHandler.RegisterAdminRoutes(adminGroup)

		adminHandler := admin.NewHandler(db)
		adminHandler.RegisterRoutes(adminGroup)
	}

	log.WithField("port", cfg.Port).Info("Starting apidex server")
	if err := r.Run(":" + cfg.Port); err != nil {
		log.WithError(err).Fatal("Failed to start server")
	}
}

// ensureAdminExists creates a default admin user if no admin exists in the
// database, so a fresh install can be administered at all.
func ensureAdminExists(log *logrus.Logger) error {
	db := database.GetDB()

	// Check if any admin user exists
	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", models.UserRoleAdmin).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		return nil // Admin already exists
	}

	// Create default admin user
	hashedPassword, err := auth.HashPassword("changeme")
	if err != nil {
		return err
	}

	adminUser := models.User{
		Email:        "admin@apidex.local",
		Name:         "Admin",
		PasswordHash: hashedPassword,
		Role:         models.UserRoleAdmin,
	}

	if err := db.Create(&adminUser).Error; err != nil {
		return err
	}

	log.WithField("email", adminUser.Email).Info("Created default admin user (password: changeme)")
	return nil
}

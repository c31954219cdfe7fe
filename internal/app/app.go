package app

import (
	"database/sql"
	"fmt"
	"log"

	"deeptech/internal/config"
	"deeptech/internal/database"
	"deeptech/internal/handlers"
	"deeptech/internal/repositories"
	"deeptech/internal/routes"
	"deeptech/internal/services"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "deeptech/docs"
)

func Run() {
	cfg := config.LoadConfig()

	// === DB ===
	db, err := sql.Open("postgres", cfg.Database.DSN)
	if err != nil {
		log.Fatal("failed to open database: ", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	if err := database.RunMigrations(cfg.Database.DSN); err != nil {
		log.Fatal("failed to migrate database: ", err)
	}

	// === Repos ===
	accountRepo := repositories.NewAccountRepository(db)
	codeRepo := repositories.NewVerificationCodeRepository(db)
	resetRepo := repositories.NewPasswordResetRepository(db)

	// === Services ===
	authService := services.NewAuthService([]byte(cfg.Auth.JWTSecret), cfg.TokenTTL())
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
		cfg.Server.PublicBaseURL,
		cfg.EmailSendTimeout(),
	)
	alertService := services.NewTelegramAlertService(cfg.Telegram.BotToken, cfg.Telegram.OpsChatID)

	accountService := services.NewAccountService(
		accountRepo,
		codeRepo,
		authService,
		emailService,
		alertService,
		services.AccountServiceConfig{
			AdminKey:            cfg.Auth.AdminKey,
			AdminEmailDomain:    cfg.Auth.AdminEmailDomain,
			AdminEmailAllowlist: cfg.Auth.AdminEmailAllowlist,
			CodeTTL:             cfg.OTPTTL(),
			RequireDelivery:     cfg.Email.RequireDelivery,
		},
	)
	resetService := services.NewPasswordResetService(accountRepo, resetRepo, emailService, authService)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(accountService, resetService)
	adminHandler := handlers.NewAdminHandler(accountService)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(router, authHandler, adminHandler, []byte(cfg.Auth.JWTSecret))

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	log.Printf("listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		log.Fatal("server stopped: ", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}

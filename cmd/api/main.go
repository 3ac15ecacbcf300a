package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ejehcaleb2/ease-home-find/internal/config"
	"github.com/ejehcaleb2/ease-home-find/internal/handler"
	"github.com/ejehcaleb2/ease-home-find/internal/middleware"
	pgRepo "github.com/ejehcaleb2/ease-home-find/internal/repository/postgres"
	"github.com/ejehcaleb2/ease-home-find/internal/service"
	"github.com/ejehcaleb2/ease-home-find/pkg/auth"
	"github.com/ejehcaleb2/ease-home-find/pkg/database"
)

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}
	log.Printf("Loading configuration from %s", configPath)

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Printf("Failed to load config: %v", err)
		os.Exit(1)
	}

	db, err := database.NewPostgresDB(cfg.Database.PostgresConnectionString())
	if err != nil {
		log.Printf("Failed to connect to database: %v", err)
		os.Exit(1)
	}

	if err := database.MigrateDB(db); err != nil {
		log.Printf("Failed to migrate database: %v", err)
		os.Exit(1)
	}

	redisClient, err := database.NewRedisClient(cfg.Redis)
	if err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		os.Exit(1)
	}
	log.Println("Successfully connected to Redis")

	userRepo := pgRepo.NewUserRepo(db)
	otpRepo := pgRepo.NewOTPCodeRepo(db)

	var emailService service.EmailService
	if cfg.Email.ResendAPIKey != "" {
		emailService, err = service.NewResendEmailService(cfg.Email.ResendAPIKey, cfg.Email.From)
		if err != nil {
			log.Printf("Failed to initialize email service: %v", err)
			os.Exit(1)
		}
	} else {
		// Config validation guarantees test mode is explicitly enabled here.
		emailService = &service.NoopEmailService{}
	}

	otpService, err := service.NewOTPService(otpRepo, userRepo, emailService, cfg.OTP.CodeTTL(), cfg.Email.TestMode)
	if err != nil {
		log.Printf("Failed to initialize OTPService: %v", err)
		os.Exit(1)
	}

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpirationHrs)*time.Hour)
	if err != nil {
		log.Printf("Failed to initialize JWTService: %v", err)
		os.Exit(1)
	}

	authService, err := service.NewAuthService(userRepo, jwtService)
	if err != nil {
		log.Printf("Failed to initialize AuthService: %v", err)
		os.Exit(1)
	}

	otpHandler := handler.NewOTPHandler(otpService)
	authHandler := handler.NewAuthHandler(authService)

	authMiddleware := middleware.NewAuthMiddleware(jwtService)
	rateLimiter := middleware.NewRateLimiter(redisClient)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Expiry is enforced at read time by the lookup predicate; this sweep
	// only keeps the table from growing without bound.
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				deleted, err := otpRepo.DeleteExpiredBefore(time.Now().Add(-24 * time.Hour))
				if err != nil {
					log.Printf("Failed to clean up expired verification codes: %v", err)
				} else if deleted > 0 {
					log.Printf("Cleaned up %d expired verification codes", deleted)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	isProduction := gin.Mode() == gin.ReleaseMode

	router := gin.Default()

	if isProduction {
		if err := router.SetTrustedProxies(nil); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	} else {
		if err := router.SetTrustedProxies([]string{"127.0.0.1", "::1"}); err != nil {
			log.Printf("Warning: failed to set trusted proxies: %v", err)
		}
	}

	// The endpoints are called from the browser app directly, so CORS is
	// open and preflight requests get an empty 200.
	router.Use(cors.New(cors.Config{
		AllowAllOrigins:           true,
		AllowMethods:              []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:              []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:             []string{"Content-Length"},
		MaxAge:                    12 * time.Hour,
		OptionsResponseStatusCode: http.StatusOK,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	otpGroup := router.Group("/otp")
	{
		otpGroup.POST("/send", rateLimiter.Limit(middleware.OTPSendRateLimitConfig()), otpHandler.SendOTP)
		otpGroup.POST("/verify", rateLimiter.Limit(middleware.OTPVerifyRateLimitConfig()), otpHandler.VerifyOTP)
	}

	router.POST("/auth/login", authHandler.Login)

	users := router.Group("/users")
	users.Use(authMiddleware.RequireAuth())
	{
		users.GET("/me", authHandler.GetMe)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
		os.Exit(1)
	}

	if err := redisClient.Close(); err != nil {
		log.Printf("Error closing Redis client: %v", err)
	}

	log.Println("Server exited properly")
}

package main

import (
	"log"
	"net/http"
	"os"

	"motobook/internal/config"
	"motobook/internal/database"
	"motobook/internal/domain"
	"motobook/internal/middleware"
	"motobook/internal/modules/booking"
	"motobook/internal/modules/payment"
	"motobook/internal/modules/policy"
	"motobook/internal/modules/refund"
	jwtsvc "motobook/internal/pkg/jwt"
	"motobook/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
	}

	cfg, err := config.LoadRuntimeConfig()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		dsn = "motobook.db"
	}
	db, err := database.Connect(dsn)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	if err := db.AutoMigrate(
		&domain.PolicySettings{},
		&domain.AddOn{},
		&domain.Booking{},
		&domain.Payment{},
		&domain.RefundRequest{},
	); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	jwt := jwtsvc.NewVerifier(cfg.JWTSecret)

	bookingRepo := repository.NewBookingRepository(db)
	addOnRepo := repository.NewAddOnRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	refundRepo := repository.NewRefundRequestRepository(db)
	policyRepo := repository.NewPolicySettingsRepository(db)
	reconRepo := repository.NewReconciliationRepository(db)

	policySvc := policy.NewService(policyRepo)
	notifier := refund.NewLogNotifier(log.Printf)
	refundSvc := refund.NewService(refundRepo, paymentRepo, bookingRepo, notifier, cfg.VerifyTokenTTL, log.Printf)
	bookingSvc := booking.NewService(bookingRepo, addOnRepo, paymentRepo, cfg.MinLeadTime)
	paymentSvc := payment.NewService(
		paymentRepo,
		bookingRepo,
		policySvc,
		payment.NewSandboxProvider(),
		reconRepo,
		cfg.Currency,
		log.Printf,
	)

	bookingHandler := booking.NewHandler(bookingSvc)
	refundHandler := refund.NewHandler(refundSvc)
	paymentHandler := payment.NewHandler(paymentSvc)
	policyHandler := policy.NewHandler(policySvc)

	if cfg.AppEnv == "prod" || cfg.AppEnv == "production" || cfg.AppEnv == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Logger(), middleware.ErrorLogger())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api/v1")
	bookingHandler.RegisterRoutes(api)
	refundHandler.RegisterRoutes(api)
	paymentHandler.RegisterRoutes(api)

	// Webhook transport verifies provider signatures before these routes run.
	paymentHandler.RegisterWebhookRoutes(api)

	admin := api.Group("/admin", middleware.Auth(jwt), middleware.AdminOnly())
	policyHandler.RegisterAdminRoutes(admin)
	refundHandler.RegisterAdminRoutes(admin)
	paymentHandler.RegisterAdminRoutes(admin)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	log.Printf("starting API server on :%s (env=%s)", port, cfg.AppEnv)
	if err := router.Run(":" + port); err != nil {
		log.Fatalf("server: %v", err)
	}
}

package main

import (
	"context"
	"log"
	"os"
	"time"

	"motobook/internal/config"
	"motobook/internal/database"
	"motobook/internal/modules/refund"
	"motobook/internal/repository"

	"github.com/joho/godotenv"
)

// Purges unverified refund requests whose verification token has expired.
// Run from cron; expiry is never evaluated lazily on read paths.
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

	refundRepo := repository.NewRefundRequestRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	notifier := refund.NewLogNotifier(log.Printf)
	svc := refund.NewService(refundRepo, paymentRepo, bookingRepo, notifier, cfg.VerifyTokenTTL, log.Printf)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	purged, err := svc.PurgeExpired(ctx)
	if err != nil {
		log.Fatalf("purge expired refund requests: %v", err)
	}
	log.Printf("purged %d expired refund requests", purged)
}

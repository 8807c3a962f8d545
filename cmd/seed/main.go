package main

import (
	"context"
	"errors"
	"log"
	"os"

	"motobook/internal/database"
	"motobook/internal/domain"
	"motobook/internal/repository"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, relying on environment")
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

	ctx := context.Background()

	if err := seedPolicySettings(ctx, db); err != nil {
		log.Fatalf("seed policy settings: %v", err)
	}
	if err := seedAddOns(db); err != nil {
		log.Fatalf("seed add-ons: %v", err)
	}

	log.Println("seed complete")
}

func seedPolicySettings(ctx context.Context, db *gorm.DB) error {
	repo := repository.NewPolicySettingsRepository(db)

	_, err := repo.Get(ctx)
	if err == nil {
		log.Println("policy settings already present, skipping")
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	tier := domain.RefundTier{
		FullRefundDays:       7,
		PartialRefundDays:    3,
		PartialRefundPercent: 50,
		MinimalRefundDays:    1,
		MinimalRefundPercent: 0,
	}
	settings := &domain.PolicySettings{
		Upfront: tier,
		Deposit: tier,
	}
	if err := repo.Save(ctx, settings); err != nil {
		return err
	}
	log.Printf("seeded policy settings v%d", settings.Version)
	return nil
}

func seedAddOns(db *gorm.DB) error {
	addons := []domain.AddOn{
		{Name: "Helmet hire", BookingType: domain.BookingHire, Price: decimal.NewFromFloat(15.00), Available: true},
		{Name: "Pannier set", BookingType: domain.BookingHire, Price: decimal.NewFromFloat(25.00), Available: true},
		{Name: "Breakdown cover", BookingType: domain.BookingHire, Price: decimal.NewFromFloat(12.50), Available: true},
		{Name: "Chain and sprocket check", BookingType: domain.BookingService, Price: decimal.NewFromFloat(20.00), Available: true},
		{Name: "Valet and detail", BookingType: domain.BookingService, Price: decimal.NewFromFloat(45.00), Available: true},
		{Name: "Extended warranty", BookingType: domain.BookingSales, Price: decimal.NewFromFloat(299.00), Available: true},
	}

	for _, a := range addons {
		var existing domain.AddOn
		err := db.Where("name = ?", a.Name).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&a).Error; err != nil {
			return err
		}
		log.Printf("seeded add-on %q", a.Name)
	}
	return nil
}

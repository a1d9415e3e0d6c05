package database

import (
	"fmt"

	"github.com/domflow/tigerad/domain"
	"github.com/domflow/tigerad/pkg/config"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func InitPostgres(cfg *config.Config) (*gorm.DB, error) {
	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.User,
		cfg.Database.Password,
		cfg.Database.Name,
		cfg.Database.SSLMode,
	)

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	if err := db.AutoMigrate(
		&domain.StoreOwner{},
		&domain.APIKey{},
		&domain.Store{},
		&domain.Advertisement{},
		&domain.CreditBalance{},
		&domain.CreditTransaction{},
		&domain.CreditPackage{},
		&domain.RateLimitWindow{},
		&domain.GeofenceEvent{},
		&domain.UserInteraction{},
	); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	return db, nil
}

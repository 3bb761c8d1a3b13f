package database

import (
	"fmt"

	"kaleidorium/internal/domain/billing"
	"kaleidorium/internal/domain/collection"
	"kaleidorium/internal/domain/invitations"
	"kaleidorium/internal/domain/media"
	"kaleidorium/internal/domain/plans"
	"kaleidorium/internal/domain/profiles"
	"kaleidorium/internal/domain/users"
	"kaleidorium/internal/domain/works"

	"github.com/rs/zerolog/log"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// Models lists every table owned by the service, in dependency order.
func Models() []interface{} {
	return []interface{}{
		// accounts
		&plans.Plan{},
		&users.User{},
		&users.VerificationToken{},
		&users.PasswordResetOTP{},
		&billing.Payment{},

		// media
		&media.Image{},

		// profiles
		&profiles.Gallery{},
		&profiles.Artist{},
		&profiles.Collector{},

		// catalog
		&works.Artwork{},
		&collection.Item{},
		&collection.Interaction{},
		&invitations.Invitation{},
	}
}

func InitDB(dsn string) error {
	if dsn == "" {
		return fmt.Errorf("DB_URL not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	DB = db
	log.Info().Msg("connected to database")
	return nil
}

func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("auto-migrate: %w", err)
	}
	return nil
}

package database

import (
	"fmt"
	"log"

	config "github.com/kiptoo95/skill_exchange/configs"
	"github.com/kiptoo95/skill_exchange/models"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	dsn := config.Config("DATABASE_URL")

	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{
		PrepareStmt:                              false,
		SkipDefaultTransaction:                   true,
		DisableForeignKeyConstraintWhenMigrating: true,
		DisableNestedTransaction:                 true,
	})
	if err != nil {
		log.Fatalf("🔥 Failed to connect to database: %v", err)
	}

	fmt.Println("✅ Database connected successfully")
}

// MigrateBooking creates the tables owned by the booking service.
func MigrateBooking() {
	err := DB.AutoMigrate(
		&models.Booking{},
		&models.BookingHistory{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate booking tables: %v", err)
	}
	fmt.Println("✅ Booking migration successful")
}

// MigrateNotification creates the tables owned by the notification service.
func MigrateNotification() {
	err := DB.AutoMigrate(
		&models.NotificationLog{},
		&models.DeviceToken{},
	)
	if err != nil {
		log.Fatalf("🔥 Failed to migrate notification tables: %v", err)
	}
	fmt.Println("✅ Notification migration successful")
}

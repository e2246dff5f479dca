package database

import (
	"fmt"
	"strconv"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"reservaya/config"
	"reservaya/model"
)

var DB *gorm.DB

func ConnectDB() {
	var err error
	p := config.ConfigOr("DB_PORT", "5432")
	port, err := strconv.ParseUint(p, 10, 32)
	if err != nil {
		panic("failed to parse database port")
	}

	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
		config.Config("DB_HOST"), port, config.Config("DB_USER"), config.Config("DB_PASSWORD"), config.Config("DB_NAME"))
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		panic("failed to connect database")
	}

	fmt.Println("Connection Opened to Database")
	DB.AutoMigrate(
		&model.Account{},
		&model.Customer{},
		&model.Establishment{},
		&model.OperatingHours{},
		&model.Table{},
		&model.Reservation{},
	)

	// Claim backstop: at most one held reservation per (table, date, start).
	// Partial so cancelled/expired rows never block rebooking the slot.
	DB.Exec(`CREATE UNIQUE INDEX IF NOT EXISTS idx_reservations_claim
		ON reservations (table_id, date, start_time)
		WHERE status IN ('PENDING','CONFIRMED')`)

	fmt.Println("Database Migrated")

	SeedData(DB)
}

package database

import (
	"log"

	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"reservaya/constants"
	"reservaya/model"
)

func SeedData(db *gorm.DB) {
	bytes, err := bcrypt.GenerateFromPassword([]byte("changeme123"), 10)
	hashPassword := string(bytes)
	if err != nil {
		log.Println("failed to hash seed password:", err)
		return
	}

	accounts := []model.Account{
		{Username: "administration", Password: hashPassword, Active: true, Role: constants.ROLE_ADMIN},
	}
	for _, account := range accounts {
		if err := db.Where(model.Account{Username: account.Username}).FirstOrCreate(&account).Error; err != nil {
			log.Println("failed to seed account:", account.Username, "error:", err)
		}
	}

	demo := model.Establishment{
		Name:                   "La Terraza del Centro",
		Slug:                   slug.Make("La Terraza del Centro"),
		Address:                "Av. Principal 123",
		Phone:                  "+57 300 000 0000",
		Email:                  "reservas@laterraza.example",
		IsActive:               true,
		SlotGranularityMin:     30,
		ReservationDurationMin: 90,
		BookingHorizonDays:     30,
		CancelWindowHours:      24,
		HoldWindowMin:          15,
	}
	if err := db.Where(model.Establishment{Slug: demo.Slug}).FirstOrCreate(&demo).Error; err != nil {
		log.Println("failed to seed establishment:", err)
		return
	}

	// Open every day except Monday, 12:00-22:00.
	for weekday := 0; weekday < 7; weekday++ {
		hours := model.OperatingHours{
			EstablishmentId: demo.ID,
			Weekday:         weekday,
			Opens:           "12:00",
			Closes:          "22:00",
			Closed:          weekday == 1,
		}
		if err := db.Where(model.OperatingHours{EstablishmentId: demo.ID, Weekday: weekday}).
			FirstOrCreate(&hours).Error; err != nil {
			log.Println("failed to seed hours for weekday", weekday, "error:", err)
		}
	}

	tables := []model.Table{
		{EstablishmentId: demo.ID, Label: "T1", Capacity: 2, Zone: "window", IsActive: true},
		{EstablishmentId: demo.ID, Label: "T2", Capacity: 2, Zone: "window", IsActive: true},
		{EstablishmentId: demo.ID, Label: "T3", Capacity: 4, Zone: "main", IsActive: true},
		{EstablishmentId: demo.ID, Label: "T4", Capacity: 4, Zone: "main", IsActive: true},
		{EstablishmentId: demo.ID, Label: "T5", Capacity: 6, Zone: "terrace", IsActive: true},
		{EstablishmentId: demo.ID, Label: "T6", Capacity: 8, Zone: "terrace", IsActive: true},
	}
	for _, table := range tables {
		if err := db.Where(model.Table{EstablishmentId: demo.ID, Label: table.Label}).
			FirstOrCreate(&table).Error; err != nil {
			log.Println("failed to seed table:", table.Label, "error:", err)
		}
	}
}

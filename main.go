package main

import (
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"

	"reservaya/config"
	"reservaya/database"
	"reservaya/handler"
	"reservaya/helper"
	"reservaya/model"
	"reservaya/router"
	"reservaya/utils"
)

func main() {
	app := fiber.New(fiber.Config{
		AppName: "ReservaYa",
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins:     config.ConfigOr("CORS_ORIGIN", "http://localhost:5173"),
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Authorization, Accept",
		AllowCredentials: true,
		ExposeHeaders:    "Set-Cookie",
		MaxAge:           600,
	}))

	database.ConnectDB()

	store := database.NewStore(database.DB)
	engine := helper.NewBookingEngine(store, store)

	if natsUrl := config.Config("NATS_URL"); natsUrl != "" {
		publisher, err := helper.NewEventPublisher(natsUrl)
		if err != nil {
			log.Printf("NATS unavailable, events disabled: %v", err)
		} else {
			engine.Events = publisher
			defer publisher.Close()
		}
	}

	// Table freed outside the request path (expiry sweep): push the new
	// availability and tell the guest their hold lapsed.
	engine.OnRelease = func(r *model.Reservation, reason string) {
		handler.BroadcastAvailability(r.EstablishmentId, r.Date.String())
		if reason == "expired" && r.ContactEmail != "" {
			var est model.Establishment
			if err := database.DB.First(&est, r.EstablishmentId).Error; err == nil {
				utils.SendCancellationNotice(r.ContactEmail, est.Name, r.Date.String(), r.StartTime, "the hold window elapsed before confirmation")
			}
		}
	}

	handler.Engine = engine
	handler.InitRedis()

	helper.StartExpirySweep(engine)
	defer helper.StopExpirySweep()
	helper.StartIndexPruner(engine)
	defer helper.StopIndexPruner()

	router.SetupRoutes(app)

	log.Fatal(app.Listen(":" + config.ConfigOr("PORT", "8002")))
}

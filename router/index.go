package router

import (
	"reservaya/database"
	"reservaya/handler"
	"reservaya/middleware"
	"reservaya/model"
	"reservaya/utils"
	"reservaya/validate"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
)

// loadEstablishment resolves :slug before the websocket upgrade, since the
// connection handler cannot answer with a JSON error anymore.
func loadEstablishment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var est model.Establishment
		if err := database.DB.Preload("Hours").
			Where("slug = ? AND is_active = true", c.Params("slug")).
			First(&est).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Establishment not found", err)
		}
		c.Locals("establishment", est)
		return c.Next()
	}
}

func SetupRoutes(app *fiber.App) {
	api := app.Group("/api", logger.New())
	v1 := api.Group("/v1", logger.New())

	auth := v1.Group("/auth")
	auth.Post("/login", handler.Login)
	auth.Post("/register", validate.RegisterCustomer(), handler.RegisterCustomer)
	auth.Post("/refresh-token", handler.RefreshToken)

	account := v1.Group("/account", logger.New())
	account.Get("/me", middleware.OptionalAuth(), handler.Me)
	account.Post("/", middleware.Protected(), middleware.AdminOnly(), validate.CreateAccount(), handler.CreateAccount)

	customer := v1.Group("/customer", logger.New())
	customer.Post("/register", validate.RegisterCustomer(), handler.RegisterCustomer)
	customer.Post("/login", handler.LoginCustomer)
	customer.Post("/refresh-token", handler.RefreshToken)
	customer.Get("/reservations", middleware.CustomerProtected(), handler.MyReservations)

	establishment := v1.Group("/establishment", logger.New())
	establishment.Get("/", handler.GetEstablishments)
	establishment.Get("/:slug", handler.GetEstablishmentBySlug)
	establishment.Post("/", middleware.Protected(), middleware.AdminOnly(), validate.CreateEstablishment(), handler.CreateEstablishment)
	establishment.Put("/:establishmentId", middleware.Protected(), middleware.AdminOnly(), validate.UpdateEstablishment("establishmentId"), handler.UpdateEstablishment)

	table := v1.Group("/table", logger.New())
	table.Get("/establishment/:establishmentId", validate.GetById("establishmentId"), handler.GetTablesByEstablishment)
	table.Post("/", middleware.Protected(), middleware.AdminOnly(), validate.CreateTable(), handler.CreateTable)
	table.Put("/:tableId", middleware.Protected(), middleware.AdminOnly(), validate.UpdateTable("tableId"), handler.UpdateTable)

	// Public booking flow: discover slots, pick a table, claim it.
	booking := v1.Group("/booking", logger.New())
	booking.Get("/:slug/slots", handler.ListSlots)
	booking.Get("/:slug/tables", handler.FreeTables)
	booking.Post("/:slug/reservations", middleware.OptionalAuth(), validate.CreateReservation(), handler.CreateReservation)

	reservation := v1.Group("/reservation", logger.New())
	reservation.Get("/token/:token", handler.GetReservationByToken)
	reservation.Get("/token/:token/qrcode", handler.GetReservationQRCode)
	// Token routes are the guest credential: possession of the emailed
	// token authenticates the booking party.
	reservation.Post("/token/:token/confirm", handler.ConfirmReservationByToken)
	reservation.Post("/token/:token/cancel", handler.CancelReservationByToken)
	// Staff QR scan at the door. Registered before the :reservationId routes.
	reservation.Post("/checkin/:token", middleware.Protected(), handler.CheckInReservation)
	reservation.Get("/admin", middleware.Protected(), handler.GetReservationsAdmin)
	reservation.Post("/:reservationId/confirm", middleware.OptionalAuth(), validate.GetById("reservationId"), handler.ConfirmReservation)
	reservation.Post("/:reservationId/cancel", middleware.OptionalAuth(), validate.GetById("reservationId"), handler.CancelReservation)
	reservation.Post("/:reservationId/complete", middleware.Protected(), validate.GetById("reservationId"), handler.CompleteReservation)
	reservation.Post("/:reservationId/no-show", middleware.Protected(), validate.GetById("reservationId"), handler.NoShowReservation)

	app.Get("/ws/availability/:slug/:date", loadEstablishment(), websocket.New(handler.AvailabilityWebsocket))
}

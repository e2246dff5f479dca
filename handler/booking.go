package handler

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"reservaya/config"
	"reservaya/constants"
	"reservaya/database"
	"reservaya/helper"
	"reservaya/model"
	"reservaya/utils"
)

// Engine is the booking core shared by all handlers; wired up in main.
var Engine *helper.BookingEngine

// bookingError maps the engine's error taxonomy onto HTTP statuses so the
// UI can distinguish "pick another table" from "something is broken".
func bookingError(c *fiber.Ctx, err error) error {
	var (
		validation *helper.ValidationError
		conflict   *helper.ConflictError
		transition *helper.InvalidTransitionError
		policy     *helper.PolicyError
		notFound   *helper.NotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "VALIDATION_ERROR", err)
	case errors.As(err, &conflict):
		return utils.ErrorResponse(c, fiber.StatusConflict, "CONFLICT", err)
	case errors.As(err, &transition):
		return utils.ErrorResponse(c, fiber.StatusUnprocessableEntity, "INVALID_TRANSITION", err)
	case errors.As(err, &policy):
		return utils.ErrorResponse(c, fiber.StatusForbidden, "POLICY_VIOLATION", err)
	case errors.As(err, &notFound):
		return utils.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", err)
	default:
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
}

func establishmentBySlug(c *fiber.Ctx) (*model.Establishment, error) {
	var est model.Establishment
	if err := database.DB.Preload("Hours").
		Where("slug = ? AND is_active = true", c.Params("slug")).
		First(&est).Error; err != nil {
		return nil, err
	}
	return &est, nil
}

// ListSlots returns the slot grid for ?date=YYYY-MM-DD.
func ListSlots(c *fiber.Ctx) error {
	est, err := establishmentBySlug(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Establishment not found", err)
	}

	slots, err := Engine.ListSlots(c.Context(), est.ID, c.Query("date"))
	if err != nil {
		return bookingError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"date":        c.Query("date"),
		"durationMin": est.ReservationDurationMin,
		"slots":       slots,
	})
}

// FreeTables returns tables free for ?date=&time=&partySize=.
func FreeTables(c *fiber.Ctx) error {
	est, err := establishmentBySlug(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Establishment not found", err)
	}

	partySize, err := strconv.Atoi(c.Query("partySize"))
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("partySize must be a number"))
	}

	tables, err := Engine.FreeTables(c.Context(), est.ID, c.Query("date"), c.Query("time"), partySize)
	if err != nil {
		return bookingError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"date":      c.Query("date"),
		"startTime": c.Query("time"),
		"tables":    tables,
	})
}

// CreateReservation claims a (table, slot) for the requester. Guests book
// with contact details only; logged-in customers get the reservation bound
// to their id.
func CreateReservation(c *fiber.Ctx) error {
	est, err := establishmentBySlug(c)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Establishment not found", err)
	}
	input := c.Locals("input").(model.CreateReservationInput)

	claim, _ := c.Locals("claim").(model.TokenClaim)
	var customerId *uint
	if claim.CustomerId > 0 {
		customerId = utils.Ptr(claim.CustomerId)
		if input.ContactEmail == "" {
			var customer model.Customer
			if err := database.DB.First(&customer, claim.CustomerId).Error; err == nil {
				input.ContactEmail = customer.Email
				if input.ContactName == "" {
					input.ContactName = customer.Name
				}
			}
		}
	}

	reservation, err := Engine.CreateReservation(c.Context(), est.ID, customerId, input)
	if err != nil {
		return bookingError(c, err)
	}

	BroadcastAvailability(est.ID, reservation.Date.String())
	if reservation.ContactEmail != "" {
		utils.SendReservationConfirmation(reservation.ContactEmail, utils.ReservationConfirmationData{
			EstablishmentName: est.Name,
			Date:              reservation.Date.String(),
			StartTime:         reservation.StartTime,
			PartySize:         reservation.PartySize,
			TableLabel:        tableLabel(reservation.TableId),
			ConfirmationToken: reservation.ConfirmationToken,
		})
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, reservation)
}

func tableLabel(tableId uint) string {
	var table model.Table
	if err := database.DB.First(&table, tableId).Error; err != nil {
		return ""
	}
	return table.Label
}

// ConfirmReservation moves a pending hold to confirmed. Idempotent. By id
// this is staff or the owning customer; guests confirm through their
// token link.
func ConfirmReservation(c *fiber.Ctx) error {
	id := c.Locals("inputId").(int)

	reservation, err := Engine.Confirm(c.Context(), uint(id), helper.ActorFromCtx(c))
	if err != nil {
		return bookingError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, reservation)
}

// ConfirmReservationByToken confirms via the emailed confirmation link.
// The token is the guest's credential.
func ConfirmReservationByToken(c *fiber.Ctx) error {
	reservation, err := Engine.GetByToken(c.Context(), c.Params("token"))
	if err != nil {
		return bookingError(c, err)
	}

	reservation, err = Engine.Confirm(c.Context(), reservation.ID, helper.Actor{ViaToken: true})
	if err != nil {
		return bookingError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, reservation)
}

// CancelReservation cancels on behalf of the request's actor; staff
// bypass the cancellation window.
func CancelReservation(c *fiber.Ctx) error {
	id := c.Locals("inputId").(int)
	actor := helper.ActorFromCtx(c)

	reservation, err := Engine.Cancel(c.Context(), uint(id), actor)
	if err != nil {
		return bookingError(c, err)
	}

	BroadcastAvailability(reservation.EstablishmentId, reservation.Date.String())
	return utils.SuccessResponse(c, fiber.StatusOK, reservation)
}

// CancelReservationByToken cancels for the booking party holding the
// confirmation token. The cancellation window still applies.
func CancelReservationByToken(c *fiber.Ctx) error {
	reservation, err := Engine.GetByToken(c.Context(), c.Params("token"))
	if err != nil {
		return bookingError(c, err)
	}

	reservation, err = Engine.Cancel(c.Context(), reservation.ID, helper.Actor{ViaToken: true})
	if err != nil {
		return bookingError(c, err)
	}

	BroadcastAvailability(reservation.EstablishmentId, reservation.Date.String())
	return utils.SuccessResponse(c, fiber.StatusOK, reservation)
}

func CompleteReservation(c *fiber.Ctx) error {
	id := c.Locals("inputId").(int)

	reservation, err := Engine.Complete(c.Context(), uint(id), helper.ActorFromCtx(c))
	if err != nil {
		return bookingError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, reservation)
}

func NoShowReservation(c *fiber.Ctx) error {
	id := c.Locals("inputId").(int)

	reservation, err := Engine.NoShow(c.Context(), uint(id), helper.ActorFromCtx(c))
	if err != nil {
		return bookingError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, reservation)
}

// GetReservationByToken is the customer-facing lookup by confirmation
// token (the QR payload).
func GetReservationByToken(c *fiber.Ctx) error {
	reservation, err := Engine.GetByToken(c.Context(), c.Params("token"))
	if err != nil {
		return bookingError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, reservation)
}

// CheckInReservation is the staff QR-scan path: resolves the token and
// completes the visit.
func CheckInReservation(c *fiber.Ctx) error {
	reservation, err := Engine.GetByToken(c.Context(), c.Params("token"))
	if err != nil {
		return bookingError(c, err)
	}

	reservation, err = Engine.Complete(c.Context(), reservation.ID, helper.ActorFromCtx(c))
	if err != nil {
		return bookingError(c, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"message":     "Checked in",
		"reservation": reservation,
	})
}

// GetReservationQRCode renders the check-in QR as PNG.
func GetReservationQRCode(c *fiber.Ctx) error {
	reservation, err := Engine.GetByToken(c.Context(), c.Params("token"))
	if err != nil {
		return bookingError(c, err)
	}

	qrContent := fmt.Sprintf("%s/checkin/%s",
		config.ConfigOr("PUBLIC_BASE_URL", "http://localhost:3000"), reservation.ConfirmationToken)
	png, err := utils.GenerateQRCode(qrContent, 256)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	c.Set("Content-Type", "image/png")
	return c.Send(png)
}

// MyReservations lists the authenticated customer's reservations.
func MyReservations(c *fiber.Ctx) error {
	claim := c.Locals("claim").(model.TokenClaim)

	var reservations []model.Reservation
	if err := database.DB.
		Where("customer_id = ?", claim.CustomerId).
		Order("date desc, start_time desc").
		Find(&reservations).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"rows":  reservations,
		"total": len(reservations),
	})
}

// GetReservationsAdmin lists reservations with filters for staff screens.
func GetReservationsAdmin(c *fiber.Ctx) error {
	filterInput := new(model.FilterReservationInput)
	if err := c.QueryParser(filterInput); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.ERROR_INPUT, err)
	}

	condition := database.DB.Model(&model.Reservation{})
	if filterInput.EstablishmentId > 0 {
		condition = condition.Where("establishment_id = ?", filterInput.EstablishmentId)
	}
	if filterInput.TableId > 0 {
		condition = condition.Where("table_id = ?", filterInput.TableId)
	}
	if filterInput.Status != "" {
		condition = condition.Where("status = ?", filterInput.Status)
	}
	if filterInput.Date != "" {
		condition = condition.Where("date = ?", filterInput.Date)
	}

	var totalCount int64
	condition.Count(&totalCount)

	var reservations []model.Reservation
	condition = utils.ApplyPagination(condition, filterInput.Limit, filterInput.Page)
	if err := condition.Order("date desc, start_time desc").Find(&reservations).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	response := &model.ResponseCustom{
		Rows:       reservations,
		Limit:      filterInput.Limit,
		Page:       filterInput.Page,
		TotalCount: totalCount,
	}
	return utils.SuccessResponse(c, fiber.StatusOK, response)
}

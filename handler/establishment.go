package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gosimple/slug"
	"github.com/jinzhu/copier"

	"reservaya/constants"
	"reservaya/database"
	"reservaya/model"
	"reservaya/utils"
)

// GetEstablishments lists active establishments for the discovery screens.
func GetEstablishments(c *fiber.Ctx) error {
	var establishments []model.Establishment
	if err := database.DB.Preload("Hours").
		Where("is_active = true").
		Order("name asc").
		Find(&establishments).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, establishments)
}

func GetEstablishmentBySlug(c *fiber.Ctx) error {
	var est model.Establishment
	if err := database.DB.Preload("Hours").Preload("Tables", "is_active = true").
		Where("slug = ?", c.Params("slug")).
		First(&est).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Establishment not found", err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, est)
}

func CreateEstablishment(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateEstablishmentInput)

	var est model.Establishment
	copier.Copy(&est, &input)
	est.Slug = slug.Make(input.Name)
	est.IsActive = true
	if est.SlotGranularityMin == 0 {
		est.SlotGranularityMin = 15
	}
	if est.ReservationDurationMin == 0 {
		est.ReservationDurationMin = 90
	}
	if est.BookingHorizonDays == 0 {
		est.BookingHorizonDays = 30
	}
	if est.CancelWindowHours == 0 {
		est.CancelWindowHours = 24
	}
	if est.HoldWindowMin == 0 {
		est.HoldWindowMin = 15
	}

	est.Hours = nil
	for _, h := range input.Hours {
		est.Hours = append(est.Hours, model.OperatingHours{
			Weekday: h.Weekday,
			Opens:   h.Opens,
			Closes:  h.Closes,
			Closed:  h.Closed,
		})
	}

	if err := database.DB.Create(&est).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Cannot create establishment", err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, est)
}

func UpdateEstablishment(c *fiber.Ctx) error {
	id := c.Locals("inputId").(int)
	input := c.Locals("input").(model.UpdateEstablishmentInput)

	var est model.Establishment
	if err := database.DB.First(&est, id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Establishment not found", err)
	}

	copier.CopyWithOption(&est, &input, copier.Option{IgnoreEmpty: true})
	if input.Name != nil {
		est.Slug = slug.Make(*input.Name)
	}

	if err := database.DB.Save(&est).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, est)
}

package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jinzhu/copier"

	"reservaya/constants"
	"reservaya/database"
	"reservaya/model"
	"reservaya/utils"
)

func GetTablesByEstablishment(c *fiber.Ctx) error {
	estId := c.Locals("inputId").(int)

	var tables []model.Table
	if err := database.DB.
		Where("establishment_id = ?", estId).
		Order("capacity asc, label asc").
		Find(&tables).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, tables)
}

func CreateTable(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateTableInput)

	var est model.Establishment
	if err := database.DB.First(&est, input.EstablishmentId).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Establishment not found", err)
	}

	var table model.Table
	copier.Copy(&table, &input)
	table.IsActive = true

	if err := database.DB.Create(&table).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, table)
}

// UpdateTable edits a table; setting isActive false retires it from the
// booking pool without touching existing reservations.
func UpdateTable(c *fiber.Ctx) error {
	id := c.Locals("inputId").(int)
	input := c.Locals("input").(model.UpdateTableInput)

	var table model.Table
	if err := database.DB.First(&table, id).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Table not found", err)
	}

	copier.CopyWithOption(&table, &input, copier.Option{IgnoreEmpty: true})
	if input.IsActive != nil {
		table.IsActive = *input.IsActive
	}

	if err := database.DB.Save(&table).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	return utils.SuccessResponse(c, fiber.StatusOK, table)
}

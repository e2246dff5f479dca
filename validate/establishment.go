package validate

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"reservaya/constants"
	"reservaya/model"
	"reservaya/utils"
)

func CreateEstablishment() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input model.CreateEstablishmentInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), err)
		}
		for _, h := range input.Hours {
			if !h.Closed && (h.Opens == "" || h.Closes == "") {
				return utils.ErrorResponse(c, fiber.StatusBadRequest, "Open weekdays need opens and closes times", errors.New("incomplete hours"))
			}
		}
		c.Locals("input", input)
		return c.Next()
	}
}

func UpdateEstablishment(key string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id, err := strconv.Atoi(c.Params(key))
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.DATA_INPUT_IS_NOT_NUMBER, errors.New("params invalid"))
		}

		var input model.UpdateEstablishmentInput
		if err := c.BodyParser(&input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid input", err)
		}
		if err := validate.Struct(input); err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, err.Error(), err)
		}

		c.Locals("inputId", id)
		c.Locals("input", input)
		return c.Next()
	}
}

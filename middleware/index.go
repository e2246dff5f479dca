package middleware

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"reservaya/constants"
	"reservaya/helper"
	"reservaya/model"
	"reservaya/utils"
)

// Protected requires a staff account JWT.
func Protected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := helper.TokenFromCtx(c)
		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", errors.New("no token"))
		}

		claim, err := helper.ParseTokenClaims(token)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", err)
		}
		if claim.AccountId == 0 {
			return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_STAFF, errors.New("staff account required"))
		}

		c.Locals("claim", claim)
		return c.Next()
	}
}

// CustomerProtected requires a customer JWT.
func CustomerProtected() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := helper.TokenFromCtx(c)
		if token == "" {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing token", errors.New("no token"))
		}

		claim, err := helper.ParseTokenClaims(token)
		if err != nil || claim.CustomerId == 0 {
			return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid token", err)
		}

		c.Locals("claim", claim)
		return c.Next()
	}
}

// OptionalAuth parses the JWT when present; guests pass through with a
// zero claim. Bookings work for both.
func OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Locals("claim", helper.ClaimFromCtx(c))
		return c.Next()
	}
}

// AdminOnly must run after Protected.
func AdminOnly() fiber.Handler {
	return func(c *fiber.Ctx) error {
		claim, _ := c.Locals("claim").(model.TokenClaim)
		if claim.Role != constants.ROLE_ADMIN {
			return utils.ErrorResponse(c, fiber.StatusForbidden, constants.NOT_ADMIN, errors.New("admin role required"))
		}
		return c.Next()
	}
}

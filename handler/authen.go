package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"reservaya/constants"
	"reservaya/database"
	"reservaya/helper"
	"reservaya/model"
	"reservaya/utils"
)

func setAuthCookies(c *fiber.Ctx, access, refresh string) {
	c.Cookie(&fiber.Cookie{
		Name:     "access_token",
		Value:    access,
		HTTPOnly: true,
		SameSite: "None",
		Secure:   false,
		Path:     "/",
	})
	c.Cookie(&fiber.Cookie{
		Name:     "refresh_token",
		Value:    refresh,
		HTTPOnly: true,
		SameSite: "None",
		Secure:   false,
		Path:     "/",
	})
}

// Login authenticates a staff account.
func Login(c *fiber.Ctx) error {
	type LoginInput struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	loginInput := new(LoginInput)
	if err := c.BodyParser(loginInput); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_LOGIN_INPUT, err)
	}
	if loginInput.Username == "" || loginInput.Password == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_LOGIN_INPUT, errors.New("username and password are required"))
	}

	var account model.Account
	if err := database.DB.Where("username = ?", loginInput.Username).First(&account).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.INVALID_USERNAME, errors.New("username not exists"))
	}
	if !helper.CheckPasswordHash(loginInput.Password, account.Password) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.INVALID_PASSWORD, errors.New("password does not match username"))
	}
	if !account.Active {
		return utils.ErrorResponse(c, fiber.StatusForbidden, constants.ACCOUNT_NOT_ACTIVE, errors.New("account disabled"))
	}

	claim := model.TokenClaim{
		AccountId: account.ID,
		Username:  account.Username,
		Role:      account.Role,
	}
	token, err := helper.GenerateAccessToken(claim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	refreshToken, err := helper.GenerateRefreshToken(claim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	setAuthCookies(c, token, refreshToken)
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"account": account,
		"tokens":  model.TokenData{AccessToken: token, RefreshToken: refreshToken},
	})
}

// RegisterCustomer creates a customer login.
func RegisterCustomer(c *fiber.Ctx) error {
	input := c.Locals("input").(model.RegisterCustomerInput)

	var existing model.Customer
	if err := database.DB.Where("email = ?", input.Email).First(&existing).Error; err == nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Email already registered", nil)
	}

	hash, err := helper.HashPassword(input.Password)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	customer := model.Customer{
		Name:     input.Name,
		Email:    input.Email,
		Phone:    input.Phone,
		Password: hash,
		IsActive: true,
	}
	if err := database.DB.Create(&customer).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	return utils.SuccessResponse(c, fiber.StatusCreated, customer)
}

// LoginCustomer authenticates a customer by email.
func LoginCustomer(c *fiber.Ctx) error {
	type LoginInput struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}

	loginInput := new(LoginInput)
	if err := c.BodyParser(loginInput); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, constants.MISSING_LOGIN_INPUT, err)
	}

	var customer model.Customer
	if err := database.DB.Where("email = ? AND is_active = true", loginInput.Email).First(&customer).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusNotFound, constants.INVALID_USERNAME, errors.New("email not registered"))
	}
	if !helper.CheckPasswordHash(loginInput.Password, customer.Password) {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, constants.INVALID_PASSWORD, errors.New("wrong password"))
	}

	claim := model.TokenClaim{
		CustomerId: customer.ID,
		Username:   customer.Email,
	}
	token, err := helper.GenerateAccessToken(claim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	refreshToken, err := helper.GenerateRefreshToken(claim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	setAuthCookies(c, token, refreshToken)
	return utils.SuccessResponse(c, fiber.StatusOK, fiber.Map{
		"customer": customer,
		"tokens":   model.TokenData{AccessToken: token, RefreshToken: refreshToken},
	})
}

// RefreshToken reissues the token pair from a valid refresh token.
func RefreshToken(c *fiber.Ctx) error {
	refresh := c.Cookies("refresh_token")
	if refresh == "" {
		type refreshInput struct {
			RefreshToken string `json:"refreshToken"`
		}
		input := new(refreshInput)
		if err := c.BodyParser(input); err == nil {
			refresh = input.RefreshToken
		}
	}
	if refresh == "" {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Missing refresh token", errors.New("no token"))
	}

	claim, err := helper.ParseTokenClaims(refresh)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Invalid refresh token", err)
	}

	token, err := helper.GenerateAccessToken(claim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}
	newRefresh, err := helper.GenerateRefreshToken(claim)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	setAuthCookies(c, token, newRefresh)
	return utils.SuccessResponse(c, fiber.StatusOK, model.TokenData{AccessToken: token, RefreshToken: newRefresh})
}

// Me returns the authenticated identity behind the JWT.
func Me(c *fiber.Ctx) error {
	claim := helper.ClaimFromCtx(c)
	if claim.AccountId > 0 {
		var account model.Account
		if err := database.DB.First(&account, claim.AccountId).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Account not found", err)
		}
		return utils.SuccessResponse(c, fiber.StatusOK, account)
	}
	if claim.CustomerId > 0 {
		var customer model.Customer
		if err := database.DB.First(&customer, claim.CustomerId).Error; err != nil {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Customer not found", err)
		}
		return utils.SuccessResponse(c, fiber.StatusOK, customer)
	}
	return utils.ErrorResponse(c, fiber.StatusUnauthorized, "Not authenticated", errors.New("no identity"))
}

// CreateAccount provisions a staff login. Admin only.
func CreateAccount(c *fiber.Ctx) error {
	input := c.Locals("input").(model.CreateAccountInput)

	hash, err := helper.HashPassword(input.Password)
	if err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, constants.ERROR_INTERNAL_ERROR, err)
	}

	account := model.Account{
		Username:        input.Username,
		Password:        hash,
		Role:            input.Role,
		EstablishmentId: input.EstablishmentId,
		Active:          true,
	}
	if err := database.DB.Create(&account).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusConflict, "Username already exists", err)
	}
	return utils.SuccessResponse(c, fiber.StatusCreated, account)
}

package helper

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"reservaya/config"
	"reservaya/model"
)

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), 10)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

func jwtSecret() []byte {
	return []byte(config.Config("JWT_SECRET"))
}

func generateToken(claim model.TokenClaim, ttl time.Duration) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"customerId": claim.CustomerId,
		"accountId":  claim.AccountId,
		"username":   claim.Username,
		"role":       claim.Role,
		"exp":        time.Now().Add(ttl).Unix(),
	})
	return token.SignedString(jwtSecret())
}

func GenerateAccessToken(claim model.TokenClaim) (string, error) {
	return generateToken(claim, 24*time.Hour)
}

func GenerateRefreshToken(claim model.TokenClaim) (string, error) {
	return generateToken(claim, 7*24*time.Hour)
}

// ParseTokenClaims validates the JWT and extracts the claim fields.
func ParseTokenClaims(tokenString string) (model.TokenClaim, error) {
	var claim model.TokenClaim

	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return jwtSecret(), nil
	})
	if err != nil || !token.Valid {
		return claim, errors.New("invalid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return claim, errors.New("invalid token claims")
	}
	if v, ok := claims["customerId"].(float64); ok {
		claim.CustomerId = uint(v)
	}
	if v, ok := claims["accountId"].(float64); ok {
		claim.AccountId = uint(v)
	}
	if v, ok := claims["username"].(string); ok {
		claim.Username = v
	}
	if v, ok := claims["role"].(string); ok {
		claim.Role = v
	}
	return claim, nil
}

// TokenFromCtx pulls the raw JWT from the access_token cookie or the
// Authorization header.
func TokenFromCtx(c *fiber.Ctx) string {
	if token := c.Cookies("access_token"); token != "" {
		return token
	}
	auth := c.Get("Authorization")
	if strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// ClaimFromCtx parses the request's JWT; zero claim when absent/invalid.
func ClaimFromCtx(c *fiber.Ctx) model.TokenClaim {
	token := TokenFromCtx(c)
	if token == "" {
		return model.TokenClaim{}
	}
	claim, err := ParseTokenClaims(token)
	if err != nil {
		return model.TokenClaim{}
	}
	return claim
}

// ActorFromCtx builds the lifecycle actor for the request: staff when the
// JWT carries an account id, otherwise the customer id (possibly zero).
func ActorFromCtx(c *fiber.Ctx) Actor {
	claim := ClaimFromCtx(c)
	return Actor{
		CustomerId: claim.CustomerId,
		Staff:      claim.AccountId > 0,
	}
}

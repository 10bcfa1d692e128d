package server

import (
	"fmt"
	"time"

	"pinkbook/internal/middleware"
	"pinkbook/internal/models"
	"pinkbook/internal/repository"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Register handles POST /api/auth/register
func (s *Server) Register(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Phone    string `json:"phone"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result := s.userDir.Register(c.UserContext(), models.User{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
	})
	if !result.Accepted {
		status := fiber.StatusConflict
		if result.Reason == repository.ReasonMissingFields {
			status = fiber.StatusBadRequest
		} else if result.Reason == repository.ReasonStorageUnavailable {
			status = fiber.StatusServiceUnavailable
		}
		return models.RespondWithError(c, status, models.NewValidationError(result.Reason))
	}

	token, err := s.generateToken(req.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"message": result.Reason,
		"token":   token,
	})
}

// Login handles POST /api/auth/login. The account field accepts either the
// registered email or phone number.
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Account  string `json:"account"`
		Password string `json:"password"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	result := s.userDir.Authenticate(c.UserContext(), req.Account, req.Password)
	if !result.Accepted {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError(result.Reason))
	}

	token, err := s.generateToken(result.User.Email)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	return c.JSON(fiber.Map{
		"message": result.Reason,
		"token":   token,
		"user": fiber.Map{
			"email": result.User.Email,
			"phone": result.User.Phone,
		},
	})
}

// generateToken creates a JWT token with the account identifier as subject.
func (s *Server) generateToken(account string) (string, error) {
	if s.config.JWTSecret == "" {
		return "", fmt.Errorf("JWT secret not configured")
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"sub": account,
		"iss": middleware.TokenIssuer,
		"aud": middleware.TokenAudience,
		"exp": now.Add(time.Hour * 24 * 7).Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": s.generateJTI(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.config.JWTSecret))
}

// generateJTI creates a unique JWT ID to prevent replay attacks.
func (s *Server) generateJTI() string {
	return fmt.Sprintf("%d-%s", time.Now().Unix(), uuid.New().String()[:8])
}

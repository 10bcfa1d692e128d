package server

import (
	"pinkbook/internal/models"
	"pinkbook/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetProfile handles GET /api/profile
func (s *Server) GetProfile(c *fiber.Ctx) error {
	return c.JSON(s.profileSvc.Get(c.UserContext()))
}

// UpdateProfile handles PUT /api/profile. Blank fields keep their stored
// value.
func (s *Server) UpdateProfile(c *fiber.Ctx) error {
	var req struct {
		Avatar   string `json:"avatar"`
		Nickname string `json:"nickname"`
		Bio      string `json:"bio"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	profile, err := s.profileSvc.Update(c.UserContext(), service.UpdateProfileInput{
		Avatar:   req.Avatar,
		Nickname: req.Nickname,
		Bio:      req.Bio,
	})
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}
	return c.JSON(profile)
}

// GetProfilePosts handles GET /api/profile/posts
func (s *Server) GetProfilePosts(c *fiber.Ctx) error {
	posts := s.profileSvc.OwnedPosts(c.UserContext())
	return c.JSON(fiber.Map{
		"posts": posts,
		"count": len(posts),
	})
}

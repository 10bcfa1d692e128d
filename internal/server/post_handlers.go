package server

import (
	"errors"
	"strconv"

	"pinkbook/internal/models"
	"pinkbook/internal/service"

	"github.com/gofiber/fiber/v2"
)

// GetPosts handles GET /api/posts. An optional q parameter filters posts by
// title or summary, case-insensitively.
func (s *Server) GetPosts(c *fiber.Ctx) error {
	posts := s.feedSvc.List(c.UserContext(), c.Query("q"))
	return c.JSON(fiber.Map{
		"posts": posts,
		"count": len(posts),
	})
}

// GetPost handles GET /api/posts/:id
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
	}

	post, err := s.feedSvc.GetByID(c.UserContext(), id)
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}
	return c.JSON(post)
}

// CreatePost handles POST /api/posts
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req struct {
		Title   string   `json:"title"`
		Summary string   `json:"summary"`
		Images  []string `json:"images"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	post, err := s.feedSvc.Publish(c.UserContext(), service.PublishInput{
		Title:   req.Title,
		Summary: req.Summary,
		Images:  req.Images,
	})
	if err != nil {
		return models.RespondWithError(c, statusForError(err), err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// statusForError maps application error codes onto HTTP status codes.
func statusForError(err error) int {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		switch appErr.Code {
		case "NOT_FOUND":
			return fiber.StatusNotFound
		case "VALIDATION_ERROR":
			return fiber.StatusBadRequest
		case "UNAUTHORIZED":
			return fiber.StatusUnauthorized
		}
	}
	return fiber.StatusInternalServerError
}

package server

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"

	"pinkbook/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// UploadImage handles POST /api/images. The uploaded file is spooled to a
// temporary location and then persisted, so the returned reference is durable.
func (s *Server) UploadImage(c *fiber.Ctx) error {
	file, err := c.FormFile("image")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	spoolDir := s.config.ImageSpoolDir
	if spoolDir == "" {
		spoolDir = os.TempDir()
	}
	if err := os.MkdirAll(spoolDir, 0o750); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	spoolPath := filepath.Join(spoolDir, "upload_"+uuid.NewString()+filepath.Ext(file.Filename))
	if err := c.SaveFile(file, spoolPath); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}
	defer func() { _ = os.Remove(spoolPath) }()

	ref := s.imageRepo.Persist(c.UserContext(), spoolPath)
	if ref == spoolPath {
		// Persist degraded to the spool path, which is about to be deleted.
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(os.ErrInvalid))
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"ref": ref})
}

// ViewImage handles GET /api/images/view?ref=...
// It serves whatever the reference resolves to: inline bytes for stored
// data-URI blobs, or the durable file on filesystem hosts.
func (s *Server) ViewImage(c *fiber.Ctx) error {
	ref := strings.TrimSpace(c.Query("ref"))
	if ref == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("ref query parameter required"))
	}

	resolved := s.imageRepo.Resolve(c.UserContext(), ref)
	if resolved == "" {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Image", ref))
	}

	if strings.HasPrefix(resolved, "data:") {
		return serveDataURI(c, resolved)
	}

	// Serve only files inside the configured image directory; the base-name
	// join blocks path traversal through crafted references.
	path := filepath.Join(s.config.ImageDir, filepath.Base(resolved))
	if _, err := os.Stat(path); err != nil {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Image", ref))
	}
	return c.SendFile(path)
}

func serveDataURI(c *fiber.Ctx, uri string) error {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(os.ErrInvalid))
	}
	meta, payload, ok := strings.Cut(rest, ",")
	if !ok {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(os.ErrInvalid))
	}
	mime := strings.TrimSuffix(meta, ";base64")

	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	c.Set(fiber.HeaderContentType, mime)
	return c.Send(raw)
}

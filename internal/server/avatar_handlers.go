package server

import (
	"io"

	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

// UploadAvatar handles POST /api/auth/upload_avatar
// @Summary Upload avatar
// @Description Store a new avatar image for the current user
// @Tags auth
// @Accept mpfd
// @Produce json
// @Param avatar formData file true "Avatar image (.jpg, .jpeg or .png)"
// @Success 200 {object} object{avatar_url=string,thumbnail_url=string}
// @Failure 400 {object} object{error=string}
// @Failure 422 {object} object{error=string}
// @Router /auth/upload_avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	userID := currentUserID(c)

	fileHeader, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("No file uploaded"))
	}

	file, err := fileHeader.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Could not read uploaded file"))
	}
	defer func() { _ = file.Close() }()

	content, err := io.ReadAll(file)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError,
			models.NewInternalError(err))
	}

	if err := s.avatarService.Upload(c.Context(), userID, fileHeader.Filename, content); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"avatar_url":    s.avatarService.URL(userID),
		"thumbnail_url": s.avatarService.ThumbnailURL(userID),
	})
}

// CropAvatar handles POST /api/auth/crop_avatar
// @Summary Crop avatar
// @Description Crop the stored avatar to the given rectangle
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{x=int,y=int,w=int,h=int} true "Crop rectangle; w and h default to 200"
// @Success 200 {object} object{avatar_url=string,thumbnail_url=string}
// @Failure 400 {object} object{error=string}
// @Failure 404 {object} object{error=string}
// @Failure 422 {object} object{error=string}
// @Router /auth/crop_avatar [post]
func (s *Server) CropAvatar(c *fiber.Ctx) error {
	userID := currentUserID(c)

	var req struct {
		X int `json:"x"`
		Y int `json:"y"`
		W int `json:"w"`
		H int `json:"h"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	params := service.CropParams{X: req.X, Y: req.Y, Width: req.W, Height: req.H}
	if err := s.avatarService.Crop(c.Context(), userID, params); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"avatar_url":    s.avatarService.URL(userID),
		"thumbnail_url": s.avatarService.ThumbnailURL(userID),
	})
}

// ResetAvatar handles GET /api/auth/reset_avatar
// @Summary Reset avatar
// @Description Remove the current user's avatar
// @Tags auth
// @Produce json
// @Success 200 {object} object{message=string}
// @Router /auth/reset_avatar [get]
func (s *Server) ResetAvatar(c *fiber.Ctx) error {
	userID := currentUserID(c)

	if err := s.avatarService.Reset(c.Context(), userID); err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"message": "Avatar reset",
	})
}

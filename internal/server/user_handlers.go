package server

import (
	"quill/internal/models"
	"quill/internal/service"

	"github.com/gofiber/fiber/v2"
)

const recentPostsLimit = 5

// profileResponse builds the public profile payload for a user.
func (s *Server) profileResponse(c *fiber.Ctx, user *models.User) (fiber.Map, error) {
	posts, err := s.postRepo.ListByAuthor(c.Context(), user.ID, recentPostsLimit)
	if err != nil {
		return nil, err
	}
	count, err := s.postRepo.CountByAuthor(c.Context(), user.ID)
	if err != nil {
		return nil, err
	}

	return fiber.Map{
		"user":          user,
		"avatar_url":    s.avatarService.URL(user.ID),
		"thumbnail_url": s.avatarService.ThumbnailURL(user.ID),
		"post_count":    count,
		"recent_posts":  posts,
	}, nil
}

// GetUserProfile handles GET /api/users/:username
// @Summary Get a user's public profile
// @Tags users
// @Produce json
// @Param username path string true "Username"
// @Success 200 {object} object{user=models.User,avatar_url=string,post_count=int,recent_posts=[]models.Post}
// @Failure 404 {object} object{error=string}
// @Router /users/{username} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	username := c.Params("username")

	user, err := s.userService.GetUserByUsername(c.Context(), username)
	if err != nil {
		return mapServiceError(c, err)
	}

	resp, err := s.profileResponse(c, user)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(resp)
}

// GetMyProfile handles GET /api/users/me
// @Summary Get the current user's profile
// @Tags users
// @Produce json
// @Success 200 {object} object{user=models.User,avatar_url=string,post_count=int,recent_posts=[]models.Post}
// @Failure 401 {object} object{error=string}
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.Context(), currentUserID(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	resp, err := s.profileResponse(c, user)
	if err != nil {
		return mapServiceError(c, err)
	}
	return c.JSON(resp)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update the current user's profile
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{username=string,bio=string,contact_info=string} true "Profile changes"
// @Success 200 {object} models.User
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Failure 409 {object} object{error=string}
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Username    string  `json:"username"`
		Bio         *string `json:"bio"`
		ContactInfo *string `json:"contact_info"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	user, err := s.userService.UpdateProfile(c.Context(), service.UpdateProfileInput{
		UserID:      currentUserID(c),
		Username:    req.Username,
		Bio:         req.Bio,
		ContactInfo: req.ContactInfo,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(user)
}

// CheckNickname handles POST /api/users/check_nickname
// @Summary Check nickname availability
// @Description Report whether a nickname is free; the caller's own name counts as available
// @Tags users
// @Accept json
// @Produce json
// @Param request body object{nickname=string} true "Nickname to check"
// @Success 200 {object} object{available=bool}
// @Failure 400 {object} object{error=string}
// @Failure 401 {object} object{error=string}
// @Router /users/check_nickname [post]
func (s *Server) CheckNickname(c *fiber.Ctx) error {
	var req struct {
		Nickname string `json:"nickname"`
	}
	if err := c.BodyParser(&req); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid request body"))
	}

	available, err := s.userService.CheckNickname(c.Context(), currentUserID(c), req.Nickname)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"available": available,
	})
}

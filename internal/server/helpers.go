// Package server contains the HTTP handlers for the application's API endpoints.
package server

import (
	"errors"

	"quill/internal/models"

	"github.com/gofiber/fiber/v2"
)

// errResponseWritten is a sentinel indicating the HTTP response was already
// committed by a helper.  Handlers must return nil (not this error) to avoid
// Fiber's ErrorHandler overwriting the response.
var errResponseWritten = errors.New("response already written")

// Pagination holds parsed limit/offset query parameters.
type Pagination struct {
	Limit  int
	Offset int
}

const (
	maxPaginationLimit = 100
)

// parsePagination extracts limit and offset query parameters with the given default limit.
func parsePagination(c *fiber.Ctx, defaultLimit int) Pagination {
	limit := c.QueryInt("limit", defaultLimit)
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxPaginationLimit {
		limit = maxPaginationLimit
	}

	offset := c.QueryInt("offset", 0)
	if offset < 0 {
		offset = 0
	}

	return Pagination{
		Limit:  limit,
		Offset: offset,
	}
}

// parseID extracts a route parameter by name as a positive uint.
// On failure it writes a 400 JSON response and returns errResponseWritten.
// Callers should check: if err != nil { return nil }
func (s *Server) parseID(c *fiber.Ctx, param string) (uint, error) {
	id, err := c.ParamsInt(param)
	if err != nil || id <= 0 {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid ID"))
		return 0, errResponseWritten
	}
	return uint(id), nil
}

// mapServiceError writes the JSON error response with the HTTP status
// matching the service error code.
func mapServiceError(c *fiber.Ctx, err error) error {
	switch models.ErrorCode(err) {
	case models.CodeValidation:
		return models.RespondWithError(c, fiber.StatusBadRequest, err)
	case models.CodeUnauthorized:
		return models.RespondWithError(c, fiber.StatusUnauthorized, err)
	case models.CodeForbidden:
		return models.RespondWithError(c, fiber.StatusForbidden, err)
	case models.CodeNotFound:
		return models.RespondWithError(c, fiber.StatusNotFound, err)
	case models.CodeDuplicate:
		return models.RespondWithError(c, fiber.StatusConflict, err)
	case models.CodeImageProcessing:
		return models.RespondWithError(c, fiber.StatusUnprocessableEntity, err)
	default:
		return models.RespondWithError(c, fiber.StatusInternalServerError, err)
	}
}

// currentUserID returns the authenticated user ID, or 0 for anonymous requests.
func currentUserID(c *fiber.Ctx) uint {
	if id, ok := c.Locals("userID").(uint); ok {
		return id
	}
	return 0
}

// getPostChecked loads the post from the :id route parameter. Missing posts
// get a 404; when requireOwner is set, posts held by another user get a 403.
// On failure the response is already written and errResponseWritten is returned.
func (s *Server) getPostChecked(c *fiber.Ctx, requireOwner bool) (*models.Post, error) {
	postID, err := s.parseID(c, "id")
	if err != nil {
		return nil, errResponseWritten
	}

	post, err := s.postRepo.GetByID(c.Context(), postID)
	if err != nil {
		_ = mapServiceError(c, err)
		return nil, errResponseWritten
	}

	if requireOwner && post.AuthorID != currentUserID(c) {
		_ = models.RespondWithError(c, fiber.StatusForbidden,
			models.NewForbiddenError("You can only modify your own posts"))
		return nil, errResponseWritten
	}

	return post, nil
}

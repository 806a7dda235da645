package service

import (
	"context"
	"strings"

	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/validation"
)

const (
	maxBioLen         = 500
	maxContactInfoLen = 255
)

// UserService implements profile reads and updates.
type UserService struct {
	userRepo repository.UserRepository
}

// UpdateProfileInput carries a profile update. Username is ignored when
// empty; Bio and ContactInfo are ignored when nil, so an explicit empty
// string clears the field.
type UpdateProfileInput struct {
	UserID      uint
	Username    string
	Bio         *string
	ContactInfo *string
}

func NewUserService(userRepo repository.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) GetUserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

// GetUserByUsername returns the user holding the name or a not-found error.
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, models.NewNotFoundError("User", username)
	}
	return user, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	if in.Username != "" {
		username := strings.TrimSpace(in.Username)
		if err := validation.ValidateUsername(username); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		if username != user.Username {
			taken, err := s.userRepo.UsernameTaken(ctx, username, user.ID)
			if err != nil {
				return nil, err
			}
			if taken {
				return nil, models.NewDuplicateError("Username " + username + " is already taken")
			}
			user.Username = username
		}
	}
	if in.Bio != nil {
		bio := strings.TrimSpace(*in.Bio)
		if len(bio) > maxBioLen {
			return nil, models.NewValidationError("Bio too long (max 500 characters)")
		}
		user.Bio = bio
	}
	if in.ContactInfo != nil {
		contactInfo := strings.TrimSpace(*in.ContactInfo)
		if len(contactInfo) > maxContactInfoLen {
			return nil, models.NewValidationError("Contact info too long (max 255 characters)")
		}
		user.ContactInfo = contactInfo
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

// CheckNickname reports whether the trimmed nickname is free. The
// calling user's own name counts as available.
func (s *UserService) CheckNickname(ctx context.Context, currentUserID uint, nickname string) (bool, error) {
	nickname = strings.TrimSpace(nickname)
	if err := validation.ValidateUsername(nickname); err != nil {
		return false, models.NewValidationError(err.Error())
	}
	taken, err := s.userRepo.UsernameTaken(ctx, nickname, currentUserID)
	if err != nil {
		return false, err
	}
	return !taken, nil
}

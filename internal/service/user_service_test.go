package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type userRepoStub struct {
	getByIDFn       func(ctx context.Context, id uint) (*models.User, error)
	getByUsernameFn func(ctx context.Context, username string) (*models.User, error)
	createFn        func(ctx context.Context, user *models.User) error
	updateFn        func(ctx context.Context, user *models.User) error
	usernameTakenFn func(ctx context.Context, username string, excludeID uint) (bool, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id uint) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}

func (s *userRepoStub) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.getByUsernameFn(ctx, username)
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	return s.createFn(ctx, user)
}

func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	return s.updateFn(ctx, user)
}

func (s *userRepoStub) UsernameTaken(ctx context.Context, username string, excludeID uint) (bool, error) {
	return s.usernameTakenFn(ctx, username, excludeID)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn: func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id}, nil
		},
		getByUsernameFn: func(_ context.Context, _ string) (*models.User, error) {
			return nil, nil
		},
		createFn: func(_ context.Context, _ *models.User) error { return nil },
		updateFn: func(_ context.Context, _ *models.User) error { return nil },
		usernameTakenFn: func(_ context.Context, _ string, _ uint) (bool, error) {
			return false, nil
		},
	}
}

func assertValidationError(t *testing.T, err error) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, models.CodeValidation, models.ErrorCode(err))
}

func strPtr(s string) *string { return &s }

func TestUserService_UpdateProfile_Validation(t *testing.T) {
	t.Parallel()

	t.Run("username too long", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "original"}, nil
		}
		svc := NewUserService(repo)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:   1,
			Username: strings.Repeat("x", 21),
		})
		assertValidationError(t, err)
	})

	t.Run("username is whitespace only", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo())
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:   1,
			Username: "   ",
		})
		assertValidationError(t, err)
	})

	t.Run("bio too long", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo())
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID: 1,
			Bio:    strPtr(strings.Repeat("x", 501)),
		})
		assertValidationError(t, err)
	})

	t.Run("contact info too long", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo())
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:      1,
			ContactInfo: strPtr(strings.Repeat("x", 256)),
		})
		assertValidationError(t, err)
	})
}

func TestUserService_UpdateProfile_UsernameTrimmedAndChecked(t *testing.T) {
	t.Parallel()

	t.Run("name is trimmed before the duplicate check", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "old"}, nil
		}
		var checkedName string
		var checkedExclude uint
		repo.usernameTakenFn = func(_ context.Context, name string, excludeID uint) (bool, error) {
			checkedName = name
			checkedExclude = excludeID
			return false, nil
		}
		svc := NewUserService(repo)
		user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:   1,
			Username: "  newname  ",
		})
		require.NoError(t, err)
		assert.Equal(t, "newname", user.Username)
		assert.Equal(t, "newname", checkedName)
		assert.Equal(t, uint(1), checkedExclude)
	})

	t.Run("taken name is rejected", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "old"}, nil
		}
		repo.usernameTakenFn = func(_ context.Context, _ string, _ uint) (bool, error) {
			return true, nil
		}
		svc := NewUserService(repo)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:   1,
			Username: "somebody",
		})
		require.Error(t, err)
		assert.Equal(t, models.CodeDuplicate, models.ErrorCode(err))
	})

	t.Run("keeping the current name skips the duplicate check", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "same"}, nil
		}
		repo.usernameTakenFn = func(_ context.Context, _ string, _ uint) (bool, error) {
			t.Fatal("duplicate check should not run")
			return false, nil
		}
		svc := NewUserService(repo)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:   1,
			Username: "same",
		})
		require.NoError(t, err)
	})
}

func TestUserService_UpdateProfile_PartialUpdate(t *testing.T) {
	t.Parallel()

	t.Run("only username changes when bio is absent", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "old", Bio: "my bio"}, nil
		}
		var saved *models.User
		repo.updateFn = func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		}
		svc := NewUserService(repo)
		user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:   1,
			Username: "newname",
		})
		require.NoError(t, err)
		assert.Equal(t, "newname", user.Username)
		assert.Equal(t, "my bio", user.Bio, "bio should be unchanged when not provided")
		require.NotNil(t, saved)
		assert.Equal(t, "newname", saved.Username)
	})

	t.Run("bio and contact info are trimmed before storage", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "myuser"}, nil
		}
		var saved *models.User
		repo.updateFn = func(_ context.Context, u *models.User) error {
			saved = u
			return nil
		}
		svc := NewUserService(repo)
		user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID:      1,
			Bio:         strPtr("  spaced bio  "),
			ContactInfo: strPtr("\tme@example.com \n"),
		})
		require.NoError(t, err)
		assert.Equal(t, "spaced bio", user.Bio)
		assert.Equal(t, "me@example.com", user.ContactInfo)
		require.NotNil(t, saved)
		assert.Equal(t, "spaced bio", saved.Bio)
	})

	t.Run("padded bio is measured after trimming", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "myuser"}, nil
		}
		svc := NewUserService(repo)
		user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID: 1,
			Bio:    strPtr("  " + strings.Repeat("x", 500) + "  "),
		})
		require.NoError(t, err)
		assert.Len(t, user.Bio, 500)
	})

	t.Run("empty bio clears the field", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByIDFn = func(_ context.Context, id uint) (*models.User, error) {
			return &models.User{ID: id, Username: "myuser", Bio: "old bio"}, nil
		}
		svc := NewUserService(repo)
		user, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{
			UserID: 1,
			Bio:    strPtr(""),
		})
		require.NoError(t, err)
		assert.Equal(t, "myuser", user.Username, "username should be unchanged when not provided")
		assert.Empty(t, user.Bio)
	})
}

func TestUserService_UpdateProfile_RepoError(t *testing.T) {
	t.Parallel()

	t.Run("GetByID error propagates", func(t *testing.T) {
		t.Parallel()
		repoErr := errors.New("db connection error")
		repo := noopUserRepo()
		repo.getByIDFn = func(_ context.Context, _ uint) (*models.User, error) {
			return nil, repoErr
		}
		svc := NewUserService(repo)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 1, Username: "new"})
		assert.ErrorIs(t, err, repoErr)
	})

	t.Run("Update error propagates", func(t *testing.T) {
		t.Parallel()
		repoErr := errors.New("update failed")
		repo := noopUserRepo()
		repo.updateFn = func(_ context.Context, _ *models.User) error {
			return repoErr
		}
		svc := NewUserService(repo)
		_, err := svc.UpdateProfile(context.Background(), UpdateProfileInput{UserID: 1, Username: "new"})
		assert.ErrorIs(t, err, repoErr)
	})
}

func TestUserService_CheckNickname(t *testing.T) {
	t.Parallel()

	t.Run("free name is available", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo())
		available, err := svc.CheckNickname(context.Background(), 1, "free")
		require.NoError(t, err)
		assert.True(t, available)
	})

	t.Run("taken name is unavailable", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.usernameTakenFn = func(_ context.Context, _ string, _ uint) (bool, error) {
			return true, nil
		}
		svc := NewUserService(repo)
		available, err := svc.CheckNickname(context.Background(), 1, "taken")
		require.NoError(t, err)
		assert.False(t, available)
	})

	t.Run("current user is excluded from the check", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		var gotExclude uint
		repo.usernameTakenFn = func(_ context.Context, _ string, excludeID uint) (bool, error) {
			gotExclude = excludeID
			return false, nil
		}
		svc := NewUserService(repo)
		_, err := svc.CheckNickname(context.Background(), 42, "name")
		require.NoError(t, err)
		assert.Equal(t, uint(42), gotExclude)
	})

	t.Run("empty nickname is invalid", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo())
		_, err := svc.CheckNickname(context.Background(), 1, "   ")
		assertValidationError(t, err)
	})
}

func TestUserService_GetUserByUsername(t *testing.T) {
	t.Parallel()

	t.Run("returns user from repo", func(t *testing.T) {
		t.Parallel()
		repo := noopUserRepo()
		repo.getByUsernameFn = func(_ context.Context, username string) (*models.User, error) {
			return &models.User{ID: 7, Username: username}, nil
		}
		svc := NewUserService(repo)
		user, err := svc.GetUserByUsername(context.Background(), "alice")
		require.NoError(t, err)
		assert.Equal(t, uint(7), user.ID)
	})

	t.Run("missing user maps to not found", func(t *testing.T) {
		t.Parallel()
		svc := NewUserService(noopUserRepo())
		_, err := svc.GetUserByUsername(context.Background(), "nobody")
		require.Error(t, err)
		assert.Equal(t, models.CodeNotFound, models.ErrorCode(err))
	})
}

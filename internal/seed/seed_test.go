package seed

import (
	"testing"
	"unicode/utf8"

	"quill/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Post{}))
	return db
}

func TestSeederRun(t *testing.T) {
	db := setupSeedTestDB(t)
	opts := Options{NumUsers: 5, NumPosts: 12, SkipBcrypt: true}
	s := NewSeeder(db, opts)

	require.NoError(t, s.Run(opts))

	var userCount, postCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	assert.EqualValues(t, 5, userCount)
	assert.EqualValues(t, 12, postCount)

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	for _, u := range users {
		assert.LessOrEqual(t, utf8.RuneCountInString(u.Username), 20,
			"generated usernames must satisfy the profile limit")
		assert.NotEmpty(t, u.Password)
	}

	var posts []models.Post
	require.NoError(t, db.Find(&posts).Error)
	for _, p := range posts {
		assert.NotEmpty(t, p.Title)
		assert.NotZero(t, p.AuthorID)
	}
}

func TestSeederClearAll(t *testing.T) {
	db := setupSeedTestDB(t)
	opts := Options{NumUsers: 2, NumPosts: 4, SkipBcrypt: true}
	s := NewSeeder(db, opts)
	require.NoError(t, s.Run(opts))

	require.NoError(t, s.ClearAll())

	var userCount, postCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	assert.Zero(t, userCount)
	assert.Zero(t, postCount)
}

func TestFactoryCreateUserOverride(t *testing.T) {
	db := setupSeedTestDB(t)
	f := NewFactory(db, Options{SkipBcrypt: true})

	user, err := f.CreateUser(func(u *models.User) {
		u.Username = "fixedname"
	})
	require.NoError(t, err)
	assert.Equal(t, "fixedname", user.Username)
	assert.NotZero(t, user.ID)
}

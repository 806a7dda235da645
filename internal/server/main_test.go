package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"quill/internal/config"
	"quill/internal/models"
	"quill/internal/repository"
	"quill/internal/service"
	"quill/internal/session"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupHandlerTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}

	if err := db.AutoMigrate(&models.User{}, &models.Post{}); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}

	return db
}

// newTestServer wires a Server against in-memory SQLite and miniredis.
func newTestServer(t *testing.T) *Server {
	t.Helper()

	db := setupHandlerTestDB(t)

	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = redisClient.Close() })

	cfg := &config.Config{
		Env:                   "test",
		Port:                  "0",
		SessionTTLHours:       1,
		AvatarDir:             t.TempDir(),
		AvatarMaxUploadSizeMB: 2,
	}

	userRepo := repository.NewUserRepository(db)
	postRepo := repository.NewPostRepository(db)

	s := &Server{
		config:        cfg,
		db:            db,
		redis:         redisClient,
		sessions:      session.NewManager(redisClient, time.Hour),
		userRepo:      userRepo,
		postRepo:      postRepo,
		userService:   service.NewUserService(userRepo),
		avatarService: service.NewAvatarService(cfg),
	}
	return s
}

// newTestApp builds a Fiber app with identity resolution and the full route table.
func newTestApp(s *Server) *fiber.App {
	app := fiber.New()
	app.Use(s.ResolveIdentity())
	s.SetupRoutes(app)
	return app
}

func jsonRequest(t *testing.T, method, path string, payload any) *http.Request {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decodeBody(t *testing.T, resp *http.Response, out any) {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
}

// createUser inserts a user with a bcrypt-hashed password directly into the DB.
func createUser(t *testing.T, s *Server, username, password string) *models.User {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	user := &models.User{Username: username, Password: string(hashed)}
	require.NoError(t, s.db.Create(user).Error)
	return user
}

// loginAs creates a session for the user and returns the bearer token.
func loginAs(t *testing.T, s *Server, userID uint) string {
	t.Helper()
	token, err := s.sessions.Create(t.Context(), userID)
	require.NoError(t, err)
	return token
}

func withBearer(req *http.Request, token string) *http.Request {
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

// multipartUpload builds a multipart request with a single file field.
func multipartUpload(t *testing.T, path, field, filename string, content []byte) *http.Request {
	t.Helper()
	buf := bytes.NewBuffer(nil)
	w := multipart.NewWriter(buf)
	part, err := w.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, path, buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func seedPost(t *testing.T, s *Server, authorID uint, title string, createdAt time.Time) *models.Post {
	t.Helper()
	post := &models.Post{Title: title, Body: fmt.Sprintf("body of %s", title), AuthorID: authorID}
	post.CreatedAt = createdAt
	require.NoError(t, s.db.Create(post).Error)
	return post
}

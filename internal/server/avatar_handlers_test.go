package server

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"quill/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUploadAvatar(t *testing.T) {
	s := newTestServer(t)
	app := newTestApp(s)
	user := createUser(t, s, "alice", "pw")
	token := loginAs(t, s, user.ID)

	t.Run("stores the avatar and a thumbnail", func(t *testing.T) {
		req := withBearer(multipartUpload(t, "/api/auth/upload_avatar", "avatar", "me.png",
			testutil.TinyPNG(t, 300, 300)), token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, fmt.Sprintf("/media/avatars/%d.png", user.ID), body["avatar_url"])
		assert.Equal(t, fmt.Sprintf("/media/avatars/%d_thumb.png", user.ID), body["thumbnail_url"])

		_, err = os.Stat(filepath.Join(s.avatarService.Dir(), fmt.Sprintf("%d.png", user.ID)))
		assert.NoError(t, err)
		_, err = os.Stat(filepath.Join(s.avatarService.Dir(), fmt.Sprintf("%d_thumb.png", user.ID)))
		assert.NoError(t, err)
	})

	t.Run("rejects an unsupported extension", func(t *testing.T) {
		req := withBearer(multipartUpload(t, "/api/auth/upload_avatar", "avatar", "me.gif",
			testutil.TinyPNG(t, 10, 10)), token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("rejects a corrupt image", func(t *testing.T) {
		req := withBearer(multipartUpload(t, "/api/auth/upload_avatar", "avatar", "me.jpg",
			[]byte("not an image")), token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	})

	t.Run("rejects a request with no file", func(t *testing.T) {
		req := withBearer(jsonRequest(t, http.MethodPost, "/api/auth/upload_avatar", nil), token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, "No file uploaded", body["error"])
	})

	t.Run("requires authentication", func(t *testing.T) {
		req := multipartUpload(t, "/api/auth/upload_avatar", "avatar", "me.png",
			testutil.TinyPNG(t, 10, 10))
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestCropAvatar(t *testing.T) {
	s := newTestServer(t)
	app := newTestApp(s)
	user := createUser(t, s, "alice", "pw")
	token := loginAs(t, s, user.ID)

	upload := func(t *testing.T) {
		t.Helper()
		req := withBearer(multipartUpload(t, "/api/auth/upload_avatar", "avatar", "me.png",
			testutil.TinyPNG(t, 400, 400)), token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	t.Run("crops the stored avatar", func(t *testing.T) {
		upload(t)

		req := withBearer(jsonRequest(t, http.MethodPost, "/api/auth/crop_avatar",
			map[string]int{"x": 10, "y": 10, "w": 100, "h": 100}), token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		var body map[string]string
		decodeBody(t, resp, &body)
		assert.Equal(t, fmt.Sprintf("/media/avatars/%d.png", user.ID), body["avatar_url"])
	})

	t.Run("rejects negative offsets", func(t *testing.T) {
		upload(t)

		req := withBearer(jsonRequest(t, http.MethodPost, "/api/auth/crop_avatar",
			map[string]int{"x": -1, "y": 0, "w": 50, "h": 50}), token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("404 when no avatar is stored", func(t *testing.T) {
		resetReq := withBearer(jsonRequest(t, http.MethodGet, "/api/auth/reset_avatar", nil), token)
		resetResp, err := app.Test(resetReq)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resetResp.StatusCode)

		req := withBearer(jsonRequest(t, http.MethodPost, "/api/auth/crop_avatar",
			map[string]int{"x": 0, "y": 0, "w": 50, "h": 50}), token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func TestResetAvatar(t *testing.T) {
	s := newTestServer(t)
	app := newTestApp(s)
	user := createUser(t, s, "alice", "pw")
	token := loginAs(t, s, user.ID)

	uploadReq := withBearer(multipartUpload(t, "/api/auth/upload_avatar", "avatar", "me.jpg",
		testutil.TinyJPEG(t, 64, 64)), token)
	uploadResp, err := app.Test(uploadReq)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, uploadResp.StatusCode)

	t.Run("removes the stored files", func(t *testing.T) {
		req := withBearer(jsonRequest(t, http.MethodGet, "/api/auth/reset_avatar", nil), token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)

		entries, err := os.ReadDir(s.avatarService.Dir())
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("resetting again is a no-op", func(t *testing.T) {
		req := withBearer(jsonRequest(t, http.MethodGet, "/api/auth/reset_avatar", nil), token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

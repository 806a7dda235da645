// Package service implements the application's business logic.
package service

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/draw"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	"quill/internal/config"
	"quill/internal/models"
	"quill/internal/observability"

	xdraw "golang.org/x/image/draw"
)

const (
	DefaultAvatarDir             = "./data/avatars"
	DefaultAvatarMaxUploadSizeMB = 2

	// DefaultCropSize is the side length used when a crop request omits
	// width or height.
	DefaultCropSize = 200

	ThumbnailSize = 128
	JPEGQuality   = 85
)

// avatarExtensions is the lookup order for stored avatars. At most one
// variant exists per user; the order only matters after a partial cleanup.
var avatarExtensions = []string{"png", "jpg", "jpeg"}

// CropParams are the pixel coordinates for cropping a stored avatar.
// Values are taken as-is; a rectangle reaching past the image edge
// yields blank pixels in the result.
type CropParams struct {
	X      int
	Y      int
	Width  int
	Height int
}

// AvatarService stores, crops and removes user avatars on local disk.
type AvatarService struct {
	dir            string
	maxUploadBytes int64
}

// NewAvatarService returns an AvatarService rooted at the configured directory.
func NewAvatarService(cfg *config.Config) *AvatarService {
	dir := DefaultAvatarDir
	maxUploadSizeMB := DefaultAvatarMaxUploadSizeMB

	if cfg != nil {
		if cfg.AvatarDir != "" {
			dir = cfg.AvatarDir
		}
		if cfg.AvatarMaxUploadSizeMB > 0 {
			maxUploadSizeMB = cfg.AvatarMaxUploadSizeMB
		}
	}

	return &AvatarService{
		dir:            dir,
		maxUploadBytes: int64(maxUploadSizeMB) * 1024 * 1024,
	}
}

// Upload validates, re-encodes and stores a new avatar for the user.
// Processing happens fully in memory before anything touches disk, so a
// bad upload never clobbers an existing avatar.
func (s *AvatarService) Upload(_ context.Context, userID uint, filename string, content []byte) error {
	if userID == 0 {
		return models.NewValidationError("Invalid user")
	}
	if len(content) == 0 {
		return models.NewValidationError("No file uploaded")
	}
	if int64(len(content)) > s.maxUploadBytes {
		return models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadBytes/(1024*1024)))
	}

	ext := normalizeExtension(filename)
	if !isAllowedExtension(ext) {
		return models.NewValidationError("Avatar must be a .jpg, .jpeg or .png file")
	}

	defer observability.TrackAvatarProcessing("upload")()

	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		observability.RecordAvatarOperation("upload", "decode_error")
		return models.NewImageError("Could not decode image", err)
	}

	normalized := normalizeImage(decoded, ext)
	mainBytes, err := encodeAvatar(normalized, ext)
	if err != nil {
		observability.RecordAvatarOperation("upload", "encode_error")
		return models.NewImageError("Could not encode image", err)
	}
	thumbBytes, err := encodeAvatar(makeThumbnail(normalized), ext)
	if err != nil {
		observability.RecordAvatarOperation("upload", "encode_error")
		return models.NewImageError("Could not encode thumbnail", err)
	}

	if err := s.writeVariants(userID, ext, mainBytes, thumbBytes); err != nil {
		observability.RecordAvatarOperation("upload", "write_error")
		return models.NewInternalError(err)
	}
	s.removeOtherExtensions(userID, ext)

	observability.RecordAvatarOperation("upload", "ok")
	return nil
}

// Crop replaces the stored avatar with a cropped region of itself.
// Negative offsets are rejected; the rectangle is otherwise not bounds
// checked against the image.
func (s *AvatarService) Crop(_ context.Context, userID uint, params CropParams) error {
	if userID == 0 {
		return models.NewValidationError("Invalid user")
	}
	if params.X < 0 || params.Y < 0 {
		return models.NewValidationError("Crop offsets must not be negative")
	}
	if params.Width <= 0 {
		params.Width = DefaultCropSize
	}
	if params.Height <= 0 {
		params.Height = DefaultCropSize
	}

	ext, path, ok := s.locate(userID)
	if !ok {
		return models.NewNotFoundError("Avatar", userID)
	}

	defer observability.TrackAvatarProcessing("crop")()

	// #nosec G304: path is built from the numeric user ID
	content, err := os.ReadFile(path)
	if err != nil {
		return models.NewInternalError(err)
	}
	decoded, _, err := image.Decode(bytes.NewReader(content))
	if err != nil {
		observability.RecordAvatarOperation("crop", "decode_error")
		return models.NewImageError("Could not decode stored avatar", err)
	}

	cropped := cropToRect(decoded, params.X, params.Y, params.Width, params.Height, ext)
	mainBytes, err := encodeAvatar(cropped, ext)
	if err != nil {
		observability.RecordAvatarOperation("crop", "encode_error")
		return models.NewImageError("Could not encode cropped image", err)
	}
	thumbBytes, err := encodeAvatar(makeThumbnail(cropped), ext)
	if err != nil {
		observability.RecordAvatarOperation("crop", "encode_error")
		return models.NewImageError("Could not encode thumbnail", err)
	}

	if err := s.writeVariants(userID, ext, mainBytes, thumbBytes); err != nil {
		observability.RecordAvatarOperation("crop", "write_error")
		return models.NewInternalError(err)
	}

	observability.RecordAvatarOperation("crop", "ok")
	return nil
}

// Reset removes the user's avatar files. Resetting a user without an
// avatar is a no-op.
func (s *AvatarService) Reset(_ context.Context, userID uint) error {
	if userID == 0 {
		return models.NewValidationError("Invalid user")
	}
	for _, ext := range avatarExtensions {
		_ = os.Remove(s.mainPath(userID, ext))
		_ = os.Remove(s.thumbPath(userID, ext))
	}
	observability.RecordAvatarOperation("reset", "ok")
	return nil
}

// Filename returns the stored avatar file name for the user, or false
// when the user has no avatar.
func (s *AvatarService) Filename(userID uint) (string, bool) {
	ext, _, ok := s.locate(userID)
	if !ok {
		return "", false
	}
	return fmt.Sprintf("%d.%s", userID, ext), true
}

// URL returns the public media URL of the user's avatar, or "" when the
// user has no avatar.
func (s *AvatarService) URL(userID uint) string {
	name, ok := s.Filename(userID)
	if !ok {
		return ""
	}
	return "/media/avatars/" + name
}

// ThumbnailURL returns the public media URL of the avatar thumbnail, or
// "" when the user has no avatar.
func (s *AvatarService) ThumbnailURL(userID uint) string {
	ext, _, ok := s.locate(userID)
	if !ok {
		return ""
	}
	return fmt.Sprintf("/media/avatars/%d_thumb.%s", userID, ext)
}

// Dir returns the avatar storage directory.
func (s *AvatarService) Dir() string {
	return s.dir
}

func (s *AvatarService) locate(userID uint) (ext, path string, ok bool) {
	for _, ext := range avatarExtensions {
		p := s.mainPath(userID, ext)
		if _, err := os.Stat(p); err == nil {
			return ext, p, true
		}
	}
	return "", "", false
}

func (s *AvatarService) mainPath(userID uint, ext string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d.%s", userID, ext))
}

func (s *AvatarService) thumbPath(userID uint, ext string) string {
	return filepath.Join(s.dir, fmt.Sprintf("%d_thumb.%s", userID, ext))
}

// writeVariants writes the main image and thumbnail through temp files
// so readers never observe a partial avatar.
func (s *AvatarService) writeVariants(userID uint, ext string, mainBytes, thumbBytes []byte) error {
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return err
	}
	if err := writeFileAtomic(s.mainPath(userID, ext), mainBytes); err != nil {
		return err
	}
	return writeFileAtomic(s.thumbPath(userID, ext), thumbBytes)
}

func (s *AvatarService) removeOtherExtensions(userID uint, keep string) {
	for _, ext := range avatarExtensions {
		if ext == keep {
			continue
		}
		_ = os.Remove(s.mainPath(userID, ext))
		_ = os.Remove(s.thumbPath(userID, ext))
	}
}

func writeFileAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".avatar-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		_ = os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}

func normalizeExtension(filename string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	return ext
}

func isAllowedExtension(ext string) bool {
	switch ext {
	case "jpg", "jpeg", "png":
		return true
	default:
		return false
	}
}

// normalizeImage redraws the decoded image into the pixel format of its
// target encoding. JPEG has no alpha channel, so it gets RGBA; PNG keeps
// straight alpha via NRGBA.
func normalizeImage(src image.Image, ext string) draw.Image {
	b := src.Bounds()
	rect := image.Rect(0, 0, b.Dx(), b.Dy())

	var dst draw.Image
	if ext == "png" {
		dst = image.NewNRGBA(rect)
	} else {
		dst = image.NewRGBA(rect)
	}
	draw.Draw(dst, rect, src, b.Min, draw.Src)
	return dst
}

func cropToRect(src image.Image, x, y, w, h int, ext string) draw.Image {
	rect := image.Rect(0, 0, w, h)

	var dst draw.Image
	if ext == "png" {
		dst = image.NewNRGBA(rect)
	} else {
		dst = image.NewRGBA(rect)
	}
	offset := src.Bounds().Min.Add(image.Point{X: x, Y: y})
	draw.Draw(dst, rect, src, offset, draw.Src)
	return dst
}

func makeThumbnail(src image.Image) image.Image {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if w <= ThumbnailSize && h <= ThumbnailSize {
		return src
	}

	scale := float64(ThumbnailSize) / float64(w)
	if h > w {
		scale = float64(ThumbnailSize) / float64(h)
	}
	newW := int(float64(w) * scale)
	newH := int(float64(h) * scale)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, b, xdraw.Over, nil)
	return dst
}

func encodeAvatar(img image.Image, ext string) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	switch ext {
	case "png":
		if err := png.Encode(buf, img); err != nil {
			return nil, err
		}
	default:
		if err := jpeg.Encode(buf, img, &jpeg.Options{Quality: JPEGQuality}); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

package service

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"  // Register GIF decoder
	_ "image/jpeg" // Register JPEG decoder
	_ "image/png"  // Register PNG decoder
	"mime"
	"net/http"
	"strings"

	"nestling/internal/config"
	"nestling/internal/models"

	"github.com/chai2010/webp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // Register WebP decoder
)

const (
	DefaultImageMaxUploadSizeMB = 10
	WebPQuality                 = 80
	WebPContentType             = "image/webp"

	// AvatarMaxSide bounds avatar width and height.
	AvatarMaxSide = 512
	// CalendarImageMaxSide bounds calendar photo width and height.
	CalendarImageMaxSide = 1600
)

// ImageUpload is an uploaded file as received by the API.
type ImageUpload struct {
	Filename    string
	ContentType string
	Content     []byte
}

// MediaService validates uploaded images and re-encodes them as bounded WebP.
type MediaService struct {
	maxUploadSizeBytes int64
}

func NewMediaService(cfg *config.Config) *MediaService {
	maxUploadSizeMB := DefaultImageMaxUploadSizeMB
	if cfg != nil && cfg.ImageMaxUploadSizeMB > 0 {
		maxUploadSizeMB = cfg.ImageMaxUploadSizeMB
	}
	return &MediaService{maxUploadSizeBytes: int64(maxUploadSizeMB) * 1024 * 1024}
}

// Normalize checks that in holds a supported image, shrinks it to fit
// maxSide x maxSide and returns WebP bytes.
func (s *MediaService) Normalize(in ImageUpload, maxSide int) ([]byte, error) {
	if len(in.Content) == 0 {
		return nil, models.NewValidationError("No file uploaded")
	}
	if int64(len(in.Content)) > s.maxUploadSizeBytes {
		return nil, models.NewValidationError(fmt.Sprintf("File too large (max %dMB)", s.maxUploadSizeBytes/(1024*1024)))
	}

	detectedType := http.DetectContentType(in.Content)
	if !isAllowedImageMIME(detectedType) {
		return nil, models.NewValidationError("Invalid image type")
	}

	decoded, format, err := image.Decode(bytes.NewReader(in.Content))
	if err != nil {
		return nil, models.NewValidationError("Invalid image file")
	}
	sourceMimeType := decodedFormatToMime(format)
	if sourceMimeType == "" {
		return nil, models.NewValidationError("Unsupported image format")
	}
	if provided := normalizeContentType(in.ContentType); strings.HasPrefix(provided, "image/") && !isMatchingContentType(provided, sourceMimeType) {
		return nil, models.NewValidationError("Image content type mismatch")
	}

	encoded, err := encodeWebP(resizeToFit(decoded, maxSide, maxSide), WebPQuality)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return encoded, nil
}

func resizeToFit(src image.Image, maxWidth, maxHeight int) image.Image {
	bounds := src.Bounds()
	w := bounds.Dx()
	h := bounds.Dy()
	if w <= 0 || h <= 0 {
		return src
	}
	if w <= maxWidth && h <= maxHeight {
		return src
	}

	scale := float64(maxWidth) / float64(w)
	if s := float64(maxHeight) / float64(h); s < scale {
		scale = s
	}
	newW := max(int(float64(w)*scale), 1)
	newH := max(int(float64(h)*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, xdraw.Over, nil)
	return dst
}

func encodeWebP(img image.Image, quality int) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	if err := webp.Encode(buf, img, &webp.Options{Quality: float32(quality)}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func isAllowedImageMIME(contentType string) bool {
	switch normalizeContentType(contentType) {
	case "image/jpeg", "image/jpg", "image/png", "image/gif", "image/webp":
		return true
	default:
		return false
	}
}

func normalizeContentType(contentType string) string {
	if contentType == "" {
		return ""
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return strings.ToLower(strings.TrimSpace(mediaType))
}

func isMatchingContentType(provided, detected string) bool {
	p := normalizeContentType(provided)
	d := normalizeContentType(detected)
	if p == d {
		return true
	}
	return (p == "image/jpg" && d == "image/jpeg") || (p == "image/jpeg" && d == "image/jpg")
}

func decodedFormatToMime(format string) string {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "jpeg", "jpg":
		return "image/jpeg"
	case "png":
		return "image/png"
	case "gif":
		return "image/gif"
	case "webp":
		return "image/webp"
	default:
		return ""
	}
}

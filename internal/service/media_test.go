package service

import (
	"bytes"
	"image"
	"testing"

	"nestling/internal/config"
	"nestling/internal/models"
	"nestling/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMediaService_NormalizeShrinksToWebP(t *testing.T) {
	t.Parallel()
	svc := NewMediaService(nil)

	out, err := svc.Normalize(ImageUpload{ContentType: "image/png", Content: testutil.TinyPNG(t, 2000, 1000)}, AvatarMaxSide)
	require.NoError(t, err)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, "webp", format)
	assert.Equal(t, 512, cfg.Width)
	assert.Equal(t, 256, cfg.Height)
}

func TestMediaService_NormalizeKeepsSmallImages(t *testing.T) {
	t.Parallel()
	svc := NewMediaService(nil)

	out, err := svc.Normalize(ImageUpload{Content: testutil.TinyPNG(t, 30, 20)}, CalendarImageMaxSide)
	require.NoError(t, err)
	cfg, _, err := image.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 30, cfg.Width)
	assert.Equal(t, 20, cfg.Height)
}

func TestMediaService_NormalizeRejects(t *testing.T) {
	t.Parallel()
	svc := NewMediaService(&config.Config{ImageMaxUploadSizeMB: 1})
	png := testutil.TinyPNG(t, 4, 4)

	cases := []struct {
		name string
		in   ImageUpload
	}{
		{"empty", ImageUpload{}},
		{"not an image", ImageUpload{Content: []byte("%PDF-1.7 nope")}},
		{"declared type mismatch", ImageUpload{ContentType: "image/jpeg", Content: png}},
		{"too large", ImageUpload{Content: append(png, make([]byte, 1024*1024)...)}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Normalize(tc.in, AvatarMaxSide)
			assert.Equal(t, models.ErrCodeValidation, models.ErrorCode(err))
		})
	}
}

func TestContentTypeHelpers(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "image/png", normalizeContentType(" Image/PNG; charset=binary"))
	assert.True(t, isMatchingContentType("image/jpg", "image/jpeg"))
	assert.False(t, isMatchingContentType("image/gif", "image/png"))
	assert.True(t, isAllowedImageMIME("image/webp"))
	assert.False(t, isAllowedImageMIME("application/pdf"))
	assert.Equal(t, "", decodedFormatToMime("bmp"))
}

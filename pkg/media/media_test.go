package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func samplePNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 120, A: 255})
		}
	}
	buf := &bytes.Buffer{}
	require.NoError(t, png.Encode(buf, img))
	return buf.Bytes()
}

func TestDetectMIME(t *testing.T) {
	assert.Equal(t, "image/png", DetectMIME(samplePNG(t, 4, 4)))
	assert.Equal(t, "application/pdf", DetectMIME([]byte("%PDF-1.4\n%âãÏÓ\n")))
	assert.Equal(t, "text/plain", DetectMIME([]byte("hello world")))
}

func TestAllowed(t *testing.T) {
	allowed := []string{"image/jpeg", "image/png"}
	assert.True(t, Allowed("IMAGE/PNG", allowed))
	assert.False(t, Allowed("application/zip", allowed))
}

func TestKeySanitisesName(t *testing.T) {
	now := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	key := Key("profiles", "../My Photo (1).png", now)
	assert.True(t, strings.HasPrefix(key, "profiles/20260304-"))
	assert.True(t, strings.HasSuffix(key, "-My_Photo_1_.png"))
	assert.NotContains(t, key, "..")
}

func TestThumbnailKey(t *testing.T) {
	assert.Equal(t, "gallery/thumbs/abc.jpg", ThumbnailKey("gallery/abc.png"))
}

func TestThumbnailScalesDown(t *testing.T) {
	out, err := Thumbnail(bytes.NewReader(samplePNG(t, 200, 100)), 50)
	require.NoError(t, err)
	img, _, err := image.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 50, img.Bounds().Dx())
	assert.Equal(t, 25, img.Bounds().Dy())
}

func TestThumbnailRejectsGarbage(t *testing.T) {
	_, err := Thumbnail(strings.NewReader("not an image"), 50)
	assert.Error(t, err)
}

// Package media validates uploaded files and renders image thumbnails.
package media

import (
	"bytes"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.\-_]+`)

// DetectMIME sniffs the content type from the leading bytes of data.
func DetectMIME(data []byte) string {
	mt := mimetype.Detect(data)
	// strip parameters such as "; charset=utf-8"
	return strings.TrimSpace(strings.SplitN(mt.String(), ";", 2)[0])
}

// Allowed reports whether mime appears in the allow list.
func Allowed(mime string, allowed []string) bool {
	for _, candidate := range allowed {
		if strings.EqualFold(candidate, mime) {
			return true
		}
	}
	return false
}

// IsImage reports whether the MIME type can be thumbnailed.
func IsImage(mime string) bool {
	return mime == "image/jpeg" || mime == "image/png"
}

// Key builds a unique storage key under folder preserving a sanitised original name.
func Key(folder, original string, now time.Time) string {
	name := unsafeChars.ReplaceAllString(path.Base(original), "_")
	if name == "" || name == "." || name == "_" {
		name = "upload"
	}
	return path.Join(folder, fmt.Sprintf("%s-%s-%s", now.UTC().Format("20060102"), uuid.NewString(), name))
}

// ThumbnailKey returns the storage key of the thumbnail for key.
func ThumbnailKey(key string) string {
	dir, file := path.Split(key)
	ext := path.Ext(file)
	return path.Join(dir, "thumbs", strings.TrimSuffix(file, ext)+".jpg")
}

// Thumbnail decodes an image and scales it to width, keeping the aspect ratio.
// Images already narrower than width are re-encoded without upscaling.
func Thumbnail(src io.Reader, width int) ([]byte, error) {
	if width <= 0 {
		width = 320
	}
	img, err := imaging.Decode(src, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	if img.Bounds().Dx() > width {
		img = imaging.Resize(img, width, 0, imaging.Lanczos)
	}
	buf := &bytes.Buffer{}
	if err := imaging.Encode(buf, img, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}

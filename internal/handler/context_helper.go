package handler

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-portal-api/internal/middleware"
	"github.com/noah-isme/univ-portal-api/internal/models"
	appErrors "github.com/noah-isme/univ-portal-api/pkg/errors"
)

// currentUser returns the authenticated viewer or an UNAUTHORIZED error.
func currentUser(c *gin.Context) (models.Viewer, error) {
	viewer := middleware.Viewer(c)
	if !viewer.Authenticated() {
		return viewer, appErrors.ErrUnauthorized
	}
	return viewer, nil
}

// pageQuery reads a 1-based page number. Missing or malformed values fall
// back to the first page.
func pageQuery(c *gin.Context, key string) int {
	page, err := strconv.Atoi(c.Query(key))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

func lowerQuery(c *gin.Context, key string) string {
	return strings.ToLower(strings.TrimSpace(c.Query(key)))
}

func bindJSON(c *gin.Context, dest interface{}, message string) error {
	if err := c.ShouldBindJSON(dest); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, message)
	}
	return nil
}

// readUpload loads a multipart file field, refusing payloads larger than limit.
func readUpload(c *gin.Context, field string, limit int64) (string, []byte, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return "", nil, appErrors.Clone(appErrors.ErrValidation, field+" file is required")
		}
		return "", nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid multipart payload")
	}
	if limit > 0 && header.Size > limit {
		return "", nil, appErrors.ErrPayloadTooLarge
	}
	file, err := header.Open()
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	defer file.Close()

	reader := io.Reader(file)
	if limit > 0 {
		reader = io.LimitReader(file, limit+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return "", nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	return header.Filename, data, nil
}

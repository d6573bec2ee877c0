package handler

import (
	"fmt"
	"mime"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/univ-portal-api/pkg/response"
)

type signedFileOpener interface {
	OpenSigned(token string) (*os.File, string, error)
}

// FileHandler streams files behind signed, expiring tokens.
type FileHandler struct {
	files signedFileOpener
}

// NewFileHandler constructs FileHandler.
func NewFileHandler(files signedFileOpener) *FileHandler {
	return &FileHandler{files: files}
}

// Download godoc
// @Summary Download a file through a signed link
// @Tags Files
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /files/{token} [get]
func (h *FileHandler) Download(c *gin.Context) {
	file, name, err := h.files.OpenSigned(c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, err)
		return
	}
	contentType := mime.TypeByExtension(filepath.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Header("Cache-Control", "private, no-store")
	c.DataFromReader(http.StatusOK, info.Size(), contentType, file, nil)
}

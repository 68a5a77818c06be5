package web

import (
	"errors"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/efren319/GovFunds/internal/apperrors"
)

// FormImage returns the file uploaded under field, or nil when none was chosen.
func FormImage(c *gin.Context, field string) (*multipart.FileHeader, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		return nil, apperrors.Invalid("image", "could not be read")
	}
	if fh.Filename == "" {
		return nil, nil
	}
	return fh, nil
}

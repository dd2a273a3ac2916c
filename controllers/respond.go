package controllers

import (
	"errors"
	"mime/multipart"
	"net/http"

	"civicresolve-be/middlewares"

	"github.com/gin-gonic/gin"
)

// respondError is the single error exit for handlers.
func respondError(c *gin.Context, err error) {
	middlewares.AbortWithError(c, err)
}

// formFile returns the uploaded file under field, or nil when the request
// carries none.
func formFile(c *gin.Context, field string) (*multipart.FileHeader, error) {
	header, err := c.FormFile(field)
	if err == nil {
		return header, nil
	}
	if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
		return nil, nil
	}
	return nil, err
}

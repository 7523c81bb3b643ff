package server

import (
	"errors"

	"github.com/gin-gonic/gin"

	apperrors "github.com/kbukum/edgeshim/errors"
)

// RespondWithError writes err as the flat error body. Errors that are not
// *AppError become a generic 500.
func RespondWithError(c *gin.Context, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		appErr = apperrors.Internal(err)
	}
	if appErr.HTTPStatus == 503 {
		c.Header("Retry-After", "5")
	}
	c.AbortWithStatusJSON(appErr.HTTPStatus, appErr.ToResponse())
}

// Package endpoint implements the telepathy HTTP handlers.
package endpoint

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/skillsenselab/telepathy/internal/errors"
)

// RespondWithError writes err as the standard error envelope. AppErrors
// carry their own status code and wire shape; anything else becomes an
// opaque 500 with the cause preserved for logs.
func RespondWithError(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err)
	c.JSON(appErr.HTTPStatus, appErr.ToResponse())
}

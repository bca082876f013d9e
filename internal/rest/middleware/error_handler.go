package middleware

import (
	"github.com/gin-gonic/gin"

	ierr "github.com/sublytics/sublytics/internal/errors"
)

// ErrorHandler converts errors attached to the gin context into the standard
// JSON error envelope. Handlers call c.Error(err) and return; this middleware
// decides the status code and body.
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 {
			return
		}

		err := c.Errors.Last().Err
		c.JSON(ierr.HTTPStatusFromErr(err), ierr.NewErrorResponse(err))
	}
}

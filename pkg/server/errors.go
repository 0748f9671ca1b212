package server

import (
	"net/http"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"

	"github.com/vein-tools/veind/pkg/errdefs"
	"github.com/vein-tools/veind/pkg/log"
)

// respondError maps the error taxonomy onto HTTP statuses. Unclassified
// errors are logged with the request id and answered with a generic
// message so internal detail never leaks to the caller.
func respondError(c *gin.Context, err error) {
	var status int
	switch {
	case errdefs.IsInvalidArgument(err):
		status = http.StatusBadRequest
	case errdefs.IsUnauthenticated(err):
		status = http.StatusUnauthorized
	case errdefs.IsNotFound(err):
		status = http.StatusNotFound
	case errdefs.IsConflict(err):
		status = http.StatusConflict
	case errdefs.IsUnavailable(err):
		status = http.StatusBadGateway
	default:
		log.Logger.Errorw("request failed",
			"requestID", requestid.Get(c),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    http.StatusInternalServerError,
			"message": "internal server error",
		})
		return
	}

	c.JSON(status, gin.H{"code": status, "message": err.Error()})
}

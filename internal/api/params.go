package api

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"panel-backend/internal/apperr"
)

// bindJSON decodes the request body into obj. On failure it records a
// validation error and returns false.
func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		_ = c.Error(err).SetType(gin.ErrorTypeBind)
		return false
	}
	return true
}

// idParam parses a numeric path parameter. Malformed ids cannot match any
// record and are reported as not found.
func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		_ = c.Error(apperr.ErrNotFound)
		return 0, false
	}
	return id, true
}

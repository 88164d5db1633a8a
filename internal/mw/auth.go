package mw

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"panel-backend/internal/apperr"
	"panel-backend/internal/model"
)

const userContextKey = "user"

// Authenticator resolves bearer tokens to users.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*model.User, error)
	CheckApproved(ctx context.Context, user *model.User) error
}

// RequireUser rejects requests without a valid bearer token and stores the
// user on the context.
func RequireUser(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			AbortWithError(c, apperr.ErrUnauthenticated)
			return
		}

		user, err := auth.Authenticate(c.Request.Context(), token)
		if err != nil {
			AbortWithError(c, err)
			return
		}
		c.Set(userContextKey, user)
		c.Next()
	}
}

// RequireApproved rejects users still waiting for approval while approvals
// are enabled. It must run after RequireUser.
func RequireApproved(auth Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.CheckApproved(c.Request.Context(), CurrentUser(c)); err != nil {
			AbortWithError(c, err)
			return
		}
		c.Next()
	}
}

// RequireAdmin rejects users without the root admin flag. It must run after
// RequireUser.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user := CurrentUser(c)
		if user == nil || !user.RootAdmin {
			AbortWithError(c, apperr.ErrForbidden)
			return
		}
		c.Next()
	}
}

// CurrentUser returns the user set by RequireUser, or nil.
func CurrentUser(c *gin.Context) *model.User {
	v, ok := c.Get(userContextKey)
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

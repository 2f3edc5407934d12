package auth

import (
	"net/http"
	"room-lab/domain"

	"github.com/gin-gonic/gin"
)

const userKey = "user"

// RequireUser rejects requests without a valid Authorization header before
// they reach a handler, and stores the resolved user in the gin context.
func RequireUser(resolver IIdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, err := resolver.Resolve(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"code":  "auth_failure",
				"error": "invalid or missing token",
			})
			return
		}
		c.Set(userKey, user)
		c.Next()
	}
}

// UserFrom returns the user stored by RequireUser.
func UserFrom(c *gin.Context) (domain.User, bool) {
	value, ok := c.Get(userKey)
	if !ok {
		return domain.User{}, false
	}
	user, ok := value.(domain.User)
	return user, ok
}

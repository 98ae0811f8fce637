package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ExpertVagabond/purplesquirrel-media-app/core"
	"github.com/ExpertVagabond/purplesquirrel-media-app/service"
)

const (
	ctxUserKey  = "authUser"
	ctxTokenKey = "authToken"
)

// AuthMiddleware validates the bearer token and stores the resolved user in
// the request context.
func AuthMiddleware(authService *service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}
		token := strings.TrimPrefix(header, "Bearer ")

		user, err := authService.Authenticate(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized"})
			return
		}

		c.Set(ctxUserKey, user)
		c.Set(ctxTokenKey, token)
		c.Next()
	}
}

// currentUser returns the user placed in the context by AuthMiddleware.
func currentUser(c *gin.Context) *core.User {
	user, _ := c.Get(ctxUserKey)
	u, _ := user.(*core.User)
	return u
}

// currentToken returns the raw bearer token for the request.
func currentToken(c *gin.Context) string {
	token, _ := c.Get(ctxTokenKey)
	t, _ := token.(string)
	return t
}

// CORSMiddleware allows the mobile client's dev origin to hit the server.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

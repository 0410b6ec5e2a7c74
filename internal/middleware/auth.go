// internal/middleware/auth.go
package middleware

import (
	"log"
	"net/http"
	"strings"

	"github.com/fedor-resh/bite/internal/apperr"
	"github.com/fedor-resh/bite/internal/auth"
	"github.com/fedor-resh/bite/internal/models"
	"github.com/gin-gonic/gin"
)

const UserIDKey = "userID"

// AuthMiddleware rejects requests without a valid bearer token before any
// handler runs, so a failed check never reaches storage.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			abortUnauthorized(c)
			return
		}

		claims, err := auth.ValidateToken(secret, strings.TrimSpace(token))
		if err != nil {
			log.Printf("auth rejected request_id=%s: %v", c.GetString(RequestIDKey), err)
			abortUnauthorized(c)
			return
		}

		c.Set(UserIDKey, claims.Subject)
		c.Next()
	}
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{
		Error:  apperr.Message(apperr.Unauthorized()),
		Status: models.StatusError,
	})
}

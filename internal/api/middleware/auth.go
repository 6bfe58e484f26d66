package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sushil-kumar-saw/mitra-farm/internal/auth"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

const (
	// ContextKeyUserID holds the key for user ID in Gin context.
	ContextKeyUserID = "userID"
	// ContextKeyUser holds the loaded *models.User once RequireRole has run.
	ContextKeyUser = "user"
	// ContextKeyRole holds the resolved models.Role once RequireRole has run.
	ContextKeyRole = "role"

	// SessionCookie is the name of the cookie carrying the session token.
	SessionCookie = "token"
)

func abort(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"success": false, "message": message})
}

// TokenFromRequest returns the session token from the cookie, falling back
// to an "Authorization: Bearer" header.
func TokenFromRequest(c *gin.Context) string {
	if token, err := c.Cookie(SessionCookie); err == nil && token != "" {
		return token
	}
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return strings.TrimSpace(parts[1])
	}
	return ""
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := TokenFromRequest(c)
		if tokenString == "" {
			abort(c, http.StatusUnauthorized, "No token provided")
			return
		}

		claims, err := auth.ValidateJWT(tokenString, jwtSecret)
		if err != nil {
			if errors.Is(err, auth.ErrMissingSecret) {
				log.Printf("JWT secret missing while validating token")
				abort(c, http.StatusInternalServerError, "Server configuration error")
				return
			}
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		c.Set(ContextKeyUserID, claims.UserID)
		c.Next()
	}
}

// RequireRole loads the authenticated user and rejects anyone whose role is
// not role. Assumes AuthMiddleware runs first.
func RequireRole(users services.IUserService, role models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, err := services.ParseObjectID("user", c.GetString(ContextKeyUserID))
		if err != nil {
			abort(c, http.StatusUnauthorized, "Invalid or expired token")
			return
		}

		user, err := users.FindByID(c.Request.Context(), userID)
		if err != nil {
			if errors.Is(err, services.ErrUserNotFound) {
				abort(c, http.StatusNotFound, "User not found")
				return
			}
			log.Printf("Error loading user %s for role check: %v", userID.Hex(), err)
			abort(c, http.StatusInternalServerError, "Server error")
			return
		}

		actual, err := users.ResolveRole(c.Request.Context(), user)
		if err != nil {
			log.Printf("Error resolving role of user %s: %v", userID.Hex(), err)
			abort(c, http.StatusInternalServerError, "Server error")
			return
		}
		if actual != role {
			abort(c, http.StatusForbidden, "Access restricted to "+string(role)+" accounts")
			return
		}

		c.Set(ContextKeyUser, user)
		c.Set(ContextKeyRole, actual)
		c.Next()
	}
}

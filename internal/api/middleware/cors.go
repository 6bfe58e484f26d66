package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"

	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
)

// NewCORS builds the CORS policy for the configured frontend origin.
// Credentials are allowed so the session cookie travels with requests.
func NewCORS(cfg *config.Config) *cors.Cors {
	return cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.FrontendOrigin},
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Requested-With", HeaderRequestID},
		ExposedHeaders:   []string{HeaderRequestID},
		AllowCredentials: true,
		MaxAge:           600,
	})
}

// CORSMiddleware applies policy to every request and answers preflights.
func CORSMiddleware(policy *cors.Cors) gin.HandlerFunc {
	return func(c *gin.Context) {
		policy.HandlerFunc(c.Writer, c.Request)
		if c.Request.Method == http.MethodOptions && c.GetHeader("Access-Control-Request-Method") != "" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/sushil-kumar-saw/mitra-farm/internal/api/middleware"
	"github.com/sushil-kumar-saw/mitra-farm/internal/auth"
	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
	"github.com/sushil-kumar-saw/mitra-farm/internal/metrics"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

// AuthHandler handles registration and the cookie session.
type AuthHandler struct {
	cfg         *config.Config
	userService services.IUserService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(cfg *config.Config, userService services.IUserService) *AuthHandler {
	return &AuthHandler{cfg: cfg, userService: userService}
}

type registerRequest struct {
	Name     string      `json:"name"`
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type loginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

// Register handles POST /api/auth/register. No session is issued.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "All fields are required")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		respondError(c, h.cfg, err, "Registration failed", nil)
		return
	}
	metrics.Registrations.WithLabelValues(string(user.Role)).Inc()
	c.JSON(http.StatusCreated, gin.H{"success": true, "message": "User registered successfully"})
}

// Login handles POST /api/auth/login and sets the session cookie.
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	if !req.Role.Valid() {
		badRequest(c, "Invalid role specified")
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		metrics.Logins.WithLabelValues("rejected").Inc()
		respondError(c, h.cfg, err, "Server error", nil)
		return
	}

	token, err := auth.GenerateJWT(user.ID.Hex(), h.cfg.JwtSecret, h.cfg.JwtTTL)
	if err != nil {
		if errors.Is(err, auth.ErrMissingSecret) {
			log.Printf("JWT_SECRET is missing")
			c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Server configuration error"})
			return
		}
		respondError(c, h.cfg, err, "Server error", nil)
		return
	}

	h.setSessionCookie(c, token, int(h.cfg.JwtTTL.Seconds()))
	metrics.Logins.WithLabelValues("success").Inc()
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"user":    user.Summary(req.Role),
	})
}

// Verify handles GET /api/auth/verify. Runs behind AuthMiddleware.
func (h *AuthHandler) Verify(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	user, err := h.userService.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "User not found"})
			return
		}
		respondError(c, h.cfg, err, "Server error", nil)
		return
	}
	role, err := h.userService.ResolveRole(c.Request.Context(), user)
	if err != nil {
		respondError(c, h.cfg, err, "Server error", nil)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user.Summary(role)})
}

// Logout handles POST /api/auth/logout. Always succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	h.setSessionCookie(c, "", -1)
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Logout successful"})
}

func (h *AuthHandler) setSessionCookie(c *gin.Context, value string, maxAge int) {
	cookie := &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.IsProduction(),
		SameSite: http.SameSiteLaxMode,
	}
	if h.cfg.IsProduction() {
		cookie.SameSite = http.SameSiteNoneMode
	}
	http.SetCookie(c.Writer, cookie)
}

package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/sushil-kumar-saw/mitra-farm/internal/api/middleware"
	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

type errorMapping struct {
	status  int
	message string
}

// knownErrors maps service sentinels to the status and message shown to clients.
var knownErrors = []struct {
	err error
	errorMapping
}{
	{services.ErrEmailExists, errorMapping{http.StatusBadRequest, "Email already registered"}},
	{services.ErrInvalidRole, errorMapping{http.StatusBadRequest, "Invalid role specified"}},
	{services.ErrInvalidCredentials, errorMapping{http.StatusBadRequest, "Invalid credentials"}},
	{services.ErrRoleMismatch, errorMapping{http.StatusBadRequest, "Role does not match user"}},
	{services.ErrUserNotFound, errorMapping{http.StatusNotFound, "User not found"}},
	{services.ErrProfileNotFound, errorMapping{http.StatusNotFound, "Profile not found"}},
	{services.ErrListingNotFound, errorMapping{http.StatusNotFound, "Listing not found"}},
	{services.ErrListingNotAvailable, errorMapping{http.StatusBadRequest, "Listing is not available for purchase"}},
	{services.ErrAlreadyPurchased, errorMapping{http.StatusBadRequest, "You have already purchased this listing"}},
	{services.ErrInquiryNotFound, errorMapping{http.StatusNotFound, "Inquiry not found"}},
	{services.ErrNotInquiryFarmer, errorMapping{http.StatusForbidden, "Not authorized to reply to this inquiry"}},
	{services.ErrPostNotFound, errorMapping{http.StatusNotFound, "Post not found"}},
	{services.ErrReplyNotFound, errorMapping{http.StatusNotFound, "Reply not found"}},
	{services.ErrNotPostAuthor, errorMapping{http.StatusForbidden, "Not authorized to delete this post"}},
	{services.ErrNotReplyAuthor, errorMapping{http.StatusForbidden, "Not authorized to delete this reply"}},
	{services.ErrNotListingOwner, errorMapping{http.StatusForbidden, "Not authorized to modify this listing"}},
	{services.ErrImageUploadDisabled, errorMapping{http.StatusServiceUnavailable, "Image upload is not configured"}},
}

// overrides replaces the client message for specific errors in one handler.
type overrides map[error]string

// respondError maps err onto the response envelope. Unknown errors become a
// 500 whose body carries the error text outside production.
func respondError(c *gin.Context, cfg *config.Config, err error, fallback string, msgs overrides) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": verr.Message})
		return
	}
	for _, known := range knownErrors {
		if errors.Is(err, known.err) {
			message := known.message
			if m, ok := msgs[known.err]; ok {
				message = m
			}
			c.JSON(known.status, gin.H{"success": false, "message": message})
			return
		}
	}

	log.Printf("%s %s failed: %v", c.Request.Method, c.FullPath(), err)
	_ = c.Error(err)
	body := gin.H{"success": false, "message": fallback}
	if cfg == nil || !cfg.IsProduction() {
		body["error"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}

// currentUserID returns the authenticated user's id set by AuthMiddleware.
func currentUserID(c *gin.Context) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.GetString(middleware.ContextKeyUserID))
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Invalid or expired token"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// pathID parses a hex id route parameter, answering 400 when it is malformed.
func pathID(c *gin.Context, param, label string) (primitive.ObjectID, bool) {
	id, err := services.ParseObjectID(label, c.Param(param))
	if err != nil {
		badRequest(c, err.Error())
		return primitive.NilObjectID, false
	}
	return id, true
}

package services

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEmailExists         = errors.New("email already registered")
	ErrInvalidRole         = errors.New("invalid role specified")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrRoleMismatch        = errors.New("role does not match user")
	ErrUserNotFound        = errors.New("user not found")
	ErrProfileNotFound     = errors.New("profile not found")
	ErrListingNotFound     = errors.New("listing not found")
	ErrListingNotAvailable = errors.New("listing is not available for purchase")
	ErrAlreadyPurchased    = errors.New("listing already purchased by this buyer")
	ErrInquiryNotFound     = errors.New("inquiry not found")
	ErrNotInquiryFarmer    = errors.New("not authorized to reply to this inquiry")
	ErrPostNotFound        = errors.New("post not found")
	ErrReplyNotFound       = errors.New("reply not found")
	ErrNotPostAuthor       = errors.New("not authorized to delete this post")
	ErrNotReplyAuthor      = errors.New("not authorized to delete this reply")
	ErrNotListingOwner     = errors.New("listing not owned by caller")
)

// ValidationError carries a message that is safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErr(format string, args ...interface{}) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// ParseObjectID converts a hex id from a URL or body into an ObjectID,
// returning a ValidationError naming the field when it is malformed.
func ParseObjectID(field, hex string) (primitive.ObjectID, error) {
	if hex == "" {
		return primitive.NilObjectID, validationErr("%s is required", field)
	}
	id, err := primitive.ObjectIDFromHex(hex)
	if err != nil {
		return primitive.NilObjectID, validationErr("Invalid %s", field)
	}
	return id, nil
}

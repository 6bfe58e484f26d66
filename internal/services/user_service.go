package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sushil-kumar-saw/mitra-farm/internal/auth"
	"github.com/sushil-kumar-saw/mitra-farm/internal/db"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
)

// IUserService defines the interface for account and profile operations.
// This allows for easier mocking in tests.
type IUserService interface {
	Register(ctx context.Context, name, email, password string, role models.Role) (*models.User, error)
	Login(ctx context.Context, email, password string, role models.Role) (*models.User, error)
	FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error)
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	ResolveRole(ctx context.Context, user *models.User) (models.Role, error)
	FindFarmerProfile(ctx context.Context, userID primitive.ObjectID) (*models.FarmerProfile, error)
	FindBuyerProfile(ctx context.Context, userID primitive.ObjectID) (*models.BuyerProfile, error)
	ResetPassword(ctx context.Context, email, newPassword string) error
}

// userService implements IUserService.
type userService struct {
	db *mongo.Database
}

// NewUserService creates a new UserService.
func NewUserService(db *mongo.Database) IUserService {
	return &userService{db: db}
}

// Register creates the user with a hashed password and the profile matching
// role. No token is issued; the caller logs in afterwards.
func (s *userService) Register(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" || role == "" {
		return nil, validationErr("All fields are required")
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	if _, err := s.FindByEmail(ctx, email); err == nil {
		return nil, ErrEmailExists
	} else if !errors.Is(err, ErrUserNotFound) {
		return nil, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	user.GenIDIfEmpty()
	user.Touch(now)

	err = db.Try(func() error {
		_, insertErr := s.db.Collection(db.UsersCollection).InsertOne(ctx, user)
		return insertErr
	})
	if err != nil {
		if db.IsDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, fmt.Errorf("error inserting user %s: %w", email, err)
	}

	if err := s.createProfile(ctx, user.ID, role, now); err != nil {
		// Without a profile the account could never log in; take it back out.
		if _, delErr := s.db.Collection(db.UsersCollection).DeleteOne(ctx, bson.M{"_id": user.ID}); delErr != nil {
			log.Printf("Failed to remove user %s after profile error: %v", user.ID.Hex(), delErr)
		}
		return nil, err
	}

	log.Printf("Registered %s user %s", role, user.ID.Hex())
	return user, nil
}

func (s *userService) createProfile(ctx context.Context, userID primitive.ObjectID, role models.Role, now time.Time) error {
	var (
		collection string
		profile    interface{}
	)
	switch role {
	case models.RoleFarmer:
		p := &models.FarmerProfile{UserID: userID}
		p.GenIDIfEmpty()
		p.Touch(now)
		collection, profile = db.FarmersCollection, p
	case models.RoleBuyer:
		p := &models.BuyerProfile{UserID: userID}
		p.GenIDIfEmpty()
		p.Touch(now)
		collection, profile = db.BuyersCollection, p
	default:
		return ErrInvalidRole
	}

	err := db.Try(func() error {
		_, insertErr := s.db.Collection(collection).InsertOne(ctx, profile)
		return insertErr
	})
	if err != nil {
		return fmt.Errorf("error creating %s profile for user %s: %w", role, userID.Hex(), err)
	}
	return nil
}

// Login checks the password and that the account holds the requested role.
func (s *userService) Login(ctx context.Context, email, password string, role models.Role) (*models.User, error) {
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	user, err := s.FindByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !auth.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	ok, err := s.hasRole(ctx, user, role)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrRoleMismatch
	}
	return user, nil
}

func (s *userService) hasRole(ctx context.Context, user *models.User, role models.Role) (bool, error) {
	if user.Role != "" {
		return user.Role == role, nil
	}
	var err error
	if role == models.RoleFarmer {
		_, err = s.FindFarmerProfile(ctx, user.ID)
	} else {
		_, err = s.FindBuyerProfile(ctx, user.ID)
	}
	if errors.Is(err, ErrProfileNotFound) {
		return false, nil
	}
	return err == nil, err
}

// ResolveRole returns the stored role, or for accounts that predate the role
// field, the first profile found (farmer before buyer). An empty role means
// the account has no profile at all.
func (s *userService) ResolveRole(ctx context.Context, user *models.User) (models.Role, error) {
	if user.Role != "" {
		return user.Role, nil
	}
	if _, err := s.FindFarmerProfile(ctx, user.ID); err == nil {
		return models.RoleFarmer, nil
	} else if !errors.Is(err, ErrProfileNotFound) {
		return "", err
	}
	if _, err := s.FindBuyerProfile(ctx, user.ID); err == nil {
		return models.RoleBuyer, nil
	} else if !errors.Is(err, ErrProfileNotFound) {
		return "", err
	}
	return "", nil
}

// FindByEmail finds a user by their email address.
// Returns ErrUserNotFound if there is none.
func (s *userService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.Collection(db.UsersCollection).FindOne(ctx, bson.M{"email": email}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error finding user by email %s: %w", email, err)
	}
	return &user, nil
}

// FindByID finds a user by id. Returns ErrUserNotFound if there is none.
func (s *userService) FindByID(ctx context.Context, userID primitive.ObjectID) (*models.User, error) {
	var user models.User
	err := s.db.Collection(db.UsersCollection).FindOne(ctx, bson.M{"_id": userID}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("error finding user by ID %s: %w", userID.Hex(), err)
	}
	return &user, nil
}

func (s *userService) FindFarmerProfile(ctx context.Context, userID primitive.ObjectID) (*models.FarmerProfile, error) {
	var profile models.FarmerProfile
	err := s.db.Collection(db.FarmersCollection).FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("error finding farmer profile for %s: %w", userID.Hex(), err)
	}
	return &profile, nil
}

func (s *userService) FindBuyerProfile(ctx context.Context, userID primitive.ObjectID) (*models.BuyerProfile, error) {
	var profile models.BuyerProfile
	err := s.db.Collection(db.BuyersCollection).FindOne(ctx, bson.M{"user_id": userID}).Decode(&profile)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("error finding buyer profile for %s: %w", userID.Hex(), err)
	}
	return &profile, nil
}

// ResetPassword replaces the password hash of the user with the given email.
func (s *userService) ResetPassword(ctx context.Context, email, newPassword string) error {
	if newPassword == "" {
		return validationErr("Password is required")
	}
	hash, err := auth.HashPassword(newPassword)
	if err != nil {
		return err
	}
	update := bson.M{"$set": bson.M{"password": hash, "updated_at": time.Now().UTC()}}
	result, err := s.db.Collection(db.UsersCollection).UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return fmt.Errorf("error resetting password for %s: %w", email, err)
	}
	if result.MatchedCount == 0 {
		return ErrUserNotFound
	}
	log.Printf("Password reset for user %s", email)
	return nil
}

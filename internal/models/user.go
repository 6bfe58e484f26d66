package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Role is the side of the marketplace an account acts on.
type Role string

const (
	RoleFarmer Role = "farmer"
	RoleBuyer  Role = "buyer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleFarmer || r == RoleBuyer
}

// User represents an account. Role is empty only for accounts created before
// the field existed; those resolve their role through the profile collections.
type User struct {
	Base         `bson:",inline"`
	Name         string `bson:"name" json:"name"`
	Email        string `bson:"email" json:"email"`
	PasswordHash string `bson:"password" json:"-"`
	Role         Role   `bson:"role,omitempty" json:"role,omitempty"`
}

// UserSummary is the public view returned by the auth endpoints.
type UserSummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email"`
	Role  Role               `json:"role,omitempty"`
}

func (u *User) Summary(role Role) UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email, Role: role}
}

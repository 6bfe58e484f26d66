package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type IBase interface {
	GenIDIfEmpty()
	Touch(now time.Time)
}

// Base carries the identifier and timestamps shared by every stored document.
type Base struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updatedAt"`
}

func (m *Base) GenIDIfEmpty() {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
}

// Touch sets UpdatedAt, and CreatedAt too when the document is new.
func (m *Base) Touch(now time.Time) {
	if m.CreatedAt.IsZero() {
		m.CreatedAt = now
	}
	m.UpdatedAt = now
}

func NewBase() Base {
	now := time.Now().UTC()
	return Base{
		ID:        primitive.NewObjectID(),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// FarmerProfile is created alongside a farmer account.
type FarmerProfile struct {
	Base          `bson:",inline"`
	UserID        primitive.ObjectID `bson:"user_id" json:"userId"`
	LandSize      string             `bson:"land_size,omitempty" json:"landSize,omitempty"`
	CropTypes     []string           `bson:"crop_types,omitempty" json:"cropTypes,omitempty"`
	Location      string             `bson:"location,omitempty" json:"location,omitempty"`
	ContactNumber string             `bson:"contact_number,omitempty" json:"contactNumber,omitempty"`
}

// BuyerProfile is created alongside a buyer account.
type BuyerProfile struct {
	Base          `bson:",inline"`
	UserID        primitive.ObjectID `bson:"user_id" json:"userId"`
	CompanyName   string             `bson:"company_name,omitempty" json:"companyName,omitempty"`
	CompanyType   string             `bson:"company_type,omitempty" json:"companyType,omitempty"`
	Location      string             `bson:"location,omitempty" json:"location,omitempty"`
	ContactNumber string             `bson:"contact_number,omitempty" json:"contactNumber,omitempty"`
}

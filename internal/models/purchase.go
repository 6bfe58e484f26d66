package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type PurchaseStatus string

const (
	PurchasePending   PurchaseStatus = "Pending"
	PurchaseConfirmed PurchaseStatus = "Confirmed"
	PurchaseCompleted PurchaseStatus = "Completed"
	PurchaseCancelled PurchaseStatus = "Cancelled"
)

// Purchase records a buyer's commitment against one listing. The listing
// fields are copied at purchase time so later edits do not change history.
type Purchase struct {
	Base         `bson:",inline"`
	BuyerID      primitive.ObjectID `bson:"buyer_id" json:"buyerId"`
	ListingID    primitive.ObjectID `bson:"listing_id" json:"listingId"`
	FarmerID     primitive.ObjectID `bson:"farmer_id" json:"farmerId"`
	WasteType    string             `bson:"waste_type" json:"wasteType"`
	Quantity     string             `bson:"quantity" json:"quantity"`
	Price        string             `bson:"price" json:"price"`
	TotalAmount  float64            `bson:"total_amount" json:"totalAmount"`
	CarbonSaving string             `bson:"carbon_saving" json:"carbonSaving"`
	CarbonValue  *float64           `bson:"carbon_value,omitempty" json:"carbonValue,omitempty"`
	Status       PurchaseStatus     `bson:"status" json:"status"`
	PurchaseDate time.Time          `bson:"purchase_date" json:"purchaseDate"`
}

// PartySummary is a resolved user reference embedded in responses.
type PartySummary struct {
	ID    primitive.ObjectID `json:"id"`
	Name  string             `json:"name"`
	Email string             `json:"email,omitempty"`
}

// PurchaseDetail is a purchase with its listing and counterpart resolved.
type PurchaseDetail struct {
	Purchase
	Listing *Listing      `json:"listing,omitempty"`
	Farmer  *PartySummary `json:"farmer,omitempty"`
	Buyer   *PartySummary `json:"buyer,omitempty"`
}

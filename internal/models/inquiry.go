package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type InquiryStatus string

const (
	InquiryPending  InquiryStatus = "Pending"
	InquiryReplied  InquiryStatus = "Replied"
	InquiryResolved InquiryStatus = "Resolved"
)

// InquiryReply is appended by the farmer; replies are never edited.
type InquiryReply struct {
	ID         primitive.ObjectID `bson:"_id" json:"id"`
	AuthorID   primitive.ObjectID `bson:"author_id" json:"authorId"`
	AuthorName string             `bson:"author_name" json:"authorName"`
	Message    string             `bson:"message" json:"message"`
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}

// Inquiry is a buyer's message to a farmer about a listing.
type Inquiry struct {
	Base       `bson:",inline"`
	BuyerID    primitive.ObjectID `bson:"buyer_id" json:"buyerId"`
	FarmerID   primitive.ObjectID `bson:"farmer_id" json:"farmerId"`
	ListingID  primitive.ObjectID `bson:"listing_id" json:"listingId"`
	BuyerName  string             `bson:"buyer_name" json:"buyerName"`
	FarmerName string             `bson:"farmer_name" json:"farmerName"`
	Message    string             `bson:"message" json:"message"`
	Status     InquiryStatus      `bson:"status" json:"status"`
	Replies    []InquiryReply     `bson:"replies" json:"replies"`
}

// FeedItem types.
const (
	FeedTypePurchase = "purchase"
	FeedTypeInquiry  = "inquiry"
)

// FeedItem is one row of the farmer's merged inquiry feed. It has no stored
// counterpart; purchases and inquiries are projected into it on read.
type FeedItem struct {
	ID             primitive.ObjectID `json:"id"`
	Type           string             `json:"type"`
	BuyerID        primitive.ObjectID `json:"buyerId"`
	BuyerName      string             `json:"buyerName"`
	BuyerEmail     string             `json:"buyerEmail"`
	ListingID      primitive.ObjectID `json:"listingId"`
	Product        string             `json:"product"`
	Message        string             `json:"message"`
	Status         string             `json:"status"`
	PurchaseStatus PurchaseStatus     `json:"purchaseStatus,omitempty"`
	TotalAmount    float64            `json:"totalAmount,omitempty"`
	Replies        []InquiryReply     `json:"replies,omitempty"`
	CreatedAt      time.Time          `json:"createdAt"`
}

// PurchaseFeedStatus maps a purchase status onto the feed vocabulary.
func PurchaseFeedStatus(s PurchaseStatus) string {
	switch s {
	case PurchasePending:
		return "new"
	case PurchaseConfirmed:
		return "confirmed"
	}
	return "completed"
}

// InquiryFeedStatus maps an inquiry status onto the feed vocabulary.
func InquiryFeedStatus(s InquiryStatus) string {
	switch s {
	case InquiryPending:
		return "new"
	case InquiryReplied:
		return "replied"
	}
	return "resolved"
}

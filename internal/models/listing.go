package models

import (
	"strings"

	"github.com/sushil-kumar-saw/mitra-farm/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ListingStatus is the lifecycle state of a listing.
type ListingStatus string

const (
	ListingActive   ListingStatus = "Active"
	ListingSold     ListingStatus = "Sold"
	ListingInactive ListingStatus = "Inactive"
)

func (s ListingStatus) Valid() bool {
	switch s {
	case ListingActive, ListingSold, ListingInactive:
		return true
	}
	return false
}

// Listing is a farmer's offer of an agricultural waste item.
// Quantity, Price and CarbonSaving are free text as entered by the farmer;
// the *Value fields hold the numbers extracted from them on every write.
type Listing struct {
	Base            `bson:",inline"`
	FarmerID        primitive.ObjectID `bson:"farmer_id" json:"farmerId"`
	FarmerName      string             `bson:"farmer_name" json:"farmerName"`
	Location        string             `bson:"location" json:"location"`
	WasteType       string             `bson:"waste_type" json:"wasteType"`
	Quantity        string             `bson:"quantity" json:"quantity"`
	Price           string             `bson:"price" json:"price"`
	CarbonSaving    string             `bson:"carbon_saving" json:"carbonSaving"`
	CO2Footprint    string             `bson:"co2_footprint" json:"co2Footprint"`
	Image           string             `bson:"image" json:"image"`
	Status          ListingStatus      `bson:"status" json:"status"`
	Inquiries       int                `bson:"inquiries" json:"inquiries"`
	Description     string             `bson:"description" json:"description"`
	Category        string             `bson:"category" json:"category"`
	ExpectedProcess string             `bson:"expected_process" json:"expectedProcess"`
	Tags            []string           `bson:"tags" json:"tags"`

	PriceValue    *float64 `bson:"price_value,omitempty" json:"priceValue,omitempty"`
	QuantityValue *float64 `bson:"quantity_value,omitempty" json:"quantityValue,omitempty"`
	QuantityTons  *float64 `bson:"quantity_tons,omitempty" json:"quantityTons,omitempty"`
	CarbonValue   *float64 `bson:"carbon_value,omitempty" json:"carbonValue,omitempty"`
}

// CarbonText returns the carbon figure, falling back to the footprint field.
func (l *Listing) CarbonText() string {
	if l.CarbonSaving != "" {
		return l.CarbonSaving
	}
	return l.CO2Footprint
}

// ComputeValues refreshes the structured numeric fields from the free text.
func (l *Listing) ComputeValues() {
	l.PriceValue = optional(utils.ParsePrice(l.Price))
	l.QuantityValue = optional(utils.ParseQuantity(l.Quantity))
	l.QuantityTons = optional(utils.QuantityInTons(l.Quantity))
	l.CarbonValue = optional(utils.ParseCarbon(l.CarbonText()))
}

// TotalAmount is price x quantity, 0 if either failed to parse.
func (l *Listing) TotalAmount() float64 {
	if l.PriceValue == nil || l.QuantityValue == nil {
		return utils.TotalAmount(l.Price, l.Quantity)
	}
	return *l.PriceValue * *l.QuantityValue
}

// ForMarketplace returns a copy with display defaults filled in.
func (l Listing) ForMarketplace() Listing {
	if l.FarmerName == "" {
		l.FarmerName = "Unknown Farmer"
	}
	if l.Location == "" {
		l.Location = "Not specified"
	}
	if l.WasteType == "" {
		l.WasteType = "Unknown"
	}
	if l.Quantity == "" {
		l.Quantity = "N/A"
	}
	if l.Price == "" {
		l.Price = "N/A"
	}
	if l.CarbonSaving == "" {
		l.CarbonSaving = l.CO2Footprint
	}
	if l.CO2Footprint == "" {
		l.CO2Footprint = l.CarbonSaving
	}
	if l.CarbonSaving == "" {
		l.CarbonSaving = "0 kg CO₂"
		l.CO2Footprint = "0 kg CO₂"
	}
	l.Image = NormalizeImagePath(l.Image)
	if l.Tags == nil {
		l.Tags = []string{}
	}
	if l.Status == "" {
		l.Status = ListingActive
	}
	return l
}

// NormalizeImagePath maps legacy on-disk paths to the public /images/ prefix.
func NormalizeImagePath(p string) string {
	switch {
	case strings.Contains(p, "./public/images/"):
		return strings.Replace(p, "./public/images/", "/images/", 1)
	case strings.Contains(p, "public/images/"):
		return strings.Replace(p, "public/images/", "/images/", 1)
	}
	return p
}

func optional(v float64, ok bool) *float64 {
	if !ok {
		return nil
	}
	return &v
}

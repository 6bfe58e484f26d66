package models

// BuyerStats is shown on the buyer dashboard.
type BuyerStats struct {
	TotalPurchases     int64 `json:"totalPurchases"`
	ActiveTransactions int64 `json:"activeTransactions"`
	CarbonSaved        int64 `json:"carbonSaved"`
}

// FarmerStats is shown on the farmer dashboard.
type FarmerStats struct {
	ActiveListings int64 `json:"activeListings"`
	TotalEarnings  int64 `json:"totalEarnings"`
	CarbonSaved    int64 `json:"carbonSaved"`
	WasteRecycled  int64 `json:"wasteRecycled"`
}

// PlatformStats is the public landing page summary. CO2Saved and
// RevenueMillions are fixed multiples of the listing count.
type PlatformStats struct {
	ActiveFarmers   int64 `json:"activeFarmers"`
	CO2Saved        int64 `json:"co2Saved"`
	RevenueMillions int64 `json:"revenueMillions"`
}

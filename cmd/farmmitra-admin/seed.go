package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

type sampleListing struct {
	location, wasteType, quantity, price   string
	carbon, category, process, description string
	tags                                   []string
}

var sampleListings = []sampleListing{
	{"Punjab, India", "Rice Straw", "50 tons", "₹8,500/ton", "145 kg CO₂", "Crop Residue", "Composting",
		"High-quality rice straw, perfect for composting and biofuel production.", []string{"organic", "fresh", "bulk"}},
	{"Haryana, India", "Wheat Straw", "30 tons", "₹7,200/ton", "120 kg CO₂", "Crop Residue", "Biofuel",
		"Dry wheat straw suitable for biomass pellets.", []string{"dry", "baled"}},
	{"Maharashtra, India", "Sugarcane Bagasse", "80 tons", "₹3,000/ton", "210 kg CO₂", "Processing Residue", "Paper Pulp",
		"Fresh bagasse from the current crushing season.", []string{"fibrous", "bulk"}},
	{"Andhra Pradesh, India", "Rice Husk", "1500 kg", "₹4/kg", "60 kg CO₂", "Processing Residue", "Biochar",
		"Clean rice husk from a local mill.", []string{"clean"}},
	{"Karnataka, India", "Coconut Husk", "20 tons", "₹2,500/ton", "75 kg CO₂", "Fruit Residue", "Coir",
		"Sun-dried coconut husk for coir and growing media.", []string{"dried"}},
}

// sampleInputs turns the first n samples into listing inputs.
func sampleInputs(n int) []services.ListingInput {
	if n > len(sampleListings) {
		n = len(sampleListings)
	}
	inputs := make([]services.ListingInput, 0, n)
	for _, s := range sampleListings[:n] {
		s := s
		inputs = append(inputs, services.ListingInput{
			Location:        &s.location,
			WasteType:       &s.wasteType,
			Quantity:        &s.quantity,
			Price:           &s.price,
			CarbonSaving:    &s.carbon,
			CO2Footprint:    &s.carbon,
			Category:        &s.category,
			ExpectedProcess: &s.process,
			Description:     &s.description,
			Tags:            s.tags,
		})
	}
	return inputs
}

func newSeedCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "seed <farmer-email>",
		Short: "Create sample Active listings owned by a farmer account",
		Args: cobra.MatchAll(cobra.ExactArgs(1), func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1")
			}
			return nil
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			users := services.NewUserService(a.db)
			farmer, err := users.FindByEmail(ctx, strings.TrimSpace(args[0]))
			if err != nil {
				return fmt.Errorf("find farmer %s: %w", args[0], err)
			}
			role, err := users.ResolveRole(ctx, farmer)
			if err != nil {
				return err
			}
			if role != models.RoleFarmer {
				return fmt.Errorf("%s is a %s account, not a farmer", farmer.Email, role)
			}

			listings := services.NewListingService(a.db, users, nil, nil)
			for _, in := range sampleInputs(count) {
				listing, err := listings.CreateListing(ctx, farmer.ID, in)
				if err != nil {
					return fmt.Errorf("create sample %s: %w", *in.WasteType, err)
				}
				cmd.Printf("Created listing %s (%s, %s)\n", listing.ID.Hex(), listing.WasteType, listing.Quantity)
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&count, "count", len(sampleListings), "number of sample listings to create")
	return cmd
}

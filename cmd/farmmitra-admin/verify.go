package main

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sushil-kumar-saw/mitra-farm/internal/db"
	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
)

type countCheck struct {
	label      string
	collection string
	filter     bson.M
}

var verifyChecks = []countCheck{
	{"Users", db.UsersCollection, bson.M{}},
	{"Farmer profiles", db.FarmersCollection, bson.M{}},
	{"Buyer profiles", db.BuyersCollection, bson.M{}},
	{"Listings", db.ListingsCollection, bson.M{}},
	{"  Active", db.ListingsCollection, bson.M{"status": models.ListingActive}},
	{"  Sold", db.ListingsCollection, bson.M{"status": models.ListingSold}},
	{"  Missing farmer", db.ListingsCollection, bson.M{"$or": bson.A{
		bson.M{"farmer_id": bson.M{"$exists": false}},
		bson.M{"farmer_id": nil},
	}}},
	{"Purchases", db.PurchasesCollection, bson.M{}},
	{"Inquiries", db.InquiriesCollection, bson.M{}},
	{"Community posts", db.CommunityPostsCollection, bson.M{}},
}

func runVerify(ctx context.Context, database *mongo.Database, out io.Writer) error {
	for _, check := range verifyChecks {
		n, err := database.Collection(check.collection).CountDocuments(ctx, check.filter)
		if err != nil {
			return fmt.Errorf("count %s: %w", check.collection, err)
		}
		fmt.Fprintf(out, "%-18s %d\n", check.label+":", n)
	}
	return nil
}

func newVerifyCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "verify",
		Short: "Print document counts for every collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerify(cmd.Context(), a.db, cmd.OutOrStdout())
		},
	}
}

package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/sushil-kumar-saw/mitra-farm/internal/config"
	"github.com/sushil-kumar-saw/mitra-farm/internal/db"
)

// app holds the connections shared by every subcommand.
type app struct {
	cfg    *config.Config
	client *mongo.Client
	db     *mongo.Database
	cancel context.CancelFunc
}

// close releases whatever PersistentPreRunE managed to open. It runs after
// Execute returns, since cobra skips post-run hooks when a command fails.
func (a *app) close() error {
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	client := a.client
	a.client, a.db = nil, nil
	return db.DisconnectDB(client)
}

func newRootCmd(a *app) *cobra.Command {
	var timeout time.Duration

	root := &cobra.Command{
		Use:           "farmmitra-admin",
		Short:         "Maintenance commands for the FarmMitra database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load("admin")
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			client, database, err := db.ConnectDB(cfg.MongoURI, cfg.MongoDbName)
			if err != nil {
				return err
			}
			a.cfg, a.client, a.db = cfg, client, database

			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			a.cancel = cancel
			cmd.SetContext(ctx)
			return db.EnsureIndexes(ctx, database)
		},
	}
	root.PersistentFlags().DurationVar(&timeout, "timeout", time.Minute, "overall deadline for the command")

	root.AddCommand(
		newCreateUserCmd(a),
		newResetPasswordCmd(a),
		newSeedCmd(a),
		newVerifyCmd(a),
	)
	return root
}

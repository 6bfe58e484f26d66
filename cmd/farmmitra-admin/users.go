package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sushil-kumar-saw/mitra-farm/internal/models"
	"github.com/sushil-kumar-saw/mitra-farm/internal/services"
)

func newCreateUserCmd(a *app) *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "create-user",
		Short: "Create an account, or reset its password if it already exists",
		Args: cobra.MatchAll(cobra.NoArgs, func(cmd *cobra.Command, args []string) error {
			if !models.Role(role).Valid() {
				return fmt.Errorf("invalid role %q: must be farmer or buyer", role)
			}
			return nil
		}),
		RunE: func(cmd *cobra.Command, args []string) error {
			users := services.NewUserService(a.db)
			_, err := users.Register(cmd.Context(), name, email, password, models.Role(role))
			switch {
			case err == nil:
				cmd.Printf("Created %s account %s\n", role, email)
			case errors.Is(err, services.ErrEmailExists):
				if err := users.ResetPassword(cmd.Context(), strings.TrimSpace(email), password); err != nil {
					return err
				}
				cmd.Printf("Account %s already existed, password updated\n", email)
			default:
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "Test User", "display name")
	cmd.Flags().StringVar(&email, "email", "test@test.com", "login e-mail")
	cmd.Flags().StringVar(&password, "password", "test123", "login password")
	cmd.Flags().StringVar(&role, "role", string(models.RoleFarmer), "farmer or buyer")
	return cmd
}

func newResetPasswordCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <email> [new-password]",
		Short: "Set a new password for an existing account",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			email := strings.TrimSpace(args[0])
			password := "password123"
			if len(args) == 2 {
				password = args[1]
			}
			users := services.NewUserService(a.db)
			if err := users.ResetPassword(cmd.Context(), email, password); err != nil {
				if errors.Is(err, services.ErrUserNotFound) {
					return fmt.Errorf("no account with e-mail %s", email)
				}
				return err
			}
			cmd.Printf("Password reset for %s\n", email)
			return nil
		},
	}
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/currentsee/internal/auth"
	"github.com/mmynk/currentsee/internal/storage/backend"
)

var (
	adminEmail    string
	adminName     string
	adminPassword string
)

var adminCmd = &cobra.Command{
	Use:   "admin",
	Short: "Manage admin accounts",
}

var adminCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an admin account",
	Long: `Create an admin who can log in to the admin RPC service.

Passwords must be at least 8 characters. The display name defaults to the email.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := backend.FromConfig(ctx, cfg)
		if err != nil {
			return err
		}
		defer store.Close()

		admin, err := auth.NewPasswordAuthenticator(store).Register(ctx, adminEmail, adminName, adminPassword)
		if errors.Is(err, auth.ErrEmailExists) {
			return fmt.Errorf("admin %s already exists", adminEmail)
		}
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Created admin %s (%s)\n", admin.Email, admin.ID)
		return nil
	},
}

func init() {
	adminCreateCmd.Flags().StringVar(&adminEmail, "email", "", "Admin email (required)")
	adminCreateCmd.Flags().StringVar(&adminName, "name", "", "Display name")
	adminCreateCmd.Flags().StringVar(&adminPassword, "password", "", "Password (required)")
	_ = adminCreateCmd.MarkFlagRequired("email")
	_ = adminCreateCmd.MarkFlagRequired("password")

	adminCmd.AddCommand(adminCreateCmd)
}

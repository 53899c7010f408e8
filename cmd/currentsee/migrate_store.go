package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mmynk/currentsee/internal/storage"
	"github.com/mmynk/currentsee/internal/storage/backend"
)

var (
	fromDriver string
	fromLoc    string
	toDriver   string
	toLoc      string
)

var migrateStoreCmd = &cobra.Command{
	Use:   "migrate-store",
	Short: "Copy members and admins between storage backends",
	Long: `Copy every member and admin from one backend to another, for example from
a members.json file into SQLite or Postgres:

  currentsee migrate-store --from-driver json --from ./data/members.json \
    --to-driver postgres --to postgres://localhost/currentsee

Records whose email already exists in the target are skipped, so the command
can be re-run. --to defaults to the configured location for --to-driver.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if toLoc == "" {
			toLoc = backend.Location(cfg, toDriver)
		}

		src, err := backend.Open(ctx, fromDriver, fromLoc)
		if err != nil {
			return err
		}
		defer src.Close()

		dst, err := backend.Open(ctx, toDriver, toLoc)
		if err != nil {
			return err
		}
		defer dst.Close()

		res, err := storage.Copy(ctx, dst, src)
		if err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Copied %d members (%d skipped), %d admins (%d skipped)\n",
			res.Members, res.MembersSkipped, res.Admins, res.AdminsSkipped)
		return nil
	},
}

func init() {
	migrateStoreCmd.Flags().StringVar(&fromDriver, "from-driver", "json", "Source driver: sqlite, postgres, json")
	migrateStoreCmd.Flags().StringVar(&fromLoc, "from", "", "Source path or URL (required)")
	migrateStoreCmd.Flags().StringVar(&toDriver, "to-driver", "sqlite", "Target driver: sqlite, postgres, json")
	migrateStoreCmd.Flags().StringVar(&toLoc, "to", "", "Target path or URL")
	_ = migrateStoreCmd.MarkFlagRequired("from")
}

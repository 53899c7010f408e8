// Command currentsee runs The Current-See backend: the public member and
// marketplace API, the admin RPC service and the daily SOLAR distribution.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmynk/currentsee/internal/config"
	"github.com/mmynk/currentsee/pkg/logging"
)

var (
	cfg      *config.Config
	closeLog func() error
)

var rootCmd = &cobra.Command{
	Use:   "currentsee",
	Short: "The Current-See SOLAR backend",
	Long: `currentsee tracks members of The Current-See, credits each eligible member
one SOLAR per day, and stores marketplace artifacts with previews.

Configuration is read from the environment and an optional .env file.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return err
		}
		closeLog, err = logging.Setup(logging.Options{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
			File:   cfg.LogFile,
		})
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			_ = closeLog()
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(distributeCmd)
	rootCmd.AddCommand(adminCmd)
	rootCmd.AddCommand(migrateStoreCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

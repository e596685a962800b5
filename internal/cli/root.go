// Package cli implements the hubsync command line interface.
package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "hubsync",
		Short: "Game server synchronization agent",
		Long: `hubsync mirrors bans, warnings, group memberships, rewards and playtime
between a game server and a remote account-management service.

Configuration is read from config.yaml (working directory or config/) and
HUBSYNC_-prefixed environment variables.`,
		SilenceUsage: true,
	}

	rootCmd.AddCommand(newRunCmd())
	rootCmd.AddCommand(newWarnCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

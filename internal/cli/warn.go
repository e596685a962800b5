package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/hubsync/hubsync/internal/config"
	"github.com/hubsync/hubsync/internal/model"
)

func newWarnCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "warn <player-id> <reason>",
		Short: "Record a warning against a player",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

			app, err := newApp(cfg, logger)
			if err != nil {
				return fmt.Errorf("create application: %w", err)
			}

			info, err := app.Remote.GetServer(cmd.Context())
			if err != nil {
				return fmt.Errorf("cannot connect to remote service: %w", err)
			}
			app.Remote.SetServerBundle(info.ServerBundleID)

			playerID := model.PlayerID(args[0])
			if err := app.Warnings.Warn(cmd.Context(), playerID, args[1]); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "warned %s: %s\n", playerID, args[1])
			return nil
		},
	}
}

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/atinylittleshell/sfctl-ai/internal/appupdate"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Install the latest sfctl-ai release",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			exePath, err := os.Executable()
			if err != nil {
				return fmt.Errorf("cannot locate the running executable: %w", err)
			}

			version, err := appupdate.Upgrade(cmd.Context(), BUILD_VERSION, exePath, appupdate.DefaultUpdater{}, zap.NewNop())
			if err != nil {
				return err
			}
			if version == "" {
				fmt.Fprintf(cmd.OutOrStdout(), "sfctl-ai %s is up to date\n", BUILD_VERSION)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "updated sfctl-ai to %s\n", version)
			return nil
		},
	}
}

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/atinylittleshell/sfctl-ai/internal/classify"
)

func newClassifyCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "classify <command...>",
		Short: "Show how a command would be classified",
		Long: `Show whether a command is treated as read, write or unknown for the
configured shell, and whether it would need approval.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, flags)
			if err != nil {
				return err
			}

			command := strings.Join(args, " ")
			kind := classify.ForDialect(cfg.Shell)(command)
			needsApproval := cfg.AlwaysConfirm() || kind.RequiresConfirmation()

			approval := "no"
			if needsApproval {
				approval = "yes"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\tapproval required: %s\n", cfg.Shell, kind, approval)
			return nil
		},
	}
}

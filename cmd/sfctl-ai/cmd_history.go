package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/atinylittleshell/sfctl-ai/internal/core"
	"github.com/atinylittleshell/sfctl-ai/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var (
		limit  int
		search string
		reset  bool
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List commands from the audit ledger",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ledger, err := history.NewManager(core.HistoryFile(), nil)
			if err != nil {
				return err
			}
			defer ledger.Close()

			if reset {
				if err := ledger.Reset(); err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), "ledger cleared")
				return nil
			}

			var entries []history.Entry
			if search != "" {
				entries, err = ledger.Search(search, limit)
			} else {
				entries, err = ledger.Recent(limit)
			}
			if err != nil {
				return err
			}

			if len(entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "no commands recorded")
				return nil
			}

			lines := lo.Map(entries, func(entry history.Entry, _ int) string {
				return formatEntry(entry)
			})
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(lines, "\n"))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of entries")
	cmd.Flags().StringVarP(&search, "search", "s", "", "fuzzy search commands")
	cmd.Flags().BoolVar(&reset, "clear", false, "delete all entries")

	return cmd
}

func formatEntry(entry history.Entry) string {
	status := "declined"
	if entry.Approved {
		status = "ran"
		if !entry.Complete {
			status = "ran (incomplete)"
		}
	}
	return fmt.Sprintf("%5d  %-14s  %-16s  %-7s  %s",
		entry.ID,
		humanize.Time(entry.CreatedAt),
		status,
		entry.Classification,
		firstLine(entry.Command))
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}

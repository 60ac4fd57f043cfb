package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"

	"discripper/internal/services"
)

func newHistoryCommand(cctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent rip runs from the journal",
		RunE: func(cmd *cobra.Command, args []string) error {
			jnl, err := cctx.openJournal()
			if err != nil {
				return err
			}
			if jnl == nil {
				return services.Wrap(services.ErrConfiguration, "history", "journal",
					"journaling is disabled; set journal.enabled in the config", nil)
			}
			defer jnl.Close()

			runs, err := jnl.RecentRuns(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				cmd.Println("No rip runs recorded.")
				return nil
			}

			rows := make([][]string, 0, len(runs))
			for _, run := range runs {
				rows = append(rows, []string{
					run.StartedAt.Local().Format(time.DateTime),
					run.Device,
					run.Title,
					run.MediaType,
					run.Status,
					strconv.Itoa(run.TitlesRipped),
					strconv.Itoa(run.ExitCode),
				})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Started", "Device", "Title", "Type", "Status", "Titles", "Exit"},
				rows, 5, 6,
			))
			return nil
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of runs to show")
	return cmd
}

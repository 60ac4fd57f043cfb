package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"discripper/internal/drive"
)

func newWatchCommand(cctx *commandContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch <device>",
		Short: "Block until disc media is inserted into a device",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := cctx.ensureLogger()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := drive.WaitForInsertion(ctx, logger, args[0]); err != nil {
				return err
			}
			cmd.Printf("Disc media detected in %s\n", args[0])
			return nil
		},
	}
	return cmd
}

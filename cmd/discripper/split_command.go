package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"discripper/internal/container"
	"discripper/internal/services"
)

func newSplitCommand(cctx *commandContext) *cobra.Command {
	var filename string

	cmd := &cobra.Command{
		Use:   "split -f <file> <chapter-index>...",
		Short: "Split an MKV into separate files at chapter indices",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cctx.ensureLogger()
			if err != nil {
				return err
			}

			indices := make([]int, 0, len(args))
			for _, arg := range args {
				n, err := strconv.Atoi(arg)
				if err != nil {
					return services.Wrap(services.ErrConfiguration, "split", "chapter index", arg, err)
				}
				indices = append(indices, n)
			}

			tools := container.Tools{
				Mkvmerge:    cfg.Tools.Mkvmerge,
				Mkvextract:  cfg.Tools.Mkvextract,
				Mkvpropedit: cfg.Tools.Mkvpropedit,
			}
			c, err := container.Open(cmd.Context(), filename, tools, logger)
			if err != nil {
				return err
			}
			return c.Split(cmd.Context(), indices, "")
		},
	}

	cmd.Flags().StringVarP(&filename, "filename", "f", "", "An MKV file to process")
	_ = cmd.MarkFlagRequired("filename")

	return cmd
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"discripper/internal/drive"
	"discripper/internal/ripping"
	"discripper/internal/services"
)

func newRipCommand(cctx *commandContext) *cobra.Command {
	var (
		devices       []string
		output        string
		minimum       int
		maximum       int
		videoTitle    string
		movieTitle    string
		showTitle     string
		season        int
		year          int
		noEject       bool
		remuxEnglish  bool
		remuxJapanese bool
		remuxSubs     bool
		remuxDubs     bool
		wait          bool
	)

	cmd := &cobra.Command{
		Use:   "rip",
		Short: "Rip discs from one or more devices concurrently",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := cctx.ensureConfig()
			if err != nil {
				return err
			}
			logger, err := cctx.ensureLogger()
			if err != nil {
				return err
			}

			mediaType := ripping.MediaGeneric
			title := videoTitle
			switch {
			case movieTitle != "":
				mediaType = ripping.MediaMovie
				title = movieTitle
			case showTitle != "":
				mediaType = ripping.MediaShow
				title = showTitle
			}

			profile := ripping.RemuxNone
			switch {
			case remuxEnglish:
				profile = ripping.RemuxEnglishOnly
			case remuxJapanese:
				profile = ripping.RemuxJapaneseOnly
			case remuxSubs:
				profile = ripping.RemuxAnimeSubs
			case remuxDubs:
				profile = ripping.RemuxAnimeDubs
			}

			if minimum <= 0 {
				switch mediaType {
				case ripping.MediaMovie:
					minimum = cfg.MakeMKV.MovieMinimumLength
				case ripping.MediaShow:
					minimum = cfg.MakeMKV.ShowMinimumLength
				default:
					minimum = 0
				}
			}

			if output == "" {
				output = cfg.Paths.OutputDir
			}

			deduped := drive.Deduplicate(devices, cfg.Devices.Root)
			if len(deduped) == 0 {
				return services.Wrap(services.ErrConfiguration, "rip", "devices",
					"no usable block devices were given", nil)
			}

			if err := os.MkdirAll(cfg.Paths.LockDir, 0o755); err != nil {
				return fmt.Errorf("ensure lock directory: %w", err)
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if wait {
				if err := waitForDiscs(ctx, logger, deduped); err != nil {
					return err
				}
			}

			jnl, err := cctx.openJournal()
			if err != nil {
				return err
			}
			defer jnl.Close()

			rippers := make([]*ripping.Ripper, 0, len(deduped))
			for _, device := range deduped {
				job, err := ripping.NewJob(device, output, title, mediaType, ripping.JobOptions{
					Season:          season,
					Year:            year,
					MinimumDuration: minimum,
					MaximumDuration: maximum,
					Eject:           !noEject,
					Profile:         profile,
				})
				if err != nil {
					return err
				}
				r, err := ripping.New(job, cfg, logger, ripping.WithJournal(jnl))
				if err != nil {
					return err
				}
				rippers = append(rippers, r)
			}

			timeout := time.Duration(cfg.Rip.PipelineTimeout) * time.Second
			return ripping.RunAll(ctx, logger, rippers, timeout)
		},
	}

	cmd.Flags().StringSliceVarP(&devices, "devices", "d", nil, "Disc devices to rip from")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Root output directory")
	cmd.Flags().IntVarP(&minimum, "minimum", "m", 0, "Minimum content duration in seconds")
	cmd.Flags().IntVarP(&maximum, "maximum", "x", 99999, "Maximum content duration in seconds")
	cmd.Flags().StringVar(&videoTitle, "video", "", "Process content as generic video with the given title")
	cmd.Flags().StringVar(&movieTitle, "movie", "", "Process content as a movie with the given title")
	cmd.Flags().StringVar(&showTitle, "show", "", "Process content as a show with the given title")
	cmd.Flags().IntVar(&season, "season", ripping.SeasonUnset, "Season number for show episodes (0 means specials)")
	cmd.Flags().IntVar(&year, "year", 0, "Air year, appended to the output folder name")
	cmd.Flags().BoolVar(&noEject, "no-eject", false, "Do not eject the disc regardless of ripping status")
	cmd.Flags().BoolVar(&remuxEnglish, "remux-english", false, "Keep only English audio and subtitles")
	cmd.Flags().BoolVar(&remuxJapanese, "remux-japanese", false, "Keep only Japanese audio and subtitles")
	cmd.Flags().BoolVar(&remuxSubs, "remux-subs", false, "Keep English and Japanese streams, prefer Japanese audio with English subtitles")
	cmd.Flags().BoolVar(&remuxDubs, "remux-dubs", false, "Keep English and Japanese streams, prefer English audio")
	cmd.Flags().BoolVar(&wait, "wait", false, "Wait for disc insertion on each device before ripping")

	_ = cmd.MarkFlagRequired("devices")
	cmd.MarkFlagsOneRequired("video", "movie", "show")
	cmd.MarkFlagsMutuallyExclusive("video", "movie", "show")
	cmd.MarkFlagsMutuallyExclusive("remux-english", "remux-japanese", "remux-subs", "remux-dubs")

	return cmd
}

// waitForDiscs blocks until every device reports inserted media.
func waitForDiscs(ctx context.Context, logger *slog.Logger, devices []string) error {
	group, groupCtx := errgroup.WithContext(ctx)
	for _, device := range devices {
		device := device
		group.Go(func() error {
			return drive.WaitForInsertion(groupCtx, logger, device)
		})
	}
	return group.Wait()
}
